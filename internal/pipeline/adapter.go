// Package pipeline drives market ingestion: per-platform adapters feed the
// upsert engine through audited, lock-guarded sync runs.
package pipeline

import (
	"context"
	"fmt"

	"github.com/alanyoungcy/marketcal/internal/domain"
)

// Adapter is a platform-specific ingestion client. Implementations are
// stateless per call: FetchPage accepts an offset and returns either more
// data or a terminal signal, so a run is resumable from any page boundary.
type Adapter interface {
	// Platform identifies which source this adapter speaks to.
	Platform() domain.Platform

	// PageSize is how far the offset advances per fetched page.
	PageSize() int

	// MaxRecords is the per-run processing ceiling.
	MaxRecords() int

	// SeedCategories lists the default category rows to ensure before a run.
	SeedCategories() []domain.Category

	// FetchPage retrieves one page of normalized records starting at offset.
	// done reports the terminal page (short or empty). Individual malformed
	// records are skipped by the adapter, never surfaced as errors.
	FetchPage(ctx context.Context, offset int) ([]domain.MarketRecord, bool, error)
}

// Registry holds one adapter per platform, built at startup and read-only
// afterwards.
type Registry struct {
	byPlatform map[domain.Platform]Adapter
	order      []Adapter
}

// NewRegistry builds a registry from the given adapters. A duplicate
// platform panics: that is a wiring bug, not a runtime condition.
func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{byPlatform: make(map[domain.Platform]Adapter, len(adapters))}
	for _, a := range adapters {
		if _, dup := r.byPlatform[a.Platform()]; dup {
			panic(fmt.Sprintf("pipeline: duplicate adapter for platform %q", a.Platform()))
		}
		r.byPlatform[a.Platform()] = a
		r.order = append(r.order, a)
	}
	return r
}

// Get returns the adapter for a platform or ErrUnknownPlatform.
func (r *Registry) Get(p domain.Platform) (Adapter, error) {
	a, ok := r.byPlatform[p]
	if !ok {
		return nil, fmt.Errorf("pipeline: platform %q: %w", p, domain.ErrUnknownPlatform)
	}
	return a, nil
}

// All returns every registered adapter in registration order.
func (r *Registry) All() []Adapter {
	return r.order
}
