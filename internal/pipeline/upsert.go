package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/alanyoungcy/marketcal/internal/domain"
)

// UpsertAction is what the engine decided to do with one record.
type UpsertAction int

const (
	ActionSkipped UpsertAction = iota
	ActionAdded
	ActionUpdated
)

func (a UpsertAction) String() string {
	switch a {
	case ActionAdded:
		return "added"
	case ActionUpdated:
		return "updated"
	default:
		return "skipped"
	}
}

// Thresholds is the per-platform staleness policy: a re-observed market is
// written only when it has moved materially.
type Thresholds struct {
	// ProbabilityDelta is the minimum absolute probability move that
	// triggers an update.
	ProbabilityDelta float64

	// VolumeRatio is the multiplier the new volume must exceed the stored
	// volume by to trigger an update.
	VolumeRatio float64
}

// ThresholdsFor returns the staleness policy for a platform. On-chain
// volume figures move in coarser steps, so the 42.space ratio is tighter.
func ThresholdsFor(p domain.Platform) Thresholds {
	switch p {
	case domain.PlatformFortyTwo:
		return Thresholds{ProbabilityDelta: 0.01, VolumeRatio: 1.05}
	default:
		return Thresholds{ProbabilityDelta: 0.01, VolumeRatio: 1.10}
	}
}

// UpsertEngine decides insert vs. conditional update vs. no-op for each
// canonical record. All row writes happen inside the store, one transaction
// per record, so a failure never leaves partial market rows behind.
type UpsertEngine struct {
	markets domain.MarketStore
	logger  *slog.Logger
}

// NewUpsertEngine creates an UpsertEngine backed by the given store.
func NewUpsertEngine(markets domain.MarketStore, logger *slog.Logger) *UpsertEngine {
	return &UpsertEngine{
		markets: markets,
		logger:  logger.With(slog.String("component", "upsert")),
	}
}

// Upsert looks the record up by its natural key (sourceID, externalID) and
// inserts, conditionally updates, or skips it. Persistence errors propagate
// to the caller; they are never absorbed here.
func (e *UpsertEngine) Upsert(ctx context.Context, sourceID int64, rec domain.MarketRecord) (UpsertAction, error) {
	existing, err := e.markets.Lookup(ctx, sourceID, rec.ExternalID)
	if errors.Is(err, domain.ErrNotFound) {
		if _, err := e.markets.Insert(ctx, sourceID, rec); err != nil {
			return ActionSkipped, fmt.Errorf("pipeline: insert market %s: %w", rec.ExternalID, err)
		}
		return ActionAdded, nil
	}
	if err != nil {
		return ActionSkipped, fmt.Errorf("pipeline: lookup market %s: %w", rec.ExternalID, err)
	}

	if !shouldUpdate(existing, rec, ThresholdsFor(rec.Platform)) {
		return ActionSkipped, nil
	}

	if err := e.markets.Update(ctx, existing.ID, rec); err != nil {
		return ActionSkipped, fmt.Errorf("pipeline: update market %s: %w", rec.ExternalID, err)
	}
	return ActionUpdated, nil
}

// shouldUpdate applies the staleness policy. Either predicate triggers a
// write: a material probability move, or volume growth past the platform's
// ratio. A record whose probability appears for the first time also counts
// as a move.
func shouldUpdate(existing domain.MarketLookup, rec domain.MarketRecord, t Thresholds) bool {
	if rec.Probability != nil {
		if existing.Probability == nil {
			return true
		}
		if math.Abs(*rec.Probability-*existing.Probability) > t.ProbabilityDelta {
			return true
		}
	}
	return rec.Volume > existing.Volume*t.VolumeRatio
}
