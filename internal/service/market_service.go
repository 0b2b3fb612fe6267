// Package service fronts the read side of the system: normalized market
// records served through the snapshot cache, and event-market correlation
// over the curated calendar.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/alanyoungcy/marketcal/internal/calendar"
	"github.com/alanyoungcy/marketcal/internal/correlate"
	"github.com/alanyoungcy/marketcal/internal/domain"
)

// snapshotLimit caps how many records one snapshot holds. Markets are served
// highest volume first, so the cap keeps the interesting ones.
const snapshotLimit = 1000

// MarketService serves market records and correlation matches.
type MarketService struct {
	markets domain.MarketStore
	cache   domain.SnapshotCache // nil disables the read-through cache
	logger  *slog.Logger
}

// NewMarketService creates a MarketService. cache may be nil.
func NewMarketService(markets domain.MarketStore, cache domain.SnapshotCache, logger *slog.Logger) *MarketService {
	return &MarketService{
		markets: markets,
		cache:   cache,
		logger:  logger.With(slog.String("component", "market_service")),
	}
}

// Records returns persisted market records windowed by opts, reading through
// the snapshot cache when one is attached. Cache problems degrade to a
// direct store read, never to an error.
func (s *MarketService) Records(ctx context.Context, opts domain.ListOpts) ([]domain.MarketRecord, error) {
	all, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return window(all, opts), nil
}

// Matches correlates the curated calendar against the current market set.
func (s *MarketService) Matches(ctx context.Context) ([]domain.Match, error) {
	return s.matchEvents(ctx, calendar.MajorEvents())
}

// MatchesFor correlates only the calendar events matching the query. An
// empty query behaves like Matches.
func (s *MarketService) MatchesFor(ctx context.Context, query string) ([]domain.Match, error) {
	if query == "" {
		return s.Matches(ctx)
	}
	return s.matchEvents(ctx, calendar.Search(query))
}

func (s *MarketService) matchEvents(ctx context.Context, events []domain.CalendarEvent) ([]domain.Match, error) {
	if len(events) == 0 {
		return nil, nil
	}
	markets, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return correlate.Correlate(events, markets), nil
}

// snapshot returns the full market set, filling the cache on a miss.
func (s *MarketService) snapshot(ctx context.Context) ([]domain.MarketRecord, error) {
	if s.cache != nil {
		records, err := s.cache.GetMarkets(ctx)
		if err == nil {
			return records, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.WarnContext(ctx, "snapshot cache read failed",
				slog.String("error", err.Error()),
			)
		}
	}

	records, err := s.markets.ListRecords(ctx, domain.ListOpts{Limit: snapshotLimit})
	if err != nil {
		return nil, fmt.Errorf("service: list market records: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.SetMarkets(ctx, records); err != nil {
			s.logger.WarnContext(ctx, "snapshot cache fill failed",
				slog.String("error", err.Error()),
			)
		}
	}
	return records, nil
}

// window applies limit/offset to an already-materialized record set.
func window(records []domain.MarketRecord, opts domain.ListOpts) []domain.MarketRecord {
	if opts.Offset > 0 {
		if opts.Offset >= len(records) {
			return nil
		}
		records = records[opts.Offset:]
	}
	if opts.Limit > 0 && opts.Limit < len(records) {
		records = records[:opts.Limit]
	}
	return records
}
