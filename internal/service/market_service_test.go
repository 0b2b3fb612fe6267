package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/marketcal/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubStore struct {
	records []domain.MarketRecord
	calls   int
}

func (s *stubStore) Lookup(context.Context, int64, string) (domain.MarketLookup, error) {
	return domain.MarketLookup{}, domain.ErrNotFound
}
func (s *stubStore) Insert(context.Context, int64, domain.MarketRecord) (int64, error) {
	return 0, nil
}
func (s *stubStore) Update(context.Context, int64, domain.MarketRecord) error { return nil }
func (s *stubStore) Count(context.Context) (int64, error)                     { return 0, nil }
func (s *stubStore) PrunePriceHistory(context.Context, time.Duration) (int64, error) {
	return 0, nil
}

func (s *stubStore) ListRecords(context.Context, domain.ListOpts) ([]domain.MarketRecord, error) {
	s.calls++
	return s.records, nil
}

type stubCache struct {
	records []domain.MarketRecord
	filled  int
	broken  bool
}

func (c *stubCache) GetMarkets(context.Context) ([]domain.MarketRecord, error) {
	if c.broken {
		return nil, errors.New("cache offline")
	}
	if c.records == nil {
		return nil, domain.ErrNotFound
	}
	return c.records, nil
}

func (c *stubCache) SetMarkets(_ context.Context, records []domain.MarketRecord) error {
	if c.broken {
		return errors.New("cache offline")
	}
	c.records = records
	c.filled++
	return nil
}

func (c *stubCache) Invalidate(context.Context) error {
	c.records = nil
	return nil
}

func sampleRecords(n int) []domain.MarketRecord {
	records := make([]domain.MarketRecord, n)
	for i := range records {
		records[i] = domain.MarketRecord{
			ExternalID: string(rune('a' + i)),
			Platform:   domain.PlatformPolymarket,
		}
	}
	return records
}

func TestRecordsFillsCacheOnMiss(t *testing.T) {
	store := &stubStore{records: sampleRecords(5)}
	cache := &stubCache{}
	svc := NewMarketService(store, cache, testLogger())
	ctx := context.Background()

	got, err := svc.Records(ctx, domain.ListOpts{})
	require.NoError(t, err)
	assert.Len(t, got, 5)
	assert.Equal(t, 1, store.calls)
	assert.Equal(t, 1, cache.filled)

	// Second read is served from the cache.
	_, err = svc.Records(ctx, domain.ListOpts{})
	require.NoError(t, err)
	assert.Equal(t, 1, store.calls, "store not hit again while the snapshot is warm")
}

func TestRecordsDegradesWhenCacheBroken(t *testing.T) {
	store := &stubStore{records: sampleRecords(3)}
	svc := NewMarketService(store, &stubCache{broken: true}, testLogger())

	got, err := svc.Records(context.Background(), domain.ListOpts{})
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestRecordsWindowing(t *testing.T) {
	store := &stubStore{records: sampleRecords(10)}
	svc := NewMarketService(store, nil, testLogger())
	ctx := context.Background()

	got, err := svc.Records(ctx, domain.ListOpts{Limit: 3, Offset: 2})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "c", got[0].ExternalID)

	got, err = svc.Records(ctx, domain.ListOpts{Offset: 50})
	require.NoError(t, err)
	assert.Empty(t, got, "offset past the end yields an empty window")
}

func TestMatchesFindsCorrelatedMarket(t *testing.T) {
	endDate := time.Date(2025, 4, 20, 0, 0, 0, 0, time.UTC)
	store := &stubStore{records: []domain.MarketRecord{
		{
			ExternalID:  "btc-halving",
			Platform:    domain.PlatformPolymarket,
			Title:       "Will the Bitcoin halving happen before May 2025?",
			Description: "Resolves on the fourth Bitcoin halving block.",
			Category:    "Crypto",
			EndDate:     &endDate,
		},
	}}
	svc := NewMarketService(store, nil, testLogger())

	matches, err := svc.MatchesFor(context.Background(), "halving")
	require.NoError(t, err)
	require.NotEmpty(t, matches)
	assert.Equal(t, "btc-halving", matches[0].Market.ExternalID)
	assert.Greater(t, matches[0].Score, 2)
}

func TestMatchesForUnknownQuery(t *testing.T) {
	store := &stubStore{records: sampleRecords(2)}
	svc := NewMarketService(store, nil, testLogger())

	matches, err := svc.MatchesFor(context.Background(), "zzzznotanevent")
	require.NoError(t, err)
	assert.Empty(t, matches)
	assert.Zero(t, store.calls, "no market read when no events match")
}
