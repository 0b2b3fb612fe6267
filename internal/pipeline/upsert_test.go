package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/marketcal/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func floatPtr(f float64) *float64 { return &f }

// fakeMarketStore is an in-memory MarketStore with failure injection.
type fakeMarketStore struct {
	mu      sync.Mutex
	nextID  int64
	rows    map[string]domain.MarketLookup
	inserts int
	updates int

	failInsertOn string // external id that triggers an insert failure
}

func newFakeMarketStore() *fakeMarketStore {
	return &fakeMarketStore{rows: make(map[string]domain.MarketLookup)}
}

func key(sourceID int64, externalID string) string {
	return fmt.Sprintf("%d/%s", sourceID, externalID)
}

func (s *fakeMarketStore) Lookup(_ context.Context, sourceID int64, externalID string) (domain.MarketLookup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[key(sourceID, externalID)]
	if !ok {
		return domain.MarketLookup{}, domain.ErrNotFound
	}
	return row, nil
}

func (s *fakeMarketStore) Insert(_ context.Context, sourceID int64, rec domain.MarketRecord) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec.ExternalID == s.failInsertOn {
		return 0, fmt.Errorf("fake store: write refused for %s", rec.ExternalID)
	}
	s.nextID++
	s.rows[key(sourceID, rec.ExternalID)] = domain.MarketLookup{
		ID:          s.nextID,
		Probability: rec.Probability,
		Volume:      rec.Volume,
	}
	s.inserts++
	return s.nextID, nil
}

func (s *fakeMarketStore) Update(_ context.Context, id int64, rec domain.MarketRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, row := range s.rows {
		if row.ID == id {
			row.Probability = rec.Probability
			row.Volume = rec.Volume
			s.rows[k] = row
			s.updates++
			return nil
		}
	}
	return domain.ErrNotFound
}

func (s *fakeMarketStore) ListRecords(context.Context, domain.ListOpts) ([]domain.MarketRecord, error) {
	return nil, nil
}

func (s *fakeMarketStore) Count(context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.rows)), nil
}

func (s *fakeMarketStore) PrunePriceHistory(context.Context, time.Duration) (int64, error) {
	return 0, nil
}

func TestUpsertInsertsFirstSight(t *testing.T) {
	store := newFakeMarketStore()
	engine := NewUpsertEngine(store, testLogger())

	rec := domain.MarketRecord{
		ExternalID:  "mkt-1",
		Platform:    domain.PlatformPolymarket,
		Title:       "First sight",
		Probability: floatPtr(0.4),
		Volume:      100,
	}

	action, err := engine.Upsert(context.Background(), 1, rec)
	require.NoError(t, err)
	assert.Equal(t, ActionAdded, action)
	assert.Equal(t, 1, store.inserts)
}

func TestUpsertIsIdempotent(t *testing.T) {
	store := newFakeMarketStore()
	engine := NewUpsertEngine(store, testLogger())
	ctx := context.Background()

	page := []domain.MarketRecord{
		{ExternalID: "a", Platform: domain.PlatformPolymarket, Probability: floatPtr(0.5), Volume: 100},
		{ExternalID: "b", Platform: domain.PlatformPolymarket, Probability: floatPtr(0.3), Volume: 50},
	}

	for run := 0; run < 3; run++ {
		for _, rec := range page {
			_, err := engine.Upsert(ctx, 1, rec)
			require.NoError(t, err)
		}
	}

	assert.Equal(t, 2, store.inserts, "each market inserted exactly once")
	assert.Equal(t, 0, store.updates, "unchanged source data produces zero updates")
}

func TestUpsertStalenessThreshold(t *testing.T) {
	store := newFakeMarketStore()
	engine := NewUpsertEngine(store, testLogger())
	ctx := context.Background()

	base := domain.MarketRecord{
		ExternalID:  "mkt",
		Platform:    domain.PlatformPolymarket,
		Probability: floatPtr(0.40),
		Volume:      100,
	}
	_, err := engine.Upsert(ctx, 1, base)
	require.NoError(t, err)

	// 0.40 -> 0.405 is below the 1% threshold.
	small := base
	small.Probability = floatPtr(0.405)
	action, err := engine.Upsert(ctx, 1, small)
	require.NoError(t, err)
	assert.Equal(t, ActionSkipped, action)
	assert.Equal(t, 0, store.updates)

	// 0.40 -> 0.46 is a material move.
	big := base
	big.Probability = floatPtr(0.46)
	action, err = engine.Upsert(ctx, 1, big)
	require.NoError(t, err)
	assert.Equal(t, ActionUpdated, action)
	assert.Equal(t, 1, store.updates)
}

func TestShouldUpdateVolumeRatio(t *testing.T) {
	existing := domain.MarketLookup{ID: 1, Probability: floatPtr(0.5), Volume: 100}

	rec := domain.MarketRecord{Platform: domain.PlatformPolymarket, Probability: floatPtr(0.5), Volume: 109}
	assert.False(t, shouldUpdate(existing, rec, ThresholdsFor(domain.PlatformPolymarket)),
		"9%% growth is under the polymarket 10%% ratio")

	rec.Volume = 111
	assert.True(t, shouldUpdate(existing, rec, ThresholdsFor(domain.PlatformPolymarket)))

	rec.Platform = domain.PlatformFortyTwo
	rec.Volume = 106
	assert.True(t, shouldUpdate(existing, rec, ThresholdsFor(domain.PlatformFortyTwo)),
		"6%% growth exceeds the 42.space 5%% ratio")
}

func TestShouldUpdateFirstProbability(t *testing.T) {
	existing := domain.MarketLookup{ID: 1, Probability: nil, Volume: 100}
	rec := domain.MarketRecord{Platform: domain.PlatformPolymarket, Probability: floatPtr(0.5), Volume: 100}
	assert.True(t, shouldUpdate(existing, rec, ThresholdsFor(domain.PlatformPolymarket)),
		"a probability appearing for the first time is a material change")
}

func TestShouldUpdateNoProbabilityNoGrowth(t *testing.T) {
	existing := domain.MarketLookup{ID: 1, Probability: floatPtr(0.5), Volume: 100}
	rec := domain.MarketRecord{Platform: domain.PlatformFortyTwo, Volume: 100}
	assert.False(t, shouldUpdate(existing, rec, ThresholdsFor(domain.PlatformFortyTwo)))
}

func TestUpsertPropagatesPersistenceError(t *testing.T) {
	store := newFakeMarketStore()
	store.failInsertOn = "bad"
	engine := NewUpsertEngine(store, testLogger())

	_, err := engine.Upsert(context.Background(), 1, domain.MarketRecord{ExternalID: "bad"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "write refused")
}
