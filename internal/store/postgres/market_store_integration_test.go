//go:build integration

package postgres

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/marketcal/internal/domain"
)

// Runs against a real database: go test -tags integration ./internal/store/postgres
// with MARKETCAL_TEST_DATABASE_DSN pointing at a disposable PostgreSQL instance.

func testClient(t *testing.T) *Client {
	t.Helper()
	dsn := os.Getenv("MARKETCAL_TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("MARKETCAL_TEST_DATABASE_DSN not set")
	}

	ctx := context.Background()
	client, err := New(ctx, ClientConfig{DSN: dsn})
	require.NoError(t, err)
	t.Cleanup(client.Close)
	require.NoError(t, client.RunMigrations(ctx))
	return client
}

func countPriceSamples(t *testing.T, client *Client, eventID int64) int {
	t.Helper()
	var n int
	err := client.Pool().QueryRow(context.Background(),
		`SELECT COUNT(*) FROM price_history WHERE event_id = $1`, eventID,
	).Scan(&n)
	require.NoError(t, err)
	return n
}

func TestUpdateDedupsPriceSamples(t *testing.T) {
	client := testClient(t)
	ctx := context.Background()

	sources := NewSourceStore(client.Pool())
	sourceID, err := sources.Ensure(ctx, domain.Source{
		Name:     "dedup-test-" + uuid.NewString(),
		APIType:  domain.PlatformPolymarket,
		IsActive: true,
	})
	require.NoError(t, err)

	store := NewMarketStore(client.Pool())
	price := 0.42
	rec := domain.MarketRecord{
		ExternalID:  uuid.NewString(),
		Platform:    domain.PlatformPolymarket,
		Title:       "Dedup window market",
		Slug:        "dedup-window-market-" + uuid.NewString(),
		Status:      domain.MarketStatusActive,
		Probability: &price,
		Volume:      1000,
	}

	eventID, err := store.Insert(ctx, sourceID, rec)
	require.NoError(t, err)
	require.Equal(t, 1, countPriceSamples(t, client, eventID),
		"insert should seed one price sample")

	// Same price inside the window is dropped.
	require.NoError(t, store.Update(ctx, eventID, rec))
	assert.Equal(t, 1, countPriceSamples(t, client, eventID))

	// A move smaller than the delta is still dropped.
	nudged := price + priceDedupDelta/2
	rec.Probability = &nudged
	require.NoError(t, store.Update(ctx, eventID, rec))
	assert.Equal(t, 1, countPriceSamples(t, client, eventID))

	// A move of at least the delta lands a new sample.
	moved := price + 2*priceDedupDelta
	rec.Probability = &moved
	require.NoError(t, store.Update(ctx, eventID, rec))
	assert.Equal(t, 2, countPriceSamples(t, client, eventID))
}

func TestUpdateAppendsAfterWindowExpires(t *testing.T) {
	client := testClient(t)
	ctx := context.Background()

	sources := NewSourceStore(client.Pool())
	sourceID, err := sources.Ensure(ctx, domain.Source{
		Name:     "window-test-" + uuid.NewString(),
		APIType:  domain.PlatformPolymarket,
		IsActive: true,
	})
	require.NoError(t, err)

	store := NewMarketStore(client.Pool())
	price := 0.5
	rec := domain.MarketRecord{
		ExternalID:  uuid.NewString(),
		Platform:    domain.PlatformPolymarket,
		Title:       "Stale sample market",
		Slug:        fmt.Sprintf("stale-sample-market-%s", uuid.NewString()),
		Status:      domain.MarketStatusActive,
		Probability: &price,
		Volume:      500,
	}

	eventID, err := store.Insert(ctx, sourceID, rec)
	require.NoError(t, err)

	// Age the seeded sample past the window so the next identical price
	// is appended rather than deduplicated.
	_, err = client.Pool().Exec(ctx,
		`UPDATE price_history SET timestamp = $2 WHERE event_id = $1`,
		eventID, time.Now().UTC().Add(-priceDedupWindow-time.Minute),
	)
	require.NoError(t, err)

	require.NoError(t, store.Update(ctx, eventID, rec))
	assert.Equal(t, 2, countPriceSamples(t, client, eventID))
}
