package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alanyoungcy/marketcal/internal/domain"
)

const (
	snapshotKey = "markets:snapshot"
	snapshotTTL = 10 * time.Minute
)

// SnapshotCache implements domain.SnapshotCache with one JSON blob holding
// the latest normalized market set. Correlation and the API read from here
// between syncs; every completed sync invalidates it.
type SnapshotCache struct {
	rdb *redis.Client
}

// NewSnapshotCache creates a SnapshotCache backed by the given Client.
func NewSnapshotCache(c *Client) *SnapshotCache {
	return &SnapshotCache{rdb: c.Underlying()}
}

// SetMarkets stores the market set with a 10-minute TTL.
func (sc *SnapshotCache) SetMarkets(ctx context.Context, records []domain.MarketRecord) error {
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("redis: marshal market snapshot: %w", err)
	}
	if err := sc.rdb.Set(ctx, snapshotKey, data, snapshotTTL).Err(); err != nil {
		return fmt.Errorf("redis: set market snapshot: %w", err)
	}
	return nil
}

// GetMarkets returns the cached market set, or domain.ErrNotFound when no
// snapshot is cached.
func (sc *SnapshotCache) GetMarkets(ctx context.Context) ([]domain.MarketRecord, error) {
	data, err := sc.rdb.Get(ctx, snapshotKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("redis: get market snapshot: %w", err)
	}

	var records []domain.MarketRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("redis: unmarshal market snapshot: %w", err)
	}
	return records, nil
}

// Invalidate drops the snapshot so the next reader refills it from the store.
func (sc *SnapshotCache) Invalidate(ctx context.Context) error {
	if err := sc.rdb.Del(ctx, snapshotKey).Err(); err != nil {
		return fmt.Errorf("redis: invalidate market snapshot: %w", err)
	}
	return nil
}

// Compile-time interface check.
var _ domain.SnapshotCache = (*SnapshotCache)(nil)
