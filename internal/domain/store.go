package domain

import (
	"context"
	"io"
	"time"
)

// ListOpts provides pagination for list queries.
type ListOpts struct {
	Limit  int
	Offset int
}

// MarketStore persists canonical market records and owns every write to the
// event, event_metadata, outcome, outcome_metadata, taxonomy-link, and
// price_history tables. Insert and Update are each a single transaction;
// a failure rolls the whole record back.
type MarketStore interface {
	// Lookup resolves a market by its natural key (source_id, external_id).
	// Returns ErrNotFound when the market has never been seen.
	Lookup(ctx context.Context, sourceID int64, externalID string) (MarketLookup, error)

	// Insert writes a first-seen market: the event row, metadata, outcomes,
	// taxonomy links, and (when a probability is present) the initial
	// price-history sample, atomically. Returns the new row id.
	Insert(ctx context.Context, sourceID int64, rec MarketRecord) (int64, error)

	// Update refreshes the mutable fields of an existing market, refreshes
	// outcome probabilities, and appends a price-history sample unless a
	// near-identical sample (within 0.01) already exists in the last hour.
	Update(ctx context.Context, id int64, rec MarketRecord) error

	// ListRecords returns persisted markets from all sources, normalized
	// back to canonical records, for correlation and the API surface.
	ListRecords(ctx context.Context, opts ListOpts) ([]MarketRecord, error)

	Count(ctx context.Context) (int64, error)

	// PrunePriceHistory deletes price samples older than the retention
	// window and reports how many rows were removed.
	PrunePriceHistory(ctx context.Context, olderThan time.Duration) (int64, error)
}

// TaxonomyStore manages category and tag reference rows. All operations are
// upserts keyed by slug; concurrent creators of the same slug never produce
// duplicates, and links are idempotent.
type TaxonomyStore interface {
	EnsureCategory(ctx context.Context, cat Category) (int64, error)
	EnsureTag(ctx context.Context, name string) (int64, error)
	LinkCategory(ctx context.Context, eventID, categoryID int64, primary bool) error
	LinkTag(ctx context.Context, eventID, tagID int64) error

	// SeedCategories ensures a platform's default category set exists.
	SeedCategories(ctx context.Context, cats []Category) error
}

// SyncLogStore owns the sync_log audit table.
type SyncLogStore interface {
	Start(ctx context.Context, run SyncRun) error
	Complete(ctx context.Context, id string, res SyncResult) error
	Fail(ctx context.Context, id string, res SyncResult, errMsg string) error

	// ReconcileStale marks runs stuck in the started state for longer than
	// olderThan as failed, returning how many rows were reconciled. This is
	// the crash-recovery pass: a killed process must not leave audit rows
	// started forever.
	ReconcileStale(ctx context.Context, olderThan time.Duration) (int64, error)

	ListRecent(ctx context.Context, limit int) ([]SyncRun, error)
}

// SourceStore persists the registry of external platforms.
type SourceStore interface {
	GetByID(ctx context.Context, id int64) (Source, error)
	ListActive(ctx context.Context) ([]Source, error)

	// Ensure registers a source if it does not exist yet and returns its id.
	Ensure(ctx context.Context, src Source) (int64, error)
}

// LockManager provides distributed locks so that two processes never sync
// the same source concurrently.
type LockManager interface {
	// Acquire obtains the lock or returns ErrLockHeld. The returned unlock
	// function is safe to call multiple times.
	Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error)
}

// RateLimiter throttles outbound calls to external platforms.
type RateLimiter interface {
	// Allow reports whether a request for key is permitted under a sliding
	// window of limit requests per window, counting the request when it is.
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)

	// Wait blocks until a request for key is allowed or ctx is cancelled.
	Wait(ctx context.Context, key string) error
}

// SnapshotCache caches the latest normalized market set so repeated
// correlation calls do not hit the database.
type SnapshotCache interface {
	SetMarkets(ctx context.Context, records []MarketRecord) error
	// GetMarkets returns ErrNotFound when no snapshot is cached.
	GetMarkets(ctx context.Context) ([]MarketRecord, error)
	Invalidate(ctx context.Context) error
}

// BlobWriter uploads objects to cold storage.
type BlobWriter interface {
	Put(ctx context.Context, path string, data io.Reader, contentType string) error
	PutMultipart(ctx context.Context, path string, data io.Reader, partSize int64) error
}
