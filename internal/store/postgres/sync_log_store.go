package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/marketcal/internal/domain"
)

// SyncLogStore implements domain.SyncLogStore over the sync_log audit table.
type SyncLogStore struct {
	pool *pgxpool.Pool
}

// NewSyncLogStore creates a SyncLogStore backed by the given pool.
func NewSyncLogStore(pool *pgxpool.Pool) *SyncLogStore {
	return &SyncLogStore{pool: pool}
}

// Start writes the audit row for a run entering the started state.
func (s *SyncLogStore) Start(ctx context.Context, run domain.SyncRun) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO sync_log (id, source_id, sync_type, status, started_at)
		VALUES ($1, $2, $3, $4, $5)`,
		run.ID, run.SourceID, run.SyncType, string(domain.SyncStatusStarted), run.StartedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: start sync run %s: %w", run.ID, err)
	}
	return nil
}

// Complete transitions a run to the completed state with its final counts.
func (s *SyncLogStore) Complete(ctx context.Context, id string, res domain.SyncResult) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE sync_log SET
			status = $2,
			completed_at = NOW(),
			events_processed = $3,
			events_added = $4,
			events_updated = $5
		WHERE id = $1`,
		id, string(domain.SyncStatusCompleted), res.Processed, res.Added, res.Updated,
	)
	if err != nil {
		return fmt.Errorf("postgres: complete sync run %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("postgres: complete sync run %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// Fail transitions a run to the failed state with partial counts and the
// error message.
func (s *SyncLogStore) Fail(ctx context.Context, id string, res domain.SyncResult, errMsg string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE sync_log SET
			status = $2,
			completed_at = NOW(),
			events_processed = $3,
			events_added = $4,
			events_updated = $5,
			error_message = $6
		WHERE id = $1`,
		id, string(domain.SyncStatusFailed), res.Processed, res.Added, res.Updated, errMsg,
	)
	if err != nil {
		return fmt.Errorf("postgres: fail sync run %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("postgres: fail sync run %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// ReconcileStale marks runs stuck in the started state for longer than
// olderThan as failed. A crashed process must not leave audit rows started
// forever.
func (s *SyncLogStore) ReconcileStale(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-olderThan)
	tag, err := s.pool.Exec(ctx, `
		UPDATE sync_log SET
			status = $2,
			completed_at = NOW(),
			error_message = 'reconciled: run never reached a terminal state'
		WHERE status = $1 AND started_at < $3`,
		string(domain.SyncStatusStarted), string(domain.SyncStatusFailed), cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("postgres: reconcile stale sync runs: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ListRecent returns the latest sync runs, newest first.
func (s *SyncLogStore) ListRecent(ctx context.Context, limit int) ([]domain.SyncRun, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, source_id, sync_type, status, started_at, completed_at,
		       events_processed, events_added, events_updated,
		       COALESCE(error_message, '')
		FROM sync_log
		ORDER BY started_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list recent sync runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.SyncRun
	for rows.Next() {
		var (
			run    domain.SyncRun
			status string
		)
		if err := rows.Scan(
			&run.ID, &run.SourceID, &run.SyncType, &status,
			&run.StartedAt, &run.CompletedAt,
			&run.Processed, &run.Added, &run.Updated,
			&run.ErrorMessage,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan sync run: %w", err)
		}
		run.Status = domain.SyncStatus(status)
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list recent sync runs rows: %w", err)
	}
	return runs, nil
}
