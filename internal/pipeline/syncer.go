package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/alanyoungcy/marketcal/internal/domain"
)

// lockTTL bounds how long a crashed process can hold a source's sync lock.
const lockTTL = 10 * time.Minute

// Reporter receives the terminal audit row of every run. Implementations
// must not block the sync path; delivery failures are theirs to log.
type Reporter interface {
	RunFinished(ctx context.Context, run domain.SyncRun)
}

// RunArchiver writes the full record set of a completed run to cold storage.
type RunArchiver interface {
	ArchiveRunRecords(ctx context.Context, run domain.SyncRun, records []domain.MarketRecord) error
}

// Syncer executes audited sync runs: it drives one adapter through full
// pagination, feeds every record to the upsert engine, and tracks the run in
// the sync_log audit table. Cache, reporter, and archiver are optional;
// a nil field disables that side effect.
type Syncer struct {
	registry *Registry
	sources  domain.SourceStore
	taxonomy domain.TaxonomyStore
	syncLog  domain.SyncLogStore
	upsert   *UpsertEngine
	locks    domain.LockManager

	cache    domain.SnapshotCache
	reporter Reporter
	archiver RunArchiver
	limiter  domain.RateLimiter

	logger *slog.Logger
}

// NewSyncer creates a Syncer over the given collaborators.
func NewSyncer(
	registry *Registry,
	sources domain.SourceStore,
	taxonomy domain.TaxonomyStore,
	syncLog domain.SyncLogStore,
	upsert *UpsertEngine,
	locks domain.LockManager,
	logger *slog.Logger,
) *Syncer {
	return &Syncer{
		registry: registry,
		sources:  sources,
		taxonomy: taxonomy,
		syncLog:  syncLog,
		upsert:   upsert,
		locks:    locks,
		logger:   logger.With(slog.String("component", "syncer")),
	}
}

// WithCache attaches a snapshot cache invalidated after every completed run.
func (s *Syncer) WithCache(c domain.SnapshotCache) *Syncer { s.cache = c; return s }

// WithReporter attaches a terminal-state reporter.
func (s *Syncer) WithReporter(r Reporter) *Syncer { s.reporter = r; return s }

// WithArchiver attaches a cold-storage archiver for completed runs.
func (s *Syncer) WithArchiver(a RunArchiver) *Syncer { s.archiver = a; return s }

// WithRateLimiter throttles page fetches against upstream platforms.
func (s *Syncer) WithRateLimiter(l domain.RateLimiter) *Syncer { s.limiter = l; return s }

// SyncSource runs one full sync for the given source. The run is guarded by
// a per-source distributed lock (a second caller gets ErrLockHeld), audited
// start to finish, and abortable between records. Partial progress stays
// committed on failure: each record is its own transaction.
func (s *Syncer) SyncSource(ctx context.Context, sourceID int64, syncType string) (domain.SyncResult, error) {
	var res domain.SyncResult

	source, err := s.sources.GetByID(ctx, sourceID)
	if err != nil {
		return res, fmt.Errorf("pipeline: resolve source %d: %w", sourceID, err)
	}
	if !source.IsActive {
		return res, fmt.Errorf("pipeline: source %q: %w", source.Name, domain.ErrSourceInactive)
	}

	adapter, err := s.registry.Get(source.APIType)
	if err != nil {
		return res, err
	}

	unlock, err := s.locks.Acquire(ctx, "sync:"+string(source.APIType), lockTTL)
	if err != nil {
		return res, fmt.Errorf("pipeline: lock source %q: %w", source.Name, err)
	}
	defer unlock()

	if err := s.taxonomy.SeedCategories(ctx, adapter.SeedCategories()); err != nil {
		return res, fmt.Errorf("pipeline: seed categories for %q: %w", source.Name, err)
	}

	run := domain.SyncRun{
		ID:        uuid.NewString(),
		SourceID:  sourceID,
		SyncType:  syncType,
		Status:    domain.SyncStatusStarted,
		StartedAt: time.Now().UTC(),
	}
	if err := s.syncLog.Start(ctx, run); err != nil {
		return res, fmt.Errorf("pipeline: start sync run: %w", err)
	}

	s.logger.InfoContext(ctx, "sync run started",
		slog.String("run_id", run.ID),
		slog.String("source", source.Name),
		slog.String("sync_type", syncType),
	)

	records, res, err := s.runPages(ctx, adapter, sourceID)
	if err != nil {
		run.Status = domain.SyncStatusFailed
		run.ErrorMessage = err.Error()
		if failErr := s.syncLog.Fail(ctx, run.ID, res, err.Error()); failErr != nil {
			s.logger.ErrorContext(ctx, "could not record run failure",
				slog.String("run_id", run.ID),
				slog.String("error", failErr.Error()),
			)
		}
		s.report(ctx, run, res)
		return res, err
	}

	if err := s.syncLog.Complete(ctx, run.ID, res); err != nil {
		return res, fmt.Errorf("pipeline: complete sync run: %w", err)
	}
	run.Status = domain.SyncStatusCompleted

	s.logger.InfoContext(ctx, "sync run completed",
		slog.String("run_id", run.ID),
		slog.String("source", source.Name),
		slog.Int("processed", res.Processed),
		slog.Int("added", res.Added),
		slog.Int("updated", res.Updated),
	)

	s.afterRun(ctx, run, res, records, source)
	return res, nil
}

// runPages drives the adapter through pagination, upserting each record.
// It stops at the terminal page, the adapter's record ceiling, or context
// cancellation, whichever comes first. It returns every record it fed to the
// engine so the archiver can snapshot the run.
func (s *Syncer) runPages(ctx context.Context, adapter Adapter, sourceID int64) ([]domain.MarketRecord, domain.SyncResult, error) {
	var (
		res     domain.SyncResult
		records []domain.MarketRecord
		offset  int
	)

	for {
		if err := ctx.Err(); err != nil {
			return records, res, fmt.Errorf("pipeline: sync aborted: %w", errors.Join(domain.ErrContextDone, err))
		}

		if s.limiter != nil {
			if err := s.limiter.Wait(ctx, "fetch:"+string(adapter.Platform())); err != nil {
				return records, res, fmt.Errorf("pipeline: rate limit wait: %w", err)
			}
		}

		page, done, err := adapter.FetchPage(ctx, offset)
		if err != nil {
			return records, res, err
		}

		for i := range page {
			if err := ctx.Err(); err != nil {
				return records, res, fmt.Errorf("pipeline: sync aborted: %w", errors.Join(domain.ErrContextDone, err))
			}

			action, err := s.upsert.Upsert(ctx, sourceID, page[i])
			if err != nil {
				return records, res, err
			}

			res.Processed++
			switch action {
			case ActionAdded:
				res.Added++
			case ActionUpdated:
				res.Updated++
			}
			records = append(records, page[i])

			if res.Processed >= adapter.MaxRecords() {
				return records, res, nil
			}
		}

		if done {
			return records, res, nil
		}
		offset += adapter.PageSize()
	}
}

// afterRun performs the post-completion side effects. None of them can fail
// the already-committed run; problems are logged and dropped.
func (s *Syncer) afterRun(ctx context.Context, run domain.SyncRun, res domain.SyncResult, records []domain.MarketRecord, source domain.Source) {
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx); err != nil {
			s.logger.WarnContext(ctx, "snapshot cache invalidation failed",
				slog.String("run_id", run.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	if s.archiver != nil && len(records) > 0 {
		if err := s.archiver.ArchiveRunRecords(ctx, run, records); err != nil {
			s.logger.WarnContext(ctx, "run archive failed",
				slog.String("run_id", run.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	s.report(ctx, run, res)
}

func (s *Syncer) report(ctx context.Context, run domain.SyncRun, res domain.SyncResult) {
	if s.reporter == nil {
		return
	}
	run.Processed = res.Processed
	run.Added = res.Added
	run.Updated = res.Updated
	s.reporter.RunFinished(ctx, run)
}

// SyncAll runs every active source sequentially and aggregates results by
// platform. A failing source does not stop the others; their errors are
// joined and returned together.
func (s *Syncer) SyncAll(ctx context.Context, syncType string) (map[domain.Platform]domain.SyncResult, error) {
	sources, err := s.sources.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("pipeline: list active sources: %w", err)
	}

	results := make(map[domain.Platform]domain.SyncResult, len(sources))
	var errs []error
	for _, src := range sources {
		res, err := s.SyncSource(ctx, src.ID, syncType)
		if err != nil {
			s.logger.ErrorContext(ctx, "source sync failed",
				slog.String("source", src.Name),
				slog.String("error", err.Error()),
			)
			errs = append(errs, fmt.Errorf("%s: %w", src.Name, err))
			continue
		}
		results[src.APIType] = res
	}
	return results, errors.Join(errs...)
}
