package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/marketcal/internal/domain"
)

// Orchestrator runs the background loops of serve mode: scheduled syncs of
// every active source, stale sync-run reconciliation, and price-history
// pruning.
type Orchestrator struct {
	syncer  *Syncer
	syncLog domain.SyncLogStore
	markets domain.MarketStore

	syncInterval      time.Duration
	reconcileInterval time.Duration
	staleRunAge       time.Duration
	pruneInterval     time.Duration
	priceRetention    time.Duration

	logger *slog.Logger
}

// OrchestratorConfig bundles the loop timings.
type OrchestratorConfig struct {
	SyncInterval      time.Duration
	ReconcileInterval time.Duration
	StaleRunAge       time.Duration
	PruneInterval     time.Duration
	PriceRetention    time.Duration
}

// NewOrchestrator creates an Orchestrator. Zero durations fall back to
// sensible defaults.
func NewOrchestrator(syncer *Syncer, syncLog domain.SyncLogStore, markets domain.MarketStore, cfg OrchestratorConfig, logger *slog.Logger) *Orchestrator {
	if cfg.SyncInterval <= 0 {
		cfg.SyncInterval = 15 * time.Minute
	}
	if cfg.ReconcileInterval <= 0 {
		cfg.ReconcileInterval = 5 * time.Minute
	}
	if cfg.StaleRunAge <= 0 {
		cfg.StaleRunAge = 30 * time.Minute
	}
	if cfg.PruneInterval <= 0 {
		cfg.PruneInterval = 24 * time.Hour
	}
	if cfg.PriceRetention <= 0 {
		cfg.PriceRetention = 90 * 24 * time.Hour
	}
	return &Orchestrator{
		syncer:            syncer,
		syncLog:           syncLog,
		markets:           markets,
		syncInterval:      cfg.SyncInterval,
		reconcileInterval: cfg.ReconcileInterval,
		staleRunAge:       cfg.StaleRunAge,
		pruneInterval:     cfg.PruneInterval,
		priceRetention:    cfg.PriceRetention,
		logger:            logger.With(slog.String("component", "orchestrator")),
	}
}

// Run starts all loops as concurrent goroutines using an errgroup. Each
// loop respects ctx cancellation; a non-context error from any loop cancels
// the shared context and Run returns that error.
func (o *Orchestrator) Run(ctx context.Context) error {
	o.logger.Info("orchestrator starting",
		slog.Duration("sync_interval", o.syncInterval),
		slog.Duration("reconcile_interval", o.reconcileInterval),
		slog.Duration("prune_interval", o.pruneInterval),
	)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := o.runSyncLoop(ctx)
		if ctx.Err() != nil {
			return nil // clean shutdown
		}
		return fmt.Errorf("sync loop: %w", err)
	})

	g.Go(func() error {
		err := o.runReconcileLoop(ctx)
		if ctx.Err() != nil {
			return nil // clean shutdown
		}
		return fmt.Errorf("reconcile loop: %w", err)
	})

	g.Go(func() error {
		err := o.runPruneLoop(ctx)
		if ctx.Err() != nil {
			return nil // clean shutdown
		}
		return fmt.Errorf("prune loop: %w", err)
	})

	if err := g.Wait(); err != nil {
		o.logger.Error("orchestrator stopped with error", slog.String("error", err.Error()))
		return err
	}

	o.logger.Info("orchestrator stopped cleanly")
	return nil
}

// runSyncLoop syncs all active sources on a repeating interval. A failed
// cycle is logged and retried on the next tick; it never kills the loop.
func (o *Orchestrator) runSyncLoop(ctx context.Context) error {
	o.syncCycle(ctx)

	ticker := time.NewTicker(o.syncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			o.logger.Info("sync loop stopped")
			return ctx.Err()
		case <-ticker.C:
			o.syncCycle(ctx)
		}
	}
}

func (o *Orchestrator) syncCycle(ctx context.Context) {
	results, err := o.syncer.SyncAll(ctx, domain.SyncTypeScheduled)
	if err != nil {
		o.logger.Error("scheduled sync cycle had failures", slog.String("error", err.Error()))
	}
	for platform, res := range results {
		o.logger.Info("scheduled sync finished",
			slog.String("platform", string(platform)),
			slog.Int("processed", res.Processed),
			slog.Int("added", res.Added),
			slog.Int("updated", res.Updated),
		)
	}
}

// runReconcileLoop marks sync runs stuck in the started state as failed.
// Runs once at startup so a crash during the previous process is cleaned up
// before the first scheduled sync.
func (o *Orchestrator) runReconcileLoop(ctx context.Context) error {
	o.reconcileOnce(ctx)

	ticker := time.NewTicker(o.reconcileInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			o.logger.Info("reconcile loop stopped")
			return ctx.Err()
		case <-ticker.C:
			o.reconcileOnce(ctx)
		}
	}
}

func (o *Orchestrator) reconcileOnce(ctx context.Context) {
	n, err := o.syncLog.ReconcileStale(ctx, o.staleRunAge)
	if err != nil {
		o.logger.Error("stale run reconciliation failed", slog.String("error", err.Error()))
		return
	}
	if n > 0 {
		o.logger.Warn("reconciled stale sync runs", slog.Int64("count", n))
	}
}

// runPruneLoop trims price-history rows past the retention window.
func (o *Orchestrator) runPruneLoop(ctx context.Context) error {
	ticker := time.NewTicker(o.pruneInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			o.logger.Info("prune loop stopped")
			return ctx.Err()
		case <-ticker.C:
			n, err := o.markets.PrunePriceHistory(ctx, o.priceRetention)
			if err != nil {
				o.logger.Error("price history prune failed", slog.String("error", err.Error()))
				continue
			}
			o.logger.Info("pruned price history", slog.Int64("rows", n))
		}
	}
}
