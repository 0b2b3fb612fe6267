package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/marketcal/internal/domain"
	"github.com/alanyoungcy/marketcal/internal/notify"
	"github.com/alanyoungcy/marketcal/internal/pipeline"
	"github.com/alanyoungcy/marketcal/internal/server"
	"github.com/alanyoungcy/marketcal/internal/server/handler"
	"github.com/alanyoungcy/marketcal/internal/server/ws"
)

// shutdownTimeout bounds graceful HTTP shutdown in serve mode.
const shutdownTimeout = 10 * time.Second

// SyncMode runs one full sync across all active sources, correlates the
// refreshed markets against the event calendar, and exits. Intended for
// cron-style invocations.
func (a *App) SyncMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "sync mode: starting one-shot sync")

	deps.Syncer.WithReporter(notify.NewSyncReporter(deps.Notifier))

	results, err := deps.Syncer.SyncAll(ctx, domain.SyncTypeManual)
	for platform, res := range results {
		a.logger.InfoContext(ctx, "sync mode: source finished",
			slog.String("platform", string(platform)),
			slog.Int("processed", res.Processed),
			slog.Int("added", res.Added),
			slog.Int("updated", res.Updated),
		)
	}
	if err != nil && len(results) == 0 {
		return fmt.Errorf("app: sync mode: %w", err)
	}
	if err != nil {
		a.logger.WarnContext(ctx, "sync mode: some sources failed",
			slog.String("error", err.Error()),
		)
	}

	matches, mErr := deps.Markets.Matches(ctx)
	if mErr != nil {
		return fmt.Errorf("app: sync mode correlate: %w", mErr)
	}
	a.logger.InfoContext(ctx, "sync mode: correlation finished",
		slog.Int("matches", len(matches)),
	)

	if deps.Archiver != nil && len(matches) > 0 {
		if aErr := deps.Archiver.ArchiveMatches(ctx, time.Now().UTC(), matches); aErr != nil {
			a.logger.WarnContext(ctx, "sync mode: archive matches failed",
				slog.String("error", aErr.Error()),
			)
		}
	}

	return err
}

// ServeMode runs the long-lived service: the HTTP + WebSocket API, the
// background sync orchestrator, and the broadcast hub, all tied to one
// errgroup so any fatal error tears the whole process down.
func (a *App) ServeMode(ctx context.Context, deps *Dependencies) error {
	hub := ws.NewHub(a.logger)

	// Terminal runs go to both external notifiers and connected ws clients.
	deps.Syncer.WithReporter(multiReporter{
		notify.NewSyncReporter(deps.Notifier),
		hub,
	})

	orch := pipeline.NewOrchestrator(
		deps.Syncer,
		deps.SyncLogStore,
		deps.MarketStore,
		pipeline.OrchestratorConfig{
			SyncInterval:      a.cfg.Sync.Interval.Duration,
			ReconcileInterval: a.cfg.Sync.ReconcileInterval.Duration,
			StaleRunAge:       a.cfg.Sync.StaleRunAge.Duration,
			PruneInterval:     a.cfg.Sync.PruneInterval.Duration,
			PriceRetention:    a.cfg.Sync.PriceRetention.Duration,
		},
		a.logger,
	)

	handlers := server.Handlers{
		Health:  handler.NewHealthHandler(a.logger),
		Markets: handler.NewMarketsHandler(deps.Markets, a.logger),
		Matches: handler.NewMatchesHandler(deps.Markets, a.logger),
		Sync:    handler.NewSyncHandler(deps.Syncer, deps.SyncLogStore, a.logger),
	}

	limiter := deps.RateLimiter
	if a.cfg.Server.RateLimit <= 0 {
		limiter = nil
	}
	srv := server.NewServer(server.Config{
		Port:        a.cfg.Server.Port,
		CORSOrigins: a.cfg.Server.CORSOrigins,
		APIKey:      a.cfg.Server.APIKey,
		RateLimit:   a.cfg.Server.RateLimit,
		RateWindow:  a.cfg.Server.RateWindow.Duration,
	}, handlers, hub, limiter, a.logger)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := hub.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("app: ws hub: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		if err := orch.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("app: orchestrator: %w", err)
		}
		return nil
	})

	if a.cfg.Server.Enabled {
		g.Go(func() error {
			return srv.Start()
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	a.logger.InfoContext(ctx, "serve mode: running",
		slog.Bool("http_enabled", a.cfg.Server.Enabled),
		slog.Int("port", a.cfg.Server.Port),
	)

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
