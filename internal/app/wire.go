package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	s3blob "github.com/alanyoungcy/marketcal/internal/blob/s3"
	"github.com/alanyoungcy/marketcal/internal/cache/redis"
	"github.com/alanyoungcy/marketcal/internal/config"
	"github.com/alanyoungcy/marketcal/internal/domain"
	"github.com/alanyoungcy/marketcal/internal/notify"
	"github.com/alanyoungcy/marketcal/internal/pipeline"
	"github.com/alanyoungcy/marketcal/internal/platform/fortytwo"
	"github.com/alanyoungcy/marketcal/internal/platform/polymarket"
	"github.com/alanyoungcy/marketcal/internal/service"
	"github.com/alanyoungcy/marketcal/internal/store/postgres"
)

// adapterTimeout bounds a single GraphQL page fetch.
const adapterTimeout = 30 * time.Second

// Dependencies bundles every domain-level dependency that the application
// modes need to operate. It is constructed by Wire and torn down by the
// returned cleanup function.
type Dependencies struct {
	// Stores
	MarketStore   domain.MarketStore
	SourceStore   domain.SourceStore
	TaxonomyStore domain.TaxonomyStore
	SyncLogStore  domain.SyncLogStore

	// Caches
	SnapshotCache domain.SnapshotCache
	RateLimiter   domain.RateLimiter
	LockManager   domain.LockManager

	// Blob storage; nil unless archiving is enabled.
	Archiver *s3blob.Archiver

	// Pipeline
	Registry *pipeline.Registry
	Syncer   *pipeline.Syncer

	// Services
	Markets *service.MarketService

	// Notifications
	Notifier *notify.Notifier
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- PostgreSQL ---
	pgClient, err := postgres.New(ctx, postgres.ClientConfig{
		DSN:      cfg.Database.DSN,
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		Database: cfg.Database.Database,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		SSLMode:  cfg.Database.SSLMode,
		MaxConns: cfg.Database.PoolMaxConns,
		MinConns: cfg.Database.PoolMinConns,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: postgres: %w", err)
	}
	closers = append(closers, pgClient.Close)

	if cfg.Database.RunMigrations {
		if err := pgClient.RunMigrations(ctx); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
		}
	}

	pool := pgClient.Pool()
	deps.MarketStore = postgres.NewMarketStore(pool)
	deps.SourceStore = postgres.NewSourceStore(pool)
	deps.TaxonomyStore = postgres.NewTaxonomyStore(pool)
	deps.SyncLogStore = postgres.NewSyncLogStore(pool)

	// --- Redis ---
	redisClient, err := redis.New(ctx, redis.ClientConfig{
		Addr:       cfg.Redis.Addr,
		Password:   cfg.Redis.Password,
		DB:         cfg.Redis.DB,
		PoolSize:   cfg.Redis.PoolSize,
		MaxRetries: cfg.Redis.MaxRetries,
		TLSEnabled: cfg.Redis.TLSEnabled,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: redis: %w", err)
	}
	closers = append(closers, func() { _ = redisClient.Close() })

	deps.SnapshotCache = redis.NewSnapshotCache(redisClient)
	deps.RateLimiter = redis.NewRateLimiter(redisClient)
	deps.LockManager = redis.NewLockManager(redisClient)

	// --- S3 blob storage (only when archiving is on) ---
	if cfg.Sync.ArchiveEnabled {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		closers = append(closers, func() { _ = s3Client.Close() })

		deps.Archiver = s3blob.NewArchiver(s3blob.NewWriter(s3Client))
	}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)

	// --- Platform adapters + source registry rows ---
	var adapters []pipeline.Adapter
	if cfg.Polymarket.Enabled {
		adapters = append(adapters, polymarket.NewAdapter(cfg.Polymarket.SubgraphURL, adapterTimeout, logger))
	}
	if cfg.FortyTwo.Enabled {
		adapters = append(adapters, fortytwo.NewAdapter(cfg.FortyTwo.GraphQLURL, adapterTimeout, logger))
	}
	deps.Registry = pipeline.NewRegistry(adapters...)

	if err := ensureSources(ctx, deps.SourceStore, cfg); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: register sources: %w", err)
	}

	// --- Pipeline ---
	syncer := pipeline.NewSyncer(
		deps.Registry,
		deps.SourceStore,
		deps.TaxonomyStore,
		deps.SyncLogStore,
		pipeline.NewUpsertEngine(deps.MarketStore, logger),
		deps.LockManager,
		logger,
	).WithCache(deps.SnapshotCache)
	if deps.Archiver != nil {
		syncer = syncer.WithArchiver(deps.Archiver)
	}
	if cfg.Sync.FetchRateLimit > 0 {
		syncer = syncer.WithRateLimiter(deps.RateLimiter)
	}
	deps.Syncer = syncer

	// --- Services ---
	deps.Markets = service.NewMarketService(deps.MarketStore, deps.SnapshotCache, logger)

	return deps, cleanup, nil
}

// ensureSources upserts one event_source row per enabled platform so syncs
// can be addressed by a stable source id.
func ensureSources(ctx context.Context, sources domain.SourceStore, cfg *config.Config) error {
	seed := []struct {
		name     string
		platform domain.Platform
		enabled  bool
	}{
		{"Polymarket", domain.PlatformPolymarket, cfg.Polymarket.Enabled},
		{"42.space", domain.PlatformFortyTwo, cfg.FortyTwo.Enabled},
	}
	for _, s := range seed {
		_, err := sources.Ensure(ctx, domain.Source{
			Name:     s.name,
			APIType:  s.platform,
			IsActive: s.enabled,
		})
		if err != nil {
			return fmt.Errorf("ensure source %q: %w", s.name, err)
		}
	}
	return nil
}

// multiReporter fans a terminal sync run out to several reporters.
type multiReporter []pipeline.Reporter

func (m multiReporter) RunFinished(ctx context.Context, run domain.SyncRun) {
	for _, r := range m {
		if r == nil {
			continue
		}
		r.RunFinished(ctx, run)
	}
}
