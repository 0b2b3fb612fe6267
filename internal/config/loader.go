package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies MARKETCAL_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known MARKETCAL_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject secrets at deploy time without touching
// the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Database ──
	setStr(&cfg.Database.DSN, "MARKETCAL_DATABASE_DSN")
	setStr(&cfg.Database.DSN, "MARKETCAL_DATABASE_URL") // compatibility alias
	setStr(&cfg.Database.Host, "MARKETCAL_DATABASE_HOST")
	setInt(&cfg.Database.Port, "MARKETCAL_DATABASE_PORT")
	setStr(&cfg.Database.Database, "MARKETCAL_DATABASE_NAME")
	setStr(&cfg.Database.User, "MARKETCAL_DATABASE_USER")
	setStr(&cfg.Database.Password, "MARKETCAL_DATABASE_PASSWORD")
	setStr(&cfg.Database.SSLMode, "MARKETCAL_DATABASE_SSL_MODE")
	setInt(&cfg.Database.PoolMaxConns, "MARKETCAL_DATABASE_POOL_MAX_CONNS")
	setInt(&cfg.Database.PoolMinConns, "MARKETCAL_DATABASE_POOL_MIN_CONNS")
	setBool(&cfg.Database.RunMigrations, "MARKETCAL_DATABASE_RUN_MIGRATIONS")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "MARKETCAL_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "MARKETCAL_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "MARKETCAL_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "MARKETCAL_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "MARKETCAL_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "MARKETCAL_REDIS_TLS_ENABLED")

	// ── S3 ──
	setStr(&cfg.S3.Endpoint, "MARKETCAL_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "MARKETCAL_S3_REGION")
	setStr(&cfg.S3.Bucket, "MARKETCAL_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "MARKETCAL_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "MARKETCAL_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "MARKETCAL_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "MARKETCAL_S3_FORCE_PATH_STYLE")

	// ── Platforms ──
	setBool(&cfg.Polymarket.Enabled, "MARKETCAL_POLYMARKET_ENABLED")
	setStr(&cfg.Polymarket.SubgraphURL, "MARKETCAL_POLYMARKET_SUBGRAPH_URL")
	setBool(&cfg.FortyTwo.Enabled, "MARKETCAL_FORTYTWO_ENABLED")
	setStr(&cfg.FortyTwo.GraphQLURL, "MARKETCAL_FORTYTWO_GRAPHQL_URL")

	// ── Sync ──
	setDuration(&cfg.Sync.Interval, "MARKETCAL_SYNC_INTERVAL")
	setDuration(&cfg.Sync.ReconcileInterval, "MARKETCAL_SYNC_RECONCILE_INTERVAL")
	setDuration(&cfg.Sync.StaleRunAge, "MARKETCAL_SYNC_STALE_RUN_AGE")
	setDuration(&cfg.Sync.PruneInterval, "MARKETCAL_SYNC_PRUNE_INTERVAL")
	setDuration(&cfg.Sync.PriceRetention, "MARKETCAL_SYNC_PRICE_RETENTION")
	setBool(&cfg.Sync.ArchiveEnabled, "MARKETCAL_SYNC_ARCHIVE_ENABLED")
	setInt(&cfg.Sync.FetchRateLimit, "MARKETCAL_SYNC_FETCH_RATE_LIMIT")
	setDuration(&cfg.Sync.FetchRateWindow, "MARKETCAL_SYNC_FETCH_RATE_WINDOW")

	// ── Server ──
	setBool(&cfg.Server.Enabled, "MARKETCAL_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "MARKETCAL_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "MARKETCAL_SERVER_CORS_ORIGINS")
	setStr(&cfg.Server.APIKey, "MARKETCAL_SERVER_API_KEY")
	setInt(&cfg.Server.RateLimit, "MARKETCAL_SERVER_RATE_LIMIT")
	setDuration(&cfg.Server.RateWindow, "MARKETCAL_SERVER_RATE_WINDOW")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "MARKETCAL_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "MARKETCAL_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "MARKETCAL_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "MARKETCAL_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Mode, "MARKETCAL_MODE")
	setStr(&cfg.LogLevel, "MARKETCAL_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
