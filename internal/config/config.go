// Package config defines the top-level configuration for the market calendar
// sync service and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by MARKETCAL_* environment variables.
type Config struct {
	Database   DatabaseConfig   `toml:"database"`
	Redis      RedisConfig      `toml:"redis"`
	S3         S3Config         `toml:"s3"`
	Polymarket PolymarketConfig `toml:"polymarket"`
	FortyTwo   FortyTwoConfig   `toml:"fortytwo"`
	Sync       SyncConfig       `toml:"sync"`
	Server     ServerConfig     `toml:"server"`
	Notify     NotifyConfig     `toml:"notify"`
	Mode       string           `toml:"mode"`
	LogLevel   string           `toml:"log_level"`
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// S3Config holds S3-compatible object storage parameters.
type S3Config struct {
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// PolymarketConfig holds the Polymarket subgraph endpoint.
type PolymarketConfig struct {
	Enabled     bool   `toml:"enabled"`
	SubgraphURL string `toml:"subgraph_url"`
}

// FortyTwoConfig holds the 42.space GraphQL endpoint.
type FortyTwoConfig struct {
	Enabled    bool   `toml:"enabled"`
	GraphQLURL string `toml:"graphql_url"`
}

// SyncConfig holds ingestion scheduling and retention parameters.
type SyncConfig struct {
	Interval          duration `toml:"interval"`
	ReconcileInterval duration `toml:"reconcile_interval"`
	StaleRunAge       duration `toml:"stale_run_age"`
	PruneInterval     duration `toml:"prune_interval"`
	PriceRetention    duration `toml:"price_retention"`
	ArchiveEnabled    bool     `toml:"archive_enabled"`
	// FetchRateLimit caps adapter page fetches per FetchRateWindow. Zero
	// disables fetch throttling.
	FetchRateLimit  int      `toml:"fetch_rate_limit"`
	FetchRateWindow duration `toml:"fetch_rate_window"`
}

// duration is a wrapper around time.Duration that supports TOML string decoding
// (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Enabled     bool     `toml:"enabled"`
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
	APIKey      string   `toml:"api_key"`
	RateLimit   int      `toml:"rate_limit"`
	RateWindow  duration `toml:"rate_window"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// Defaults returns a Config populated with reasonable default values.
// These match the values in config.example.toml.
func Defaults() Config {
	return Config{
		Database: DatabaseConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "marketcal",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			DB:         0,
			PoolSize:   20,
			MaxRetries: 3,
		},
		S3: S3Config{
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "marketcal-data",
			UseSSL:         false,
			ForcePathStyle: true,
		},
		Polymarket: PolymarketConfig{
			Enabled:     true,
			SubgraphURL: "https://api.thegraph.com/subgraphs/name/polymarket/matic-markets",
		},
		FortyTwo: FortyTwoConfig{
			Enabled:    true,
			GraphQLURL: "https://api.42.space/v1/graphql",
		},
		Sync: SyncConfig{
			Interval:          duration{15 * time.Minute},
			ReconcileInterval: duration{5 * time.Minute},
			StaleRunAge:       duration{30 * time.Minute},
			PruneInterval:     duration{24 * time.Hour},
			PriceRetention:    duration{90 * 24 * time.Hour},
			ArchiveEnabled:    false,
			FetchRateLimit:    0,
			FetchRateWindow:   duration{time.Minute},
		},
		Server: ServerConfig{
			Enabled:     true,
			Port:        8000,
			CORSOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
			RateLimit:   0,
			RateWindow:  duration{time.Minute},
		},
		Notify: NotifyConfig{
			Events: []string{"sync_completed", "sync_failed"},
		},
		Mode:     "serve",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"sync":  true,
	"serve": true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns a
// combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: sync, serve)", c.Mode))
	}

	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Database
	if strings.TrimSpace(c.Database.DSN) == "" {
		if c.Database.Host == "" {
			errs = append(errs, "database: host must not be empty (or set database.dsn)")
		}
		if c.Database.Port <= 0 || c.Database.Port > 65535 {
			errs = append(errs, fmt.Sprintf("database: port must be 1-65535, got %d", c.Database.Port))
		}
		if c.Database.Database == "" {
			errs = append(errs, "database: database must not be empty")
		}
	}
	if c.Database.PoolMaxConns < 1 {
		errs = append(errs, "database: pool_max_conns must be >= 1")
	}
	if c.Database.PoolMinConns < 0 {
		errs = append(errs, "database: pool_min_conns must be >= 0")
	}
	if c.Database.PoolMinConns > c.Database.PoolMaxConns {
		errs = append(errs, "database: pool_min_conns must not exceed pool_max_conns")
	}

	// Redis
	if c.Redis.Addr == "" {
		errs = append(errs, "redis: addr must not be empty")
	}
	if c.Redis.PoolSize < 1 {
		errs = append(errs, "redis: pool_size must be >= 1")
	}

	// S3 — only required when archiving is on.
	if c.Sync.ArchiveEnabled {
		if c.S3.Endpoint == "" {
			errs = append(errs, "s3: endpoint must not be empty when sync.archive_enabled is set")
		}
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty when sync.archive_enabled is set")
		}
	}

	// Platforms — at least one source must be enabled.
	if !c.Polymarket.Enabled && !c.FortyTwo.Enabled {
		errs = append(errs, "platforms: at least one of polymarket or fortytwo must be enabled")
	}
	if c.Polymarket.Enabled && c.Polymarket.SubgraphURL == "" {
		errs = append(errs, "polymarket: subgraph_url must not be empty when enabled")
	}
	if c.FortyTwo.Enabled && c.FortyTwo.GraphQLURL == "" {
		errs = append(errs, "fortytwo: graphql_url must not be empty when enabled")
	}

	// Sync scheduling
	if c.Sync.Interval.Duration <= 0 {
		errs = append(errs, "sync: interval must be > 0")
	}
	if c.Sync.ReconcileInterval.Duration <= 0 {
		errs = append(errs, "sync: reconcile_interval must be > 0")
	}
	if c.Sync.StaleRunAge.Duration <= 0 {
		errs = append(errs, "sync: stale_run_age must be > 0")
	}
	if c.Sync.PriceRetention.Duration <= 0 {
		errs = append(errs, "sync: price_retention must be > 0")
	}
	if c.Sync.FetchRateLimit > 0 && c.Sync.FetchRateWindow.Duration <= 0 {
		errs = append(errs, "sync: fetch_rate_window must be > 0 when fetch_rate_limit is set")
	}

	// Server
	if c.Server.Enabled {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
		}
		if c.Server.RateLimit > 0 && c.Server.RateWindow.Duration <= 0 {
			errs = append(errs, "server: rate_window must be > 0 when rate_limit is set")
		}
	}

	// Notify — Telegram fields must be set together.
	tt := c.Notify.TelegramToken != ""
	tc := c.Notify.TelegramChatID != ""
	if tt != tc {
		errs = append(errs, "notify: telegram_token and telegram_chat_id must be set together")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
