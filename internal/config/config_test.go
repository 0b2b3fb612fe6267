package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsValidate(t *testing.T) {
	cfg := Defaults()
	assert.NoError(t, cfg.Validate())
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "backfill"
	cfg.Redis.Addr = ""
	cfg.Server.Port = 99999

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
	assert.Contains(t, err.Error(), "redis: addr")
	assert.Contains(t, err.Error(), "server: port")
}

func TestValidateRequiresOnePlatform(t *testing.T) {
	cfg := Defaults()
	cfg.Polymarket.Enabled = false
	cfg.FortyTwo.Enabled = false

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one")
}

func TestValidateArchiveNeedsBucket(t *testing.T) {
	cfg := Defaults()
	cfg.Sync.ArchiveEnabled = true
	cfg.S3.Bucket = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "s3: bucket")
}

func TestLoadMergesFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	body := `
mode = "sync"

[sync]
interval = "5m"

[fortytwo]
enabled = false
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	t.Setenv("MARKETCAL_REDIS_ADDR", "redis.internal:6380")
	t.Setenv("MARKETCAL_SERVER_API_KEY", "sekrit")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "sync", cfg.Mode)
	assert.Equal(t, 5*time.Minute, cfg.Sync.Interval.Duration)
	assert.False(t, cfg.FortyTwo.Enabled)
	// Untouched sections keep their defaults.
	assert.Equal(t, 5432, cfg.Database.Port)
	// Env overrides win over both file and defaults.
	assert.Equal(t, "redis.internal:6380", cfg.Redis.Addr)
	assert.Equal(t, "sekrit", cfg.Server.APIKey)

	require.NoError(t, cfg.Validate())
}

func TestRedactedConfig(t *testing.T) {
	cfg := Defaults()
	cfg.Database.Password = "hunter2"
	cfg.Server.APIKey = "key"
	cfg.Notify.TelegramToken = "token"
	cfg.Notify.TelegramChatID = "42"

	red := RedactedConfig(&cfg)

	assert.Equal(t, "***", red.Database.Password)
	assert.Equal(t, "***", red.Server.APIKey)
	assert.Equal(t, "***", red.Notify.TelegramToken)
	// Non-secret fields survive.
	assert.Equal(t, cfg.Redis.Addr, red.Redis.Addr)
	// Redaction does not touch the original.
	assert.Equal(t, "hunter2", cfg.Database.Password)
}
