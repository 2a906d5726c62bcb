package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearPlatformEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "")
	t.Setenv("PORT", "")
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearPlatformEnv(t)
	t.Setenv("MARKET_STORAGE", "memory")

	cfg, err := loadConfig(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, defaultAddr, cfg.Addr)
	assert.Equal(t, StorageMemory, cfg.Storage)
	assert.Equal(t, 100, cfg.RateLimit.Max)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
	assert.Equal(t, []string{"*"}, cfg.CORS.Origins)
	assert.Equal(t, 15*time.Second, cfg.Graceful.ShutdownTimeout)
}

func TestLoadConfig_FileThenEnv(t *testing.T) {
	clearPlatformEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
storage: memory
image_base_url: https://cdn.example.com/
rate_limit:
  max: 7
`), 0o600))
	t.Setenv("MARKET_RATE_LIMIT_MAX", "9")

	cfg, err := loadConfig(nil, []string{path})
	require.NoError(t, err)
	assert.Equal(t, StorageMemory, cfg.Storage)
	assert.Equal(t, "https://cdn.example.com/", cfg.ImageBaseURL)
	assert.Equal(t, 9, cfg.RateLimit.Max)
}

func TestLoadConfig_PlatformDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://platform/db")
	t.Setenv("PORT", "9000")

	cfg, err := loadConfig(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, StoragePostgres, cfg.Storage)
	assert.Equal(t, "postgres://platform/db", cfg.DatabaseURL)
	assert.Equal(t, "0.0.0.0:9000", cfg.Addr)
}

func TestConfig_Validate(t *testing.T) {
	valid := Config{Storage: StoragePostgres, DatabaseURL: "postgres://x", RateLimit: RateLimitConfig{Max: 1, Window: time.Second}}
	require.NoError(t, valid.Validate())

	for name, mutate := range map[string]func(*Config){
		"missing database url": func(c *Config) { c.DatabaseURL = "" },
		"unknown storage":      func(c *Config) { c.Storage = "redis" },
		"zero rate limit":      func(c *Config) { c.RateLimit.Max = 0 },
	} {
		t.Run(name, func(t *testing.T) {
			c := valid
			mutate(&c)
			assert.Error(t, c.Validate())
		})
	}

	mem := Config{Storage: StorageMemory, RateLimit: RateLimitConfig{Max: 1, Window: time.Second}}
	assert.NoError(t, mem.Validate())
}
