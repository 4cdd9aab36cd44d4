package config_test

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyang/project-registry/internal/config"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "STORE_BACKEND", "DATABASE_URL", "REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB",
		"RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "IDEMPOTENCY_TTL_SECONDS",
		"SHUTDOWN_TIMEOUT_SECONDS", "APP_ENV", "LOG_LEVEL", "APP_VERSION",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, config.BackendMemory, cfg.Store.Backend)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, 24*time.Hour, cfg.Server.IdempotencyTTL)
	assert.Zero(t, cfg.RateLimit.RPS)
	assert.Equal(t, "development", cfg.App.Environment)
	assert.Equal(t, slog.LevelInfo, cfg.SlogLevel())
}

func TestLoad_FromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("STORE_BACKEND", "Redis")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("RATE_LIMIT_RPS", "12.5")
	t.Setenv("RATE_LIMIT_BURST", "5")
	t.Setenv("IDEMPOTENCY_TTL_SECONDS", "60")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, config.BackendRedis, cfg.Store.Backend)
	assert.Equal(t, 2, cfg.Store.RedisDB)
	assert.Equal(t, 12.5, cfg.RateLimit.RPS)
	assert.Equal(t, 5, cfg.RateLimit.Burst)
	assert.Equal(t, time.Minute, cfg.Server.IdempotencyTTL)
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
}

func TestLoad_InvalidNumbersFallBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("REDIS_DB", "two")
	t.Setenv("RATE_LIMIT_RPS", "fast")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Zero(t, cfg.Store.RedisDB)
	assert.Zero(t, cfg.RateLimit.RPS)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *config.Config)
		wantErr string
	}{
		{name: "memory ok", mutate: func(c *config.Config) {}},
		{name: "unknown backend", mutate: func(c *config.Config) { c.Store.Backend = "mongo" }, wantErr: "unknown STORE_BACKEND"},
		{name: "postgres without url", mutate: func(c *config.Config) { c.Store.Backend = config.BackendPostgres }, wantErr: "DATABASE_URL"},
		{name: "postgres with url", mutate: func(c *config.Config) {
			c.Store.Backend = config.BackendPostgres
			c.Store.DatabaseURL = "postgres://localhost/registry"
		}},
		{name: "redis without addr", mutate: func(c *config.Config) { c.Store.Backend = config.BackendRedis }, wantErr: "REDIS_ADDR"},
		{name: "missing port", mutate: func(c *config.Config) { c.Server.Port = "" }, wantErr: "PORT"},
		{name: "rate limit without burst", mutate: func(c *config.Config) {
			c.RateLimit.RPS = 1
			c.RateLimit.Burst = 0
		}, wantErr: "RATE_LIMIT_BURST"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{
				Server: config.ServerConfig{Port: "8080"},
				Store:  config.StoreConfig{Backend: config.BackendMemory},
			}
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
