package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":3000", cfg.Server.Addr)
	assert.Equal(t, "Universal Music Group Code Challenge", cfg.Server.Title)
	assert.Equal(t, 24*time.Hour, cfg.Server.SessionTTL)
	assert.Equal(t, "http://localhost:8080", cfg.API.BaseURL)
	assert.Equal(t, "admin", cfg.API.BasicUser)
	assert.Equal(t, "admin123", cfg.API.BasicPassword)
	assert.Equal(t, 30*time.Second, cfg.API.Timeout)
	assert.Equal(t, 60, cfg.RateLimit.MaxRequests)
	assert.False(t, cfg.Redis.Enabled())
	assert.False(t, cfg.NATS.Enabled())
	assert.False(t, cfg.Postgres.Enabled())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("VITE_API_BASE_URL", "http://backend:9000")
	t.Setenv("VITE_BASIC_USER", "ops")
	t.Setenv("VITE_BASIC_PASS", "s3cret")
	t.Setenv("SESSION_TTL", "2h")
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("REDIS_PORT", "6380")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://backend:9000", cfg.API.BaseURL)
	assert.Equal(t, "ops", cfg.API.BasicUser)
	assert.Equal(t, "s3cret", cfg.API.BasicPassword)
	assert.Equal(t, 2*time.Hour, cfg.Server.SessionTTL)
	assert.True(t, cfg.Redis.Enabled())
	assert.Equal(t, 6380, cfg.Redis.Port)
}
