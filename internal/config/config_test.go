package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campchat/backend/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CAMPCHAT_JWT_SECRET", "test-secret-at-least-16-chars")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 72*time.Hour, cfg.JWT.ExpiresIn)
	assert.Equal(t, 500*time.Millisecond, cfg.Updates.PollInterval)
	assert.Equal(t, 2*time.Second, cfg.Webhook.ConnectTimeout)
	assert.Equal(t, 5*time.Second, cfg.Webhook.TotalTimeout)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("CAMPCHAT_JWT_SECRET", "test-secret-at-least-16-chars")
	t.Setenv("CAMPCHAT_SERVER_ADDR", ":9999")
	t.Setenv("CAMPCHAT_REDIS_ADDR", "redis:6379")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, ":9999", cfg.Server.Addr)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
}

func TestLoadRejectsShortSecret(t *testing.T) {
	t.Setenv("CAMPCHAT_JWT_SECRET", "short")

	_, err := config.Load()
	assert.Error(t, err)
}
