package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadReportsAllMissingVariables(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("SESSION_TTL", "soon")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
	assert.Contains(t, err.Error(), "JWT_SECRET")
	assert.Contains(t, err.Error(), "SESSION_TTL")
}

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DATABASE_URL", MemoryDatabase)
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("TELEGRAM_TOKEN", "")
	t.Setenv("TELEGRAM_WEBHOOK_URL", "https://giftsync.app/telegram/webhook")
	t.Setenv("APP_BASE_URL", "https://giftsync.app/")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("SESSION_TTL", "")
	t.Setenv("INVITE_RATE_PER_MINUTE", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.UseMemory())
	assert.False(t, cfg.BotEnabled())
	assert.False(t, cfg.UseWebhook())
	assert.Equal(t, "https://giftsync.app", cfg.AppBaseURL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, 720*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 10, cfg.InviteRatePerMinute)
	assert.Equal(t, "8080", cfg.Port)
}
