package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "8083", cfg.Port)
	require.Equal(t, "localhost:6379", cfg.Redis.Addr)
	require.Equal(t, 5, cfg.Redis.MaxRetries)
	require.Equal(t, 10*time.Second, cfg.StoreTimeout)
	require.Equal(t, 24*time.Hour, cfg.MessageRetention)
	require.False(t, cfg.LeaveOnDisconnect)
	require.Empty(t, cfg.AMQPURL)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("MESSAGE_RETENTION", "1h")
	t.Setenv("LEAVE_ON_DISCONNECT", "true")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "9000", cfg.Port)
	require.Equal(t, "redis:6379", cfg.Redis.Addr)
	require.Equal(t, time.Hour, cfg.MessageRetention)
	require.True(t, cfg.LeaveOnDisconnect)
}

func TestLoadInvalidDuration(t *testing.T) {
	t.Setenv("STORE_TIMEOUT", "soon")

	_, err := Load()
	require.Error(t, err)
}
