package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SESSION_TOKEN_FILE", "/tmp/volunteer-client-test/token")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "volunteer-client", cfg.App.Name)
	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, "http://localhost:8000", cfg.API.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.API.RequestTimeout())
	assert.Equal(t, "ws://localhost:8000/ws/notifications", cfg.Realtime.NotificationsURL())
	assert.Equal(t, 5, cfg.Realtime.MaxReconnectAttempts)
	assert.Equal(t, time.Second, cfg.Realtime.ReconnectBaseDelay())
	assert.Equal(t, 30*time.Second, cfg.Realtime.ReconnectMaxDelay())
	assert.Equal(t, 30*time.Second, cfg.Notifications.PollInterval())
	assert.Equal(t, "/tmp/volunteer-client-test/token", cfg.Session.TokenFile)
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "0.0.0.0:8000", cfg.Stub.Addr())
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SESSION_TOKEN_FILE", "/tmp/volunteer-client-test/token")
	t.Setenv("API_BASE_URL", "https://api.example.com")
	t.Setenv("API_REQUEST_TIMEOUT_SECONDS", "10")
	t.Setenv("REALTIME_URL", "wss://api.example.com")
	t.Setenv("REALTIME_MAX_RECONNECT_ATTEMPTS", "3")
	t.Setenv("REALTIME_RECONNECT_BASE_DELAY_MS", "500")
	t.Setenv("NOTIFICATIONS_POLL_INTERVAL_SECONDS", "5")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("STUB_PORT", "9000")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://api.example.com", cfg.API.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.API.RequestTimeout())
	assert.Equal(t, "wss://api.example.com/ws/notifications", cfg.Realtime.NotificationsURL())
	assert.Equal(t, 3, cfg.Realtime.MaxReconnectAttempts)
	assert.Equal(t, 500*time.Millisecond, cfg.Realtime.ReconnectBaseDelay())
	assert.Equal(t, 5*time.Second, cfg.Notifications.PollInterval())
	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, "0.0.0.0:9000", cfg.Stub.Addr())
}

func TestMalformedIntFallsBack(t *testing.T) {
	t.Setenv("SESSION_TOKEN_FILE", "/tmp/volunteer-client-test/token")
	t.Setenv("API_REQUEST_TIMEOUT_SECONDS", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 30, cfg.API.RequestTimeoutSeconds)
}

func TestPollIntervalGuardsNonPositive(t *testing.T) {
	n := NotificationsConfig{PollIntervalSeconds: 0}
	assert.Equal(t, 30*time.Second, n.PollInterval())
	n.PollIntervalSeconds = -1
	assert.Equal(t, 30*time.Second, n.PollInterval())
}
