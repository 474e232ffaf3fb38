package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the client.
type Config struct {
	App           AppConfig
	API           APIConfig
	Realtime      RealtimeConfig
	Notifications NotificationsConfig
	Session       SessionConfig
	Logger        LoggerConfig
	Stub          StubConfig
}

// AppConfig identifies the running process.
type AppConfig struct {
	Name string
	Env  string
}

// APIConfig holds the platform HTTP API connection values.
type APIConfig struct {
	BaseURL               string
	RequestTimeoutSeconds int
}

// RealtimeConfig controls the persistent notification stream.
type RealtimeConfig struct {
	URL                  string
	NotificationsPath    string
	MaxReconnectAttempts int
	ReconnectBaseDelayMS int
	ReconnectMaxDelayMS  int
}

// NotificationsConfig controls the polling fallback.
type NotificationsConfig struct {
	PollIntervalSeconds int
}

// SessionConfig holds durable credential storage values.
type SessionConfig struct {
	TokenFile string
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// StubConfig configures the development stub server.
type StubConfig struct {
	Host                  string
	Port                  string
	JWTSecret             string
	AccessTokenTTLMinutes int
	BcryptCost            int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	tokenFile := os.Getenv("SESSION_TOKEN_FILE")
	if tokenFile == "" {
		var err error
		tokenFile, err = defaultTokenFile()
		if err != nil {
			return nil, fmt.Errorf("resolve token file path: %w", err)
		}
	}

	cfg := &Config{
		App: AppConfig{
			Name: getEnv("APP_NAME", "volunteer-client"),
			Env:  getEnv("APP_ENV", "development"),
		},
		API: APIConfig{
			BaseURL:               getEnv("API_BASE_URL", "http://localhost:8000"),
			RequestTimeoutSeconds: getEnvAsInt("API_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Realtime: RealtimeConfig{
			URL:                  getEnv("REALTIME_URL", "ws://localhost:8000"),
			NotificationsPath:    getEnv("REALTIME_NOTIFICATIONS_PATH", "/ws/notifications"),
			MaxReconnectAttempts: getEnvAsInt("REALTIME_MAX_RECONNECT_ATTEMPTS", 5),
			ReconnectBaseDelayMS: getEnvAsInt("REALTIME_RECONNECT_BASE_DELAY_MS", 1000),
			ReconnectMaxDelayMS:  getEnvAsInt("REALTIME_RECONNECT_MAX_DELAY_MS", 30000),
		},
		Notifications: NotificationsConfig{
			PollIntervalSeconds: getEnvAsInt("NOTIFICATIONS_POLL_INTERVAL_SECONDS", 30),
		},
		Session: SessionConfig{
			TokenFile: tokenFile,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Stub: StubConfig{
			Host:                  getEnv("STUB_HOST", "0.0.0.0"),
			Port:                  getEnv("STUB_PORT", "8000"),
			JWTSecret:             getEnv("STUB_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("STUB_ACCESS_TOKEN_TTL_MINUTES", 60),
			BcryptCost:            getEnvAsInt("STUB_BCRYPT_COST", 10),
		},
	}

	return cfg, nil
}

// RequestTimeout returns the configured HTTP request timeout duration.
func (a APIConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// NotificationsURL returns the full websocket endpoint address.
func (r RealtimeConfig) NotificationsURL() string {
	return r.URL + r.NotificationsPath
}

// ReconnectBaseDelay returns the initial reconnect backoff delay.
func (r RealtimeConfig) ReconnectBaseDelay() time.Duration {
	return time.Duration(r.ReconnectBaseDelayMS) * time.Millisecond
}

// ReconnectMaxDelay returns the backoff delay cap.
func (r RealtimeConfig) ReconnectMaxDelay() time.Duration {
	return time.Duration(r.ReconnectMaxDelayMS) * time.Millisecond
}

// PollInterval returns the fallback polling cadence.
func (n NotificationsConfig) PollInterval() time.Duration {
	if n.PollIntervalSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(n.PollIntervalSeconds) * time.Second
}

// Addr returns the stub server bind address.
func (s StubConfig) Addr() string {
	return fmt.Sprintf("%s:%s", s.Host, s.Port)
}

func defaultTokenFile() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "volunteer-client", "token"), nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}
