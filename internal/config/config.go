package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the Clarus front-end.
type Config struct {
	Backend BackendConfig
	Poll    PollConfig
	Session SessionConfig
	Redis   RedisConfig
	Console ConsoleConfig
	App     AppConfig
	Log     LogConfig
}

type BackendConfig struct {
	BaseURL string
	Timeout time.Duration
}

// PollConfig controls the job status poller.
type PollConfig struct {
	InitialDelay time.Duration
	Interval     time.Duration
}

type SessionConfig struct {
	Store     string
	TokenFile string
	Profile   string
	TokenTTL  time.Duration
}

type RedisConfig struct {
	URL string
}

type ConsoleConfig struct {
	Port int
	Env  string
}

type AppConfig struct {
	PlanCode     string
	HistoryLimit int
	Locale       string
}

type LogConfig struct {
	Level slog.Level
}

const (
	TokenStoreMemory = "memory"
	TokenStoreFile   = "file"
	TokenStoreRedis  = "redis"
)

var validTokenStores = map[string]bool{
	TokenStoreMemory: true,
	TokenStoreFile:   true,
	TokenStoreRedis:  true,
}

var validLocales = map[string]bool{
	"ru": true,
	"en": true,
}

// Load reads configuration from environment variables and returns a validated Config.
// Returns an error with a descriptive message if any value is invalid.
func Load() (*Config, error) {
	cfg := &Config{
		Backend: BackendConfig{
			BaseURL: strings.TrimRight(envString("CLARUS_API_URL", "http://localhost:8000"), "/"),
			Timeout: envDuration("CLARUS_HTTP_TIMEOUT", 30*time.Second),
		},
		Poll: PollConfig{
			InitialDelay: envDuration("CLARUS_POLL_INITIAL_DELAY", 400*time.Millisecond),
			Interval:     envDuration("CLARUS_POLL_INTERVAL", 1200*time.Millisecond),
		},
		Session: SessionConfig{
			Store:     envString("CLARUS_TOKEN_STORE", TokenStoreFile),
			TokenFile: envString("CLARUS_TOKEN_FILE", defaultTokenFile()),
			Profile:   envString("CLARUS_PROFILE", "default"),
			TokenTTL:  envDuration("CLARUS_TOKEN_TTL", 24*time.Hour),
		},
		Redis: RedisConfig{
			URL: os.Getenv("REDIS_URL"),
		},
		Console: ConsoleConfig{
			Port: envInt("CLARUS_PORT", 8080),
			Env:  envString("CLARUS_ENV", "development"),
		},
		App: AppConfig{
			PlanCode:     envString("CLARUS_PLAN_CODE", "MONTHLY_1M"),
			HistoryLimit: envInt("CLARUS_HISTORY_LIMIT", 50),
			Locale:       envString("CLARUS_LOCALE", "ru"),
		},
		Log: LogConfig{
			Level: envLevel("CLARUS_LOG_LEVEL", slog.LevelInfo),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks cross-field constraints. Load calls it; callers that
// override fields afterwards (CLI flags) should call it again.
func (c *Config) Validate() error {
	if c.Backend.BaseURL == "" {
		return fmt.Errorf("CLARUS_API_URL is required")
	}
	if !strings.HasPrefix(c.Backend.BaseURL, "http://") && !strings.HasPrefix(c.Backend.BaseURL, "https://") {
		return fmt.Errorf("CLARUS_API_URL must start with http:// or https://, got %q", c.Backend.BaseURL)
	}

	if c.Poll.InitialDelay <= 0 {
		return fmt.Errorf("CLARUS_POLL_INITIAL_DELAY must be positive")
	}
	if c.Poll.Interval <= 0 {
		return fmt.Errorf("CLARUS_POLL_INTERVAL must be positive")
	}

	if !validTokenStores[c.Session.Store] {
		return fmt.Errorf("CLARUS_TOKEN_STORE must be one of memory, file, redis; got %q", c.Session.Store)
	}
	if c.Session.Store == TokenStoreFile && c.Session.TokenFile == "" {
		return fmt.Errorf("CLARUS_TOKEN_FILE is required when CLARUS_TOKEN_STORE is file")
	}
	if c.Session.Store == TokenStoreRedis && c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required when CLARUS_TOKEN_STORE is redis")
	}

	if c.App.HistoryLimit <= 0 {
		return fmt.Errorf("CLARUS_HISTORY_LIMIT must be positive")
	}
	if !validLocales[c.App.Locale] {
		return fmt.Errorf("CLARUS_LOCALE must be one of ru, en; got %q", c.App.Locale)
	}

	return nil
}

func defaultTokenFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "clarus", "token")
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}

func envLevel(key string, defaultVal slog.Level) slog.Level {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(v)); err != nil {
		return defaultVal
	}
	return level
}
