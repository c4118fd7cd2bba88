package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
)

const (
	SessionBackendFile  = "file"
	SessionBackendRedis = "redis"
)

type Config struct {
	APIBaseURL       string
	HTTPTimeout      time.Duration
	RetryAttempts    int
	RetryDelay       time.Duration
	BreakerThreshold int
	BreakerTimeout   time.Duration
	SessionBackend   string
	SessionDir       string
	SessionSecret    string
	SessionTTL       time.Duration
	RedisAddr        string
	MetricsAddr      string
	LogLevel         string
}

func NewConfig() *Config {
	return &Config{
		APIBaseURL:       getEnv("API_BASE_URL", "http://localhost:5000/api"),
		HTTPTimeout:      getDuration("HTTP_TIMEOUT", 15*time.Second),
		RetryAttempts:    getInt("GATEWAY_RETRY_ATTEMPTS", 1),
		RetryDelay:       getDuration("GATEWAY_RETRY_DELAY", 500*time.Millisecond),
		BreakerThreshold: getInt("BREAKER_THRESHOLD", 5),
		BreakerTimeout:   getDuration("BREAKER_TIMEOUT", 30*time.Second),
		SessionBackend:   getEnv("SESSION_BACKEND", SessionBackendFile),
		SessionDir:       getEnv("SESSION_DIR", defaultSessionDir()),
		SessionSecret:    getEnv("SESSION_SECRET", ""),
		SessionTTL:       getDuration("SESSION_TTL", 0),
		RedisAddr:        getEnv("REDIS_ADDR", "localhost:6379"),
		MetricsAddr:      getEnv("METRICS_ADDR", ""),
		LogLevel:         getEnv("LOG_LEVEL", "warn"),
	}
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var result *multierror.Error

	if u, err := url.Parse(c.APIBaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		result = multierror.Append(result, fmt.Errorf("API_BASE_URL %q is not an absolute URL", c.APIBaseURL))
	}
	if c.HTTPTimeout < 0 {
		result = multierror.Append(result, fmt.Errorf("HTTP_TIMEOUT must not be negative"))
	}
	if c.RetryAttempts < 1 {
		result = multierror.Append(result, fmt.Errorf("GATEWAY_RETRY_ATTEMPTS must be at least 1, got %d", c.RetryAttempts))
	}
	if c.BreakerThreshold < 1 {
		result = multierror.Append(result, fmt.Errorf("BREAKER_THRESHOLD must be at least 1, got %d", c.BreakerThreshold))
	}
	switch c.SessionBackend {
	case SessionBackendFile:
		if c.SessionDir == "" {
			result = multierror.Append(result, fmt.Errorf("SESSION_DIR is required for the file backend"))
		}
	case SessionBackendRedis:
		if c.RedisAddr == "" {
			result = multierror.Append(result, fmt.Errorf("REDIS_ADDR is required for the redis backend"))
		}
	default:
		result = multierror.Append(result, fmt.Errorf("unknown SESSION_BACKEND %q", c.SessionBackend))
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		result = multierror.Append(result, err)
	}

	return result.ErrorOrNil()
}

func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q", s)
	}
	return level, nil
}

func defaultSessionDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".storefront"
	}
	return filepath.Join(dir, "storefront")
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) int {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		slog.Warn("Ignoring invalid integer setting", "key", key, "value", value)
		return fallback
	}
	return n
}

func getDuration(key string, fallback time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		slog.Warn("Ignoring invalid duration setting", "key", key, "value", value)
		return fallback
	}
	return d
}
