package scraper

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"feedwatch/internal/resilience/circuitbreaker"
	"feedwatch/internal/resilience/retry"
)

// Config holds the configuration for feed fetching.
//
// Security settings:
//   - MaxBodySize: Prevents memory exhaustion from oversized feeds
//   - MaxRedirects: Prevents infinite redirect loops
//   - Timeout: Bounds a single HTTP attempt
//
// Reliability settings:
//   - Retry: Backoff applied to transient failures of one fetch
//   - Breaker: Template for the per-host circuit breakers
type Config struct {
	// Timeout is the maximum duration for a single HTTP attempt.
	// Default: 15s
	Timeout time.Duration

	// MaxBodySize is the maximum feed document size in bytes.
	// This is enforced while reading, not based on Content-Length.
	// Default: 10485760 (10MB)
	MaxBodySize int64

	// MaxRedirects is the maximum number of HTTP redirects to follow.
	// Default: 5
	MaxRedirects int

	// UserAgent identifies the watcher to feed hosts.
	UserAgent string

	Retry   retry.Config
	Breaker circuitbreaker.Config
}

// DefaultConfig returns the default configuration for feed fetching.
func DefaultConfig() Config {
	return Config{
		Timeout:      15 * time.Second,
		MaxBodySize:  10 * 1024 * 1024, // 10MB
		MaxRedirects: 5,
		UserAgent:    "feedwatch/1.0 (+https://github.com/feedwatch)",
		Retry:        retry.FeedFetchConfig(),
		Breaker:      circuitbreaker.FeedFetchConfig(),
	}
}

// Validate checks if the configuration values are valid and safe.
//
// Validation rules:
//   - Timeout: > 0
//   - MaxBodySize: 1KB-100MB
//   - MaxRedirects: 0-10
//   - Retry.MaxAttempts: >= 1
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %v", c.Timeout)
	}

	minBodySize := int64(1024)              // 1KB
	maxBodySize := int64(100 * 1024 * 1024) // 100MB
	if c.MaxBodySize < minBodySize || c.MaxBodySize > maxBodySize {
		return fmt.Errorf("max body size must be between %d and %d bytes, got %d", minBodySize, maxBodySize, c.MaxBodySize)
	}

	if c.MaxRedirects < 0 || c.MaxRedirects > 10 {
		return fmt.Errorf("max redirects must be between 0 and 10, got %d", c.MaxRedirects)
	}

	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry max attempts must be at least 1, got %d", c.Retry.MaxAttempts)
	}

	return nil
}

// LoadConfigFromEnv loads configuration from environment variables.
// If a variable is not set, the default value is used. After loading, the
// configuration is validated.
//
// Environment variables:
//   - FEED_FETCH_TIMEOUT: duration string, e.g., "15s" (default: 15s)
//   - FEED_FETCH_MAX_BODY_SIZE: integer in bytes (default: 10485760)
//   - FEED_FETCH_MAX_REDIRECTS: integer (default: 5)
//   - FEED_FETCH_RETRY_ATTEMPTS: integer (default: 4)
//   - FEED_FETCH_USER_AGENT: string
func LoadConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()

	if val := os.Getenv("FEED_FETCH_TIMEOUT"); val != "" {
		parsed, err := time.ParseDuration(val)
		if err != nil {
			return cfg, fmt.Errorf("invalid FEED_FETCH_TIMEOUT: %v (expected format: '15s', '1m')", err)
		}
		cfg.Timeout = parsed
	}

	if val := os.Getenv("FEED_FETCH_MAX_BODY_SIZE"); val != "" {
		parsed, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			return cfg, fmt.Errorf("invalid FEED_FETCH_MAX_BODY_SIZE: %v", err)
		}
		cfg.MaxBodySize = parsed
	}

	if val := os.Getenv("FEED_FETCH_MAX_REDIRECTS"); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil {
			return cfg, fmt.Errorf("invalid FEED_FETCH_MAX_REDIRECTS: %v", err)
		}
		cfg.MaxRedirects = parsed
	}

	if val := os.Getenv("FEED_FETCH_RETRY_ATTEMPTS"); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil {
			return cfg, fmt.Errorf("invalid FEED_FETCH_RETRY_ATTEMPTS: %v", err)
		}
		cfg.Retry.MaxAttempts = parsed
	}

	if val := os.Getenv("FEED_FETCH_USER_AGENT"); val != "" {
		cfg.UserAgent = val
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}
