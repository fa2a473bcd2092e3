package worker

import (
	"fmt"
	"log/slog"
	"time"

	"feedwatch/internal/pkg/config"
	"feedwatch/internal/usecase/watch"
)

// WorkerConfig holds the operational settings of the scheduled worker.
// Feed and channel settings live in internal/config.
type WorkerConfig struct {
	// CronSchedule is a five-field cron expression or descriptor.
	// Default: "*/15 * * * *"
	CronSchedule string

	// Timezone is the IANA zone the schedule is evaluated in.
	// Default: "UTC"
	Timezone string

	// RunTimeout bounds a whole run across all feeds. Range: 1m-4h.
	// Default: 15m
	RunTimeout time.Duration

	// FetchTimeout and DispatchTimeout bound a single feed's calls.
	FetchTimeout    time.Duration
	DispatchTimeout time.Duration

	// MaxConcurrentFeeds limits parallel feed cycles. Range: 1-32.
	// Default: 4
	MaxConcurrentFeeds int

	// HealthPort serves /health and /health/ready. Range: 1024-65535.
	// Default: 9091
	HealthPort int

	// MetricsPort serves /metrics and /health/channels. Range: 1024-65535.
	// Default: 9090
	MetricsPort int
}

// DefaultConfig returns the settings used when no environment is set.
func DefaultConfig() WorkerConfig {
	w := watch.DefaultConfig()
	return WorkerConfig{
		CronSchedule:       "*/15 * * * *",
		Timezone:           "UTC",
		RunTimeout:         15 * time.Minute,
		FetchTimeout:       w.FetchTimeout,
		DispatchTimeout:    w.DispatchTimeout,
		MaxConcurrentFeeds: w.MaxConcurrentFeeds,
		HealthPort:         9091,
		MetricsPort:        9090,
	}
}

// Validate collects every invalid field into one error.
func (c *WorkerConfig) Validate() error {
	var errs []error

	if err := config.ValidateCronSchedule(c.CronSchedule); err != nil {
		errs = append(errs, fmt.Errorf("cron schedule: %w", err))
	}
	if err := config.ValidateTimezone(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone: %w", err))
	}
	if err := config.ValidateDuration(c.RunTimeout, time.Minute, 4*time.Hour); err != nil {
		errs = append(errs, fmt.Errorf("run timeout: %w", err))
	}
	if err := config.ValidatePositiveDuration(c.FetchTimeout); err != nil {
		errs = append(errs, fmt.Errorf("fetch timeout: %w", err))
	}
	if err := config.ValidatePositiveDuration(c.DispatchTimeout); err != nil {
		errs = append(errs, fmt.Errorf("dispatch timeout: %w", err))
	}
	if err := config.ValidateIntRange(c.MaxConcurrentFeeds, 1, 32); err != nil {
		errs = append(errs, fmt.Errorf("max concurrent feeds: %w", err))
	}
	if err := config.ValidatePort(c.HealthPort); err != nil {
		errs = append(errs, fmt.Errorf("health port: %w", err))
	}
	if err := config.ValidatePort(c.MetricsPort); err != nil {
		errs = append(errs, fmt.Errorf("metrics port: %w", err))
	}
	if c.HealthPort == c.MetricsPort {
		errs = append(errs, fmt.Errorf("health port and metrics port must differ"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed: %v", errs)
	}
	return nil
}

// WatchConfig maps the timeouts and concurrency onto watch.Config.
func (c *WorkerConfig) WatchConfig() watch.Config {
	w := watch.DefaultConfig()
	w.MaxConcurrentFeeds = c.MaxConcurrentFeeds
	w.FetchTimeout = c.FetchTimeout
	w.DispatchTimeout = c.DispatchTimeout
	return w
}

// LoadConfigFromEnv loads the worker settings fail-open: an invalid value is
// logged, counted in metrics and replaced by its default. It never returns
// an invalid configuration.
//
// Environment variables:
//   - CRON_SCHEDULE (default "*/15 * * * *")
//   - WORKER_TIMEZONE (default "UTC")
//   - RUN_TIMEOUT (default 15m)
//   - FETCH_TIMEOUT, DISPATCH_TIMEOUT (default 60s)
//   - MAX_CONCURRENT_FEEDS (default 4)
//   - WORKER_HEALTH_PORT (default 9091)
//   - METRICS_PORT (default 9090)
func LoadConfigFromEnv(logger *slog.Logger, metrics *WorkerMetrics) *WorkerConfig {
	cfg := DefaultConfig()
	m := metrics.ConfigMetrics

	cfg.CronSchedule = config.Track(m, logger, "cron_schedule",
		config.LoadEnvWithFallback("CRON_SCHEDULE", cfg.CronSchedule, config.ValidateCronSchedule))
	cfg.Timezone = config.Track(m, logger, "timezone",
		config.LoadEnvWithFallback("WORKER_TIMEZONE", cfg.Timezone, config.ValidateTimezone))
	cfg.RunTimeout = config.Track(m, logger, "run_timeout",
		config.LoadEnvDuration("RUN_TIMEOUT", cfg.RunTimeout, func(d time.Duration) error {
			return config.ValidateDuration(d, time.Minute, 4*time.Hour)
		}))
	cfg.FetchTimeout = config.Track(m, logger, "fetch_timeout",
		config.LoadEnvDuration("FETCH_TIMEOUT", cfg.FetchTimeout, config.ValidatePositiveDuration))
	cfg.DispatchTimeout = config.Track(m, logger, "dispatch_timeout",
		config.LoadEnvDuration("DISPATCH_TIMEOUT", cfg.DispatchTimeout, config.ValidatePositiveDuration))
	cfg.MaxConcurrentFeeds = config.Track(m, logger, "max_concurrent_feeds",
		config.LoadEnvInt("MAX_CONCURRENT_FEEDS", cfg.MaxConcurrentFeeds, func(v int) error {
			return config.ValidateIntRange(v, 1, 32)
		}))
	cfg.HealthPort = config.Track(m, logger, "health_port",
		config.LoadEnvInt("WORKER_HEALTH_PORT", cfg.HealthPort, config.ValidatePort))
	cfg.MetricsPort = config.Track(m, logger, "metrics_port",
		config.LoadEnvInt("METRICS_PORT", cfg.MetricsPort, config.ValidatePort))

	// Two valid ports can still collide.
	if cfg.HealthPort == cfg.MetricsPort {
		def := DefaultConfig()
		logger.Warn("configuration fallback applied",
			slog.String("field", "ports"),
			slog.String("warning", "health and metrics ports collide, using defaults"))
		m.RecordValidationError("ports")
		m.RecordFallback("ports")
		cfg.HealthPort, cfg.MetricsPort = def.HealthPort, def.MetricsPort
	}

	m.RecordLoadTimestamp()
	return &cfg
}
