package worker

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDefaultConfig_IsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "*/15 * * * *", cfg.CronSchedule)
	assert.Equal(t, "UTC", cfg.Timezone)
	assert.Equal(t, 15*time.Minute, cfg.RunTimeout)
}

func TestWorkerConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*WorkerConfig)
		errSub string
	}{
		{"bad cron", func(c *WorkerConfig) { c.CronSchedule = "every minute" }, "cron schedule"},
		{"bad timezone", func(c *WorkerConfig) { c.Timezone = "Nowhere/City" }, "timezone"},
		{"short run timeout", func(c *WorkerConfig) { c.RunTimeout = time.Second }, "run timeout"},
		{"zero fetch timeout", func(c *WorkerConfig) { c.FetchTimeout = 0 }, "fetch timeout"},
		{"too many feeds", func(c *WorkerConfig) { c.MaxConcurrentFeeds = 100 }, "max concurrent feeds"},
		{"privileged port", func(c *WorkerConfig) { c.HealthPort = 80 }, "health port"},
		{"same ports", func(c *WorkerConfig) { c.MetricsPort = c.HealthPort }, "must differ"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSub)
		})
	}
}

func TestLoadConfigFromEnv_ValidValues(t *testing.T) {
	t.Setenv("CRON_SCHEDULE", "0 * * * *")
	t.Setenv("WORKER_TIMEZONE", "Asia/Tokyo")
	t.Setenv("RUN_TIMEOUT", "30m")
	t.Setenv("FETCH_TIMEOUT", "20s")
	t.Setenv("MAX_CONCURRENT_FEEDS", "8")
	t.Setenv("WORKER_HEALTH_PORT", "9191")

	metrics := NewWorkerMetrics()
	cfg := LoadConfigFromEnv(discardLogger(), metrics)

	assert.Equal(t, "0 * * * *", cfg.CronSchedule)
	assert.Equal(t, "Asia/Tokyo", cfg.Timezone)
	assert.Equal(t, 30*time.Minute, cfg.RunTimeout)
	assert.Equal(t, 20*time.Second, cfg.FetchTimeout)
	assert.Equal(t, 8, cfg.MaxConcurrentFeeds)
	assert.Equal(t, 9191, cfg.HealthPort)
	assert.False(t, metrics.FallbackActive())
	require.NoError(t, cfg.Validate())

	wc := cfg.WatchConfig()
	assert.Equal(t, 8, wc.MaxConcurrentFeeds)
	assert.Equal(t, 20*time.Second, wc.FetchTimeout)
}

func TestLoadConfigFromEnv_FallsBackOnInvalid(t *testing.T) {
	t.Setenv("CRON_SCHEDULE", "not a schedule")
	t.Setenv("RUN_TIMEOUT", "5h")
	t.Setenv("MAX_CONCURRENT_FEEDS", "0")

	metrics := NewWorkerMetrics()
	cfg := LoadConfigFromEnv(discardLogger(), metrics)

	def := DefaultConfig()
	assert.Equal(t, def.CronSchedule, cfg.CronSchedule)
	assert.Equal(t, def.RunTimeout, cfg.RunTimeout)
	assert.Equal(t, def.MaxConcurrentFeeds, cfg.MaxConcurrentFeeds)
	assert.True(t, metrics.FallbackActive())
	require.NoError(t, cfg.Validate())
}

func TestLoadConfigFromEnv_PortCollision(t *testing.T) {
	t.Setenv("WORKER_HEALTH_PORT", "9300")
	t.Setenv("METRICS_PORT", "9300")

	cfg := LoadConfigFromEnv(discardLogger(), NewWorkerMetrics())

	assert.Equal(t, 9091, cfg.HealthPort)
	assert.Equal(t, 9090, cfg.MetricsPort)
}
