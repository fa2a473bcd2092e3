// Package metrics provides centralized Prometheus metrics for the application.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics track the operational endpoints (/health, /metrics)
var (
	// HTTPRequestsTotal counts total HTTP requests by method, path, and status
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration measures HTTP request duration in seconds
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

// Watch metrics track feed cycles and change detection
var (
	// FeedCyclesTotal counts finished feed cycles by outcome
	FeedCyclesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedwatch_feed_cycles_total",
			Help: "Total number of feed cycles by outcome",
		},
		[]string{"outcome"},
	)

	// FeedCycleDuration measures one fetch-detect-notify-advance cycle
	FeedCycleDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "feedwatch_feed_cycle_duration_seconds",
			Help:    "Time taken by one feed cycle",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		},
		[]string{"outcome"},
	)

	// EntriesFetchedTotal counts entries read from feeds
	EntriesFetchedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feedwatch_entries_fetched_total",
			Help: "Total number of entries fetched from feeds",
		},
	)

	// EntriesNewTotal counts entries classified as new
	EntriesNewTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feedwatch_entries_new_total",
			Help: "Total number of entries classified as new",
		},
	)

	// EntryAnomaliesTotal counts entries skipped during detection
	EntryAnomaliesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedwatch_entry_anomalies_total",
			Help: "Total number of entries skipped during change detection",
		},
		[]string{"kind"}, // kind: timestamp, identity
	)

	// RunsTotal counts RunAll invocations by result
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedwatch_runs_total",
			Help: "Total number of watch runs",
		},
		[]string{"result"}, // result: success, partial_failure
	)

	// RunDuration measures a complete RunAll
	RunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "feedwatch_run_duration_seconds",
			Help:    "Time taken by one watch run over all feeds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		},
	)

	// LastRunTimestamp records when the last run finished
	LastRunTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "feedwatch_last_run_timestamp_seconds",
			Help: "Unix timestamp of the last finished watch run",
		},
	)

	// FeedsConfigured tracks the size of the configured feed list
	FeedsConfigured = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "feedwatch_feeds_configured",
			Help: "Number of feeds in the configuration",
		},
	)
)

// Store metrics track watermark store performance
var (
	// StoreOperationDuration measures watermark store calls
	StoreOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "feedwatch_store_operation_duration_seconds",
			Help:    "Watermark store operation duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"operation", "status"},
	)

	// DBConnectionsActive tracks active database connections
	DBConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_active",
			Help: "Number of active database connections",
		},
	)

	// DBConnectionsIdle tracks idle database connections
	DBConnectionsIdle = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_idle",
			Help: "Number of idle database connections",
		},
	)
)

// RecordHTTPRequest records an HTTP request with its metadata
func RecordHTTPRequest(method, path, status string, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}
