package worker

import (
	"time"

	"feedwatch/internal/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cronJobRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "worker_cron_job_runs_total",
		Help: "Total number of scheduled runs by status (success/failure/skipped)",
	}, []string{"status"})

	cronJobDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "worker_cron_job_duration_seconds",
		Help:    "Duration of scheduled runs in seconds",
		Buckets: []float64{1, 5, 30, 60, 300, 900, 1800},
	})

	cronJobFeedsProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "worker_cron_job_feeds_processed_total",
		Help: "Total number of feed cycles run by the scheduler",
	})

	cronJobLastSuccess = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "worker_cron_job_last_success_timestamp",
		Help: "Unix timestamp of the last scheduled run with no failed feed",
	})
)

// WorkerMetrics groups the scheduler metrics with the worker's config metrics.
type WorkerMetrics struct {
	*config.ConfigMetrics
}

// NewWorkerMetrics returns metrics for the "worker" component.
func NewWorkerMetrics() *WorkerMetrics {
	return &WorkerMetrics{ConfigMetrics: config.NewConfigMetrics("worker")}
}

// RecordJobRun counts a run by status.
func (m *WorkerMetrics) RecordJobRun(status string) {
	cronJobRunsTotal.WithLabelValues(status).Inc()
}

// RecordJobDuration observes the wall time of a run.
func (m *WorkerMetrics) RecordJobDuration(d time.Duration) {
	cronJobDuration.Observe(d.Seconds())
}

// RecordFeedsProcessed adds count feed cycles.
func (m *WorkerMetrics) RecordFeedsProcessed(count int) {
	cronJobFeedsProcessed.Add(float64(count))
}

// RecordLastSuccess stamps the last successful run.
func (m *WorkerMetrics) RecordLastSuccess() {
	cronJobLastSuccess.SetToCurrentTime()
}
