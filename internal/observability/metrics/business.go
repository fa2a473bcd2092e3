package metrics

import (
	"time"
)

// RecordFeedCycle records the outcome and duration of one feed cycle.
func RecordFeedCycle(outcome string, duration time.Duration) {
	FeedCyclesTotal.WithLabelValues(outcome).Inc()
	FeedCycleDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// RecordDetection records the result of change detection for one feed.
func RecordDetection(fetched, fresh int) {
	if fetched > 0 {
		EntriesFetchedTotal.Add(float64(fetched))
	}
	if fresh > 0 {
		EntriesNewTotal.Add(float64(fresh))
	}
}

// RecordAnomaly records an entry skipped during detection.
// Kind should be "timestamp" or "identity".
func RecordAnomaly(kind string) {
	EntryAnomaliesTotal.WithLabelValues(kind).Inc()
}

// RecordRun records a finished watch run.
func RecordRun(failed int, duration time.Duration, finishedAt time.Time) {
	result := "success"
	if failed > 0 {
		result = "partial_failure"
	}
	RunsTotal.WithLabelValues(result).Inc()
	RunDuration.Observe(duration.Seconds())
	LastRunTimestamp.Set(float64(finishedAt.Unix()))
}

// UpdateFeedsConfigured updates the number of configured feeds.
func UpdateFeedsConfigured(count int) {
	FeedsConfigured.Set(float64(count))
}

// RecordStoreOperation records the duration of a watermark store call.
// Operation should be "get", "put", "delete" or "list".
func RecordStoreOperation(operation string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	StoreOperationDuration.WithLabelValues(operation, status).Observe(duration.Seconds())
}

// UpdateDBConnectionStats updates database connection pool statistics.
func UpdateDBConnectionStats(active, idle int) {
	DBConnectionsActive.Set(float64(active))
	DBConnectionsIdle.Set(float64(idle))
}
