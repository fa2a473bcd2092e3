// Package metrics provides Prometheus metrics registry and recording utilities.
//
// This package centralizes the watcher's metrics:
//   - Feed cycle outcomes and durations
//   - Change detection counts and skipped entries
//   - Watermark store call latency
//   - HTTP metrics for the operational endpoints
//
// All metrics are automatically registered with the Prometheus default registry
// and exposed via the /metrics endpoint. Notification channel metrics live
// next to the dispatcher in internal/usecase/notify.
//
// Example usage:
//
//	import "feedwatch/internal/observability/metrics"
//
//	func cycle(ctx context.Context) {
//	    start := time.Now()
//	    // ... fetch, detect, notify ...
//	    metrics.RecordFeedCycle("notified", time.Since(start))
//	}
package metrics
