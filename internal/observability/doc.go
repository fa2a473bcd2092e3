// Package observability groups the watcher's logging, metrics, SLO and
// tracing infrastructure.
//
// Subpackages:
//   - logging: slog setup, run ID propagation, secret masking
//   - metrics: Prometheus metrics for feed cycles and the watermark store
//   - slo: success ratio and notification lag objectives
//   - tracing: OpenTelemetry spans for cycles and the operational server
//
// Example usage:
//
//	import (
//	    "feedwatch/internal/observability/logging"
//	    "feedwatch/internal/observability/metrics"
//	)
//
//	func main() {
//	    logger := logging.NewLogger()
//	    logger.Info("application started")
//
//	    metrics.UpdateFeedsConfigured(3)
//	}
package observability
