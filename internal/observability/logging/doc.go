// Package logging provides structured logging utilities with context propagation.
//
// This package wraps the standard library's log/slog package with helper functions
// for common logging patterns used throughout the application.
//
// Key features:
//   - JSON and text output formats
//   - Run ID and trace ID propagation
//   - Context-aware logging
//   - Configurable log levels (LOG_LEVEL=debug|info|warn|error)
//   - Secret masking for logged errors
//
// Example usage:
//
//	import "feedwatch/internal/observability/logging"
//
//	func main() {
//	    logger := logging.NewLogger()
//	    logger.Info("application started", slog.String("version", "1.0"))
//	}
//
//	func runCycle(ctx context.Context) {
//	    logger := logging.WithRunID(ctx, slog.Default())
//	    logger.Info("processing feed")
//	}
package logging
