// Package tracing provides OpenTelemetry tracing integration.
//
// Every watch run opens a span per feed cycle with child spans for fetch,
// store and dispatch. The operational HTTP server is wrapped by Middleware so health
// checks carry a trace ID as well.
//
// Example usage:
//
//	import "feedwatch/internal/observability/tracing"
//
//	func main() {
//	    shutdown := tracing.InitTracer()
//	    defer func() { _ = shutdown(context.Background()) }()
//	}
//
//	func cycle(ctx context.Context, feedURL string) {
//	    ctx, span := tracing.StartSpan(ctx, "watch.cycle",
//	        attribute.String("feed.url", feedURL))
//	    defer span.End()
//	}
package tracing
