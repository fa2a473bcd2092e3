// Package resilience groups the fault tolerance helpers used on every
// outbound edge of a watch run: feed fetches, watermark store calls and
// notification deliveries.
//
//   - circuitbreaker wraps github.com/sony/gobreaker, either as a single
//     breaker, a per-key Group (one breaker per feed host) or a database
//     handle guard.
//   - retry runs an operation with exponential backoff and jitter, retrying
//     only transient failures.
//
// Usage Example:
//
//	breakers := circuitbreaker.NewGroup(circuitbreaker.FeedFetchConfig())
//	err := retry.Do(ctx, "feed_fetch", retry.FeedFetchConfig(), func(ctx context.Context) error {
//	    _, err := breakers.Get(host).Execute(func() (interface{}, error) {
//	        return nil, fetchFeed(ctx)
//	    })
//	    return err
//	})
package resilience
