package watch

import "errors"

// ErrFetch wraps any failure of the feed fetcher, including a fetch timeout.
// The feed is retried on the next run.
var ErrFetch = errors.New("fetch feed")
