// Package retry re-runs an operation that failed transiently, waiting an
// exponentially growing, jittered delay between attempts.
package retry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net"
	"net/http"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var attemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "feedwatch_retry_attempts_total",
		Help: "Retry decisions by operation and result (retried, recovered, exhausted, aborted, permanent)",
	},
	[]string{"operation", "result"},
)

// Config holds the backoff schedule.
type Config struct {
	// MaxAttempts counts the first call. 1 disables retrying.
	MaxAttempts int

	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64

	// JitterFraction adds up to this fraction of the delay at random (0.0 to 1.0).
	JitterFraction float64
}

// FeedFetchConfig is the schedule for feed fetches. The fetch timeout of the
// watch cycle bounds the total.
func FeedFetchConfig() Config {
	return Config{
		MaxAttempts:    4,
		InitialDelay:   1 * time.Second,
		MaxDelay:       30 * time.Second,
		Multiplier:     2.0,
		JitterFraction: 0.1,
	}
}

// Delay returns the un-jittered wait after failed attempt n (1-based).
func (c Config) Delay(n int) time.Duration {
	d := float64(c.InitialDelay)
	for i := 1; i < n; i++ {
		d *= c.Multiplier
		if d >= float64(c.MaxDelay) {
			return c.MaxDelay
		}
	}
	return time.Duration(d)
}

// ExhaustedError is returned when every attempt failed with a retryable error.
type ExhaustedError struct {
	Op       string
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("%s: gave up after %d attempts: %v", e.Op, e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error { return e.Err }

// Do calls fn until it succeeds, returns a non-retryable error, the attempts
// run out or ctx ends. op names the operation in logs and metrics.
//
// A non-retryable error is returned as is. Cancellation while waiting returns
// an error wrapping both ctx.Err() and the last failure.
func Do(ctx context.Context, op string, cfg Config, fn func(ctx context.Context) error) error {
	attempts := max(cfg.MaxAttempts, 1)

	var lastErr error
	for n := 1; n <= attempts; n++ {
		lastErr = fn(ctx)
		if lastErr == nil {
			if n > 1 {
				attemptsTotal.WithLabelValues(op, "recovered").Inc()
				slog.Info("operation succeeded after retry",
					slog.String("operation", op),
					slog.Int("attempt", n))
			}
			return nil
		}

		if !IsRetryable(lastErr) {
			attemptsTotal.WithLabelValues(op, "permanent").Inc()
			return lastErr
		}
		if n == attempts {
			break
		}

		wait := waitFor(cfg, n, lastErr)
		attemptsTotal.WithLabelValues(op, "retried").Inc()
		slog.Warn("operation failed, retrying",
			slog.String("operation", op),
			slog.Int("attempt", n),
			slog.Int("max_attempts", attempts),
			slog.Duration("delay", wait),
			slog.Any("error", lastErr))

		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			attemptsTotal.WithLabelValues(op, "aborted").Inc()
			return fmt.Errorf("%s: retry aborted: %w: %w", op, ctx.Err(), lastErr)
		}
	}

	attemptsTotal.WithLabelValues(op, "exhausted").Inc()
	return &ExhaustedError{Op: op, Attempts: attempts, Err: lastErr}
}

// waitFor jitters the backoff delay and honours a server supplied
// Retry-After, never exceeding MaxDelay.
func waitFor(cfg Config, n int, err error) time.Duration {
	wait := addJitter(cfg.Delay(n), cfg.JitterFraction)

	var httpErr *HTTPError
	if errors.As(err, &httpErr) && httpErr.RetryAfter > wait {
		wait = httpErr.RetryAfter
	}
	if cfg.MaxDelay > 0 && wait > cfg.MaxDelay {
		wait = cfg.MaxDelay
	}
	return wait
}

// IsRetryable reports whether err is transient: dropped or timed out
// connections, truncated bodies, 5xx, 408 and 429. Context errors never are.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		switch {
		case httpErr.StatusCode >= 500 && httpErr.StatusCode < 600:
			return true
		case httpErr.StatusCode == http.StatusTooManyRequests,
			httpErr.StatusCode == http.StatusRequestTimeout:
			return true
		default:
			return false
		}
	}

	var netErr net.Error
	switch {
	case errors.Is(err, io.ErrUnexpectedEOF):
		return true
	case errors.As(err, &netErr) && netErr.Timeout():
		return true
	case errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.ETIMEDOUT),
		errors.Is(err, syscall.ENETUNREACH):
		return true
	}
	return false
}

// HTTPError is a non-2xx response.
type HTTPError struct {
	StatusCode int
	Message    string
	// RetryAfter is the parsed Retry-After header, zero when absent.
	RetryAfter time.Duration
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// NewHTTPError builds an HTTPError from resp, reading Retry-After in either
// the delta-seconds or the HTTP-date form.
func NewHTTPError(resp *http.Response, now time.Time) *HTTPError {
	e := &HTTPError{StatusCode: resp.StatusCode, Message: resp.Status}
	ra := resp.Header.Get("Retry-After")
	if ra == "" {
		return e
	}
	if secs, err := strconv.Atoi(ra); err == nil && secs > 0 {
		e.RetryAfter = time.Duration(secs) * time.Second
	} else if at, err := http.ParseTime(ra); err == nil && at.After(now) {
		e.RetryAfter = at.Sub(now)
	}
	return e
}

func addJitter(d time.Duration, fraction float64) time.Duration {
	if fraction <= 0 || d <= 0 {
		return d
	}
	fraction = min(fraction, 1.0)
	// #nosec G404 -- jitter does not need cryptographic randomness.
	return d + time.Duration(rand.Float64()*float64(d)*fraction)
}
