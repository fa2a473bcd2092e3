package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"
	"unicode/utf8"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const requestIDKey contextKey = "request_id"

const (
	defaultMaxAttempts = 2
	defaultBaseDelay   = 5 * time.Second
	defaultRetryAfter  = 5 * time.Second
)

// Common error types shared by the webhook and e-mail notifiers.

// RateLimitError represents a 429 (or provider throttling) response.
type RateLimitError struct {
	RetryAfter time.Duration
	Message    string // Optional custom message
}

func (e *RateLimitError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s (retry after %v)", e.Message, e.RetryAfter)
	}
	return fmt.Sprintf("rate limit exceeded (retry after %v)", e.RetryAfter)
}

// ClientError represents a rejected request that will not succeed on retry.
type ClientError struct {
	StatusCode int
	Message    string
}

func (e *ClientError) Error() string {
	return e.Message
}

// ServerError represents a 5xx server error from a remote service.
type ServerError struct {
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	return e.Message
}

// is429Error checks if the error is a rate limit error and extracts retry_after.
func is429Error(err error) (*RateLimitError, bool) {
	var rateLimitErr *RateLimitError
	if errors.As(err, &rateLimitErr) {
		return rateLimitErr, true
	}
	return nil, false
}

// isRetryableError checks if the error is worth retrying (5xx server errors, network errors).
// Client errors (4xx) are not retryable except for rate limits (429).
func isRetryableError(err error) bool {
	var serverErr *ServerError
	if errors.As(err, &serverErr) {
		return true
	}

	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return false
	}

	var rateLimitErr *RateLimitError
	if errors.As(err, &rateLimitErr) {
		return false // Handled by is429Error
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	return true
}

// classifyResponse maps a webhook HTTP response to nil or one of the error types above.
func classifyResponse(service string, resp *http.Response, body []byte) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return &RateLimitError{
			Message:    service + " rate limit exceeded",
			RetryAfter: extractRetryAfter(resp, body),
		}
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return &ClientError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("%s API client error: %s", service, string(body)),
		}
	case resp.StatusCode >= 500:
		return &ServerError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("%s API server error: %s", service, string(body)),
		}
	}
	return fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, string(body))
}

// retryAfterBody is the JSON error body Discord (and some Slack proxies) send with 429.
type retryAfterBody struct {
	RetryAfter float64 `json:"retry_after"` // In seconds
}

// extractRetryAfter reads the back-off from the JSON body or the Retry-After header.
func extractRetryAfter(resp *http.Response, body []byte) time.Duration {
	var parsed retryAfterBody
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.RetryAfter > 0 {
		return time.Duration(parsed.RetryAfter * float64(time.Second))
	}

	if header := resp.Header.Get("Retry-After"); header != "" {
		if seconds, err := strconv.Atoi(header); err == nil && seconds > 0 {
			return time.Duration(seconds) * time.Second
		}
	}

	return defaultRetryAfter
}

// retryPolicy controls deliverWithRetry.
type retryPolicy struct {
	maxAttempts int
	baseDelay   time.Duration
}

func (p retryPolicy) withDefaults() retryPolicy {
	if p.maxAttempts <= 0 {
		p.maxAttempts = defaultMaxAttempts
	}
	if p.baseDelay <= 0 {
		p.baseDelay = defaultBaseDelay
	}
	return p
}

// deliverWithRetry calls send until it succeeds, fails permanently or the
// attempts run out.
//
// Retry strategy:
//   - Rate limits: wait retry_after, then try again
//   - Server errors and network errors: linear backoff (baseDelay * attempt)
//   - Client errors and context errors: fail immediately
func deliverWithRetry(ctx context.Context, channel string, policy retryPolicy, feed string, send func(context.Context) error) error {
	policy = policy.withDefaults()
	requestID, _ := ctx.Value(requestIDKey).(string)

	var lastErr error
	for attempt := 1; attempt <= policy.maxAttempts; attempt++ {
		err := send(ctx)
		if err == nil {
			slog.Info(channel+" notification successful",
				slog.String("request_id", requestID),
				slog.String("feed_url", feed),
				slog.Int("attempt", attempt))
			return nil
		}
		lastErr = err

		if rateLimitErr, ok := is429Error(err); ok {
			recordRateLimitHit(channel)
			slog.Warn(channel+" rate limit hit, backing off",
				slog.String("request_id", requestID),
				slog.String("feed_url", feed),
				slog.Duration("retry_after", rateLimitErr.RetryAfter),
				slog.Int("attempt", attempt))
			if attempt == policy.maxAttempts {
				break
			}
			select {
			case <-time.After(rateLimitErr.RetryAfter):
				continue
			case <-ctx.Done():
				return fmt.Errorf("context canceled during rate limit backoff: %w", ctx.Err())
			}
		}

		if !isRetryableError(err) {
			slog.Error(channel+" notification failed with non-retryable error",
				slog.String("request_id", requestID),
				slog.String("feed_url", feed),
				slog.Any("error", err),
				slog.Int("attempt", attempt))
			return err
		}

		if attempt < policy.maxAttempts {
			delay := policy.baseDelay * time.Duration(attempt)
			slog.Warn(channel+" request failed, retrying",
				slog.String("request_id", requestID),
				slog.String("feed_url", feed),
				slog.Any("error", err),
				slog.Int("attempt", attempt),
				slog.Duration("delay", delay))

			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return fmt.Errorf("context canceled during retry backoff: %w", ctx.Err())
			}
		}
	}

	slog.Error(channel+" notification failed after all retries",
		slog.String("request_id", requestID),
		slog.String("feed_url", feed),
		slog.Any("error", lastErr),
		slog.Int("max_attempts", policy.maxAttempts))

	return fmt.Errorf("%s notification failed after %d attempts: %w", channel, policy.maxAttempts, lastErr)
}

// waitForToken blocks on the limiter and records how long it took.
func waitForToken(ctx context.Context, channel string, limiter *RateLimiter) error {
	start := time.Now()
	if err := limiter.Allow(ctx); err != nil {
		return fmt.Errorf("rate limiter error: %w", err)
	}
	recordRateLimitWait(channel, time.Since(start))
	return nil
}

// truncateSummary truncates text to at most maxLength bytes without
// splitting a UTF-8 sequence. If truncated, suffix is appended.
func truncateSummary(text string, maxLength int, suffix string) string {
	if len(text) <= maxLength {
		return text
	}

	truncateAt := maxLength - len(suffix)
	if truncateAt < 0 {
		truncateAt = 0
	}
	for truncateAt > 0 && !utf8.RuneStart(text[truncateAt]) {
		truncateAt--
	}

	return text[:truncateAt] + suffix
}

// entryTimestamp formats the parsed publication time of an entry.
func entryTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
