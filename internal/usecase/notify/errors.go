package notify

import "errors"

// Sentinel errors for notify use case operations.
var (
	// ErrDispatchFailed wraps every error returned by Service.Dispatch.
	ErrDispatchFailed = errors.New("notification dispatch failed")

	// ErrNoChannels indicates that no channel is enabled. Dispatch treats it as
	// a failure so a feed's watermark never advances without a delivery.
	ErrNoChannels = errors.New("no notification channels enabled")

	// ErrChannelDisabled indicates that Send() was called on a disabled channel.
	ErrChannelDisabled = errors.New("channel is disabled")

	// ErrEmptyBatch indicates that Send() was called without entries.
	ErrEmptyBatch = errors.New("notification batch is empty")

	// ErrInvalidSource indicates that the feed has no URL.
	ErrInvalidSource = errors.New("invalid source data")

	// ErrCircuitBreakerOpen indicates that the circuit breaker is open for this channel
	// and notifications are being rejected to prevent continuous failures.
	// The circuit breaker will automatically close after the timeout period.
	ErrCircuitBreakerOpen = errors.New("circuit breaker is open for this channel")
)

// ChannelError reports the failure of one channel during Dispatch.
type ChannelError struct {
	Channel string
	Err     error
}

func (e *ChannelError) Error() string {
	return e.Channel + ": " + e.Err.Error()
}

func (e *ChannelError) Unwrap() error {
	return e.Err
}
