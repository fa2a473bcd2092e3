package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"

	"feedwatch/internal/domain/entity"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const requestIDKey contextKey = "request_id"

// Circuit breaker defaults
const (
	defaultCircuitBreakerThreshold = 5               // Consecutive failures before opening
	defaultCircuitBreakerTimeout   = 5 * time.Minute // Duration to keep circuit breaker open
)

// Service dispatches notifications to all enabled channels.
type Service interface {
	// Dispatch sends entries (newest first) to every enabled channel and
	// waits for the results. It returns nil only if every enabled channel
	// accepted the batch; otherwise the error wraps ErrDispatchFailed and one
	// *ChannelError per failed channel.
	Dispatch(ctx context.Context, feed entity.Source, entries []entity.DetectedEntry) error

	// GetChannelHealth returns the health status of all notification channels.
	GetChannelHealth() []ChannelHealthStatus
}

// ChannelHealthStatus represents the health status of a notification channel.
type ChannelHealthStatus struct {
	Name               string     // Channel name (e.g., "discord", "slack")
	Enabled            bool       // Whether the channel is enabled
	CircuitBreakerOpen bool       // Whether the circuit breaker is currently open
	DisabledUntil      *time.Time // Time until circuit breaker remains open (nil if closed)
}

// Options tunes the per-channel circuit breaker.
type Options struct {
	CircuitBreakerThreshold int
	CircuitBreakerTimeout   time.Duration
	// Now is the clock used for circuit breaker decisions; defaults to time.Now.
	Now func() time.Time
}

// service is the concrete implementation of Service interface.
type service struct {
	channels      []Channel
	channelHealth map[string]*channelHealth // Circuit breaker state per channel
	opts          Options
}

// channelHealth tracks circuit breaker state for a channel
type channelHealth struct {
	consecutiveFailures int
	disabledUntil       time.Time
	mu                  sync.Mutex
}

// NewService creates a notification service with default circuit breaker settings.
func NewService(channels []Channel) Service {
	return NewServiceWithOptions(channels, Options{})
}

// NewServiceWithOptions creates a notification service.
func NewServiceWithOptions(channels []Channel, opts Options) Service {
	if opts.CircuitBreakerThreshold <= 0 {
		opts.CircuitBreakerThreshold = defaultCircuitBreakerThreshold
	}
	if opts.CircuitBreakerTimeout <= 0 {
		opts.CircuitBreakerTimeout = defaultCircuitBreakerTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	svc := &service{
		channels:      channels,
		channelHealth: make(map[string]*channelHealth, len(channels)),
		opts:          opts,
	}
	enabled := 0
	for _, ch := range channels {
		svc.channelHealth[ch.Name()] = &channelHealth{}
		if ch.IsEnabled() {
			enabled++
		}
	}
	SetChannelsEnabled(float64(enabled))
	return svc
}

// Dispatch implements Service.Dispatch.
func (s *service) Dispatch(ctx context.Context, feed entity.Source, entries []entity.DetectedEntry) error {
	if len(entries) == 0 {
		return fmt.Errorf("%w: %w", ErrDispatchFailed, ErrEmptyBatch)
	}

	requestID, ok := ctx.Value(requestIDKey).(string)
	if !ok || requestID == "" {
		requestID = uuid.New().String()
		ctx = context.WithValue(ctx, requestIDKey, requestID)
	}

	enabled := make([]Channel, 0, len(s.channels))
	for _, ch := range s.channels {
		if ch.IsEnabled() {
			enabled = append(enabled, ch)
		}
	}
	if len(enabled) == 0 {
		slog.Warn("No notification channels enabled",
			slog.String("request_id", requestID),
			slog.String("feed_url", feed.FeedURL))
		return fmt.Errorf("%w: %w", ErrDispatchFailed, ErrNoChannels)
	}

	slog.Info("Dispatching feed notification",
		slog.String("request_id", requestID),
		slog.String("feed_url", feed.FeedURL),
		slog.Int("entries", len(entries)),
		slog.Int("enabled_channels", len(enabled)))

	errs := make([]error, len(enabled))
	var wg sync.WaitGroup
	for i, ch := range enabled {
		i, ch := i, ch
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = s.sendToChannel(ctx, requestID, ch, feed, entries)
		}()
	}
	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %w", ErrDispatchFailed, err)
	}
	RecordEntriesDelivered(len(entries))
	return nil
}

// sendToChannel sends the batch to one channel under its circuit breaker.
func (s *service) sendToChannel(ctx context.Context, requestID string, channel Channel, feed entity.Source, entries []entity.DetectedEntry) (err error) {
	IncrementActiveSends()
	defer DecrementActiveSends()

	defer func() {
		if r := recover(); r != nil {
			slog.Error("Panic in notification channel",
				slog.String("request_id", requestID),
				slog.String("channel", channel.Name()),
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())))
			err = &ChannelError{Channel: channel.Name(), Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	health := s.channelHealth[channel.Name()]
	health.mu.Lock()
	if s.opts.Now().Before(health.disabledUntil) {
		until := health.disabledUntil
		health.mu.Unlock()
		slog.Warn("Channel temporarily disabled due to circuit breaker",
			slog.String("request_id", requestID),
			slog.String("channel", channel.Name()),
			slog.Time("disabled_until", until))
		RecordDropped(channel.Name(), "circuit_open")
		return &ChannelError{Channel: channel.Name(), Err: ErrCircuitBreakerOpen}
	}
	health.mu.Unlock()

	startTime := time.Now()
	RecordDispatch(channel.Name())

	sendErr := channel.Send(ctx, feed, entries)
	duration := time.Since(startTime)

	health.mu.Lock()
	if sendErr != nil {
		health.consecutiveFailures++
		if health.consecutiveFailures >= s.opts.CircuitBreakerThreshold {
			health.disabledUntil = s.opts.Now().Add(s.opts.CircuitBreakerTimeout)
			slog.Error("Circuit breaker opened for channel",
				slog.String("request_id", requestID),
				slog.String("channel", channel.Name()),
				slog.Int("consecutive_failures", health.consecutiveFailures))
			RecordCircuitBreakerOpen(channel.Name())
		}
	} else {
		health.consecutiveFailures = 0
	}
	health.mu.Unlock()

	if sendErr != nil {
		RecordFailure(channel.Name(), duration)
		slog.Warn("Channel notification failed",
			slog.String("request_id", requestID),
			slog.String("channel", channel.Name()),
			slog.String("feed_url", feed.FeedURL),
			slog.Duration("send_duration", duration),
			slog.Any("error", sendErr))
		return &ChannelError{Channel: channel.Name(), Err: sendErr}
	}

	RecordSuccess(channel.Name(), duration)
	slog.Info("Channel notification sent successfully",
		slog.String("request_id", requestID),
		slog.String("channel", channel.Name()),
		slog.String("feed_url", feed.FeedURL),
		slog.Int("entries", len(entries)),
		slog.Duration("send_duration", duration))
	return nil
}

// GetChannelHealth implements Service.GetChannelHealth.
func (s *service) GetChannelHealth() []ChannelHealthStatus {
	statuses := make([]ChannelHealthStatus, 0, len(s.channels))
	now := s.opts.Now()

	for _, ch := range s.channels {
		health := s.channelHealth[ch.Name()]

		health.mu.Lock()
		var disabledUntil *time.Time
		circuitBreakerOpen := false
		if now.Before(health.disabledUntil) {
			circuitBreakerOpen = true
			until := health.disabledUntil
			disabledUntil = &until
		}
		health.mu.Unlock()

		statuses = append(statuses, ChannelHealthStatus{
			Name:               ch.Name(),
			Enabled:            ch.IsEnabled(),
			CircuitBreakerOpen: circuitBreakerOpen,
			DisabledUntil:      disabledUntil,
		})
	}

	return statuses
}
