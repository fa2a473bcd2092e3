// Package notify dispatches the new entries of a feed to every enabled
// delivery channel (Slack, Discord, e-mail) and reports a single
// all-or-nothing result, so callers only advance a feed's watermark when the
// batch reached every channel.
package notify

import (
	"context"

	"feedwatch/internal/domain/entity"
	"feedwatch/internal/infra/notifier"
)

// Channel represents a notification delivery channel.
//
// Retry Policy Contract:
//   - Transient failures (5xx, network errors): retried inside Send
//   - Rate limits (429, throttling): wait retry_after, then retry
//   - Client errors (4xx, rejected messages): no retry
//   - Context timeout: no retry
//
// All methods must be safe for concurrent use.
type Channel interface {
	// Name returns the channel identifier used in logs, metrics and health output.
	Name() string

	// IsEnabled reports whether the channel takes part in dispatching.
	IsEnabled() bool

	// Send delivers every entry of the batch or returns an error.
	Send(ctx context.Context, feed entity.Source, entries []entity.DetectedEntry) error
}

// NotifierChannel adapts an infra notifier to the Channel interface.
type NotifierChannel struct {
	name     string
	notifier notifier.Notifier
	enabled  bool
}

// NewNotifierChannel wraps n. A disabled channel is backed by a NoOpNotifier.
func NewNotifierChannel(name string, n notifier.Notifier, enabled bool) *NotifierChannel {
	if !enabled || n == nil {
		n = notifier.NewNoOpNotifier()
	}
	return &NotifierChannel{name: name, notifier: n, enabled: enabled}
}

// NewSlackChannel creates the "slack" channel.
func NewSlackChannel(config notifier.SlackConfig) *NotifierChannel {
	var n notifier.Notifier
	if config.Enabled {
		n = notifier.NewSlackNotifier(config)
	}
	return NewNotifierChannel("slack", n, config.Enabled)
}

// NewDiscordChannel creates the "discord" channel.
func NewDiscordChannel(config notifier.DiscordConfig) *NotifierChannel {
	var n notifier.Notifier
	if config.Enabled {
		n = notifier.NewDiscordNotifier(config)
	}
	return NewNotifierChannel("discord", n, config.Enabled)
}

// NewEmailChannel creates the "email" channel backed by SES.
func NewEmailChannel(config notifier.EmailConfig, client notifier.SESAPI) *NotifierChannel {
	var n notifier.Notifier
	if config.Enabled && client != nil {
		n = notifier.NewEmailNotifier(config, client)
	}
	return NewNotifierChannel("email", n, config.Enabled && client != nil)
}

func (c *NotifierChannel) Name() string {
	return c.name
}

func (c *NotifierChannel) IsEnabled() bool {
	return c.enabled
}

// Send validates the batch and delegates to the wrapped notifier.
func (c *NotifierChannel) Send(ctx context.Context, feed entity.Source, entries []entity.DetectedEntry) error {
	if !c.enabled {
		return ErrChannelDisabled
	}
	if feed.FeedURL == "" {
		return ErrInvalidSource
	}
	if len(entries) == 0 {
		return ErrEmptyBatch
	}
	return c.notifier.Notify(ctx, notifier.Notification{Feed: feed, Entries: entries})
}
