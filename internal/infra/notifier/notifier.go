// Package notifier delivers batches of new feed entries to external services.
// It defines the Notifier interface so that Slack and Discord webhooks and
// e-mail via Amazon SES can be used interchangeably through dependency injection.
//
// Every implementation applies its own rate limiting and retries transient
// failures before reporting an error.
package notifier

import (
	"context"

	"feedwatch/internal/domain/entity"
)

// Notification is one delivery unit: all new entries detected for a feed in
// a single cycle, newest first.
type Notification struct {
	Feed    entity.Source
	Entries []entity.DetectedEntry
}

// Notifier sends a Notification.
type Notifier interface {
	// Notify returns nil only when the whole batch was accepted by the
	// remote service. Implementations must respect ctx cancellation.
	Notify(ctx context.Context, n Notification) error
}
