package config

import (
	"errors"
	"fmt"
	"net/mail"

	"feedwatch/internal/domain/entity"
	"feedwatch/internal/observability/logging"
	pkgconfig "feedwatch/internal/pkg/config"
)

// Validate reports every problem at once, wrapped in ErrInvalidConfig.
// Duplicate feed URLs are allowed; the watcher collapses them.
func (c *Config) Validate() error {
	var errs []error

	if len(c.Feeds) == 0 {
		errs = append(errs, errors.New("feeds: at least one feed is required"))
	}
	for i, f := range c.Feeds {
		if err := entity.ValidateFeedURL(f.URL); err != nil {
			errs = append(errs, fmt.Errorf("feeds[%d]: %w", i, err))
		}
	}

	switch c.Store.Backend {
	case BackendPostgres:
		if c.Store.DatabaseURL == "" {
			errs = append(errs, errors.New("store: DATABASE_URL is required for postgres"))
		}
	case BackendSQLite:
		if c.Store.SQLitePath == "" {
			errs = append(errs, errors.New("store: SQLITE_PATH is required for sqlite"))
		}
	case BackendDynamoDB:
		if c.Store.DynamoTable == "" {
			errs = append(errs, errors.New("store: DYNAMODB_TABLE is required for dynamodb"))
		}
	default:
		errs = append(errs, fmt.Errorf("store: %w",
			pkgconfig.ValidateOneOf(BackendPostgres, BackendSQLite, BackendDynamoDB)(c.Store.Backend)))
	}

	errs = append(errs, validateWebhook("slack", c.Notify.Slack)...)
	errs = append(errs, validateWebhook("discord", c.Notify.Discord)...)

	if e := c.Notify.Email; e.IsEnabled() {
		if _, err := mail.ParseAddress(e.Sender); err != nil {
			errs = append(errs, fmt.Errorf("email: sender: %w", err))
		}
		if len(e.Recipients) == 0 {
			errs = append(errs, errors.New("email: at least one recipient is required"))
		}
		for i, r := range e.Recipients {
			if _, err := mail.ParseAddress(r); err != nil {
				errs = append(errs, fmt.Errorf("email: recipients[%d]: %w", i, err))
			}
		}
	}

	if !c.Notify.Slack.Enabled && !c.Notify.Discord.Enabled && !c.Notify.Email.IsEnabled() {
		errs = append(errs, errors.New("notify: no channel is enabled"))
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("log_level: unknown level %q", c.LogLevel))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

func validateWebhook(name string, w WebhookConfig) []error {
	if !w.Enabled {
		return nil
	}
	var errs []error
	if w.WebhookURL == "" {
		errs = append(errs, fmt.Errorf("%s: webhook_url is required when enabled", name))
	} else if err := pkgconfig.ValidateHTTPSURL(w.WebhookURL); err != nil {
		// The URL carries the webhook secret, so it is not echoed.
		errs = append(errs, fmt.Errorf("%s: webhook_url: %s", name, logging.SanitizeString(err.Error())))
	}
	if err := pkgconfig.ValidatePositiveDuration(w.Timeout); err != nil {
		errs = append(errs, fmt.Errorf("%s: timeout: %w", name, err))
	}
	return errs
}
