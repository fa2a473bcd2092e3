package config

import (
	"log/slog"
	"strings"

	pkgconfig "feedwatch/internal/pkg/config"
)

// applyEnv overrides cfg from the environment. Unset variables leave the
// file value alone.
//
//   - FEEDS: comma-separated feed URLs, replaces the feed list
//   - STORE_BACKEND, DATABASE_URL, SQLITE_PATH, DYNAMODB_TABLE, AWS_REGION
//   - SENDER_EMAIL, RECIPIENT_EMAIL (comma-separated), EMAIL_ENABLED, EMAIL_TIMEOUT
//   - SLACK_ENABLED, SLACK_WEBHOOK_URL, SLACK_TIMEOUT
//   - DISCORD_ENABLED, DISCORD_WEBHOOK_URL, DISCORD_TIMEOUT
//   - LOG_LEVEL, TRACING_ENABLED
func applyEnv(cfg *Config) {
	metrics := pkgconfig.NewConfigMetrics("app")
	logger := slog.Default()

	if urls := pkgconfig.LoadEnvList("FEEDS", nil).Value; len(urls) > 0 {
		cfg.Feeds = cfg.Feeds[:0]
		for _, u := range urls {
			cfg.Feeds = append(cfg.Feeds, FeedConfig{URL: u})
		}
	}

	s := &cfg.Store
	s.Backend = strings.ToLower(pkgconfig.LoadEnvString("STORE_BACKEND", s.Backend))
	s.DatabaseURL = pkgconfig.LoadEnvString("DATABASE_URL", s.DatabaseURL)
	s.SQLitePath = pkgconfig.LoadEnvString("SQLITE_PATH", s.SQLitePath)
	s.DynamoTable = pkgconfig.LoadEnvString("DYNAMODB_TABLE", s.DynamoTable)
	s.AWSRegion = pkgconfig.LoadEnvString("AWS_REGION", s.AWSRegion)

	e := &cfg.Notify.Email
	e.Sender = pkgconfig.LoadEnvString("SENDER_EMAIL", e.Sender)
	e.Recipients = pkgconfig.LoadEnvList("RECIPIENT_EMAIL", e.Recipients).Value
	if envSet("EMAIL_ENABLED") {
		v := pkgconfig.Track(metrics, logger, "email_enabled",
			pkgconfig.LoadEnvBool("EMAIL_ENABLED", e.IsEnabled()))
		e.Enabled = &v
	}
	e.Timeout = pkgconfig.Track(metrics, logger, "email_timeout",
		pkgconfig.LoadEnvDuration("EMAIL_TIMEOUT", e.Timeout, pkgconfig.ValidatePositiveDuration))

	applyWebhookEnv(&cfg.Notify.Slack, "SLACK", metrics, logger)
	applyWebhookEnv(&cfg.Notify.Discord, "DISCORD", metrics, logger)

	cfg.LogLevel = pkgconfig.LoadEnvString("LOG_LEVEL", cfg.LogLevel)
	cfg.Tracing = pkgconfig.Track(metrics, logger, "tracing_enabled",
		pkgconfig.LoadEnvBool("TRACING_ENABLED", cfg.Tracing))

	metrics.RecordLoadTimestamp()
}

func applyWebhookEnv(w *WebhookConfig, prefix string, m *pkgconfig.ConfigMetrics, logger *slog.Logger) {
	field := strings.ToLower(prefix)
	w.WebhookURL = pkgconfig.LoadEnvString(prefix+"_WEBHOOK_URL", w.WebhookURL)
	w.Enabled = pkgconfig.Track(m, logger, field+"_enabled",
		pkgconfig.LoadEnvBool(prefix+"_ENABLED", w.Enabled))
	w.Timeout = pkgconfig.Track(m, logger, field+"_timeout",
		pkgconfig.LoadEnvDuration(prefix+"_TIMEOUT", w.Timeout, pkgconfig.ValidatePositiveDuration))
}

func envSet(key string) bool {
	return pkgconfig.LoadEnvString(key, "") != ""
}
