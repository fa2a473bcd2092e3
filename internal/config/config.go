// Package config loads the feedwatch application configuration: the feed
// list, the watermark store and the notification channels. Values come from
// an optional YAML file and are then overridden by environment variables.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"feedwatch/internal/domain/entity"
)

// Store backends.
const (
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
	BackendDynamoDB = "dynamodb"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the application configuration.
type Config struct {
	Feeds    []FeedConfig `yaml:"feeds"`
	Store    StoreConfig  `yaml:"store"`
	Notify   NotifyConfig `yaml:"notify"`
	LogLevel string       `yaml:"log_level"`
	// Tracing installs the OpenTelemetry SDK tracer provider.
	Tracing bool `yaml:"tracing"`
}

// FeedConfig is one configured feed. Order is preserved.
type FeedConfig struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// StoreConfig selects and configures the watermark store.
type StoreConfig struct {
	Backend     string `yaml:"backend"`
	DatabaseURL string `yaml:"database_url"`
	SQLitePath  string `yaml:"sqlite_path"`
	DynamoTable string `yaml:"dynamodb_table"`
	AWSRegion   string `yaml:"aws_region"`
}

// NotifyConfig configures the notification channels.
type NotifyConfig struct {
	Slack   WebhookConfig `yaml:"slack"`
	Discord WebhookConfig `yaml:"discord"`
	Email   EmailConfig   `yaml:"email"`
}

// WebhookConfig configures a webhook channel.
type WebhookConfig struct {
	Enabled    bool          `yaml:"enabled"`
	WebhookURL string        `yaml:"webhook_url"`
	Timeout    time.Duration `yaml:"timeout"`
}

// EmailConfig configures SES e-mail. When Enabled is unset, e-mail is on as
// soon as a sender and at least one recipient are configured.
type EmailConfig struct {
	Enabled    *bool         `yaml:"enabled"`
	Sender     string        `yaml:"sender"`
	Recipients []string      `yaml:"recipients"`
	Timeout    time.Duration `yaml:"timeout"`
}

// IsEnabled resolves the effective e-mail switch.
func (e EmailConfig) IsEnabled() bool {
	if e.Enabled != nil {
		return *e.Enabled
	}
	return e.Sender != "" && len(e.Recipients) > 0
}

// Default returns the configuration used before the file and environment
// are applied.
func Default() Config {
	return Config{
		Store: StoreConfig{
			Backend:    BackendSQLite,
			SQLitePath: "feedwatch.db",
		},
		Notify: NotifyConfig{
			Slack:   WebhookConfig{Timeout: 10 * time.Second},
			Discord: WebhookConfig{Timeout: 10 * time.Second},
			Email:   EmailConfig{Timeout: 10 * time.Second},
		},
		LogLevel: "info",
	}
}

// Load reads path (or $FEEDWATCH_CONFIG when path is empty), applies the
// environment overrides and validates the result. With no file at all the
// configuration comes from defaults and the environment alone.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("FEEDWATCH_CONFIG")
	}
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open config: %w", err)
		}
		defer func() { _ = f.Close() }()
		if err := decode(f, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Parse decodes YAML from data over the defaults without touching the
// environment.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := decode(bytes.NewReader(data), &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func decode(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Sources returns the feeds as domain sources in configuration order.
func (c *Config) Sources() []entity.Source {
	out := make([]entity.Source, 0, len(c.Feeds))
	for _, f := range c.Feeds {
		out = append(out, entity.Source{Name: f.Name, FeedURL: f.URL})
	}
	return out
}
