package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feedwatch/internal/domain/entity"
)

const sampleYAML = `
feeds:
  - name: Example One
    url: https://example.com/feed1.xml
  - url: https://example.com/feed2.xml
store:
  backend: dynamodb
  dynamodb_table: rss-watermarks
  aws_region: ap-northeast-1
notify:
  slack:
    enabled: true
    webhook_url: https://hooks.slack.com/services/T000/B000/XXXX
    timeout: 5s
  email:
    sender: watcher@example.com
    recipients: [me@example.com]
log_level: debug
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "feedwatch.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_File(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	want := []entity.Source{
		{Name: "Example One", FeedURL: "https://example.com/feed1.xml"},
		{FeedURL: "https://example.com/feed2.xml"},
	}
	if diff := cmp.Diff(want, cfg.Sources()); diff != "" {
		t.Fatalf("Sources mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, BackendDynamoDB, cfg.Store.Backend)
	assert.Equal(t, "rss-watermarks", cfg.Store.DynamoTable)
	assert.Equal(t, 5*time.Second, cfg.Notify.Slack.Timeout)
	assert.Equal(t, 10*time.Second, cfg.Notify.Discord.Timeout)
	assert.True(t, cfg.Notify.Email.IsEnabled())
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("FEEDS", "https://a.example.com/rss, https://b.example.com/atom")
	t.Setenv("DYNAMODB_TABLE", "other-table")
	t.Setenv("RECIPIENT_EMAIL", "a@example.com,b@example.com")
	t.Setenv("SLACK_ENABLED", "false")

	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	require.Len(t, cfg.Feeds, 2)
	assert.Equal(t, "https://a.example.com/rss", cfg.Feeds[0].URL)
	assert.Equal(t, "other-table", cfg.Store.DynamoTable)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, cfg.Notify.Email.Recipients)
	assert.False(t, cfg.Notify.Slack.Enabled)
}

func TestLoad_EnvOnly(t *testing.T) {
	// 設定ファイルなし: 旧デプロイと同じ環境変数だけで動く
	t.Setenv("FEEDWATCH_CONFIG", "")
	t.Setenv("FEEDS", "https://example.com/feed1.xml")
	t.Setenv("STORE_BACKEND", "DynamoDB")
	t.Setenv("DYNAMODB_TABLE", "rss-watermarks")
	t.Setenv("SENDER_EMAIL", "watcher@example.com")
	t.Setenv("RECIPIENT_EMAIL", "me@example.com")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, BackendDynamoDB, cfg.Store.Backend)
	assert.True(t, cfg.Notify.Email.IsEnabled())
}

func TestLoad_EmailDisabledExplicitly(t *testing.T) {
	t.Setenv("EMAIL_ENABLED", "false")
	t.Setenv("SLACK_ENABLED", "true")
	t.Setenv("SLACK_WEBHOOK_URL", "https://hooks.slack.com/services/T000/B000/XXXX")
	t.Setenv("FEEDS", "https://example.com/feed1.xml")
	t.Setenv("SENDER_EMAIL", "watcher@example.com")
	t.Setenv("RECIPIENT_EMAIL", "me@example.com")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.False(t, cfg.Notify.Email.IsEnabled())
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		require.Error(t, err)
	})
	t.Run("unknown field", func(t *testing.T) {
		_, err := Load(writeConfig(t, "feedz: []\n"))
		require.Error(t, err)
	})
	t.Run("bad duration", func(t *testing.T) {
		_, err := Load(writeConfig(t, "notify:\n  slack:\n    timeout: soon\n"))
		require.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg, err := Parse([]byte(sampleYAML))
		require.NoError(t, err)
		return cfg
	}
	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		errSub string
	}{
		{"no feeds", func(c *Config) { c.Feeds = nil }, "at least one feed"},
		{"relative feed", func(c *Config) { c.Feeds[0].URL = "/feed.xml" }, "feeds[0]"},
		{"unknown backend", func(c *Config) { c.Store.Backend = "mysql" }, "must be one of"},
		{"postgres without dsn", func(c *Config) { c.Store.Backend = BackendPostgres }, "DATABASE_URL"},
		{"sqlite without path", func(c *Config) {
			c.Store.Backend = BackendSQLite
			c.Store.SQLitePath = ""
		}, "SQLITE_PATH"},
		{"slack without url", func(c *Config) { c.Notify.Slack.WebhookURL = "" }, "slack: webhook_url is required"},
		{"slack over http", func(c *Config) {
			c.Notify.Slack.WebhookURL = "http://hooks.slack.com/services/T000/B000/XXXX"
		}, "absolute https"},
		{"bad sender", func(c *Config) { c.Notify.Email.Sender = "not an address" }, "sender"},
		{"no channels", func(c *Config) {
			off := false
			c.Notify.Slack.Enabled = false
			c.Notify.Email.Enabled = &off
		}, "no channel is enabled"},
		{"log level", func(c *Config) { c.LogLevel = "verbose" }, "log_level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidConfig))
			assert.Contains(t, err.Error(), tt.errSub)
		})
	}
}

func TestValidate_DuplicateFeedsAllowed(t *testing.T) {
	cfg, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)
	cfg.Feeds = append(cfg.Feeds, cfg.Feeds[0])
	assert.NoError(t, cfg.Validate())
}
