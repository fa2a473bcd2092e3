package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// DiscordConfig contains configuration for Discord webhook notifications.
type DiscordConfig struct {
	// Enabled indicates whether Discord notifications are enabled
	Enabled bool

	// WebhookURL is the Discord webhook URL (includes authentication token)
	WebhookURL string

	// Timeout is the HTTP request timeout for Discord API calls
	Timeout time.Duration

	MaxAttempts    int
	RetryBaseDelay time.Duration
}

// DiscordNotifier sends entries as embeds. Discord accepts at most ten embeds
// per message, so larger batches are split into several messages.
type DiscordNotifier struct {
	config      DiscordConfig
	httpClient  *http.Client
	rateLimiter *RateLimiter
}

// NewDiscordNotifier creates a DiscordNotifier limited to 0.5 req/s (30 req/min) with burst of 3.
func NewDiscordNotifier(config DiscordConfig) *DiscordNotifier {
	return &DiscordNotifier{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		rateLimiter: NewRateLimiter(0.5, 3),
	}
}

// DiscordWebhookPayload represents the JSON payload sent to Discord webhook.
type DiscordWebhookPayload struct {
	Content string         `json:"content,omitempty"`
	Embeds  []DiscordEmbed `json:"embeds"`
}

// DiscordEmbed represents a Discord embed object.
type DiscordEmbed struct {
	Title       string              `json:"title"`
	Description string              `json:"description,omitempty"`
	URL         string              `json:"url,omitempty"`
	Color       int                 `json:"color"`
	Author      *DiscordEmbedAuthor `json:"author,omitempty"`
	Footer      DiscordEmbedFooter  `json:"footer"`
	Timestamp   string              `json:"timestamp,omitempty"`
}

// DiscordEmbedAuthor represents the author section of a Discord embed.
type DiscordEmbedAuthor struct {
	Name string `json:"name"`
}

// DiscordEmbedFooter represents the footer section of a Discord embed.
type DiscordEmbedFooter struct {
	Text string `json:"text"`
}

const (
	// Discord embed limits
	maxTitleLength       = 256
	maxDescriptionLength = 4096
	maxAuthorLength      = 256
	maxEmbedsPerMessage  = 10
	discordSummaryLength = 500
	truncationSuffix     = "..."

	// Discord blue color (#5865F2)
	discordBlueColor = 5793266
)

// buildEmbedPayloads renders the batch as one or more webhook messages.
func (d *DiscordNotifier) buildEmbedPayloads(n Notification) []DiscordWebhookPayload {
	feedName := n.Feed.DisplayName()

	embeds := make([]DiscordEmbed, 0, len(n.Entries))
	for _, e := range n.Entries {
		embed := DiscordEmbed{
			Title:       truncateSummary(e.Title, maxTitleLength, truncationSuffix),
			Description: truncateSummary(e.Summary, discordSummaryLength, truncationSuffix),
			URL:         e.Link,
			Color:       discordBlueColor,
			Footer:      DiscordEmbedFooter{Text: feedName},
			Timestamp:   entryTimestamp(e.PublishedAt),
		}
		if e.Author != "" {
			embed.Author = &DiscordEmbedAuthor{Name: truncateSummary(e.Author, maxAuthorLength, truncationSuffix)}
		}
		embeds = append(embeds, embed)
	}

	var payloads []DiscordWebhookPayload
	for start := 0; start < len(embeds); start += maxEmbedsPerMessage {
		end := start + maxEmbedsPerMessage
		if end > len(embeds) {
			end = len(embeds)
		}
		p := DiscordWebhookPayload{Embeds: embeds[start:end]}
		if start == 0 {
			p.Content = truncateSummary(
				fmt.Sprintf("%d new entries for %s", len(n.Entries), feedName),
				maxDescriptionLength, truncationSuffix)
		}
		payloads = append(payloads, p)
	}
	return payloads
}

// sendWebhookRequest posts one message and classifies the response.
func (d *DiscordNotifier) sendWebhookRequest(ctx context.Context, payload DiscordWebhookPayload) error {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.config.WebhookURL, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("create http request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(resp.Body)
	return classifyResponse("Discord", resp, body)
}

// Notify implements Notifier. It fails on the first message that cannot be
// delivered; earlier messages of the batch are not recalled.
func (d *DiscordNotifier) Notify(ctx context.Context, n Notification) error {
	requestID := uuid.New().String()
	ctx = context.WithValue(ctx, requestIDKey, requestID)

	payloads := d.buildEmbedPayloads(n)
	slog.Info("Starting Discord notification",
		slog.String("request_id", requestID),
		slog.String("feed_url", n.Feed.FeedURL),
		slog.Int("entries", len(n.Entries)),
		slog.Int("messages", len(payloads)))

	policy := retryPolicy{maxAttempts: d.config.MaxAttempts, baseDelay: d.config.RetryBaseDelay}
	for i, payload := range payloads {
		if err := waitForToken(ctx, "discord", d.rateLimiter); err != nil {
			slog.Error("Rate limiter error",
				slog.String("request_id", requestID),
				slog.Any("error", err))
			return err
		}
		if err := deliverWithRetry(ctx, "discord", policy, n.Feed.FeedURL, func(ctx context.Context) error {
			return d.sendWebhookRequest(ctx, payload)
		}); err != nil {
			return fmt.Errorf("discord message %d/%d: %w", i+1, len(payloads), err)
		}
	}
	return nil
}
