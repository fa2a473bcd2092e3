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

// SlackConfig contains configuration for Slack webhook notifications.
type SlackConfig struct {
	// Enabled indicates whether Slack notifications are enabled
	Enabled bool

	// WebhookURL is the Slack Incoming Webhook URL (includes authentication token)
	WebhookURL string

	// Timeout is the HTTP request timeout for Slack API calls
	Timeout time.Duration

	// MaxAttempts and RetryBaseDelay tune the retry loop. Zero means default.
	MaxAttempts    int
	RetryBaseDelay time.Duration
}

// SlackNotifier posts one Block Kit message per notification via Incoming Webhook.
type SlackNotifier struct {
	config      SlackConfig
	httpClient  *http.Client
	rateLimiter *RateLimiter
}

// NewSlackNotifier creates a SlackNotifier limited to 1 request/second
// (the Slack webhook limit).
func NewSlackNotifier(config SlackConfig) *SlackNotifier {
	return &SlackNotifier{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		rateLimiter: NewRateLimiter(1.0, 1),
	}
}

// SlackWebhookPayload represents the JSON payload sent to Slack webhook using Block Kit.
type SlackWebhookPayload struct {
	Text   string       `json:"text"`   // Fallback text (required)
	Blocks []SlackBlock `json:"blocks"` // Rich formatting blocks
}

// SlackBlock represents a Slack Block Kit block.
type SlackBlock struct {
	Type     string            `json:"type"`               // "header", "section", "context", "divider"
	Text     *SlackTextObject  `json:"text,omitempty"`     // Text content (for header/section)
	Elements []SlackTextObject `json:"elements,omitempty"` // Elements (for context)
}

// SlackTextObject represents a text object in Slack Block Kit.
type SlackTextObject struct {
	Type string `json:"type"` // "mrkdwn" or "plain_text"
	Text string `json:"text"` // Actual text content
}

const (
	// Slack Block Kit limits
	maxSlackBlocks       = 50
	maxHeaderTextLength  = 150
	maxSectionTextLength = 3000
	maxFallbackLength    = 150
	slackSummaryLength   = 300

	// Blocks per entry (section + context) and the fixed header/footer blocks.
	slackBlocksPerEntry = 2
	slackFixedBlocks    = 2

	slackTruncationSuffix = "..."
)

// buildBlockKitPayload renders a header naming the feed, a section and a
// context block per entry, and a trailing context noting omitted entries when
// the batch exceeds the Block Kit block limit.
func (s *SlackNotifier) buildBlockKitPayload(n Notification) SlackWebhookPayload {
	feedName := n.Feed.DisplayName()

	fallbackText := truncateSummary(
		fmt.Sprintf("%d new entries for %s", len(n.Entries), feedName),
		maxFallbackLength, slackTruncationSuffix)

	blocks := []SlackBlock{{
		Type: "header",
		Text: &SlackTextObject{
			Type: "plain_text",
			Text: truncateSummary("New entries for "+feedName, maxHeaderTextLength, slackTruncationSuffix),
		},
	}}

	maxEntries := (maxSlackBlocks - slackFixedBlocks) / slackBlocksPerEntry
	shown := n.Entries
	if len(shown) > maxEntries {
		shown = shown[:maxEntries]
	}

	for _, e := range shown {
		// Format: *<url|title>*\nsummary
		text := fmt.Sprintf("*%s*", e.Title)
		if e.Link != "" {
			text = fmt.Sprintf("*<%s|%s>*", e.Link, e.Title)
		}
		if e.Summary != "" {
			text += "\n" + truncateSummary(e.Summary, slackSummaryLength, slackTruncationSuffix)
		}

		blocks = append(blocks,
			SlackBlock{
				Type: "section",
				Text: &SlackTextObject{
					Type: "mrkdwn",
					Text: truncateSummary(text, maxSectionTextLength, slackTruncationSuffix),
				},
			},
			SlackBlock{
				Type:     "context",
				Elements: []SlackTextObject{{Type: "mrkdwn", Text: slackContext(feedName, e.Author, entryTimestamp(e.PublishedAt))}},
			},
		)
	}

	if omitted := len(n.Entries) - len(shown); omitted > 0 {
		blocks = append(blocks, SlackBlock{
			Type:     "context",
			Elements: []SlackTextObject{{Type: "mrkdwn", Text: fmt.Sprintf("…and %d more", omitted)}},
		})
	}

	return SlackWebhookPayload{
		Text:   fallbackText,
		Blocks: blocks,
	}
}

func slackContext(parts ...string) string {
	out := ""
	for _, p := range parts {
		if p == "" {
			continue
		}
		if out != "" {
			out += " • "
		}
		out += p
	}
	return out
}

// sendWebhookRequest posts the payload once and classifies the response.
func (s *SlackNotifier) sendWebhookRequest(ctx context.Context, payload SlackWebhookPayload) error {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.WebhookURL, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("create http request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(resp.Body)
	return classifyResponse("Slack", resp, body)
}

// Notify implements Notifier.
func (s *SlackNotifier) Notify(ctx context.Context, n Notification) error {
	requestID := uuid.New().String()
	ctx = context.WithValue(ctx, requestIDKey, requestID)

	slog.Info("Starting Slack notification",
		slog.String("request_id", requestID),
		slog.String("feed_url", n.Feed.FeedURL),
		slog.Int("entries", len(n.Entries)))

	if err := waitForToken(ctx, "slack", s.rateLimiter); err != nil {
		slog.Error("Rate limiter error",
			slog.String("request_id", requestID),
			slog.Any("error", err))
		return err
	}

	payload := s.buildBlockKitPayload(n)
	policy := retryPolicy{maxAttempts: s.config.MaxAttempts, baseDelay: s.config.RetryBaseDelay}
	return deliverWithRetry(ctx, "slack", policy, n.Feed.FeedURL, func(ctx context.Context) error {
		return s.sendWebhookRequest(ctx, payload)
	})
}
