package notifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/google/uuid"
)

// EmailConfig contains configuration for e-mail notifications sent through Amazon SES.
type EmailConfig struct {
	Enabled bool

	// Sender is the verified SES identity used as From.
	Sender string

	// Recipients receive every notification.
	Recipients []string

	// Timeout bounds a single SendEmail call.
	Timeout time.Duration

	MaxAttempts    int
	RetryBaseDelay time.Duration
}

// SESAPI is the subset of *sesv2.Client used by EmailNotifier.
type SESAPI interface {
	SendEmail(ctx context.Context, in *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// EmailNotifier sends one plain-text message per notification.
type EmailNotifier struct {
	config      EmailConfig
	client      SESAPI
	rateLimiter *RateLimiter
}

// NewEmailNotifier creates an EmailNotifier limited to 1 message/second,
// the SES sandbox sending rate.
func NewEmailNotifier(config EmailConfig, client SESAPI) *EmailNotifier {
	return &EmailNotifier{
		config:      config,
		client:      client,
		rateLimiter: NewRateLimiter(1.0, 1),
	}
}

// emailSubject and emailBody keep the message format earlier deployments sent.
func emailSubject(n Notification) string {
	return "New RSS entries for " + n.Feed.FeedURL
}

func emailBody(n Notification) string {
	var b strings.Builder
	b.WriteString("New entries:\n\n")
	for _, e := range n.Entries {
		fmt.Fprintf(&b, "Title: %s\nLink: %s\n\n", e.Title, e.Link)
	}
	return b.String()
}

func (m *EmailNotifier) buildInput(n Notification) *sesv2.SendEmailInput {
	return &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(m.config.Sender),
		Destination:      &types.Destination{ToAddresses: m.config.Recipients},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(emailSubject(n)), Charset: aws.String("UTF-8")},
				Body: &types.Body{
					Text: &types.Content{Data: aws.String(emailBody(n)), Charset: aws.String("UTF-8")},
				},
			},
		},
	}
}

// classifySESError maps SES errors onto the shared error types so the retry
// loop treats throttling and permanent rejections correctly.
func classifySESError(err error, backoff time.Duration) error {
	var throttled *types.TooManyRequestsException
	var limit *types.LimitExceededException
	if errors.As(err, &throttled) || errors.As(err, &limit) {
		return &RateLimitError{Message: "SES throttled: " + err.Error(), RetryAfter: backoff}
	}

	var (
		badRequest *types.BadRequestException
		rejected   *types.MessageRejected
		unverified *types.MailFromDomainNotVerifiedException
		suspended  *types.AccountSuspendedException
		paused     *types.SendingPausedException
		notFound   *types.NotFoundException
	)
	switch {
	case errors.As(err, &badRequest), errors.As(err, &rejected), errors.As(err, &unverified),
		errors.As(err, &suspended), errors.As(err, &paused), errors.As(err, &notFound):
		return &ClientError{Message: "SES rejected message: " + err.Error()}
	}
	return err
}

func (m *EmailNotifier) send(ctx context.Context, in *sesv2.SendEmailInput) error {
	if m.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.config.Timeout)
		defer cancel()
	}
	out, err := m.client.SendEmail(ctx, in)
	if err != nil {
		backoff := m.config.RetryBaseDelay
		if backoff <= 0 {
			backoff = defaultRetryAfter
		}
		return classifySESError(err, backoff)
	}
	slog.Debug("SES accepted message", slog.String("message_id", aws.ToString(out.MessageId)))
	return nil
}

// Notify implements Notifier.
func (m *EmailNotifier) Notify(ctx context.Context, n Notification) error {
	if m.config.Sender == "" || len(m.config.Recipients) == 0 {
		return &ClientError{Message: "email sender or recipients not configured"}
	}

	requestID := uuid.New().String()
	ctx = context.WithValue(ctx, requestIDKey, requestID)

	slog.Info("Starting email notification",
		slog.String("request_id", requestID),
		slog.String("feed_url", n.Feed.FeedURL),
		slog.Int("entries", len(n.Entries)),
		slog.Int("recipients", len(m.config.Recipients)))

	if err := waitForToken(ctx, "email", m.rateLimiter); err != nil {
		return err
	}

	in := m.buildInput(n)
	policy := retryPolicy{maxAttempts: m.config.MaxAttempts, baseDelay: m.config.RetryBaseDelay}
	return deliverWithRetry(ctx, "email", policy, n.Feed.FeedURL, func(ctx context.Context) error {
		return m.send(ctx, in)
	})
}
