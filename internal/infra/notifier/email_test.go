package notifier

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSES struct {
	inputs []*sesv2.SendEmailInput
	errs   []error
}

func (f *fakeSES) SendEmail(_ context.Context, in *sesv2.SendEmailInput, _ ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	f.inputs = append(f.inputs, in)
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	return &sesv2.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

func newTestEmail(client SESAPI) *EmailNotifier {
	n := NewEmailNotifier(EmailConfig{
		Enabled:        true,
		Sender:         "feeds@example.com",
		Recipients:     []string{"me@example.com"},
		Timeout:        time.Second,
		RetryBaseDelay: time.Millisecond,
	}, client)
	n.rateLimiter = NewRateLimiter(1000, 100)
	return n
}

func TestEmailNotifier_Format(t *testing.T) {
	n := sampleNotification(2)

	assert.Equal(t, "New RSS entries for https://example.com/feed.xml", emailSubject(n))
	assert.Equal(t,
		"New entries:\n\n"+
			"Title: Entry 1\nLink: https://example.com/posts/1\n\n"+
			"Title: Entry 2\nLink: https://example.com/posts/2\n\n",
		emailBody(n))
}

func TestEmailNotifier_Notify(t *testing.T) {
	ses := &fakeSES{}
	require.NoError(t, newTestEmail(ses).Notify(context.Background(), sampleNotification(1)))

	require.Len(t, ses.inputs, 1)
	in := ses.inputs[0]
	assert.Equal(t, "feeds@example.com", aws.ToString(in.FromEmailAddress))
	assert.Equal(t, []string{"me@example.com"}, in.Destination.ToAddresses)
	assert.Equal(t, "New RSS entries for https://example.com/feed.xml", aws.ToString(in.Content.Simple.Subject.Data))
	assert.Contains(t, aws.ToString(in.Content.Simple.Body.Text.Data), "Title: Entry 1\nLink: https://example.com/posts/1")
}

func TestEmailNotifier_Errors(t *testing.T) {
	t.Run("throttling is retried", func(t *testing.T) {
		ses := &fakeSES{errs: []error{&types.TooManyRequestsException{Message: aws.String("slow down")}, nil}}
		n := newTestEmail(ses)

		require.NoError(t, n.Notify(context.Background(), sampleNotification(1)))
		assert.Len(t, ses.inputs, 2)
	})

	t.Run("rejection is permanent", func(t *testing.T) {
		ses := &fakeSES{errs: []error{&types.MessageRejected{Message: aws.String("Email address is not verified")}}}

		err := newTestEmail(ses).Notify(context.Background(), sampleNotification(1))
		var clientErr *ClientError
		assert.True(t, errors.As(err, &clientErr))
		assert.Len(t, ses.inputs, 1)
	})

	t.Run("transient error retried then surfaced", func(t *testing.T) {
		ses := &fakeSES{errs: []error{errors.New("dial tcp: i/o timeout"), errors.New("dial tcp: i/o timeout")}}

		err := newTestEmail(ses).Notify(context.Background(), sampleNotification(1))
		assert.Error(t, err)
		assert.Len(t, ses.inputs, 2)
	})

	t.Run("missing addresses", func(t *testing.T) {
		n := NewEmailNotifier(EmailConfig{Enabled: true}, &fakeSES{})
		err := n.Notify(context.Background(), sampleNotification(1))
		var clientErr *ClientError
		assert.True(t, errors.As(err, &clientErr))
	})
}
