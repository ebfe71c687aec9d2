package mailer

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSES struct {
	last *ses.SendEmailInput
	err  error
}

func (f *fakeSES) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	f.last = params
	if f.err != nil {
		return nil, f.err
	}
	return &ses.SendEmailOutput{}, nil
}

func TestSESMailer_Send(t *testing.T) {
	fake := &fakeSES{}
	m := NewSESMailer(fake, "noreply@frameextractor.com")

	err := m.Send(context.Background(), "alice@x.com", "Password Recovery", "click the link")
	require.NoError(t, err)

	require.NotNil(t, fake.last)
	assert.Equal(t, "noreply@frameextractor.com", *fake.last.Source)
	assert.Equal(t, []string{"alice@x.com"}, fake.last.Destination.ToAddresses)
	assert.Equal(t, "Password Recovery", *fake.last.Message.Subject.Data)
	assert.Equal(t, "click the link", *fake.last.Message.Body.Text.Data)
}

func TestSESMailer_SendError(t *testing.T) {
	fake := &fakeSES{err: errors.New("throttled")}
	m := NewSESMailer(fake, "noreply@frameextractor.com")

	err := m.Send(context.Background(), "alice@x.com", "s", "b")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "alice@x.com")
}
