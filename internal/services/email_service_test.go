package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSESSender struct {
	input *ses.SendEmailInput
	err   error
}

func (f *fakeSESSender) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &ses.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

func TestSESMailDispatcher_SendActivation(t *testing.T) {
	sender := &fakeSESSender{}
	d := newSESMailDispatcher(sender, "noreply@authgate.test", "https://app.test", slog.New(slog.NewJSONHandler(io.Discard, nil)))

	err := d.SendActivation(context.Background(), "a@x.com", "tok+en/1", "042917")

	require.NoError(t, err)
	require.NotNil(t, sender.input)
	assert.Equal(t, "noreply@authgate.test", aws.ToString(sender.input.Source))
	assert.Equal(t, []string{"a@x.com"}, sender.input.Destination.ToAddresses)

	text := aws.ToString(sender.input.Message.Body.Text.Data)
	assert.Contains(t, text, "042917")
	assert.Contains(t, text, "https://app.test/auth/confirm-email?token=tok%2Ben%2F1")
	assert.Contains(t, aws.ToString(sender.input.Message.Body.Html.Data), "042917")
}

func TestSESMailDispatcher_SendFailure(t *testing.T) {
	sender := &fakeSESSender{err: errors.New("throttled")}
	d := newSESMailDispatcher(sender, "noreply@authgate.test", "https://app.test", slog.New(slog.NewJSONHandler(io.Discard, nil)))

	err := d.SendActivation(context.Background(), "a@x.com", "token", "123456")

	assert.ErrorContains(t, err, "throttled")
}

func TestLogMailDispatcher_RedactsOutsideDevelopment(t *testing.T) {
	tests := []struct {
		env      string
		showCode bool
	}{
		{"development", true},
		{"production", false},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			var buf bytes.Buffer
			d := NewLogMailDispatcher("https://app.test", tt.env, slog.New(slog.NewJSONHandler(&buf, nil)))

			require.NoError(t, d.SendActivation(context.Background(), "ada@x.com", "token", "918273"))

			out := buf.String()
			assert.Equal(t, tt.showCode, bytes.Contains([]byte(out), []byte("918273")))
			assert.NotContains(t, out, "ada@x.com")
		})
	}
}

func TestActivationLink(t *testing.T) {
	assert.Equal(t, "https://app.test/auth/confirm-email?token=a.b.c", ActivationLink("https://app.test", "a.b.c"))
}
