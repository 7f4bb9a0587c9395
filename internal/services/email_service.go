package services

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	pkglogger "github.com/BradenHooton/authgate/pkg/logger"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// MailDispatcher delivers activation mail.
type MailDispatcher interface {
	SendActivation(ctx context.Context, email, token, code string) error
}

// sesSender is the subset of the SES client used here.
type sesSender interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// SESMailDispatcher sends activation mail through AWS SES
type SESMailDispatcher struct {
	client      sesSender
	fromAddress string
	appURL      string
	logger      *slog.Logger
}

// NewSESMailDispatcher loads the default AWS config for region and builds an SES client.
func NewSESMailDispatcher(ctx context.Context, region, fromAddress, appURL string, logger *slog.Logger) (*SESMailDispatcher, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return newSESMailDispatcher(ses.NewFromConfig(cfg), fromAddress, appURL, logger), nil
}

func newSESMailDispatcher(client sesSender, fromAddress, appURL string, logger *slog.Logger) *SESMailDispatcher {
	return &SESMailDispatcher{
		client:      client,
		fromAddress: fromAddress,
		appURL:      appURL,
		logger:      logger,
	}
}

func (s *SESMailDispatcher) SendActivation(ctx context.Context, email, token, code string) error {
	link := ActivationLink(s.appURL, token)

	input := &ses.SendEmailInput{
		Source: aws.String(s.fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{email},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data:    aws.String("Activate your account"),
				Charset: aws.String("UTF-8"),
			},
			Body: &types.Body{
				Html: &types.Content{
					Data:    aws.String(activationHTML(link, code)),
					Charset: aws.String("UTF-8"),
				},
				Text: &types.Content{
					Data:    aws.String(activationText(link, code)),
					Charset: aws.String("UTF-8"),
				},
			},
		},
	}

	result, err := s.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to send activation email: %w", err)
	}

	s.logger.Info("activation email sent",
		slog.String("email", pkglogger.SanitizedEmail(email)),
		slog.String("message_id", aws.ToString(result.MessageId)))

	return nil
}

// LogMailDispatcher writes activation mail to the log instead of sending it.
// The code is only shown in development.
type LogMailDispatcher struct {
	appURL string
	env    string
	logger *slog.Logger
}

func NewLogMailDispatcher(appURL, env string, logger *slog.Logger) *LogMailDispatcher {
	return &LogMailDispatcher{appURL: appURL, env: env, logger: logger}
}

func (d *LogMailDispatcher) SendActivation(_ context.Context, email, token, code string) error {
	d.logger.Info("activation email (not sent)",
		slog.String("email", pkglogger.SanitizedEmail(email)),
		pkglogger.RedactedAttr("activation_link", ActivationLink(d.appURL, token), d.env),
		pkglogger.RedactedAttr("activation_code", code, d.env),
	)
	return nil
}

// ActivationLink builds the confirm-email URL carrying token.
func ActivationLink(appURL, token string) string {
	return fmt.Sprintf("%s/auth/confirm-email?token=%s", appURL, url.QueryEscape(token))
}

func activationHTML(link, code string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .code { font-size: 28px; letter-spacing: 6px; font-weight: bold; }
        .button { display: inline-block; background-color: #0066cc; color: white; padding: 12px 24px; text-decoration: none; border-radius: 4px; }
        .footer { color: #666; font-size: 12px; margin-top: 20px; border-top: 1px solid #eee; padding-top: 20px; }
    </style>
</head>
<body>
    <div class="container">
        <h1>Activate your account</h1>
        <p>Use this code to activate your account:</p>
        <p class="code">%s</p>
        <p><a href="%s" class="button">Confirm email</a></p>
        <p>The code expires shortly. If you did not sign up, you can ignore this email.</p>
        <div class="footer">This is an automated message. Please do not reply.</div>
    </div>
</body>
</html>
`, code, link)
}

func activationText(link, code string) string {
	return fmt.Sprintf(`Activate your account

Your activation code: %s

Or confirm your email here:
%s

The code expires shortly. If you did not sign up, you can ignore this email.
`, code, link)
}

// Compile-time interface checks
var (
	_ MailDispatcher = (*SESMailDispatcher)(nil)
	_ MailDispatcher = (*LogMailDispatcher)(nil)
)
