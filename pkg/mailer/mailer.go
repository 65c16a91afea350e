package mailer

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
)

// Mailer sends transactional email.
type Mailer interface {
	Send(ctx context.Context, toName, toAddress, subject, textBody, htmlBody string) error
}

// SendGrid delivers mail through the SendGrid v3 API.
type SendGrid struct {
	client *sendgrid.Client
	from   *sgmail.Email
	logger *zap.Logger
}

var _ Mailer = (*SendGrid)(nil)

// NewSendGrid creates a SendGrid mailer.
func NewSendGrid(apiKey, fromName, fromAddress string, logger *zap.Logger) *SendGrid {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SendGrid{
		client: sendgrid.NewSendClient(apiKey),
		from:   sgmail.NewEmail(fromName, fromAddress),
		logger: logger,
	}
}

// Send delivers a single message.
func (m *SendGrid) Send(ctx context.Context, toName, toAddress, subject, textBody, htmlBody string) error {
	msg := sgmail.NewSingleEmail(m.from, subject, sgmail.NewEmail(toName, toAddress), textBody, htmlBody)
	resp, err := m.client.SendWithContext(ctx, msg)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid send: status %d: %s", resp.StatusCode, resp.Body)
	}
	m.logger.Debug("email sent", zap.String("to", toAddress), zap.String("subject", subject))
	return nil
}

// Noop is a Mailer that logs instead of sending; used when no API key is configured.
type Noop struct {
	logger *zap.Logger
}

var _ Mailer = (*Noop)(nil)

// NewNoop creates a logging-only mailer.
func NewNoop(logger *zap.Logger) *Noop {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Noop{logger: logger}
}

// Send logs the message and drops it.
func (m *Noop) Send(_ context.Context, _, toAddress, subject, _, _ string) error {
	m.logger.Info("email delivery disabled, dropping message",
		zap.String("to", toAddress), zap.String("subject", subject))
	return nil
}
