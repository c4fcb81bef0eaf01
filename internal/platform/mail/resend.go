// Package mail wraps the transactional email provider.
package mail

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v2"
)

// Sender delivers a single email.
type Sender interface {
	Send(ctx context.Context, to, subject, html string) error
}

// ResendSender sends email through the Resend API.
type ResendSender struct {
	client *resend.Client
	from   string
}

// NewResendSender constructs a ResendSender.
func NewResendSender(apiKey, from string) *ResendSender {
	return &ResendSender{
		client: resend.NewClient(apiKey),
		from:   from,
	}
}

// Send delivers one email via Resend.
func (s *ResendSender) Send(ctx context.Context, to, subject, html string) error {
	_, err := s.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{to},
		Subject: subject,
		Html:    html,
	})
	if err != nil {
		return fmt.Errorf("platform/mail: send: %w", err)
	}
	return nil
}

var _ Sender = (*ResendSender)(nil)
