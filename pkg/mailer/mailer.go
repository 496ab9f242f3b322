// Package mailer sends transactional email through SendGrid.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/aurumworks/jewelstore-backend/pkg/config"
)

// Message is a single outbound email.
type Message struct {
	ToName    string
	ToAddress string
	Subject   string
	PlainBody string
	HTMLBody  string
}

// Sender is the outbound email surface used by notification services.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

type sendClient interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

// Mailer sends mail via the SendGrid v3 API.
type Mailer struct {
	client   sendClient
	fromName string
	fromAddr string
}

// New builds a Mailer from the SendGrid configuration.
func New(cfg config.SendgridConfig) (*Mailer, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("sendgrid api key is required")
	}
	if strings.TrimSpace(cfg.DefaultFrom) == "" {
		return nil, errors.New("sendgrid from email is required")
	}
	return &Mailer{
		client:   sendgrid.NewSendClient(cfg.APIKey),
		fromName: cfg.FromName,
		fromAddr: cfg.DefaultFrom,
	}, nil
}

// Send delivers the message, failing on any non-2xx SendGrid response.
func (m *Mailer) Send(ctx context.Context, msg Message) error {
	if strings.TrimSpace(msg.ToAddress) == "" {
		return errors.New("recipient email is required")
	}

	from := mail.NewEmail(m.fromName, m.fromAddr)
	to := mail.NewEmail(msg.ToName, msg.ToAddress)
	html := msg.HTMLBody
	if html == "" {
		html = msg.PlainBody
	}
	email := mail.NewSingleEmail(from, msg.Subject, to, msg.PlainBody, html)

	resp, err := m.client.SendWithContext(ctx, email)
	if err != nil {
		return fmt.Errorf("sending email: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid rejected email: status %d", resp.StatusCode)
	}
	return nil
}
