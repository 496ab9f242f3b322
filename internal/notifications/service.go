package notifications

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aurumworks/jewelstore-backend/pkg/db/models"
	pkgerrors "github.com/aurumworks/jewelstore-backend/pkg/errors"
	"github.com/aurumworks/jewelstore-backend/pkg/logger"
	"github.com/aurumworks/jewelstore-backend/pkg/mailer"
)

// SMSTransport delivers a short text message. The production wiring uses the
// logging stub; a real gateway plugs in here.
type SMSTransport interface {
	SendSMS(ctx context.Context, toPhone, body string) error
}

// Service sends customer-facing invoice notifications. Sending never mutates
// the invoice, resending is always safe.
type Service interface {
	SendInvoiceEmail(ctx context.Context, invoiceID uuid.UUID) error
	SendInvoiceSMS(ctx context.Context, invoiceID uuid.UUID) error
}

type service struct {
	repo  *Repository
	email mailer.Sender
	sms   SMSTransport
	logg  *logger.Logger
}

// NewService constructs a notifications service instance.
func NewService(repo *Repository, email mailer.Sender, sms SMSTransport, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if email == nil {
		return nil, fmt.Errorf("email transport required")
	}
	if sms == nil {
		return nil, fmt.Errorf("sms transport required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, email: email, sms: sms, logg: logg}, nil
}

// SendInvoiceEmail mails the payment link to the invoice's customer.
func (s *service) SendInvoiceEmail(ctx context.Context, invoiceID uuid.UUID) error {
	invoice, err := s.loadPayableInvoice(ctx, invoiceID)
	if err != nil {
		return err
	}
	if invoice.Customer == nil || invoice.Customer.Email == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer has no email address")
	}

	total := invoice.TotalAmount().StringFixed(2)
	link := *invoice.PaymentLinkURL
	msg := mailer.Message{
		ToName:    invoice.Customer.Name,
		ToAddress: invoice.Customer.Email,
		Subject:   fmt.Sprintf("Invoice %s", shortID(invoice.ID)),
		PlainBody: fmt.Sprintf(
			"Hello %s,\n\nYour invoice %s for %s EUR is ready.\nPay securely here: %s\n\nThank you.",
			invoice.Customer.Name, shortID(invoice.ID), total, link,
		),
		HTMLBody: fmt.Sprintf(
			"<p>Hello %s,</p><p>Your invoice <strong>%s</strong> for <strong>%s EUR</strong> is ready.</p><p><a href=%q>Pay securely</a></p>",
			invoice.Customer.Name, shortID(invoice.ID), total, link,
		),
	}
	if err := s.email.Send(ctx, msg); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "send invoice email")
	}

	s.logg.Info(s.logg.WithInvoiceID(ctx, invoice.ID.String()), "invoice email sent")
	return nil
}

// SendInvoiceSMS texts the payment link to the invoice's customer.
func (s *service) SendInvoiceSMS(ctx context.Context, invoiceID uuid.UUID) error {
	invoice, err := s.loadPayableInvoice(ctx, invoiceID)
	if err != nil {
		return err
	}
	if invoice.Customer == nil || invoice.Customer.Phone == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer has no phone number")
	}

	body := fmt.Sprintf(
		"Invoice %s for %s EUR. Pay here: %s",
		shortID(invoice.ID), invoice.TotalAmount().StringFixed(2), *invoice.PaymentLinkURL,
	)
	if err := s.sms.SendSMS(ctx, invoice.Customer.Phone, body); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "send invoice sms")
	}

	s.logg.Info(s.logg.WithInvoiceID(ctx, invoice.ID.String()), "invoice sms sent")
	return nil
}

// loadPayableInvoice loads the invoice and enforces that a payment link has
// been generated before anything is sent.
func (s *service) loadPayableInvoice(ctx context.Context, invoiceID uuid.UUID) (*models.Invoice, error) {
	invoice, err := s.repo.FindInvoiceByID(ctx, invoiceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "invoice not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load invoice")
	}
	if invoice.PaymentLinkURL == nil || *invoice.PaymentLinkURL == "" {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "invoice has no payment link yet")
	}
	return invoice, nil
}

// shortID renders the first uuid group, enough for customers to reference.
func shortID(id uuid.UUID) string {
	return id.String()[:8]
}
