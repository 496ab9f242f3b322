package billing

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/aurumworks/jewelstore-backend/pkg/db/models"
	"github.com/aurumworks/jewelstore-backend/pkg/enums"
	pkgerrors "github.com/aurumworks/jewelstore-backend/pkg/errors"
	"github.com/aurumworks/jewelstore-backend/pkg/logger"
	"github.com/aurumworks/jewelstore-backend/pkg/metrics"
	pkgstripe "github.com/aurumworks/jewelstore-backend/pkg/stripe"
)

// MetadataInvoiceID is the Stripe metadata key carrying our invoice id. The
// webhook handler reads the same key back off completed sessions.
const MetadataInvoiceID = "invoice_id"

var centsPerUnit = decimal.NewFromInt(100)

// Service creates hosted payment links for invoices.
type Service interface {
	GeneratePaymentLink(ctx context.Context, invoiceID uuid.UUID) (*PaymentLinkDTO, error)
}

// PaymentLinkDTO is the result of a link generation.
type PaymentLinkDTO struct {
	InvoiceID      uuid.UUID `json:"invoice_id"`
	PaymentLinkURL string    `json:"payment_link_url"`
	Status         string    `json:"status"`
	TotalAmount    string    `json:"total_amount"`
}

type service struct {
	repo     *Repository
	checkout CheckoutClient
	stripe   *pkgstripe.Client
	logg     *logger.Logger
	metrics  *metrics.BillingMetrics
}

// NewService constructs a billing service instance. Metrics may be nil.
func NewService(repo *Repository, checkout CheckoutClient, stripeClient *pkgstripe.Client, logg *logger.Logger, billingMetrics *metrics.BillingMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("billing repository required")
	}
	if checkout == nil {
		return nil, fmt.Errorf("checkout client required")
	}
	if stripeClient == nil {
		return nil, fmt.Errorf("stripe client required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:     repo,
		checkout: checkout,
		stripe:   stripeClient,
		logg:     logg,
		metrics:  billingMetrics,
	}, nil
}

// GeneratePaymentLink creates a hosted checkout session for the invoice and
// stores its URL. A draft invoice moves to sent; regenerating on a sent
// invoice replaces the link. The invoice is only touched after the provider
// call succeeds.
func (s *service) GeneratePaymentLink(ctx context.Context, invoiceID uuid.UUID) (*PaymentLinkDTO, error) {
	invoice, err := s.repo.FindInvoiceByID(ctx, invoiceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "invoice not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load invoice")
	}
	if invoice.Status.IsTerminal() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("invoice is %s and cannot be billed", invoice.Status))
	}
	if len(invoice.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invoice has no lines to bill")
	}

	session, err := s.checkout.CreateSession(ctx, s.sessionParams(invoice))
	if err != nil {
		s.metrics.IncLink("failed")
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "stripe: create checkout session")
	}
	if session == nil || session.URL == "" {
		s.metrics.IncLink("failed")
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "stripe: checkout session has no url")
	}

	status := invoice.Status
	if status == enums.InvoiceStatusDraft {
		status = enums.InvoiceStatusSent
	}
	if err := s.repo.SetPaymentLink(ctx, invoice.ID, session.URL, status); err != nil {
		s.metrics.IncLink("failed")
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: store payment link")
	}

	s.metrics.IncLink("created")
	s.logg.Info(s.logg.WithInvoiceID(ctx, invoice.ID.String()), "payment link generated")

	return &PaymentLinkDTO{
		InvoiceID:      invoice.ID,
		PaymentLinkURL: session.URL,
		Status:         status.String(),
		TotalAmount:    invoice.TotalAmount().StringFixed(2),
	}, nil
}

func (s *service) sessionParams(invoice *models.Invoice) *stripe.CheckoutSessionParams {
	currency := s.stripe.Currency()
	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(invoice.Items))
	for _, line := range invoice.Items {
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			Quantity: stripe.Int64(int64(line.Quantity)),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(currency),
				UnitAmount: stripe.Int64(toMinorUnits(line.UnitPrice)),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(line.Description),
				},
			},
		})
	}

	params := &stripe.CheckoutSessionParams{
		Mode:      stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: lineItems,
		Metadata:  map[string]string{MetadataInvoiceID: invoice.ID.String()},
	}
	if url := s.stripe.SuccessURL(); url != "" {
		params.SuccessURL = stripe.String(url)
	}
	if invoice.Customer != nil && invoice.Customer.Email != "" {
		params.CustomerEmail = stripe.String(invoice.Customer.Email)
	}
	return params
}

// toMinorUnits converts a decimal price to integer cents.
func toMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(centsPerUnit).Round(0).IntPart()
}
