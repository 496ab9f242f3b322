package stripewebhook

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/aurumworks/jewelstore-backend/internal/billing"
	"github.com/aurumworks/jewelstore-backend/pkg/enums"
	pkgerrors "github.com/aurumworks/jewelstore-backend/pkg/errors"
	"github.com/aurumworks/jewelstore-backend/pkg/logger"
	"github.com/aurumworks/jewelstore-backend/pkg/metrics"
)

const (
	outcomeProcessed = "processed"
	outcomeIgnored   = "ignored"
	outcomeDuplicate = "duplicate"
	outcomeFailed    = "failed"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ServiceParams groups dependencies for the webhook service. Guard and
// Metrics are optional.
type ServiceParams struct {
	Repo              *Repository
	TransactionRunner txRunner
	Guard             *IdempotencyGuard
	Logger            *logger.Logger
	Metrics           *metrics.BillingMetrics
}

// Service consumes verified Stripe events and settles invoices.
type Service struct {
	repo     *Repository
	txRunner txRunner
	guard    *IdempotencyGuard
	logg     *logger.Logger
	metrics  *metrics.BillingMetrics
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "webhook repo required")
	}
	if params.TransactionRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	return &Service{
		repo:     params.Repo,
		txRunner: params.TransactionRunner,
		guard:    params.Guard,
		logg:     params.Logger,
		metrics:  params.Metrics,
	}, nil
}

// HandleEvent settles the invoice referenced by a completed checkout
// session. Unknown event types are ignored. A session without our metadata,
// or pointing at an invoice that no longer exists, is logged and dropped so
// Stripe does not keep retrying it.
func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil || event.Data == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}
	eventType := string(event.Type)

	if s.guard != nil && event.ID != "" {
		seen, err := s.guard.CheckAndMark(ctx, event.ID)
		if err != nil {
			// dedup is best effort, settling the payment matters more
			s.logg.Warn(ctx, "webhook idempotency check failed: "+err.Error())
		} else if seen {
			s.metrics.IncWebhook(eventType, outcomeDuplicate)
			return nil
		}
	}

	err := s.dispatch(ctx, event)
	if err != nil && s.guard != nil && event.ID != "" {
		// release the mark so the Stripe retry is not swallowed
		if delErr := s.guard.Delete(ctx, event.ID); delErr != nil {
			s.logg.Warn(ctx, "webhook idempotency release failed: "+delErr.Error())
		}
	}
	return err
}

func (s *Service) dispatch(ctx context.Context, event *stripe.Event) error {
	eventType := string(event.Type)

	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			s.metrics.IncWebhook(eventType, outcomeFailed)
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode checkout session event")
		}
		if err := s.settleInvoice(ctx, &session); err != nil {
			s.metrics.IncWebhook(eventType, outcomeFailed)
			return err
		}
		s.metrics.IncWebhook(eventType, outcomeProcessed)
		return nil
	default:
		s.metrics.IncWebhook(eventType, outcomeIgnored)
		return nil
	}
}

func (s *Service) settleInvoice(ctx context.Context, session *stripe.CheckoutSession) error {
	raw := session.Metadata[billing.MetadataInvoiceID]
	if raw == "" {
		s.logg.Warn(ctx, "checkout session has no invoice metadata, dropping")
		return nil
	}
	invoiceID, err := uuid.Parse(raw)
	if err != nil {
		s.logg.Warn(s.logg.WithInvoiceID(ctx, raw), "checkout session has malformed invoice id, dropping")
		return nil
	}

	paymentIntentID := ""
	if session.PaymentIntent != nil {
		paymentIntentID = session.PaymentIntent.ID
	}

	logCtx := s.logg.WithInvoiceID(ctx, invoiceID.String())
	return s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		invoice, err := repo.LockInvoice(ctx, invoiceID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				s.logg.Warn(logCtx, "paid invoice no longer exists, dropping")
				return nil
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load invoice")
		}
		if invoice.Status == enums.InvoiceStatusPaid {
			return nil
		}
		if err := repo.MarkInvoicePaid(ctx, invoiceID, paymentIntentID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: mark invoice paid")
		}
		s.logg.Info(logCtx, "invoice settled from checkout session")
		return nil
	})
}
