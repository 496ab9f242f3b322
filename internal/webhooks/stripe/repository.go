package stripewebhook

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/aurumworks/jewelstore-backend/pkg/db/models"
	"github.com/aurumworks/jewelstore-backend/pkg/enums"
)

// Repository applies webhook-driven invoice updates.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// LockInvoice loads the invoice with a row lock so concurrent deliveries of
// the same payment serialize.
func (r *Repository) LockInvoice(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	var invoice models.Invoice
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&invoice, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

// MarkInvoicePaid sets the paid status and records the payment intent.
func (r *Repository) MarkInvoicePaid(ctx context.Context, id uuid.UUID, paymentIntentID string) error {
	updates := map[string]any{"status": enums.InvoiceStatusPaid}
	if paymentIntentID != "" {
		updates["payment_intent_id"] = paymentIntentID
	}
	return r.db.WithContext(ctx).
		Model(&models.Invoice{}).
		Where("id = ?", id).
		Updates(updates).Error
}
