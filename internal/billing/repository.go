package billing

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aurumworks/jewelstore-backend/pkg/db/models"
	"github.com/aurumworks/jewelstore-backend/pkg/enums"
)

// Repository reads and updates invoices for billing flows.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindInvoiceByID loads an invoice with its customer and lines.
func (r *Repository) FindInvoiceByID(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	var invoice models.Invoice
	err := r.db.WithContext(ctx).
		Preload("Customer").
		Preload("Items", func(q *gorm.DB) *gorm.DB {
			return q.Order("created_at ASC, id ASC")
		}).
		First(&invoice, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

// SetPaymentLink stores the link URL and moves a draft invoice to sent. Both
// columns change together so a failed provider call leaves no partial state.
func (r *Repository) SetPaymentLink(ctx context.Context, invoiceID uuid.UUID, url string, status enums.InvoiceStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Invoice{}).
		Where("id = ?", invoiceID).
		Updates(map[string]any{
			"payment_link_url": url,
			"status":           status,
		}).Error
}
