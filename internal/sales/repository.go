package sales

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aurumworks/jewelstore-backend/pkg/db/models"
	"github.com/aurumworks/jewelstore-backend/pkg/pagination"
)

// Repository persists customers, invoices, and invoice lines.
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

func (r *Repository) CreateCustomer(ctx context.Context, customer *models.Customer) (*models.Customer, error) {
	if customer.ID == uuid.Nil {
		customer.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(customer).Error; err != nil {
		return nil, err
	}
	return customer, nil
}

func (r *Repository) UpdateCustomer(ctx context.Context, customer *models.Customer) error {
	return r.db.WithContext(ctx).Save(customer).Error
}

func (r *Repository) FindCustomerByID(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	var customer models.Customer
	if err := r.db.WithContext(ctx).First(&customer, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

// ListCustomers returns customers newest-first with cursor pagination.
func (r *Repository) ListCustomers(ctx context.Context, params pagination.Params) ([]models.Customer, error) {
	query := r.db.WithContext(ctx).Model(&models.Customer{})

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var rows []models.Customer
	err = query.
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// DeleteCustomer removes the customer. Invoices cascade at the database
// level; under SQLite tests the cascade is applied explicitly first.
func (r *Repository) DeleteCustomer(ctx context.Context, id uuid.UUID) error {
	var invoiceIDs []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.Invoice{}).
		Where("customer_id = ?", id).
		Pluck("id", &invoiceIDs).Error
	if err != nil {
		return err
	}
	if len(invoiceIDs) > 0 {
		if err := r.db.WithContext(ctx).Where("invoice_id IN ?", invoiceIDs).Delete(&models.InvoiceItem{}).Error; err != nil {
			return err
		}
		if err := r.db.WithContext(ctx).Where("id IN ?", invoiceIDs).Delete(&models.Invoice{}).Error; err != nil {
			return err
		}
	}
	return r.db.WithContext(ctx).Delete(&models.Customer{}, "id = ?", id).Error
}

func (r *Repository) CountInvoicesForCustomer(ctx context.Context, customerID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Invoice{}).
		Where("customer_id = ?", customerID).
		Count(&count).Error
	return count, err
}

func (r *Repository) CreateInvoice(ctx context.Context, invoice *models.Invoice) (*models.Invoice, error) {
	if invoice.ID == uuid.Nil {
		invoice.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Omit("Customer", "Items").Create(invoice).Error; err != nil {
		return nil, err
	}
	return invoice, nil
}

// UpdateInvoice persists the invoice header columns only. Lines are managed
// through CreateLine and DeleteLine.
func (r *Repository) UpdateInvoice(ctx context.Context, invoice *models.Invoice) error {
	return r.db.WithContext(ctx).Omit("Customer", "Items").Save(invoice).Error
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

// InvoiceFilter narrows invoice listings.
type InvoiceFilter struct {
	CustomerID *uuid.UUID
	Status     string
}

// ListInvoices returns invoices newest-first with cursor pagination. Lines
// are preloaded so totals can be computed without a second round trip.
func (r *Repository) ListInvoices(ctx context.Context, filter InvoiceFilter, params pagination.Params) ([]models.Invoice, error) {
	query := r.db.WithContext(ctx).Model(&models.Invoice{})
	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var rows []models.Invoice
	err = query.
		Preload("Customer").
		Preload("Items").
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repository) DeleteInvoice(ctx context.Context, id uuid.UUID) error {
	if err := r.db.WithContext(ctx).Where("invoice_id = ?", id).Delete(&models.InvoiceItem{}).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).Delete(&models.Invoice{}, "id = ?", id).Error
}

func (r *Repository) CreateLine(ctx context.Context, line *models.InvoiceItem) (*models.InvoiceItem, error) {
	if line.ID == uuid.Nil {
		line.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Omit("Item").Create(line).Error; err != nil {
		return nil, err
	}
	return line, nil
}

func (r *Repository) FindLineByID(ctx context.Context, id uuid.UUID) (*models.InvoiceItem, error) {
	var line models.InvoiceItem
	if err := r.db.WithContext(ctx).First(&line, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &line, nil
}

func (r *Repository) DeleteLine(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.InvoiceItem{}, "id = ?", id).Error
}

// FindItemByID loads an inventory item for line snapshots.
func (r *Repository) FindItemByID(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	var item models.Item
	if err := r.db.WithContext(ctx).First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}
