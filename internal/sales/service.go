package sales

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/aurumworks/jewelstore-backend/pkg/db/models"
	"github.com/aurumworks/jewelstore-backend/pkg/enums"
	pkgerrors "github.com/aurumworks/jewelstore-backend/pkg/errors"
	"github.com/aurumworks/jewelstore-backend/pkg/logger"
	"github.com/aurumworks/jewelstore-backend/pkg/pagination"
)

// Service exposes customer and invoice operations. Invoices aggregate lines
// only; stock movements live in the ledger and are never written from here.
type Service interface {
	CreateCustomer(ctx context.Context, input CustomerInput) (*CustomerDTO, error)
	GetCustomer(ctx context.Context, id uuid.UUID) (*CustomerDTO, error)
	ListCustomers(ctx context.Context, params pagination.Params) (*CustomerListResult, error)
	UpdateCustomer(ctx context.Context, id uuid.UUID, input CustomerInput) (*CustomerDTO, error)
	DeleteCustomer(ctx context.Context, id uuid.UUID) error

	CreateInvoice(ctx context.Context, input CreateInvoiceInput) (*InvoiceDTO, error)
	GetInvoice(ctx context.Context, id uuid.UUID) (*InvoiceDTO, error)
	ListInvoices(ctx context.Context, filter InvoiceFilter, params pagination.Params) (*InvoiceListResult, error)
	UpdateInvoice(ctx context.Context, id uuid.UUID, input UpdateInvoiceInput) (*InvoiceDTO, error)
	DeleteInvoice(ctx context.Context, id uuid.UUID) error

	AddLine(ctx context.Context, invoiceID uuid.UUID, input AddLineInput) (*InvoiceDTO, error)
	RemoveLine(ctx context.Context, invoiceID, lineID uuid.UUID) (*InvoiceDTO, error)
}

// CustomerInput carries customer fields for create and update.
type CustomerInput struct {
	Name    string
	Email   string
	Phone   string
	Address string
}

// CreateInvoiceInput creates a draft invoice. Date defaults to today.
type CreateInvoiceInput struct {
	CustomerID uuid.UUID
	Date       *time.Time
	DueDate    *time.Time
	Notes      string
}

// UpdateInvoiceInput updates invoice header fields. Nil pointers leave the
// current value in place; ClearDueDate removes the due date.
type UpdateInvoiceInput struct {
	Status       *string
	DueDate      *time.Time
	ClearDueDate bool
	Notes        *string
}

// AddLineInput describes one new line. When ItemID is set the line is
// inventory backed: description and unit price fall back to the item's name
// and selling price unless overridden. Without ItemID both are required.
type AddLineInput struct {
	ItemID      *uuid.UUID
	Description *string
	UnitPrice   *decimal.Decimal
	Quantity    int
}

type service struct {
	repo *Repository
	logg *logger.Logger
}

// NewService constructs a sales service instance.
func NewService(repo *Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("sales repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, logg: logg}, nil
}

func (s *service) CreateCustomer(ctx context.Context, input CustomerInput) (*CustomerDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer name is required")
	}

	customer, err := s.repo.CreateCustomer(ctx, &models.Customer{
		Name:    name,
		Email:   strings.TrimSpace(input.Email),
		Phone:   strings.TrimSpace(input.Phone),
		Address: strings.TrimSpace(input.Address),
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert customer")
	}
	return NewCustomerDTO(customer), nil
}

func (s *service) GetCustomer(ctx context.Context, id uuid.UUID) (*CustomerDTO, error) {
	customer, err := s.findCustomer(ctx, id)
	if err != nil {
		return nil, err
	}
	return NewCustomerDTO(customer), nil
}

func (s *service) ListCustomers(ctx context.Context, params pagination.Params) (*CustomerListResult, error) {
	rows, err := s.repo.ListCustomers(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list customers")
	}

	page, hasMore := pagination.TrimPage(rows, params.Limit)
	result := &CustomerListResult{Customers: make([]CustomerDTO, 0, len(page))}
	for i := range page {
		result.Customers = append(result.Customers, *NewCustomerDTO(&page[i]))
	}
	if hasMore {
		last := page[len(page)-1]
		cursor := pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
		result.NextCursor = &cursor
	}
	return result, nil
}

func (s *service) UpdateCustomer(ctx context.Context, id uuid.UUID, input CustomerInput) (*CustomerDTO, error) {
	customer, err := s.findCustomer(ctx, id)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer name is required")
	}
	customer.Name = name
	customer.Email = strings.TrimSpace(input.Email)
	customer.Phone = strings.TrimSpace(input.Phone)
	customer.Address = strings.TrimSpace(input.Address)

	if err := s.repo.UpdateCustomer(ctx, customer); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update customer")
	}
	return NewCustomerDTO(customer), nil
}

// DeleteCustomer removes the customer and all of their invoices.
func (s *service) DeleteCustomer(ctx context.Context, id uuid.UUID) error {
	if _, err := s.findCustomer(ctx, id); err != nil {
		return err
	}
	if err := s.repo.DeleteCustomer(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete customer")
	}
	return nil
}

func (s *service) CreateInvoice(ctx context.Context, input CreateInvoiceInput) (*InvoiceDTO, error) {
	if input.CustomerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer_id is required")
	}
	if _, err := s.findCustomer(ctx, input.CustomerID); err != nil {
		typed := pkgerrors.As(err)
		if typed != nil && typed.Code() == pkgerrors.CodeNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer does not exist")
		}
		return nil, err
	}

	date := time.Now().UTC()
	if input.Date != nil {
		date = *input.Date
	}

	invoice, err := s.repo.CreateInvoice(ctx, &models.Invoice{
		CustomerID: input.CustomerID,
		Status:     enums.InvoiceStatusDraft,
		Date:       date,
		DueDate:    input.DueDate,
		Notes:      strings.TrimSpace(input.Notes),
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert invoice")
	}
	return s.GetInvoice(ctx, invoice.ID)
}

func (s *service) GetInvoice(ctx context.Context, id uuid.UUID) (*InvoiceDTO, error) {
	invoice, err := s.findInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	return NewInvoiceDTO(invoice), nil
}

func (s *service) ListInvoices(ctx context.Context, filter InvoiceFilter, params pagination.Params) (*InvoiceListResult, error) {
	if filter.Status != "" {
		if _, err := enums.ParseInvoiceStatus(filter.Status); err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
		}
	}

	rows, err := s.repo.ListInvoices(ctx, filter, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list invoices")
	}

	page, hasMore := pagination.TrimPage(rows, params.Limit)
	result := &InvoiceListResult{Invoices: make([]InvoiceDTO, 0, len(page))}
	for i := range page {
		result.Invoices = append(result.Invoices, *NewInvoiceDTO(&page[i]))
	}
	if hasMore {
		last := page[len(page)-1]
		cursor := pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
		result.NextCursor = &cursor
	}
	return result, nil
}

func (s *service) UpdateInvoice(ctx context.Context, id uuid.UUID, input UpdateInvoiceInput) (*InvoiceDTO, error) {
	invoice, err := s.findInvoice(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Status != nil {
		status, err := enums.ParseInvoiceStatus(*input.Status)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
		}
		invoice.Status = status
	}
	if input.ClearDueDate {
		invoice.DueDate = nil
	} else if input.DueDate != nil {
		invoice.DueDate = input.DueDate
	}
	if input.Notes != nil {
		invoice.Notes = strings.TrimSpace(*input.Notes)
	}

	if err := s.repo.UpdateInvoice(ctx, invoice); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update invoice")
	}
	return s.GetInvoice(ctx, id)
}

func (s *service) DeleteInvoice(ctx context.Context, id uuid.UUID) error {
	if _, err := s.findInvoice(ctx, id); err != nil {
		return err
	}
	if err := s.repo.DeleteInvoice(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete invoice")
	}
	return nil
}

// AddLine appends a line to a non-final invoice. Inventory-backed lines
// snapshot the item's name and selling price at add time; later price edits
// on the item leave existing invoices untouched.
func (s *service) AddLine(ctx context.Context, invoiceID uuid.UUID, input AddLineInput) (*InvoiceDTO, error) {
	invoice, err := s.findInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if invoice.Status.IsTerminal() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("invoice is %s and can no longer change", invoice.Status))
	}
	if input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	line := &models.InvoiceItem{
		InvoiceID: invoiceID,
		ItemID:    input.ItemID,
		Quantity:  input.Quantity,
	}
	if input.ItemID != nil {
		item, err := s.repo.FindItemByID(ctx, *input.ItemID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "item does not exist")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load item")
		}
		line.Description = item.Name
		line.UnitPrice = item.SellingPrice
	}
	if input.Description != nil {
		line.Description = strings.TrimSpace(*input.Description)
	}
	if input.UnitPrice != nil {
		line.UnitPrice = *input.UnitPrice
	}
	if line.Description == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "description is required for freeform lines")
	}
	if input.ItemID == nil && input.UnitPrice == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit_price is required for freeform lines")
	}
	if line.UnitPrice.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit_price must not be negative")
	}

	if _, err := s.repo.CreateLine(ctx, line); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert invoice line")
	}
	return s.GetInvoice(ctx, invoiceID)
}

// RemoveLine deletes one line. No other state changes.
func (s *service) RemoveLine(ctx context.Context, invoiceID, lineID uuid.UUID) (*InvoiceDTO, error) {
	invoice, err := s.findInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if invoice.Status.IsTerminal() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("invoice is %s and can no longer change", invoice.Status))
	}

	line, err := s.repo.FindLineByID(ctx, lineID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "invoice line not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load invoice line")
	}
	if line.InvoiceID != invoiceID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "invoice line not found")
	}

	if err := s.repo.DeleteLine(ctx, lineID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete invoice line")
	}
	return s.GetInvoice(ctx, invoiceID)
}

func (s *service) findCustomer(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	customer, err := s.repo.FindCustomerByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load customer")
	}
	return customer, nil
}

func (s *service) findInvoice(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	invoice, err := s.repo.FindInvoiceByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "invoice not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load invoice")
	}
	return invoice, nil
}
