package sales

import (
	"time"

	"github.com/google/uuid"

	"github.com/aurumworks/jewelstore-backend/pkg/db/models"
)

// CustomerDTO is the customer payload returned to clients.
type CustomerDTO struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Address   string    `json:"address,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewCustomerDTO maps a customer model to its payload.
func NewCustomerDTO(customer *models.Customer) *CustomerDTO {
	return &CustomerDTO{
		ID:        customer.ID,
		Name:      customer.Name,
		Email:     customer.Email,
		Phone:     customer.Phone,
		Address:   customer.Address,
		CreatedAt: customer.CreatedAt,
		UpdatedAt: customer.UpdatedAt,
	}
}

// CustomerListResult is a cursor page of customers.
type CustomerListResult struct {
	Customers  []CustomerDTO `json:"customers"`
	NextCursor *string       `json:"next_cursor,omitempty"`
}

// InvoiceLineDTO is one line on an invoice payload.
type InvoiceLineDTO struct {
	ID          uuid.UUID  `json:"id"`
	ItemID      *uuid.UUID `json:"item_id,omitempty"`
	Description string     `json:"description"`
	Quantity    int        `json:"quantity"`
	UnitPrice   string     `json:"unit_price"`
	LineTotal   string     `json:"line_total"`
}

// InvoiceDTO is the invoice payload. TotalAmount is computed from the loaded
// lines at mapping time.
type InvoiceDTO struct {
	ID              uuid.UUID        `json:"id"`
	CustomerID      uuid.UUID        `json:"customer_id"`
	CustomerName    string           `json:"customer_name,omitempty"`
	Status          string           `json:"status"`
	Date            time.Time        `json:"date"`
	DueDate         *time.Time       `json:"due_date,omitempty"`
	Notes           string           `json:"notes,omitempty"`
	PaymentLinkURL  *string          `json:"payment_link_url,omitempty"`
	PaymentIntentID *string          `json:"payment_intent_id,omitempty"`
	TotalAmount     string           `json:"total_amount"`
	Lines           []InvoiceLineDTO `json:"lines"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// NewInvoiceDTO maps an invoice model, with whatever associations are
// loaded, to its payload.
func NewInvoiceDTO(invoice *models.Invoice) *InvoiceDTO {
	dto := &InvoiceDTO{
		ID:              invoice.ID,
		CustomerID:      invoice.CustomerID,
		Status:          invoice.Status.String(),
		Date:            invoice.Date,
		DueDate:         invoice.DueDate,
		Notes:           invoice.Notes,
		PaymentLinkURL:  invoice.PaymentLinkURL,
		PaymentIntentID: invoice.PaymentIntentID,
		TotalAmount:     invoice.TotalAmount().StringFixed(2),
		Lines:           make([]InvoiceLineDTO, 0, len(invoice.Items)),
		CreatedAt:       invoice.CreatedAt,
		UpdatedAt:       invoice.UpdatedAt,
	}
	if invoice.Customer != nil {
		dto.CustomerName = invoice.Customer.Name
	}
	for _, line := range invoice.Items {
		dto.Lines = append(dto.Lines, InvoiceLineDTO{
			ID:          line.ID,
			ItemID:      line.ItemID,
			Description: line.Description,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice.StringFixed(2),
			LineTotal:   line.LineTotal().StringFixed(2),
		})
	}
	return dto
}

// InvoiceListResult is a cursor page of invoices.
type InvoiceListResult struct {
	Invoices   []InvoiceDTO `json:"invoices"`
	NextCursor *string      `json:"next_cursor,omitempty"`
}
