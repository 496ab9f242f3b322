package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/aurumworks/jewelstore-backend/pkg/enums"
)

// Invoice is a customer bill. TotalAmount is computed from lines on read and
// never stored, so line edits can't leave a stale total behind.
type Invoice struct {
	ID              uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	CustomerID      uuid.UUID           `gorm:"column:customer_id;type:uuid;not null;index:invoices_customer_idx"`
	Customer        *Customer           `gorm:"foreignKey:CustomerID;constraint:OnDelete:CASCADE"`
	Status          enums.InvoiceStatus `gorm:"column:status;not null;default:'draft'"`
	Date            time.Time           `gorm:"column:date;not null"`
	DueDate         *time.Time          `gorm:"column:due_date"`
	Notes           string              `gorm:"column:notes;not null;default:''"`
	PaymentLinkURL  *string             `gorm:"column:payment_link_url"`
	PaymentIntentID *string             `gorm:"column:payment_intent_id"`
	Items           []InvoiceItem       `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// TotalAmount sums quantity times unit price across the loaded lines.
func (inv Invoice) TotalAmount() decimal.Decimal {
	total := decimal.Zero
	for _, line := range inv.Items {
		total = total.Add(line.LineTotal())
	}
	return total
}

// InvoiceItem is one line on an invoice. ItemID is set for inventory-backed
// lines and nil for freeform ones.
type InvoiceItem struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	InvoiceID   uuid.UUID       `gorm:"column:invoice_id;type:uuid;not null;index:invoice_items_invoice_idx"`
	ItemID      *uuid.UUID      `gorm:"column:item_id;type:uuid"`
	Item        *Item           `gorm:"foreignKey:ItemID;constraint:OnDelete:SET NULL"`
	Description string          `gorm:"column:description;not null"`
	Quantity    int             `gorm:"column:quantity;not null"`
	UnitPrice   decimal.Decimal `gorm:"column:unit_price;type:numeric(10,2);not null"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
}

// LineTotal returns quantity times unit price.
func (li InvoiceItem) LineTotal() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}
