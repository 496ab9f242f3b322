package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/aurumworks/jewelstore-backend/pkg/enums"
)

// StockTransaction records an immutable stock movement for an item. Rows are
// append-only; the applied quantity delta lives in Quantity as a signed value.
type StockTransaction struct {
	ID        uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	ItemID    uuid.UUID             `gorm:"column:item_id;type:uuid;not null;index:stock_transactions_item_idx"`
	Item      *Item                 `gorm:"foreignKey:ItemID;constraint:OnDelete:CASCADE"`
	UserID    *uuid.UUID            `gorm:"column:user_id;type:uuid"`
	User      *User                 `gorm:"foreignKey:UserID;constraint:OnDelete:SET NULL"`
	Type      enums.TransactionType `gorm:"column:type;not null"`
	Quantity  int                   `gorm:"column:quantity;not null"`
	Notes     string                `gorm:"column:notes;not null;default:''"`
	CreatedAt time.Time             `gorm:"column:created_at;autoCreateTime"`
}
