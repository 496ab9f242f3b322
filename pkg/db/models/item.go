package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/aurumworks/jewelstore-backend/pkg/enums"
)

// Item is a stock-keeping unit in the jewelry catalog. Quantity is only ever
// mutated through stock transactions.
type Item struct {
	ID           uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	SKU          string           `gorm:"column:sku;not null;uniqueIndex:items_sku_key"`
	Name         string           `gorm:"column:name;not null"`
	Description  string           `gorm:"column:description;not null;default:''"`
	CategoryID   uuid.UUID        `gorm:"column:category_id;type:uuid;not null"`
	Category     *Category        `gorm:"foreignKey:CategoryID;constraint:OnDelete:RESTRICT"`
	SupplierID   *uuid.UUID       `gorm:"column:supplier_id;type:uuid"`
	Supplier     *Supplier        `gorm:"foreignKey:SupplierID;constraint:OnDelete:SET NULL"`
	CostPrice    decimal.Decimal  `gorm:"column:cost_price;type:numeric(10,2);not null"`
	SellingPrice decimal.Decimal  `gorm:"column:selling_price;type:numeric(10,2);not null"`
	Quantity     int              `gorm:"column:quantity;not null;default:0"`
	WeightGrams  *decimal.Decimal `gorm:"column:weight_grams;type:numeric(8,3)"`
	MetalType    enums.MetalType  `gorm:"column:metal_type;not null;default:''"`
	Gemstone     string           `gorm:"column:gemstone;not null;default:''"`
	PhotoKey     *string          `gorm:"column:photo_key"`
	BarcodeKey   *string          `gorm:"column:barcode_key"`
	IsActive     bool             `gorm:"column:is_active;not null;default:true"`
	CreatedAt    time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

// ProfitMargin returns the markup over cost as a percentage, zero when the
// cost price is zero.
func (i Item) ProfitMargin() decimal.Decimal {
	if i.CostPrice.IsZero() {
		return decimal.Zero
	}
	profit := i.SellingPrice.Sub(i.CostPrice)
	return profit.Div(i.CostPrice).Mul(decimal.NewFromInt(100)).Round(2)
}

// StockValue returns quantity times cost price.
func (i Item) StockValue() decimal.Decimal {
	return i.CostPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// StockStatus buckets the current quantity for dashboards.
func (i Item) StockStatus() enums.StockStatus {
	return enums.StockStatusForQuantity(i.Quantity)
}
