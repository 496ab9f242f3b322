package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/aurumworks/jewelstore-backend/pkg/db/models"
)

// CategoryDTO is the category payload returned to clients.
type CategoryDTO struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	ItemCount   int64     `json:"item_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// SupplierDTO is the supplier payload returned to clients.
type SupplierDTO struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	ContactPerson string    `json:"contact_person,omitempty"`
	Email         string    `json:"email,omitempty"`
	Phone         string    `json:"phone,omitempty"`
	Address       string    `json:"address,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ItemDTO is the full item payload including derived stock fields.
type ItemDTO struct {
	ID           uuid.UUID        `json:"id"`
	SKU          string           `json:"sku"`
	Name         string           `json:"name"`
	Description  string           `json:"description,omitempty"`
	CategoryID   uuid.UUID        `json:"category_id"`
	CategoryName string           `json:"category_name,omitempty"`
	SupplierID   *uuid.UUID       `json:"supplier_id,omitempty"`
	SupplierName string           `json:"supplier_name,omitempty"`
	CostPrice    decimal.Decimal  `json:"cost_price"`
	SellingPrice decimal.Decimal  `json:"selling_price"`
	Quantity     int              `json:"quantity"`
	WeightGrams  *decimal.Decimal `json:"weight_grams,omitempty"`
	MetalType    string           `json:"metal_type,omitempty"`
	Gemstone     string           `json:"gemstone,omitempty"`
	PhotoKey     *string          `json:"photo_key,omitempty"`
	BarcodeKey   *string          `json:"barcode_key,omitempty"`
	IsActive     bool             `json:"is_active"`
	ProfitMargin decimal.Decimal  `json:"profit_margin"`
	StockValue   decimal.Decimal  `json:"stock_value"`
	StockStatus  string           `json:"stock_status"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// ItemListResult is a cursor page of items.
type ItemListResult struct {
	Items      []ItemDTO `json:"items"`
	NextCursor *string   `json:"next_cursor,omitempty"`
}

// NewCategoryDTO maps a category row plus its current item count.
func NewCategoryDTO(category *models.Category, itemCount int64) *CategoryDTO {
	return &CategoryDTO{
		ID:          category.ID,
		Name:        category.Name,
		Description: category.Description,
		ItemCount:   itemCount,
		CreatedAt:   category.CreatedAt,
		UpdatedAt:   category.UpdatedAt,
	}
}

// NewSupplierDTO maps a supplier row.
func NewSupplierDTO(supplier *models.Supplier) *SupplierDTO {
	return &SupplierDTO{
		ID:            supplier.ID,
		Name:          supplier.Name,
		ContactPerson: supplier.ContactPerson,
		Email:         supplier.Email,
		Phone:         supplier.Phone,
		Address:       supplier.Address,
		CreatedAt:     supplier.CreatedAt,
		UpdatedAt:     supplier.UpdatedAt,
	}
}

// NewItemDTO maps an item row with its derived fields. Preloaded category and
// supplier names are included when present.
func NewItemDTO(item *models.Item) *ItemDTO {
	dto := &ItemDTO{
		ID:           item.ID,
		SKU:          item.SKU,
		Name:         item.Name,
		Description:  item.Description,
		CategoryID:   item.CategoryID,
		SupplierID:   item.SupplierID,
		CostPrice:    item.CostPrice,
		SellingPrice: item.SellingPrice,
		Quantity:     item.Quantity,
		WeightGrams:  item.WeightGrams,
		MetalType:    string(item.MetalType),
		Gemstone:     item.Gemstone,
		PhotoKey:     item.PhotoKey,
		BarcodeKey:   item.BarcodeKey,
		IsActive:     item.IsActive,
		ProfitMargin: item.ProfitMargin(),
		StockValue:   item.StockValue(),
		StockStatus:  item.StockStatus().String(),
		CreatedAt:    item.CreatedAt,
		UpdatedAt:    item.UpdatedAt,
	}
	if item.Category != nil {
		dto.CategoryName = item.Category.Name
	}
	if item.Supplier != nil {
		dto.SupplierName = item.Supplier.Name
	}
	return dto
}
