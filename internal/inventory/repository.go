package inventory

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/aurumworks/jewelstore-backend/pkg/db/models"
	"github.com/aurumworks/jewelstore-backend/pkg/enums"
	"github.com/aurumworks/jewelstore-backend/pkg/pagination"
)

// ItemFilter narrows item list queries.
type ItemFilter struct {
	Query       string
	CategoryID  *uuid.UUID
	SupplierID  *uuid.UUID
	MetalType   *enums.MetalType
	StockStatus *enums.StockStatus
	ActiveOnly  bool
}

// CategoryBreakdownRow aggregates items per category.
type CategoryBreakdownRow struct {
	CategoryID   uuid.UUID       `json:"category_id"`
	CategoryName string          `json:"category_name"`
	ItemCount    int64           `json:"item_count"`
	TotalQty     int64           `json:"total_quantity"`
	StockValue   decimal.Decimal `json:"stock_value"`
}

// MetalBreakdownRow aggregates items per metal type.
type MetalBreakdownRow struct {
	MetalType string `json:"metal_type"`
	ItemCount int64  `json:"item_count"`
	TotalQty  int64  `json:"total_quantity"`
}

// Repository wires together catalog persistence helpers.
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

// CreateCategory inserts the category.
func (r *Repository) CreateCategory(ctx context.Context, category *models.Category) (*models.Category, error) {
	if category.ID == uuid.Nil {
		category.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(category).Error; err != nil {
		return nil, err
	}
	return category, nil
}

// FindCategoryByID loads a single category.
func (r *Repository) FindCategoryByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).First(&category, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

// ListCategories returns all categories ordered by name.
func (r *Repository) ListCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

// UpdateCategory persists category changes.
func (r *Repository) UpdateCategory(ctx context.Context, category *models.Category) (*models.Category, error) {
	if err := r.db.WithContext(ctx).Save(category).Error; err != nil {
		return nil, err
	}
	return category, nil
}

// DeleteCategory removes the category row.
func (r *Repository) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Category{}, "id = ?", id).Error
}

// CountItemsInCategory counts items that still reference the category.
func (r *Repository) CountItemsInCategory(ctx context.Context, categoryID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Item{}).
		Where("category_id = ?", categoryID).
		Count(&count).Error
	return count, err
}

// CreateSupplier inserts the supplier.
func (r *Repository) CreateSupplier(ctx context.Context, supplier *models.Supplier) (*models.Supplier, error) {
	if supplier.ID == uuid.Nil {
		supplier.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(supplier).Error; err != nil {
		return nil, err
	}
	return supplier, nil
}

// FindSupplierByID loads a single supplier.
func (r *Repository) FindSupplierByID(ctx context.Context, id uuid.UUID) (*models.Supplier, error) {
	var supplier models.Supplier
	if err := r.db.WithContext(ctx).First(&supplier, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &supplier, nil
}

// ListSuppliers returns all suppliers ordered by name.
func (r *Repository) ListSuppliers(ctx context.Context) ([]models.Supplier, error) {
	var suppliers []models.Supplier
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&suppliers).Error; err != nil {
		return nil, err
	}
	return suppliers, nil
}

// UpdateSupplier persists supplier changes.
func (r *Repository) UpdateSupplier(ctx context.Context, supplier *models.Supplier) (*models.Supplier, error) {
	if err := r.db.WithContext(ctx).Save(supplier).Error; err != nil {
		return nil, err
	}
	return supplier, nil
}

// DeleteSupplier removes the supplier row and nulls item references.
func (r *Repository) DeleteSupplier(ctx context.Context, id uuid.UUID) error {
	tx := r.db.WithContext(ctx)
	if err := tx.Model(&models.Item{}).
		Where("supplier_id = ?", id).
		Update("supplier_id", nil).Error; err != nil {
		return err
	}
	return tx.Delete(&models.Supplier{}, "id = ?", id).Error
}

// CreateItem inserts the item row.
func (r *Repository) CreateItem(ctx context.Context, item *models.Item) (*models.Item, error) {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Omit("Category", "Supplier").Create(item).Error; err != nil {
		return nil, err
	}
	return item, nil
}

// UpdateItem persists item changes.
func (r *Repository) UpdateItem(ctx context.Context, item *models.Item) (*models.Item, error) {
	if err := r.db.WithContext(ctx).Omit("Category", "Supplier").Save(item).Error; err != nil {
		return nil, err
	}
	return item, nil
}

// SetBarcodeKey updates just the barcode artifact reference.
func (r *Repository) SetBarcodeKey(ctx context.Context, itemID uuid.UUID, key string) error {
	return r.db.WithContext(ctx).
		Model(&models.Item{}).
		Where("id = ?", itemID).
		Update("barcode_key", key).Error
}

// FindItemByID loads the item with category and supplier preloaded.
func (r *Repository) FindItemByID(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	var item models.Item
	if err := r.db.WithContext(ctx).
		Preload("Category").
		Preload("Supplier").
		First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// FindItemBySKU loads an item by its SKU.
func (r *Repository) FindItemBySKU(ctx context.Context, sku string) (*models.Item, error) {
	var item models.Item
	if err := r.db.WithContext(ctx).
		Preload("Category").
		Preload("Supplier").
		First(&item, "sku = ?", sku).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// DeleteItem removes the item row.
func (r *Repository) DeleteItem(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Item{}, "id = ?", id).Error
}

// ListSKUsWithPrefix returns every SKU issued under a series prefix.
func (r *Repository) ListSKUsWithPrefix(ctx context.Context, prefix string) ([]string, error) {
	var skus []string
	if err := r.db.WithContext(ctx).
		Model(&models.Item{}).
		Where("sku LIKE ?", prefix+"%").
		Pluck("sku", &skus).Error; err != nil {
		return nil, err
	}
	return skus, nil
}

// ListItems returns a newest-first cursor page of items matching the filter.
// One extra row is fetched to detect the next page.
func (r *Repository) ListItems(ctx context.Context, filter ItemFilter, params pagination.Params) ([]models.Item, error) {
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.Item{}), filter)

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

	var items []models.Item
	err = query.
		Preload("Category").
		Preload("Supplier").
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *Repository) applyFilter(query *gorm.DB, filter ItemFilter) *gorm.DB {
	if q := strings.TrimSpace(filter.Query); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		query = query.Where(
			"LOWER(name) LIKE ? OR LOWER(sku) LIKE ? OR LOWER(description) LIKE ?",
			like, like, like,
		)
	}
	if filter.CategoryID != nil {
		query = query.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.SupplierID != nil {
		query = query.Where("supplier_id = ?", *filter.SupplierID)
	}
	if filter.MetalType != nil {
		query = query.Where("metal_type = ?", *filter.MetalType)
	}
	if filter.StockStatus != nil {
		switch *filter.StockStatus {
		case enums.StockStatusOut:
			query = query.Where("quantity <= 0")
		case enums.StockStatusLow:
			query = query.Where("quantity > 0 AND quantity <= ?", enums.LowStockThreshold)
		case enums.StockStatusOK:
			query = query.Where("quantity > ?", enums.LowStockThreshold)
		}
	}
	if filter.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}
	return query
}

// CountItems counts all items, optionally active only.
func (r *Repository) CountItems(ctx context.Context, activeOnly bool) (int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Item{})
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	var count int64
	err := query.Count(&count).Error
	return count, err
}

// CountCategories counts all categories.
func (r *Repository) CountCategories(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Category{}).Count(&count).Error
	return count, err
}

// CountSuppliers counts all suppliers.
func (r *Repository) CountSuppliers(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Supplier{}).Count(&count).Error
	return count, err
}

// TotalStockValue sums quantity * cost_price over all items.
func (r *Repository) TotalStockValue(ctx context.Context) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	err := r.db.WithContext(ctx).
		Model(&models.Item{}).
		Select("COALESCE(SUM(quantity * cost_price), 0) AS total").
		Scan(&result).Error
	if err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}

// ListLowStockItems returns items with 0 < quantity <= threshold.
func (r *Repository) ListLowStockItems(ctx context.Context, limit int) ([]models.Item, error) {
	var items []models.Item
	query := r.db.WithContext(ctx).
		Preload("Category").
		Where("quantity > 0 AND quantity <= ?", enums.LowStockThreshold).
		Order("quantity ASC, name ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// CountOutOfStock counts items with zero or negative quantity.
func (r *Repository) CountOutOfStock(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Item{}).
		Where("quantity <= 0").
		Count(&count).Error
	return count, err
}

// ListRecentItems returns the newest items.
func (r *Repository) ListRecentItems(ctx context.Context, limit int) ([]models.Item, error) {
	var items []models.Item
	err := r.db.WithContext(ctx).
		Preload("Category").
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// CategoryBreakdown aggregates per-category item counts, quantity, and value.
func (r *Repository) CategoryBreakdown(ctx context.Context) ([]CategoryBreakdownRow, error) {
	var rows []CategoryBreakdownRow
	err := r.db.WithContext(ctx).
		Model(&models.Item{}).
		Select(`categories.id AS category_id,
			categories.name AS category_name,
			COUNT(items.id) AS item_count,
			COALESCE(SUM(items.quantity), 0) AS total_qty,
			COALESCE(SUM(items.quantity * items.cost_price), 0) AS stock_value`).
		Joins("JOIN categories ON categories.id = items.category_id").
		Group("categories.id, categories.name").
		Order("categories.name ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// MetalBreakdown aggregates per-metal item counts and quantity.
func (r *Repository) MetalBreakdown(ctx context.Context) ([]MetalBreakdownRow, error) {
	var rows []MetalBreakdownRow
	err := r.db.WithContext(ctx).
		Model(&models.Item{}).
		Select(`metal_type,
			COUNT(id) AS item_count,
			COALESCE(SUM(quantity), 0) AS total_qty`).
		Where("metal_type <> ''").
		Group("metal_type").
		Order("metal_type ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ListRecentTransactions returns the newest stock transactions with their
// items preloaded, for the dashboard feed.
func (r *Repository) ListRecentTransactions(ctx context.Context, limit int) ([]models.StockTransaction, error) {
	var rows []models.StockTransaction
	err := r.db.WithContext(ctx).
		Preload("Item").
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ListTopItemsBySellingPrice returns the priciest items.
func (r *Repository) ListTopItemsBySellingPrice(ctx context.Context, limit int) ([]models.Item, error) {
	var items []models.Item
	err := r.db.WithContext(ctx).
		Preload("Category").
		Order("selling_price DESC").
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
