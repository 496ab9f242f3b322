package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/aurumworks/jewelstore-backend/pkg/barcode"
	"github.com/aurumworks/jewelstore-backend/pkg/db"
	"github.com/aurumworks/jewelstore-backend/pkg/db/models"
	"github.com/aurumworks/jewelstore-backend/pkg/enums"
	pkgerrors "github.com/aurumworks/jewelstore-backend/pkg/errors"
	"github.com/aurumworks/jewelstore-backend/pkg/logger"
	"github.com/aurumworks/jewelstore-backend/pkg/pagination"
	"github.com/aurumworks/jewelstore-backend/pkg/storage"
)

// Service exposes catalog management plus the dashboard/report queries.
type Service interface {
	CreateCategory(ctx context.Context, input CategoryInput) (*CategoryDTO, error)
	ListCategories(ctx context.Context) ([]CategoryDTO, error)
	UpdateCategory(ctx context.Context, id uuid.UUID, input CategoryInput) (*CategoryDTO, error)
	DeleteCategory(ctx context.Context, id uuid.UUID) error

	CreateSupplier(ctx context.Context, input SupplierInput) (*SupplierDTO, error)
	ListSuppliers(ctx context.Context) ([]SupplierDTO, error)
	UpdateSupplier(ctx context.Context, id uuid.UUID, input SupplierInput) (*SupplierDTO, error)
	DeleteSupplier(ctx context.Context, id uuid.UUID) error

	CreateItem(ctx context.Context, input CreateItemInput) (*ItemDTO, error)
	GetItem(ctx context.Context, id uuid.UUID) (*ItemDTO, error)
	UpdateItem(ctx context.Context, id uuid.UUID, input UpdateItemInput) (*ItemDTO, error)
	DeleteItem(ctx context.Context, id uuid.UUID) error
	ListItems(ctx context.Context, filter ItemFilter, params pagination.Params) (*ItemListResult, error)
	GetItemBarcode(ctx context.Context, id uuid.UUID) ([]byte, error)

	Dashboard(ctx context.Context) (*DashboardDTO, error)
	StockReport(ctx context.Context) (*StockReportDTO, error)
}

// CategoryInput holds the validated payload to create or update a category.
type CategoryInput struct {
	Name        string
	Description string
}

// SupplierInput holds the validated payload to create or update a supplier.
type SupplierInput struct {
	Name          string
	ContactPerson string
	Email         string
	Phone         string
	Address       string
}

// CreateItemInput holds the validated payload to create an item. SKU is never
// accepted from clients; it is generated on first save.
type CreateItemInput struct {
	Name         string
	Description  string
	CategoryID   uuid.UUID
	SupplierID   *uuid.UUID
	CostPrice    decimal.Decimal
	SellingPrice decimal.Decimal
	Quantity     int
	WeightGrams  *decimal.Decimal
	MetalType    enums.MetalType
	Gemstone     string
	PhotoKey     *string
	IsActive     bool
}

// UpdateItemInput holds optional mutation values for an item.
type UpdateItemInput struct {
	Name          *string
	Description   *string
	CategoryID    *uuid.UUID
	SupplierID    *uuid.UUID
	ClearSupplier bool
	CostPrice     *decimal.Decimal
	SellingPrice  *decimal.Decimal
	WeightGrams   *decimal.Decimal
	MetalType     *enums.MetalType
	Gemstone      *string
	PhotoKey      *string
	IsActive      *bool
}

// service implements the inventory service.
type service struct {
	repo      *Repository
	artifacts storage.Store
	logg      *logger.Logger
	encode    func(text string) ([]byte, error)
}

// NewService constructs an inventory service instance.
func NewService(repo *Repository, artifacts storage.Store, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	if artifacts == nil {
		return nil, fmt.Errorf("artifact store required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:      repo,
		artifacts: artifacts,
		logg:      logg,
		encode:    barcode.Encode,
	}, nil
}

// CreateCategory inserts a category after checking name uniqueness.
func (s *service) CreateCategory(ctx context.Context, input CategoryInput) (*CategoryDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category name is required")
	}

	category, err := s.repo.CreateCategory(ctx, &models.Category{
		Name:        name,
		Description: strings.TrimSpace(input.Description),
	})
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "category name already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert category")
	}
	return NewCategoryDTO(category, 0), nil
}

// ListCategories returns all categories with item counts.
func (s *service) ListCategories(ctx context.Context) ([]CategoryDTO, error) {
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list categories")
	}
	dtos := make([]CategoryDTO, 0, len(categories))
	for i := range categories {
		count, err := s.repo.CountItemsInCategory(ctx, categories[i].ID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: count category items")
		}
		dtos = append(dtos, *NewCategoryDTO(&categories[i], count))
	}
	return dtos, nil
}

// UpdateCategory renames or re-describes a category.
func (s *service) UpdateCategory(ctx context.Context, id uuid.UUID, input CategoryInput) (*CategoryDTO, error) {
	category, err := s.repo.FindCategoryByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load category")
	}

	if name := strings.TrimSpace(input.Name); name != "" {
		category.Name = name
	}
	category.Description = strings.TrimSpace(input.Description)

	updated, err := s.repo.UpdateCategory(ctx, category)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "category name already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update category")
	}

	count, err := s.repo.CountItemsInCategory(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: count category items")
	}
	return NewCategoryDTO(updated, count), nil
}

// DeleteCategory removes a category unless items still reference it.
func (s *service) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindCategoryByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load category")
	}

	count, err := s.repo.CountItemsInCategory(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: count category items")
	}
	if count > 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "category still has items")
	}

	if err := s.repo.DeleteCategory(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete category")
	}
	return nil
}

// CreateSupplier inserts a supplier.
func (s *service) CreateSupplier(ctx context.Context, input SupplierInput) (*SupplierDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "supplier name is required")
	}

	supplier, err := s.repo.CreateSupplier(ctx, &models.Supplier{
		Name:          name,
		ContactPerson: strings.TrimSpace(input.ContactPerson),
		Email:         strings.TrimSpace(input.Email),
		Phone:         strings.TrimSpace(input.Phone),
		Address:       strings.TrimSpace(input.Address),
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert supplier")
	}
	return NewSupplierDTO(supplier), nil
}

// ListSuppliers returns all suppliers.
func (s *service) ListSuppliers(ctx context.Context) ([]SupplierDTO, error) {
	suppliers, err := s.repo.ListSuppliers(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list suppliers")
	}
	dtos := make([]SupplierDTO, 0, len(suppliers))
	for i := range suppliers {
		dtos = append(dtos, *NewSupplierDTO(&suppliers[i]))
	}
	return dtos, nil
}

// UpdateSupplier persists supplier field changes.
func (s *service) UpdateSupplier(ctx context.Context, id uuid.UUID, input SupplierInput) (*SupplierDTO, error) {
	supplier, err := s.repo.FindSupplierByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "supplier not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load supplier")
	}

	if name := strings.TrimSpace(input.Name); name != "" {
		supplier.Name = name
	}
	supplier.ContactPerson = strings.TrimSpace(input.ContactPerson)
	supplier.Email = strings.TrimSpace(input.Email)
	supplier.Phone = strings.TrimSpace(input.Phone)
	supplier.Address = strings.TrimSpace(input.Address)

	updated, err := s.repo.UpdateSupplier(ctx, supplier)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update supplier")
	}
	return NewSupplierDTO(updated), nil
}

// DeleteSupplier removes the supplier; items keep existing but lose the link.
func (s *service) DeleteSupplier(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindSupplierByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "supplier not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load supplier")
	}
	if err := s.repo.DeleteSupplier(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete supplier")
	}
	return nil
}

// CreateItem inserts an item with a generated SKU, then renders its barcode
// label. SKU collisions from concurrent creates re-derive the number and
// retry a bounded number of times.
func (s *service) CreateItem(ctx context.Context, input CreateItemInput) (*ItemDTO, error) {
	if err := s.validateCreateItem(input); err != nil {
		return nil, err
	}

	category, err := s.repo.FindCategoryByID(ctx, input.CategoryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "category does not exist")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load category")
	}
	if input.SupplierID != nil {
		if _, err := s.repo.FindSupplierByID(ctx, *input.SupplierID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "supplier does not exist")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load supplier")
		}
	}

	item := &models.Item{
		Name:         strings.TrimSpace(input.Name),
		Description:  strings.TrimSpace(input.Description),
		CategoryID:   input.CategoryID,
		SupplierID:   input.SupplierID,
		CostPrice:    input.CostPrice,
		SellingPrice: input.SellingPrice,
		Quantity:     input.Quantity,
		WeightGrams:  input.WeightGrams,
		MetalType:    input.MetalType,
		Gemstone:     strings.TrimSpace(input.Gemstone),
		PhotoKey:     input.PhotoKey,
		IsActive:     input.IsActive,
	}

	var lastErr error
	for attempt := 0; attempt < skuMaxRetries; attempt++ {
		sku, err := s.nextSKU(ctx, category.Name)
		if err != nil {
			return nil, err
		}
		item.SKU = sku

		if _, err := s.repo.CreateItem(ctx, item); err != nil {
			if db.IsUniqueViolation(err, "items_sku_key") || db.IsUniqueViolation(err, "") {
				lastErr = err
				continue
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert item")
		}
		lastErr = nil
		break
	}
	if lastErr != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, lastErr, "sku series contention, retry")
	}

	s.renderBarcode(ctx, item)

	return s.GetItem(ctx, item.ID)
}

// nextSKU computes the next SKU in a category's series.
func (s *service) nextSKU(ctx context.Context, categoryName string) (string, error) {
	prefix := skuPrefix(categoryName)
	existing, err := s.repo.ListSKUsWithPrefix(ctx, prefix)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: scan sku series")
	}
	return formatSKU(prefix, nextSKUNumber(existing)), nil
}

// renderBarcode is phase two of item save: encode the SKU, store the PNG, and
// record the artifact key. Failure never fails the save; with barcode_key
// still empty the next save attempt retries.
func (s *service) renderBarcode(ctx context.Context, item *models.Item) {
	ctx = s.logg.WithItemSKU(ctx, item.SKU)

	blob, err := s.encode(item.SKU)
	if err != nil {
		s.logg.Warn(ctx, fmt.Sprintf("barcode encoding failed: %v", err))
		return
	}

	key := storage.BarcodeKey(item.SKU)
	if err := s.artifacts.Save(ctx, key, blob); err != nil {
		s.logg.Warn(ctx, fmt.Sprintf("barcode artifact save failed: %v", err))
		return
	}

	if err := s.repo.SetBarcodeKey(ctx, item.ID, key); err != nil {
		s.logg.Warn(ctx, fmt.Sprintf("barcode key update failed: %v", err))
		return
	}
	item.BarcodeKey = &key
}

// GetItem loads one item with derived fields.
func (s *service) GetItem(ctx context.Context, id uuid.UUID) (*ItemDTO, error) {
	item, err := s.repo.FindItemByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load item")
	}
	return NewItemDTO(item), nil
}

// UpdateItem mutates item fields. The SKU is never regenerated; a missing
// barcode artifact is retried on every save.
func (s *service) UpdateItem(ctx context.Context, id uuid.UUID, input UpdateItemInput) (*ItemDTO, error) {
	item, err := s.repo.FindItemByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load item")
	}

	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item name cannot be empty")
		}
		item.Name = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		item.Description = strings.TrimSpace(*input.Description)
	}
	if input.CategoryID != nil {
		if _, err := s.repo.FindCategoryByID(ctx, *input.CategoryID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "category does not exist")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load category")
		}
		item.CategoryID = *input.CategoryID
	}
	if input.ClearSupplier {
		item.SupplierID = nil
	} else if input.SupplierID != nil {
		if _, err := s.repo.FindSupplierByID(ctx, *input.SupplierID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "supplier does not exist")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load supplier")
		}
		item.SupplierID = input.SupplierID
	}
	if input.CostPrice != nil {
		if input.CostPrice.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "cost_price cannot be negative")
		}
		item.CostPrice = *input.CostPrice
	}
	if input.SellingPrice != nil {
		if input.SellingPrice.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "selling_price cannot be negative")
		}
		item.SellingPrice = *input.SellingPrice
	}
	if input.WeightGrams != nil {
		item.WeightGrams = input.WeightGrams
	}
	if input.MetalType != nil {
		if *input.MetalType != "" && !input.MetalType.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid metal_type")
		}
		item.MetalType = *input.MetalType
	}
	if input.Gemstone != nil {
		item.Gemstone = strings.TrimSpace(*input.Gemstone)
	}
	if input.PhotoKey != nil {
		item.PhotoKey = input.PhotoKey
	}
	if input.IsActive != nil {
		item.IsActive = *input.IsActive
	}

	if _, err := s.repo.UpdateItem(ctx, item); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update item")
	}

	if item.BarcodeKey == nil || *item.BarcodeKey == "" {
		s.renderBarcode(ctx, item)
	}

	return s.GetItem(ctx, id)
}

// DeleteItem removes the item and its barcode artifact.
func (s *service) DeleteItem(ctx context.Context, id uuid.UUID) error {
	item, err := s.repo.FindItemByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load item")
	}

	if err := s.repo.DeleteItem(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete item")
	}

	if item.BarcodeKey != nil && *item.BarcodeKey != "" {
		if err := s.artifacts.Delete(ctx, *item.BarcodeKey); err != nil {
			s.logg.Warn(ctx, fmt.Sprintf("barcode artifact cleanup failed: %v", err))
		}
	}
	return nil
}

// ListItems returns a filtered, cursor-paginated page of items.
func (s *service) ListItems(ctx context.Context, filter ItemFilter, params pagination.Params) (*ItemListResult, error) {
	rows, err := s.repo.ListItems(ctx, filter, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list items")
	}

	page, hasMore := pagination.TrimPage(rows, params.Limit)
	result := &ItemListResult{Items: make([]ItemDTO, 0, len(page))}
	for i := range page {
		result.Items = append(result.Items, *NewItemDTO(&page[i]))
	}
	if hasMore && len(page) > 0 {
		last := page[len(page)-1]
		cursor := pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
		result.NextCursor = &cursor
	}
	return result, nil
}

// GetItemBarcode streams the stored barcode PNG for an item.
func (s *service) GetItemBarcode(ctx context.Context, id uuid.UUID) ([]byte, error) {
	item, err := s.repo.FindItemByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load item")
	}
	if item.BarcodeKey == nil || *item.BarcodeKey == "" {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item has no barcode artifact")
	}

	blob, err := s.artifacts.Open(ctx, *item.BarcodeKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "barcode artifact missing")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "storage: open barcode")
	}
	return blob, nil
}

func (s *service) validateCreateItem(input CreateItemInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "item name is required")
	}
	if input.CategoryID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "category_id is required")
	}
	if input.CostPrice.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "cost_price cannot be negative")
	}
	if input.SellingPrice.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "selling_price cannot be negative")
	}
	if input.Quantity < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity cannot be negative")
	}
	if input.MetalType != "" && !input.MetalType.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid metal_type")
	}
	return nil
}
