package ledger

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/aurumworks/jewelstore-backend/pkg/db/models"
	"github.com/aurumworks/jewelstore-backend/pkg/enums"
	"github.com/aurumworks/jewelstore-backend/pkg/pagination"
)

// TypeCount aggregates transactions per type.
type TypeCount struct {
	Type  enums.TransactionType `json:"type"`
	Count int64                 `json:"count"`
	Units int64                 `json:"units"`
}

// Repository persists stock transactions and the item quantity they mutate.
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

// LockItem loads the item with a row lock so the quantity mutation and the
// ledger insert commit together. SQLite ignores the locking clause; its
// single-writer model gives the same guarantee.
func (r *Repository) LockItem(ctx context.Context, itemID uuid.UUID) (*models.Item, error) {
	var item models.Item
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&item, "id = ?", itemID).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// UpdateItemQuantity persists just the quantity column.
func (r *Repository) UpdateItemQuantity(ctx context.Context, itemID uuid.UUID, quantity int) error {
	return r.db.WithContext(ctx).
		Model(&models.Item{}).
		Where("id = ?", itemID).
		Update("quantity", quantity).Error
}

// CreateTransaction appends the ledger row.
func (r *Repository) CreateTransaction(ctx context.Context, tx *models.StockTransaction) (*models.StockTransaction, error) {
	if tx.ID == uuid.Nil {
		tx.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Omit("Item", "User").Create(tx).Error; err != nil {
		return nil, err
	}
	return tx, nil
}

// FindByID loads a single transaction with its item.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.StockTransaction, error) {
	var row models.StockTransaction
	err := r.db.WithContext(ctx).
		Preload("Item").
		Preload("User").
		First(&row, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// ListForItem returns an item's transactions newest-first.
func (r *Repository) ListForItem(ctx context.Context, itemID uuid.UUID, params pagination.Params) ([]models.StockTransaction, error) {
	return r.list(ctx, params, func(q *gorm.DB) *gorm.DB {
		return q.Where("item_id = ?", itemID)
	})
}

// List returns all transactions newest-first.
func (r *Repository) List(ctx context.Context, params pagination.Params) ([]models.StockTransaction, error) {
	return r.list(ctx, params, nil)
}

func (r *Repository) list(ctx context.Context, params pagination.Params, scope func(*gorm.DB) *gorm.DB) ([]models.StockTransaction, error) {
	query := r.db.WithContext(ctx).Model(&models.StockTransaction{})
	if scope != nil {
		query = scope(query)
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

	var rows []models.StockTransaction
	err = query.
		Preload("Item").
		Preload("User").
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// CountsByType aggregates transaction counts and absolute units per type.
func (r *Repository) CountsByType(ctx context.Context) ([]TypeCount, error) {
	var rows []TypeCount
	err := r.db.WithContext(ctx).
		Model(&models.StockTransaction{}).
		Select("type, COUNT(id) AS count, COALESCE(SUM(ABS(quantity)), 0) AS units").
		Group("type").
		Order("type ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
