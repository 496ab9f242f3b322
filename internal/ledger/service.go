package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aurumworks/jewelstore-backend/pkg/db"
	"github.com/aurumworks/jewelstore-backend/pkg/db/models"
	"github.com/aurumworks/jewelstore-backend/pkg/enums"
	pkgerrors "github.com/aurumworks/jewelstore-backend/pkg/errors"
	"github.com/aurumworks/jewelstore-backend/pkg/logger"
	"github.com/aurumworks/jewelstore-backend/pkg/metrics"
	"github.com/aurumworks/jewelstore-backend/pkg/pagination"
)

// Service appends stock transactions and serves ledger history. Rows are
// append-only: there is no update or delete surface, so a movement applies to
// the item quantity exactly once, when it is recorded.
type Service interface {
	Record(ctx context.Context, input RecordInput) (*TransactionDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*TransactionDTO, error)
	ListForItem(ctx context.Context, itemID uuid.UUID, params pagination.Params) (*TransactionListResult, error)
	List(ctx context.Context, params pagination.Params) (*TransactionListResult, error)
	CountsByType(ctx context.Context) ([]TypeCount, error)
}

// RecordInput is the payload for a new stock movement. For in/out the
// quantity is a positive magnitude; adjustment takes any signed non-zero
// value.
type RecordInput struct {
	ItemID   uuid.UUID
	ActorID  *uuid.UUID
	Type     enums.TransactionType
	Quantity int
	Notes    string
}

// TransactionDTO is the ledger row payload returned to clients.
type TransactionDTO struct {
	ID           uuid.UUID `json:"id"`
	ItemID       uuid.UUID `json:"item_id"`
	ItemName     string    `json:"item_name,omitempty"`
	ItemSKU      string    `json:"item_sku,omitempty"`
	ActorID      *uuid.UUID `json:"actor_id,omitempty"`
	ActorName    string    `json:"actor_name,omitempty"`
	Type         string    `json:"type"`
	Quantity     int       `json:"quantity"`
	Notes        string    `json:"notes,omitempty"`
	ItemQuantity int       `json:"item_quantity"`
	CreatedAt    time.Time `json:"created_at"`
}

// TransactionListResult is a cursor page of ledger rows.
type TransactionListResult struct {
	Transactions []TransactionDTO `json:"transactions"`
	NextCursor   *string          `json:"next_cursor,omitempty"`
}

type service struct {
	repo     *Repository
	dbClient *db.Client
	logg     *logger.Logger
	metrics  *metrics.LedgerMetrics
}

// NewService constructs a ledger service instance. Metrics may be nil.
func NewService(repo *Repository, dbClient *db.Client, logg *logger.Logger, ledgerMetrics *metrics.LedgerMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:     repo,
		dbClient: dbClient,
		logg:     logg,
		metrics:  ledgerMetrics,
	}, nil
}

// Record validates the movement and applies it atomically: the item row is
// locked, the signed delta applied, and the ledger row inserted in one
// transaction. An `out` movement may drive the quantity negative; oversells
// are visible in the ledger rather than rejected.
func (s *service) Record(ctx context.Context, input RecordInput) (*TransactionDTO, error) {
	delta, err := s.validate(input)
	if err != nil {
		s.metrics.IncRejected("invalid_input")
		return nil, err
	}

	var recorded *models.StockTransaction
	err = s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		item, err := txRepo.LockItem(ctx, input.ItemID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: lock item")
		}

		if err := txRepo.UpdateItemQuantity(ctx, item.ID, item.Quantity+delta); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: apply quantity delta")
		}

		row := &models.StockTransaction{
			ItemID:   input.ItemID,
			UserID:   input.ActorID,
			Type:     input.Type,
			Quantity: delta,
			Notes:    strings.TrimSpace(input.Notes),
		}
		created, err := txRepo.CreateTransaction(ctx, row)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert stock transaction")
		}
		recorded = created
		return nil
	})
	if err != nil {
		s.metrics.IncRejected("tx_failed")
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record stock transaction")
	}

	s.metrics.IncRecorded(input.Type.String(), delta)

	ctx = s.logg.WithFields(ctx, map[string]any{
		"transaction_id": recorded.ID.String(),
		"type":           input.Type.String(),
		"delta":          delta,
	})
	s.logg.Info(ctx, "stock transaction recorded")

	return s.Get(ctx, recorded.ID)
}

// validate checks the input and returns the signed quantity delta to apply.
func (s *service) validate(input RecordInput) (int, error) {
	if input.ItemID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "item_id is required")
	}
	if !input.Type.IsValid() {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "invalid transaction type")
	}
	if input.Quantity == 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "quantity cannot be zero")
	}

	switch input.Type {
	case enums.TransactionTypeIn:
		if input.Quantity < 0 {
			return 0, pkgerrors.New(pkgerrors.CodeValidation, "in quantity must be positive")
		}
		return input.Quantity, nil
	case enums.TransactionTypeOut:
		if input.Quantity < 0 {
			return 0, pkgerrors.New(pkgerrors.CodeValidation, "out quantity must be positive")
		}
		return -input.Quantity, nil
	default:
		return input.Quantity, nil
	}
}

// Get loads one ledger row.
func (s *service) Get(ctx context.Context, id uuid.UUID) (*TransactionDTO, error) {
	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "stock transaction not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load stock transaction")
	}
	return newTransactionDTO(row), nil
}

// ListForItem returns an item's movements newest-first.
func (s *service) ListForItem(ctx context.Context, itemID uuid.UUID, params pagination.Params) (*TransactionListResult, error) {
	if itemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item_id is required")
	}
	rows, err := s.repo.ListForItem(ctx, itemID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list item transactions")
	}
	return newListResult(rows, params.Limit), nil
}

// List returns all movements newest-first.
func (s *service) List(ctx context.Context, params pagination.Params) (*TransactionListResult, error) {
	rows, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list transactions")
	}
	return newListResult(rows, params.Limit), nil
}

// CountsByType aggregates movement counts for the dashboard.
func (s *service) CountsByType(ctx context.Context) ([]TypeCount, error) {
	counts, err := s.repo.CountsByType(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: count transactions")
	}
	return counts, nil
}

func newTransactionDTO(row *models.StockTransaction) *TransactionDTO {
	dto := &TransactionDTO{
		ID:        row.ID,
		ItemID:    row.ItemID,
		ActorID:   row.UserID,
		Type:      row.Type.String(),
		Quantity:  row.Quantity,
		Notes:     row.Notes,
		CreatedAt: row.CreatedAt,
	}
	if row.Item != nil {
		dto.ItemName = row.Item.Name
		dto.ItemSKU = row.Item.SKU
		dto.ItemQuantity = row.Item.Quantity
	}
	if row.User != nil {
		dto.ActorName = row.User.Name
	}
	return dto
}

func newListResult(rows []models.StockTransaction, limit int) *TransactionListResult {
	page, hasMore := pagination.TrimPage(rows, limit)
	result := &TransactionListResult{Transactions: make([]TransactionDTO, 0, len(page))}
	for i := range page {
		result.Transactions = append(result.Transactions, *newTransactionDTO(&page[i]))
	}
	if hasMore && len(page) > 0 {
		last := page[len(page)-1]
		cursor := pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
		result.NextCursor = &cursor
	}
	return result
}
