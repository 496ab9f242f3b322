package inventory

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/aurumworks/jewelstore-backend/pkg/db/models"
	"github.com/aurumworks/jewelstore-backend/pkg/logger"
	"github.com/aurumworks/jewelstore-backend/pkg/storage"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:inventory_%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := conn.AutoMigrate(
		&models.Category{},
		&models.Supplier{},
		&models.User{},
		&models.Item{},
		&models.StockTransaction{},
	); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}
	return conn
}

func newTestService(t *testing.T) (*service, *Repository, *gorm.DB) {
	t.Helper()

	conn := openTestDB(t)
	repo := NewRepository(conn)
	store, err := storage.NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to build artifact store: %v", err)
	}
	logg := logger.New(logger.Options{ServiceName: "inventory-test", Level: logger.ParseLevel("error")})

	svc, err := NewService(repo, store, logg)
	if err != nil {
		t.Fatalf("failed to build service: %v", err)
	}
	return svc.(*service), repo, conn
}

func mustCreateTestCategory(t *testing.T, tx *gorm.DB, name string) *models.Category {
	t.Helper()
	category := &models.Category{
		ID:   uuid.New(),
		Name: name,
	}
	if err := tx.Create(category).Error; err != nil {
		t.Fatalf("create category: %v", err)
	}
	return category
}

func mustCreateTestSupplier(t *testing.T, tx *gorm.DB, name string) *models.Supplier {
	t.Helper()
	supplier := &models.Supplier{
		ID:    uuid.New(),
		Name:  name,
		Email: fmt.Sprintf("supplier_%s@example.com", uuid.NewString()),
	}
	if err := tx.Create(supplier).Error; err != nil {
		t.Fatalf("create supplier: %v", err)
	}
	return supplier
}

func mustCreateTestItem(t *testing.T, tx *gorm.DB, categoryID uuid.UUID, sku string, quantity int) *models.Item {
	t.Helper()
	item := &models.Item{
		ID:           uuid.New(),
		SKU:          sku,
		Name:         "Test Item " + sku,
		CategoryID:   categoryID,
		CostPrice:    decimal.NewFromFloat(50.00),
		SellingPrice: decimal.NewFromFloat(120.00),
		Quantity:     quantity,
		IsActive:     true,
	}
	if err := tx.Create(item).Error; err != nil {
		t.Fatalf("create item: %v", err)
	}
	return item
}
