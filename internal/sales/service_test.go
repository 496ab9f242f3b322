package sales

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/aurumworks/jewelstore-backend/pkg/db/models"
	"github.com/aurumworks/jewelstore-backend/pkg/enums"
	pkgerrors "github.com/aurumworks/jewelstore-backend/pkg/errors"
	"github.com/aurumworks/jewelstore-backend/pkg/logger"
	"github.com/aurumworks/jewelstore-backend/pkg/pagination"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:sales_%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := conn.AutoMigrate(
		&models.Category{},
		&models.Supplier{},
		&models.Item{},
		&models.Customer{},
		&models.Invoice{},
		&models.InvoiceItem{},
	); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}
	return conn
}

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()

	conn := openTestDB(t)
	logg := logger.New(logger.Options{ServiceName: "sales-test", Level: logger.ParseLevel("error")})
	svc, err := NewService(NewRepository(conn), logg)
	if err != nil {
		t.Fatalf("failed to build service: %v", err)
	}
	return svc, conn
}

func mustCreateCustomer(t *testing.T, svc Service) *CustomerDTO {
	t.Helper()

	customer, err := svc.CreateCustomer(context.Background(), CustomerInput{
		Name:  "Ana Petrova",
		Email: "ana@example.test",
	})
	if err != nil {
		t.Fatalf("create customer: %v", err)
	}
	return customer
}

func mustCreateInvoice(t *testing.T, svc Service, customerID uuid.UUID) *InvoiceDTO {
	t.Helper()

	invoice, err := svc.CreateInvoice(context.Background(), CreateInvoiceInput{CustomerID: customerID})
	if err != nil {
		t.Fatalf("create invoice: %v", err)
	}
	return invoice
}

func mustCreateTestItem(t *testing.T, conn *gorm.DB, name string, sellingPrice string) *models.Item {
	t.Helper()

	category := &models.Category{ID: uuid.New(), Name: "Rings " + uuid.NewString()}
	if err := conn.Create(category).Error; err != nil {
		t.Fatalf("create category: %v", err)
	}
	price, err := decimal.NewFromString(sellingPrice)
	if err != nil {
		t.Fatalf("parse price: %v", err)
	}
	item := &models.Item{
		ID:           uuid.New(),
		SKU:          "JWL-RIN-" + uuid.NewString(),
		Name:         name,
		CategoryID:   category.ID,
		CostPrice:    decimal.NewFromInt(40),
		SellingPrice: price,
		Quantity:     10,
		IsActive:     true,
	}
	if err := conn.Create(item).Error; err != nil {
		t.Fatalf("create item: %v", err)
	}
	return item
}

func TestCreateInvoiceStartsAsDraft(t *testing.T) {
	svc, _ := newTestService(t)
	customer := mustCreateCustomer(t, svc)

	invoice := mustCreateInvoice(t, svc, customer.ID)
	if invoice.Status != enums.InvoiceStatusDraft.String() {
		t.Fatalf("expected draft status, got %q", invoice.Status)
	}
	if invoice.TotalAmount != "0.00" {
		t.Fatalf("expected zero total on empty invoice, got %q", invoice.TotalAmount)
	}
	if invoice.CustomerName != "Ana Petrova" {
		t.Fatalf("expected preloaded customer name, got %q", invoice.CustomerName)
	}
}

func TestCreateInvoiceUnknownCustomer(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.CreateInvoice(context.Background(), CreateInvoiceInput{CustomerID: uuid.New()})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestTotalAmountComputedFromLines(t *testing.T) {
	svc, conn := newTestService(t)
	customer := mustCreateCustomer(t, svc)
	invoice := mustCreateInvoice(t, svc, customer.ID)
	ctx := context.Background()

	item := mustCreateTestItem(t, conn, "Gold Band", "100.00")
	if _, err := svc.AddLine(ctx, invoice.ID, AddLineInput{ItemID: &item.ID, Quantity: 1}); err != nil {
		t.Fatalf("add inventory line: %v", err)
	}
	engraving := "Engraving"
	fee := decimal.RequireFromString("25.00")
	updated, err := svc.AddLine(ctx, invoice.ID, AddLineInput{
		Description: &engraving,
		UnitPrice:   &fee,
		Quantity:    1,
	})
	if err != nil {
		t.Fatalf("add freeform line: %v", err)
	}

	if updated.TotalAmount != "125.00" {
		t.Fatalf("expected total 125.00, got %q", updated.TotalAmount)
	}

	// totals come from the lines at read time, nothing is stored
	var stored models.Invoice
	if err := conn.First(&stored, "id = ?", invoice.ID).Error; err != nil {
		t.Fatalf("reload invoice: %v", err)
	}
	if !stored.TotalAmount().IsZero() {
		t.Fatal("expected no cached total on the bare invoice row")
	}
}

func TestInventoryLineSnapshotsItemFields(t *testing.T) {
	svc, conn := newTestService(t)
	customer := mustCreateCustomer(t, svc)
	invoice := mustCreateInvoice(t, svc, customer.ID)
	ctx := context.Background()

	item := mustCreateTestItem(t, conn, "Silver Chain", "80.00")
	updated, err := svc.AddLine(ctx, invoice.ID, AddLineInput{ItemID: &item.ID, Quantity: 2})
	if err != nil {
		t.Fatalf("add line: %v", err)
	}

	line := updated.Lines[0]
	if line.Description != "Silver Chain" || line.UnitPrice != "80.00" {
		t.Fatalf("expected snapshot of item name and price, got %q %q", line.Description, line.UnitPrice)
	}

	// later price edits must not leak into existing invoices
	if err := conn.Model(&models.Item{}).Where("id = ?", item.ID).
		Update("selling_price", decimal.RequireFromString("999.00")).Error; err != nil {
		t.Fatalf("reprice item: %v", err)
	}
	reloaded, err := svc.GetInvoice(ctx, invoice.ID)
	if err != nil {
		t.Fatalf("reload invoice: %v", err)
	}
	if reloaded.TotalAmount != "160.00" {
		t.Fatalf("expected total 160.00 from snapshot, got %q", reloaded.TotalAmount)
	}
}

func TestInventoryLineOverrides(t *testing.T) {
	svc, conn := newTestService(t)
	customer := mustCreateCustomer(t, svc)
	invoice := mustCreateInvoice(t, svc, customer.ID)

	item := mustCreateTestItem(t, conn, "Pearl Earrings", "60.00")
	desc := "Pearl Earrings (discounted)"
	price := decimal.RequireFromString("45.50")
	updated, err := svc.AddLine(context.Background(), invoice.ID, AddLineInput{
		ItemID:      &item.ID,
		Description: &desc,
		UnitPrice:   &price,
		Quantity:    1,
	})
	if err != nil {
		t.Fatalf("add line: %v", err)
	}

	line := updated.Lines[0]
	if line.Description != desc || line.UnitPrice != "45.50" {
		t.Fatalf("expected overrides to win, got %q %q", line.Description, line.UnitPrice)
	}
}

func TestAddLineValidation(t *testing.T) {
	svc, _ := newTestService(t)
	customer := mustCreateCustomer(t, svc)
	invoice := mustCreateInvoice(t, svc, customer.ID)
	ctx := context.Background()

	desc := "Repair"
	price := decimal.RequireFromString("10.00")
	missingItem := uuid.New()

	cases := []struct {
		name  string
		input AddLineInput
	}{
		{"noDescription", AddLineInput{UnitPrice: &price, Quantity: 1}},
		{"noUnitPrice", AddLineInput{Description: &desc, Quantity: 1}},
		{"zeroQuantity", AddLineInput{Description: &desc, UnitPrice: &price, Quantity: 0}},
		{"unknownItem", AddLineInput{ItemID: &missingItem, Quantity: 1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.AddLine(ctx, invoice.ID, tc.input)
			if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestLineEditsRejectedOnFinalInvoices(t *testing.T) {
	svc, _ := newTestService(t)
	customer := mustCreateCustomer(t, svc)
	invoice := mustCreateInvoice(t, svc, customer.ID)
	ctx := context.Background()

	desc := "Repair"
	price := decimal.RequireFromString("10.00")
	updated, err := svc.AddLine(ctx, invoice.ID, AddLineInput{Description: &desc, UnitPrice: &price, Quantity: 1})
	if err != nil {
		t.Fatalf("add line: %v", err)
	}

	paid := enums.InvoiceStatusPaid.String()
	if _, err := svc.UpdateInvoice(ctx, invoice.ID, UpdateInvoiceInput{Status: &paid}); err != nil {
		t.Fatalf("mark paid: %v", err)
	}

	_, err = svc.AddLine(ctx, invoice.ID, AddLineInput{Description: &desc, UnitPrice: &price, Quantity: 1})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
	_, err = svc.RemoveLine(ctx, invoice.ID, updated.Lines[0].ID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestRemoveLine(t *testing.T) {
	svc, _ := newTestService(t)
	customer := mustCreateCustomer(t, svc)
	invoice := mustCreateInvoice(t, svc, customer.ID)
	ctx := context.Background()

	desc := "Repair"
	price := decimal.RequireFromString("10.00")
	updated, err := svc.AddLine(ctx, invoice.ID, AddLineInput{Description: &desc, UnitPrice: &price, Quantity: 2})
	if err != nil {
		t.Fatalf("add line: %v", err)
	}

	after, err := svc.RemoveLine(ctx, invoice.ID, updated.Lines[0].ID)
	if err != nil {
		t.Fatalf("remove line: %v", err)
	}
	if len(after.Lines) != 0 || after.TotalAmount != "0.00" {
		t.Fatalf("expected empty invoice after removal, got %d lines total %q", len(after.Lines), after.TotalAmount)
	}

	otherInvoice := mustCreateInvoice(t, svc, customer.ID)
	other, err := svc.AddLine(ctx, otherInvoice.ID, AddLineInput{Description: &desc, UnitPrice: &price, Quantity: 1})
	if err != nil {
		t.Fatalf("add line: %v", err)
	}
	_, err = svc.RemoveLine(ctx, invoice.ID, other.Lines[0].ID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for line on another invoice, got %v", err)
	}
}

func TestListCustomersPagination(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := svc.CreateCustomer(ctx, CustomerInput{Name: fmt.Sprintf("Customer %d", i)}); err != nil {
			t.Fatalf("create customer: %v", err)
		}
	}

	page, err := svc.ListCustomers(ctx, pagination.Params{Limit: 2})
	if err != nil {
		t.Fatalf("list customers: %v", err)
	}
	if len(page.Customers) != 2 || page.NextCursor == nil {
		t.Fatalf("expected a full page with a cursor, got %d customers", len(page.Customers))
	}

	rest, err := svc.ListCustomers(ctx, pagination.Params{Limit: 2, Cursor: *page.NextCursor})
	if err != nil {
		t.Fatalf("list rest: %v", err)
	}
	if len(rest.Customers) != 1 || rest.NextCursor != nil {
		t.Fatalf("expected the final customer without a cursor, got %d", len(rest.Customers))
	}
	for _, c := range rest.Customers {
		if c.ID == page.Customers[0].ID || c.ID == page.Customers[1].ID {
			t.Fatalf("cursor page repeated customer %s", c.ID)
		}
	}
}

func TestDeleteCustomerCascadesInvoices(t *testing.T) {
	svc, conn := newTestService(t)
	customer := mustCreateCustomer(t, svc)
	invoice := mustCreateInvoice(t, svc, customer.ID)
	ctx := context.Background()

	desc := "Repair"
	price := decimal.RequireFromString("10.00")
	if _, err := svc.AddLine(ctx, invoice.ID, AddLineInput{Description: &desc, UnitPrice: &price, Quantity: 1}); err != nil {
		t.Fatalf("add line: %v", err)
	}

	if err := svc.DeleteCustomer(ctx, customer.ID); err != nil {
		t.Fatalf("delete customer: %v", err)
	}

	var invoices, lines int64
	if err := conn.Model(&models.Invoice{}).Count(&invoices).Error; err != nil {
		t.Fatalf("count invoices: %v", err)
	}
	if err := conn.Model(&models.InvoiceItem{}).Count(&lines).Error; err != nil {
		t.Fatalf("count lines: %v", err)
	}
	if invoices != 0 || lines != 0 {
		t.Fatalf("expected cascade to remove invoices and lines, got %d/%d", invoices, lines)
	}
}

func TestListInvoicesFilterAndPagination(t *testing.T) {
	svc, _ := newTestService(t)
	customer := mustCreateCustomer(t, svc)
	other := mustCreateCustomer(t, svc)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		mustCreateInvoice(t, svc, customer.ID)
	}
	mustCreateInvoice(t, svc, other.ID)

	byCustomer, err := svc.ListInvoices(ctx, InvoiceFilter{CustomerID: &customer.ID}, pagination.Params{})
	if err != nil {
		t.Fatalf("list by customer: %v", err)
	}
	if len(byCustomer.Invoices) != 3 {
		t.Fatalf("expected 3 invoices for customer, got %d", len(byCustomer.Invoices))
	}

	page, err := svc.ListInvoices(ctx, InvoiceFilter{}, pagination.Params{Limit: 2})
	if err != nil {
		t.Fatalf("list page: %v", err)
	}
	if len(page.Invoices) != 2 || page.NextCursor == nil {
		t.Fatalf("expected a full page with a cursor, got %d invoices", len(page.Invoices))
	}
	rest, err := svc.ListInvoices(ctx, InvoiceFilter{}, pagination.Params{Limit: 2, Cursor: *page.NextCursor})
	if err != nil {
		t.Fatalf("list rest: %v", err)
	}
	if len(rest.Invoices) != 2 {
		t.Fatalf("expected remaining 2 invoices, got %d", len(rest.Invoices))
	}

	if _, err := svc.ListInvoices(ctx, InvoiceFilter{Status: "overdue"}, pagination.Params{}); err == nil {
		t.Fatal("expected invalid status filter to be rejected")
	}
}
