package stripewebhook

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/aurumworks/jewelstore-backend/internal/billing"
	"github.com/aurumworks/jewelstore-backend/pkg/db"
	"github.com/aurumworks/jewelstore-backend/pkg/db/models"
	"github.com/aurumworks/jewelstore-backend/pkg/enums"
	"github.com/aurumworks/jewelstore-backend/pkg/logger"
)

type memoryIdempotencyStore struct {
	mu   sync.Mutex
	keys map[string]string
}

func newMemoryIdempotencyStore() *memoryIdempotencyStore {
	return &memoryIdempotencyStore{keys: map[string]string{}}
}

func (m *memoryIdempotencyStore) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.keys[key], nil
}

func (m *memoryIdempotencyStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.keys[key]; exists {
		return false, nil
	}
	m.keys[key] = fmt.Sprint(value)
	return true, nil
}

func (m *memoryIdempotencyStore) IdempotencyKey(scope, id string) string {
	return "test:idempotency:" + scope + ":" + id
}

func (m *memoryIdempotencyStore) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.keys, key)
	}
	return nil
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:stripewebhook_%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := conn.AutoMigrate(
		&models.Customer{},
		&models.Invoice{},
		&models.InvoiceItem{},
	); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}
	return conn
}

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()

	conn := openTestDB(t)
	logg := logger.New(logger.Options{ServiceName: "stripewebhook-test", Level: logger.ParseLevel("error")})
	guard, err := NewIdempotencyGuard(newMemoryIdempotencyStore(), time.Hour, "stripe")
	if err != nil {
		t.Fatalf("build guard: %v", err)
	}
	svc, err := NewService(ServiceParams{
		Repo:              NewRepository(conn),
		TransactionRunner: db.FromConn(conn),
		Guard:             guard,
		Logger:            logg,
	})
	if err != nil {
		t.Fatalf("failed to build service: %v", err)
	}
	return svc, conn
}

func mustCreateSentInvoice(t *testing.T, conn *gorm.DB) *models.Invoice {
	t.Helper()

	customer := &models.Customer{ID: uuid.New(), Name: "Ana Petrova"}
	if err := conn.Create(customer).Error; err != nil {
		t.Fatalf("create customer: %v", err)
	}
	link := "https://checkout.stripe.test/s/abc"
	invoice := &models.Invoice{
		ID:             uuid.New(),
		CustomerID:     customer.ID,
		Status:         enums.InvoiceStatusSent,
		Date:           time.Now().UTC(),
		PaymentLinkURL: &link,
	}
	if err := conn.Create(invoice).Error; err != nil {
		t.Fatalf("create invoice: %v", err)
	}
	line := &models.InvoiceItem{
		ID:          uuid.New(),
		InvoiceID:   invoice.ID,
		Description: "Gold Band",
		Quantity:    1,
		UnitPrice:   decimal.RequireFromString("100.00"),
	}
	if err := conn.Create(line).Error; err != nil {
		t.Fatalf("create line: %v", err)
	}
	return invoice
}

func checkoutCompletedEvent(t *testing.T, eventID string, metadata map[string]string, paymentIntentID string) *stripe.Event {
	t.Helper()

	session := map[string]any{
		"id":       "cs_test_123",
		"metadata": metadata,
	}
	if paymentIntentID != "" {
		session["payment_intent"] = map[string]any{"id": paymentIntentID}
	}
	raw, err := json.Marshal(session)
	if err != nil {
		t.Fatalf("marshal session: %v", err)
	}
	return &stripe.Event{
		ID:   eventID,
		Type: stripe.EventTypeCheckoutSessionCompleted,
		Data: &stripe.EventData{Raw: raw},
	}
}

func invoiceStatus(t *testing.T, conn *gorm.DB, id uuid.UUID) *models.Invoice {
	t.Helper()
	var invoice models.Invoice
	if err := conn.First(&invoice, "id = ?", id).Error; err != nil {
		t.Fatalf("reload invoice: %v", err)
	}
	return &invoice
}

func TestHandleCheckoutCompletedMarksInvoicePaid(t *testing.T) {
	svc, conn := newTestService(t)
	invoice := mustCreateSentInvoice(t, conn)

	event := checkoutCompletedEvent(t, "evt_1", map[string]string{
		billing.MetadataInvoiceID: invoice.ID.String(),
	}, "pi_123")
	if err := svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("handle event: %v", err)
	}

	stored := invoiceStatus(t, conn, invoice.ID)
	if stored.Status != enums.InvoiceStatusPaid {
		t.Fatalf("expected paid status, got %s", stored.Status)
	}
	if stored.PaymentIntentID == nil || *stored.PaymentIntentID != "pi_123" {
		t.Fatalf("expected payment intent recorded, got %v", stored.PaymentIntentID)
	}
}

func TestHandleEventDuplicateDeliverySkipped(t *testing.T) {
	svc, conn := newTestService(t)
	invoice := mustCreateSentInvoice(t, conn)
	ctx := context.Background()

	event := checkoutCompletedEvent(t, "evt_dup", map[string]string{
		billing.MetadataInvoiceID: invoice.ID.String(),
	}, "pi_123")
	if err := svc.HandleEvent(ctx, event); err != nil {
		t.Fatalf("first delivery: %v", err)
	}

	// roll the status back so a reprocessed duplicate would be visible
	if err := conn.Model(&models.Invoice{}).Where("id = ?", invoice.ID).
		Update("status", enums.InvoiceStatusSent).Error; err != nil {
		t.Fatalf("reset status: %v", err)
	}
	if err := svc.HandleEvent(ctx, event); err != nil {
		t.Fatalf("second delivery: %v", err)
	}
	if stored := invoiceStatus(t, conn, invoice.ID); stored.Status != enums.InvoiceStatusSent {
		t.Fatalf("duplicate delivery must be skipped, got %s", stored.Status)
	}
}

func TestHandleEventIgnoresUnknownTypes(t *testing.T) {
	svc, conn := newTestService(t)
	invoice := mustCreateSentInvoice(t, conn)

	event := &stripe.Event{
		ID:   "evt_other",
		Type: stripe.EventTypeInvoicePaid,
		Data: &stripe.EventData{Raw: json.RawMessage(`{}`)},
	}
	if err := svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("handle event: %v", err)
	}
	if stored := invoiceStatus(t, conn, invoice.ID); stored.Status != enums.InvoiceStatusSent {
		t.Fatalf("unrelated events must not change invoices, got %s", stored.Status)
	}
}

func TestHandleEventToleratesMissingInvoice(t *testing.T) {
	svc, _ := newTestService(t)

	event := checkoutCompletedEvent(t, "evt_gone", map[string]string{
		billing.MetadataInvoiceID: uuid.NewString(),
	}, "")
	if err := svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("missing invoice must be tolerated, got %v", err)
	}
}

func TestHandleEventToleratesMissingMetadata(t *testing.T) {
	svc, conn := newTestService(t)
	invoice := mustCreateSentInvoice(t, conn)

	event := checkoutCompletedEvent(t, "evt_meta", nil, "")
	if err := svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("missing metadata must be tolerated, got %v", err)
	}
	if stored := invoiceStatus(t, conn, invoice.ID); stored.Status != enums.InvoiceStatusSent {
		t.Fatalf("invoice must be untouched, got %s", stored.Status)
	}
}
