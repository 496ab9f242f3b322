package notifications

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/aurumworks/jewelstore-backend/pkg/db/models"
	"github.com/aurumworks/jewelstore-backend/pkg/enums"
	pkgerrors "github.com/aurumworks/jewelstore-backend/pkg/errors"
	"github.com/aurumworks/jewelstore-backend/pkg/logger"
	"github.com/aurumworks/jewelstore-backend/pkg/mailer"
)

type fakeEmailSender struct {
	sent []mailer.Message
	err  error
}

func (f *fakeEmailSender) Send(_ context.Context, msg mailer.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

type fakeSMSTransport struct {
	toPhones []string
	bodies   []string
	err      error
}

func (f *fakeSMSTransport) SendSMS(_ context.Context, toPhone, body string) error {
	if f.err != nil {
		return f.err
	}
	f.toPhones = append(f.toPhones, toPhone)
	f.bodies = append(f.bodies, body)
	return nil
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:notifications_%s?mode=memory&cache=shared", uuid.NewString())
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

func newTestService(t *testing.T, email *fakeEmailSender, sms *fakeSMSTransport) (Service, *gorm.DB) {
	t.Helper()

	conn := openTestDB(t)
	logg := logger.New(logger.Options{ServiceName: "notifications-test", Level: logger.ParseLevel("error")})
	svc, err := NewService(NewRepository(conn), email, sms, logg)
	if err != nil {
		t.Fatalf("failed to build service: %v", err)
	}
	return svc, conn
}

func mustCreateInvoice(t *testing.T, conn *gorm.DB, email, phone string, link *string) *models.Invoice {
	t.Helper()

	customer := &models.Customer{ID: uuid.New(), Name: "Ana Petrova", Email: email, Phone: phone}
	if err := conn.Create(customer).Error; err != nil {
		t.Fatalf("create customer: %v", err)
	}
	invoice := &models.Invoice{
		ID:             uuid.New(),
		CustomerID:     customer.ID,
		Status:         enums.InvoiceStatusSent,
		Date:           time.Now().UTC(),
		PaymentLinkURL: link,
	}
	if err := conn.Create(invoice).Error; err != nil {
		t.Fatalf("create invoice: %v", err)
	}
	line := &models.InvoiceItem{
		ID:          uuid.New(),
		InvoiceID:   invoice.ID,
		Description: "Gold Band",
		Quantity:    2,
		UnitPrice:   decimal.RequireFromString("100.00"),
	}
	if err := conn.Create(line).Error; err != nil {
		t.Fatalf("create line: %v", err)
	}
	return invoice
}

func TestSendInvoiceEmail(t *testing.T) {
	email := &fakeEmailSender{}
	sms := &fakeSMSTransport{}
	svc, conn := newTestService(t, email, sms)
	link := "https://checkout.stripe.test/s/abc"
	invoice := mustCreateInvoice(t, conn, "ana@example.test", "", &link)

	if err := svc.SendInvoiceEmail(context.Background(), invoice.ID); err != nil {
		t.Fatalf("send email: %v", err)
	}
	if len(email.sent) != 1 {
		t.Fatalf("expected one email, got %d", len(email.sent))
	}
	msg := email.sent[0]
	if msg.ToAddress != "ana@example.test" {
		t.Fatalf("unexpected recipient %q", msg.ToAddress)
	}
	if !strings.Contains(msg.PlainBody, "200.00") || !strings.Contains(msg.PlainBody, link) {
		t.Fatalf("expected total and link in body, got %q", msg.PlainBody)
	}
}

func TestSendInvoiceSMS(t *testing.T) {
	email := &fakeEmailSender{}
	sms := &fakeSMSTransport{}
	svc, conn := newTestService(t, email, sms)
	link := "https://checkout.stripe.test/s/abc"
	invoice := mustCreateInvoice(t, conn, "", "+35921234567", &link)

	if err := svc.SendInvoiceSMS(context.Background(), invoice.ID); err != nil {
		t.Fatalf("send sms: %v", err)
	}
	if len(sms.bodies) != 1 || sms.toPhones[0] != "+35921234567" {
		t.Fatalf("expected one sms to the customer, got %v", sms.toPhones)
	}
	if !strings.Contains(sms.bodies[0], link) {
		t.Fatalf("expected link in sms body, got %q", sms.bodies[0])
	}
}

func TestNotificationsRequirePaymentLink(t *testing.T) {
	email := &fakeEmailSender{}
	sms := &fakeSMSTransport{}
	svc, conn := newTestService(t, email, sms)
	invoice := mustCreateInvoice(t, conn, "ana@example.test", "+35921234567", nil)
	ctx := context.Background()

	err := svc.SendInvoiceEmail(ctx, invoice.ID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict for email, got %v", err)
	}
	err = svc.SendInvoiceSMS(ctx, invoice.ID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict for sms, got %v", err)
	}
	if len(email.sent) != 0 || len(sms.bodies) != 0 {
		t.Fatal("nothing may be dispatched without a payment link")
	}
}

func TestNotificationsRequireContactDetails(t *testing.T) {
	email := &fakeEmailSender{}
	sms := &fakeSMSTransport{}
	svc, conn := newTestService(t, email, sms)
	link := "https://checkout.stripe.test/s/abc"
	invoice := mustCreateInvoice(t, conn, "", "", &link)
	ctx := context.Background()

	err := svc.SendInvoiceEmail(ctx, invoice.ID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for email, got %v", err)
	}
	err = svc.SendInvoiceSMS(ctx, invoice.ID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for sms, got %v", err)
	}
}

func TestTransportFailureSurfacesAsDependencyError(t *testing.T) {
	email := &fakeEmailSender{err: errors.New("sendgrid rejected the message")}
	sms := &fakeSMSTransport{}
	svc, conn := newTestService(t, email, sms)
	link := "https://checkout.stripe.test/s/abc"
	invoice := mustCreateInvoice(t, conn, "ana@example.test", "", &link)

	err := svc.SendInvoiceEmail(context.Background(), invoice.ID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestSendEmailUnknownInvoice(t *testing.T) {
	svc, _ := newTestService(t, &fakeEmailSender{}, &fakeSMSTransport{})

	err := svc.SendInvoiceEmail(context.Background(), uuid.New())
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}
