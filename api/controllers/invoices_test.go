package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	salessvc "github.com/aurumworks/jewelstore-backend/internal/sales"
	pkgerrors "github.com/aurumworks/jewelstore-backend/pkg/errors"
	"github.com/aurumworks/jewelstore-backend/pkg/pagination"
)

func TestInvoiceCreate(t *testing.T) {
	logg := testLogger()
	customerID := uuid.New()

	t.Run("success", func(t *testing.T) {
		stub := &stubSalesService{}
		body := `{"customer_id":"` + customerID.String() + `","due_date":"2026-09-30","notes":"engagement set"}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/invoices", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")

		rec := httptest.NewRecorder()
		InvoiceCreate(stub, logg).ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d (%s)", rec.Code, rec.Body.String())
		}
		if stub.lastCreateInvoice == nil {
			t.Fatalf("expected CreateInvoice to be invoked")
		}
		if stub.lastCreateInvoice.CustomerID != customerID {
			t.Fatalf("customer id = %s", stub.lastCreateInvoice.CustomerID)
		}
		if stub.lastCreateInvoice.DueDate == nil {
			t.Fatalf("expected due date to be parsed")
		}
	})

	t.Run("malformed customer id", func(t *testing.T) {
		stub := &stubSalesService{}
		body := `{"customer_id":"nope"}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/invoices", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")

		rec := httptest.NewRecorder()
		InvoiceCreate(stub, logg).ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d (%s)", rec.Code, rec.Body.String())
		}
		if stub.lastCreateInvoice != nil {
			t.Fatalf("service should not be invoked for a bad customer id")
		}
	})

	t.Run("service error mapped", func(t *testing.T) {
		stub := &stubSalesService{
			createInvoiceErr: pkgerrors.New(pkgerrors.CodeValidation, "customer does not exist"),
		}
		body := `{"customer_id":"` + customerID.String() + `"}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/invoices", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")

		rec := httptest.NewRecorder()
		InvoiceCreate(stub, logg).ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d (%s)", rec.Code, rec.Body.String())
		}
		if !strings.Contains(rec.Body.String(), "customer does not exist") {
			t.Fatalf("expected service message passthrough, got %s", rec.Body.String())
		}
	})
}

func TestInvoiceAddLine(t *testing.T) {
	logg := testLogger()
	invoiceID := uuid.New()
	itemID := uuid.New()

	t.Run("freeform line", func(t *testing.T) {
		stub := &stubSalesService{}
		body := `{"description":"Engraving","unit_price":"15.00","quantity":1}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/invoices/"+invoiceID.String()+"/lines", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req = withRouteParam(req, "invoiceId", invoiceID.String())

		rec := httptest.NewRecorder()
		InvoiceAddLine(stub, logg).ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d (%s)", rec.Code, rec.Body.String())
		}
		if stub.lastAddLine == nil {
			t.Fatalf("expected AddLine to be invoked")
		}
		if stub.lastAddLine.ItemID != nil {
			t.Fatalf("expected freeform line, got item %v", stub.lastAddLine.ItemID)
		}
		if stub.lastAddLine.UnitPrice == nil || stub.lastAddLine.UnitPrice.StringFixed(2) != "15.00" {
			t.Fatalf("unit price = %v", stub.lastAddLine.UnitPrice)
		}
	})

	t.Run("inventory line", func(t *testing.T) {
		stub := &stubSalesService{}
		body := `{"item_id":"` + itemID.String() + `","quantity":2}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/invoices/"+invoiceID.String()+"/lines", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req = withRouteParam(req, "invoiceId", invoiceID.String())

		rec := httptest.NewRecorder()
		InvoiceAddLine(stub, logg).ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d (%s)", rec.Code, rec.Body.String())
		}
		if stub.lastAddLine == nil || stub.lastAddLine.ItemID == nil || *stub.lastAddLine.ItemID != itemID {
			t.Fatalf("expected item-backed line, got %+v", stub.lastAddLine)
		}
	})

	t.Run("zero quantity rejected", func(t *testing.T) {
		stub := &stubSalesService{}
		body := `{"description":"Engraving","unit_price":"15.00","quantity":0}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/invoices/"+invoiceID.String()+"/lines", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req = withRouteParam(req, "invoiceId", invoiceID.String())

		rec := httptest.NewRecorder()
		InvoiceAddLine(stub, logg).ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d (%s)", rec.Code, rec.Body.String())
		}
		if stub.lastAddLine != nil {
			t.Fatalf("service should not be invoked for zero quantity")
		}
	})
}

func TestInvoiceListFilter(t *testing.T) {
	logg := testLogger()
	customerID := uuid.New()
	stub := &stubSalesService{}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/invoices?customer_id="+customerID.String()+"&status=sent", nil)
	rec := httptest.NewRecorder()
	InvoiceList(stub, logg).ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	if stub.lastFilter == nil {
		t.Fatalf("expected ListInvoices to be invoked")
	}
	if stub.lastFilter.CustomerID == nil || *stub.lastFilter.CustomerID != customerID {
		t.Fatalf("customer filter = %v", stub.lastFilter.CustomerID)
	}
	if stub.lastFilter.Status != "sent" {
		t.Fatalf("status filter = %q", stub.lastFilter.Status)
	}
}

type stubSalesService struct {
	lastCreateInvoice *salessvc.CreateInvoiceInput
	lastAddLine       *salessvc.AddLineInput
	lastFilter        *salessvc.InvoiceFilter
	createInvoiceErr  error
}

func (s *stubSalesService) CreateCustomer(ctx context.Context, input salessvc.CustomerInput) (*salessvc.CustomerDTO, error) {
	panic("unimplemented")
}

func (s *stubSalesService) GetCustomer(ctx context.Context, id uuid.UUID) (*salessvc.CustomerDTO, error) {
	panic("unimplemented")
}

func (s *stubSalesService) ListCustomers(ctx context.Context, params pagination.Params) (*salessvc.CustomerListResult, error) {
	panic("unimplemented")
}

func (s *stubSalesService) UpdateCustomer(ctx context.Context, id uuid.UUID, input salessvc.CustomerInput) (*salessvc.CustomerDTO, error) {
	panic("unimplemented")
}

func (s *stubSalesService) DeleteCustomer(ctx context.Context, id uuid.UUID) error {
	panic("unimplemented")
}

func (s *stubSalesService) CreateInvoice(ctx context.Context, input salessvc.CreateInvoiceInput) (*salessvc.InvoiceDTO, error) {
	if s.createInvoiceErr != nil {
		return nil, s.createInvoiceErr
	}
	s.lastCreateInvoice = &input
	return &salessvc.InvoiceDTO{ID: uuid.New(), CustomerID: input.CustomerID}, nil
}

func (s *stubSalesService) GetInvoice(ctx context.Context, id uuid.UUID) (*salessvc.InvoiceDTO, error) {
	return &salessvc.InvoiceDTO{ID: id}, nil
}

func (s *stubSalesService) ListInvoices(ctx context.Context, filter salessvc.InvoiceFilter, params pagination.Params) (*salessvc.InvoiceListResult, error) {
	s.lastFilter = &filter
	return &salessvc.InvoiceListResult{Invoices: []salessvc.InvoiceDTO{}}, nil
}

func (s *stubSalesService) UpdateInvoice(ctx context.Context, id uuid.UUID, input salessvc.UpdateInvoiceInput) (*salessvc.InvoiceDTO, error) {
	panic("unimplemented")
}

func (s *stubSalesService) DeleteInvoice(ctx context.Context, id uuid.UUID) error {
	panic("unimplemented")
}

func (s *stubSalesService) AddLine(ctx context.Context, invoiceID uuid.UUID, input salessvc.AddLineInput) (*salessvc.InvoiceDTO, error) {
	s.lastAddLine = &input
	return &salessvc.InvoiceDTO{ID: invoiceID}, nil
}

func (s *stubSalesService) RemoveLine(ctx context.Context, invoiceID, lineID uuid.UUID) (*salessvc.InvoiceDTO, error) {
	panic("unimplemented")
}
