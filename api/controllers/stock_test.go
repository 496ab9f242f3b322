package controllers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/aurumworks/jewelstore-backend/api/middleware"
	ledgersvc "github.com/aurumworks/jewelstore-backend/internal/ledger"
	"github.com/aurumworks/jewelstore-backend/pkg/enums"
	"github.com/aurumworks/jewelstore-backend/pkg/logger"
	"github.com/aurumworks/jewelstore-backend/pkg/pagination"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: logger.ParseLevel("debug"), Output: io.Discard})
}

func withRouteParam(req *http.Request, key, value string) *http.Request {
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add(key, value)
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx)
	return req.WithContext(ctx)
}

func TestStockRecord(t *testing.T) {
	logg := testLogger()
	itemID := uuid.New()
	actorID := uuid.New()

	t.Run("success", func(t *testing.T) {
		stub := &stubLedgerService{}
		body := `{"type":"out","quantity":3,"notes":"sold over the counter"}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/items/"+itemID.String()+"/stock", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Actor-Id", actorID.String())
		req = withRouteParam(req, "itemId", itemID.String())

		rec := httptest.NewRecorder()
		middleware.Actor(logg)(StockRecord(stub, logg)).ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d (%s)", rec.Code, rec.Body.String())
		}
		if !strings.Contains(rec.Body.String(), `"type":"out"`) {
			t.Fatalf("expected recorded type in response, got %s", rec.Body.String())
		}
		if stub.lastRecord == nil {
			t.Fatalf("expected Record to be invoked")
		}
		if stub.lastRecord.ItemID != itemID {
			t.Fatalf("item id = %s, want %s", stub.lastRecord.ItemID, itemID)
		}
		if stub.lastRecord.Type != enums.TransactionTypeOut || stub.lastRecord.Quantity != 3 {
			t.Fatalf("unexpected input %+v", stub.lastRecord)
		}
		if stub.lastRecord.ActorID == nil || *stub.lastRecord.ActorID != actorID {
			t.Fatalf("expected actor %s, got %v", actorID, stub.lastRecord.ActorID)
		}
	})

	t.Run("unknown transaction type", func(t *testing.T) {
		stub := &stubLedgerService{}
		body := `{"type":"restock","quantity":3}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/items/"+itemID.String()+"/stock", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req = withRouteParam(req, "itemId", itemID.String())

		rec := httptest.NewRecorder()
		StockRecord(stub, logg).ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		if stub.lastRecord != nil {
			t.Fatalf("service should not be invoked for a bad type")
		}
	})

	t.Run("invalid item id", func(t *testing.T) {
		stub := &stubLedgerService{}
		body := `{"type":"in","quantity":1}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/items/not-a-uuid/stock", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req = withRouteParam(req, "itemId", "not-a-uuid")

		rec := httptest.NewRecorder()
		StockRecord(stub, logg).ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("missing actor header leaves movement unattributed", func(t *testing.T) {
		stub := &stubLedgerService{}
		body := `{"type":"in","quantity":5}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/items/"+itemID.String()+"/stock", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req = withRouteParam(req, "itemId", itemID.String())

		rec := httptest.NewRecorder()
		middleware.Actor(logg)(StockRecord(stub, logg)).ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d (%s)", rec.Code, rec.Body.String())
		}
		if stub.lastRecord == nil || stub.lastRecord.ActorID != nil {
			t.Fatalf("expected nil actor, got %+v", stub.lastRecord)
		}
	})
}

func TestStockHistoryPassesPagination(t *testing.T) {
	logg := testLogger()
	itemID := uuid.New()
	stub := &stubLedgerService{}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/items/"+itemID.String()+"/stock?limit=5", nil)
	req = withRouteParam(req, "itemId", itemID.String())

	rec := httptest.NewRecorder()
	StockHistory(stub, logg).ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	if stub.lastListItem != itemID {
		t.Fatalf("expected list for %s, got %s", itemID, stub.lastListItem)
	}
	if stub.lastParams.Limit != 5 {
		t.Fatalf("expected limit 5, got %d", stub.lastParams.Limit)
	}
}

type stubLedgerService struct {
	lastRecord   *ledgersvc.RecordInput
	lastListItem uuid.UUID
	lastParams   pagination.Params
}

func (s *stubLedgerService) Record(ctx context.Context, input ledgersvc.RecordInput) (*ledgersvc.TransactionDTO, error) {
	s.lastRecord = &input
	return &ledgersvc.TransactionDTO{ID: uuid.New(), ItemID: input.ItemID, Type: input.Type.String()}, nil
}

func (s *stubLedgerService) Get(ctx context.Context, id uuid.UUID) (*ledgersvc.TransactionDTO, error) {
	panic("unimplemented")
}

func (s *stubLedgerService) ListForItem(ctx context.Context, itemID uuid.UUID, params pagination.Params) (*ledgersvc.TransactionListResult, error) {
	s.lastListItem = itemID
	s.lastParams = params
	return &ledgersvc.TransactionListResult{Transactions: []ledgersvc.TransactionDTO{}}, nil
}

func (s *stubLedgerService) List(ctx context.Context, params pagination.Params) (*ledgersvc.TransactionListResult, error) {
	s.lastParams = params
	return &ledgersvc.TransactionListResult{Transactions: []ledgersvc.TransactionDTO{}}, nil
}

func (s *stubLedgerService) CountsByType(ctx context.Context) ([]ledgersvc.TypeCount, error) {
	panic("unimplemented")
}
