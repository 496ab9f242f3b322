package controllers

import (
	"net/http"
	"strings"

	"github.com/aurumworks/jewelstore-backend/api/middleware"
	"github.com/aurumworks/jewelstore-backend/api/responses"
	"github.com/aurumworks/jewelstore-backend/api/validators"
	ledgersvc "github.com/aurumworks/jewelstore-backend/internal/ledger"
	"github.com/aurumworks/jewelstore-backend/pkg/enums"
	pkgerrors "github.com/aurumworks/jewelstore-backend/pkg/errors"
	"github.com/aurumworks/jewelstore-backend/pkg/logger"
)

type recordStockRequest struct {
	Type     string `json:"type" validate:"required"`
	Quantity int    `json:"quantity" validate:"required"`
	Notes    string `json:"notes" validate:"max=1000"`
}

// StockRecord appends one movement to an item's ledger. The acting user
// comes from the request context, not the payload.
func StockRecord(svc ledgersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		itemID, err := pathUUID(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload recordStockRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		txType, err := enums.ParseTransactionType(strings.TrimSpace(payload.Type))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid transaction type"))
			return
		}

		transaction, err := svc.Record(r.Context(), ledgersvc.RecordInput{
			ItemID:   itemID,
			ActorID:  middleware.ActorIDFromContext(r.Context()),
			Type:     txType,
			Quantity: payload.Quantity,
			Notes:    validators.SanitizeString(payload.Notes, 1000),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, transaction)
	}
}

// StockHistory lists an item's movements newest-first.
func StockHistory(svc ledgersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		itemID, err := pathUUID(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ListForItem(r.Context(), itemID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteList(w, result.Transactions, result.NextCursor)
	}
}

// StockSummary reports movement counts and unit totals per transaction type.
func StockSummary(svc ledgersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		counts, err := svc.CountsByType(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, counts)
	}
}

// StockList lists all movements across items newest-first.
func StockList(svc ledgersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteList(w, result.Transactions, result.NextCursor)
	}
}
