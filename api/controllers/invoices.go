package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aurumworks/jewelstore-backend/api/responses"
	"github.com/aurumworks/jewelstore-backend/api/validators"
	billingsvc "github.com/aurumworks/jewelstore-backend/internal/billing"
	notificationsvc "github.com/aurumworks/jewelstore-backend/internal/notifications"
	salessvc "github.com/aurumworks/jewelstore-backend/internal/sales"
	pkgerrors "github.com/aurumworks/jewelstore-backend/pkg/errors"
	"github.com/aurumworks/jewelstore-backend/pkg/logger"
)

type createInvoiceRequest struct {
	CustomerID string  `json:"customer_id" validate:"required,uuid"`
	Date       *string `json:"date,omitempty"`
	DueDate    *string `json:"due_date,omitempty"`
	Notes      string  `json:"notes" validate:"max=2000"`
}

func (r createInvoiceRequest) toInput() (salessvc.CreateInvoiceInput, error) {
	customerID, err := uuid.Parse(r.CustomerID)
	if err != nil {
		return salessvc.CreateInvoiceInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid customer id")
	}
	date, err := parseDate(r.Date, "date")
	if err != nil {
		return salessvc.CreateInvoiceInput{}, err
	}
	dueDate, err := parseDate(r.DueDate, "due_date")
	if err != nil {
		return salessvc.CreateInvoiceInput{}, err
	}
	return salessvc.CreateInvoiceInput{
		CustomerID: customerID,
		Date:       date,
		DueDate:    dueDate,
		Notes:      validators.SanitizeString(r.Notes, 2000),
	}, nil
}

type updateInvoiceRequest struct {
	Status       *string `json:"status,omitempty"`
	DueDate      *string `json:"due_date,omitempty"`
	ClearDueDate bool    `json:"clear_due_date,omitempty"`
	Notes        *string `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

type addLineRequest struct {
	ItemID      *string `json:"item_id,omitempty" validate:"omitempty,uuid"`
	Description *string `json:"description,omitempty" validate:"omitempty,min=1,max=500"`
	UnitPrice   *string `json:"unit_price,omitempty"`
	Quantity    int     `json:"quantity" validate:"required,gt=0"`
}

func InvoiceCreate(svc salessvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createInvoiceRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		invoice, err := svc.CreateInvoice(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, invoice)
	}
}

func InvoiceGet(svc salessvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "invoiceId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		invoice, err := svc.GetInvoice(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, invoice)
	}
}

func InvoiceList(svc salessvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		customerID, err := validators.ParseQueryUUID(r, "customer_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filter := salessvc.InvoiceFilter{
			CustomerID: customerID,
			Status:     strings.TrimSpace(r.URL.Query().Get("status")),
		}

		result, err := svc.ListInvoices(r.Context(), filter, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteList(w, result.Invoices, result.NextCursor)
	}
}

func InvoiceUpdate(svc salessvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "invoiceId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateInvoiceRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dueDate, err := parseDate(payload.DueDate, "due_date")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		invoice, err := svc.UpdateInvoice(r.Context(), id, salessvc.UpdateInvoiceInput{
			Status:       payload.Status,
			DueDate:      dueDate,
			ClearDueDate: payload.ClearDueDate,
			Notes:        payload.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, invoice)
	}
}

func InvoiceDelete(svc salessvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "invoiceId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteInvoice(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, nil)
	}
}

func InvoiceAddLine(svc salessvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "invoiceId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload addLineRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := salessvc.AddLineInput{Quantity: payload.Quantity}
		if payload.ItemID != nil {
			itemID, err := uuid.Parse(*payload.ItemID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid item id"))
				return
			}
			input.ItemID = &itemID
		}
		if payload.Description != nil {
			description := validators.SanitizeString(*payload.Description, 500)
			input.Description = &description
		}
		if payload.UnitPrice != nil {
			price, err := parseMoney(*payload.UnitPrice, "unit_price")
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			input.UnitPrice = &price
		}

		invoice, err := svc.AddLine(r.Context(), id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, invoice)
	}
}

func InvoiceRemoveLine(svc salessvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		invoiceID, err := pathUUID(r, "invoiceId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		lineID, err := pathUUID(r, "lineId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		invoice, err := svc.RemoveLine(r.Context(), invoiceID, lineID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, invoice)
	}
}

// InvoicePaymentLink creates or refreshes the Stripe payment link.
func InvoicePaymentLink(svc billingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "billing service unavailable"))
			return
		}

		id, err := pathUUID(r, "invoiceId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		link, err := svc.GeneratePaymentLink(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, link)
	}
}

// InvoiceSendEmail mails the payment link to the customer.
func InvoiceSendEmail(svc notificationsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "notifications service unavailable"))
			return
		}

		id, err := pathUUID(r, "invoiceId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.SendInvoiceEmail(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "sent"})
	}
}

// InvoiceSendSMS texts the payment link to the customer.
func InvoiceSendSMS(svc notificationsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "notifications service unavailable"))
			return
		}

		id, err := pathUUID(r, "invoiceId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.SendInvoiceSMS(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "sent"})
	}
}

// parseDate accepts RFC 3339 timestamps or bare dates (2026-01-31).
func parseDate(raw *string, field string) (*time.Time, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	value := strings.TrimSpace(*raw)
	if parsed, err := time.Parse(time.RFC3339, value); err == nil {
		return &parsed, nil
	}
	if parsed, err := time.Parse("2006-01-02", value); err == nil {
		return &parsed, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeValidation, "must be an RFC 3339 timestamp or YYYY-MM-DD date").WithDetails(map[string]any{"field": field})
}
