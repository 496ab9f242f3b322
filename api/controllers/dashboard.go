package controllers

import (
	"net/http"

	"github.com/aurumworks/jewelstore-backend/api/responses"
	inventorysvc "github.com/aurumworks/jewelstore-backend/internal/inventory"
	"github.com/aurumworks/jewelstore-backend/pkg/logger"
)

// Dashboard serves the back-office landing page numbers.
func Dashboard(svc inventorysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dashboard, err := svc.Dashboard(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dashboard)
	}
}

// StockReport serves the stock valuation report.
func StockReport(svc inventorysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report, err := svc.StockReport(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, report)
	}
}
