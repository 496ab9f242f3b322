package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aurumworks/jewelstore-backend/api/controllers"
	webhookcontrollers "github.com/aurumworks/jewelstore-backend/api/controllers/webhooks"
	"github.com/aurumworks/jewelstore-backend/api/middleware"
	billingsvc "github.com/aurumworks/jewelstore-backend/internal/billing"
	inventorysvc "github.com/aurumworks/jewelstore-backend/internal/inventory"
	ledgersvc "github.com/aurumworks/jewelstore-backend/internal/ledger"
	notificationsvc "github.com/aurumworks/jewelstore-backend/internal/notifications"
	salessvc "github.com/aurumworks/jewelstore-backend/internal/sales"
	stripewebhook "github.com/aurumworks/jewelstore-backend/internal/webhooks/stripe"
	"github.com/aurumworks/jewelstore-backend/pkg/config"
	"github.com/aurumworks/jewelstore-backend/pkg/db"
	"github.com/aurumworks/jewelstore-backend/pkg/logger"
	"github.com/aurumworks/jewelstore-backend/pkg/redis"
	"github.com/aurumworks/jewelstore-backend/pkg/stripe"
)

// NewRouter wires the HTTP surface. Redis, Stripe and the metrics registry
// are optional; routes that depend on an unwired piece answer 500.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	registry *prometheus.Registry,
	inventoryService inventorysvc.Service,
	ledgerService ledgersvc.Service,
	salesService salessvc.Service,
	billingService billingsvc.Service,
	notificationsService notificationsvc.Service,
	stripeClient *stripe.Client,
	stripeWebhookService *stripewebhook.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
		middleware.Actor(logg),
	)

	var redisPinger redis.Pinger
	if redisClient != nil {
		redisPinger = redisClient
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisPinger))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		handler := webhookcontrollers.StripeWebhook(nil, nil, logg)
		if stripeWebhookService != nil && stripeClient != nil {
			handler = webhookcontrollers.StripeWebhook(stripeWebhookService, stripeClient, logg)
		}
		r.Post("/stripe", handler)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/categories", func(r chi.Router) {
			r.Get("/", controllers.CategoryList(inventoryService, logg))
			r.Post("/", controllers.CategoryCreate(inventoryService, logg))
			r.Put("/{categoryId}", controllers.CategoryUpdate(inventoryService, logg))
			r.Delete("/{categoryId}", controllers.CategoryDelete(inventoryService, logg))
		})

		r.Route("/suppliers", func(r chi.Router) {
			r.Get("/", controllers.SupplierList(inventoryService, logg))
			r.Post("/", controllers.SupplierCreate(inventoryService, logg))
			r.Put("/{supplierId}", controllers.SupplierUpdate(inventoryService, logg))
			r.Delete("/{supplierId}", controllers.SupplierDelete(inventoryService, logg))
		})

		r.Route("/items", func(r chi.Router) {
			r.Get("/", controllers.ItemList(inventoryService, logg))
			r.Post("/", controllers.ItemCreate(inventoryService, logg))
			r.Get("/{itemId}", controllers.ItemGet(inventoryService, logg))
			r.Patch("/{itemId}", controllers.ItemUpdate(inventoryService, logg))
			r.Delete("/{itemId}", controllers.ItemDelete(inventoryService, logg))
			r.Get("/{itemId}/barcode", controllers.ItemBarcode(inventoryService, logg))
			r.Post("/{itemId}/stock", controllers.StockRecord(ledgerService, logg))
			r.Get("/{itemId}/stock", controllers.StockHistory(ledgerService, logg))
		})

		r.Get("/stock", controllers.StockList(ledgerService, logg))
		r.Get("/stock/summary", controllers.StockSummary(ledgerService, logg))
		r.Get("/dashboard", controllers.Dashboard(inventoryService, logg))
		r.Get("/reports/stock", controllers.StockReport(inventoryService, logg))

		r.Route("/customers", func(r chi.Router) {
			r.Get("/", controllers.CustomerList(salesService, logg))
			r.Post("/", controllers.CustomerCreate(salesService, logg))
			r.Get("/{customerId}", controllers.CustomerGet(salesService, logg))
			r.Put("/{customerId}", controllers.CustomerUpdate(salesService, logg))
			r.Delete("/{customerId}", controllers.CustomerDelete(salesService, logg))
		})

		r.Route("/invoices", func(r chi.Router) {
			r.Get("/", controllers.InvoiceList(salesService, logg))
			r.Post("/", controllers.InvoiceCreate(salesService, logg))
			r.Get("/{invoiceId}", controllers.InvoiceGet(salesService, logg))
			r.Patch("/{invoiceId}", controllers.InvoiceUpdate(salesService, logg))
			r.Delete("/{invoiceId}", controllers.InvoiceDelete(salesService, logg))
			r.Post("/{invoiceId}/lines", controllers.InvoiceAddLine(salesService, logg))
			r.Delete("/{invoiceId}/lines/{lineId}", controllers.InvoiceRemoveLine(salesService, logg))
			r.Post("/{invoiceId}/payment-link", controllers.InvoicePaymentLink(billingService, logg))
			r.Post("/{invoiceId}/send-email", controllers.InvoiceSendEmail(notificationsService, logg))
			r.Post("/{invoiceId}/send-sms", controllers.InvoiceSendSMS(notificationsService, logg))
		})
	})

	return r
}
