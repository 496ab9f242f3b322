package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/aurumworks/jewelstore-backend/api/routes"
	"github.com/aurumworks/jewelstore-backend/internal/billing"
	"github.com/aurumworks/jewelstore-backend/internal/inventory"
	"github.com/aurumworks/jewelstore-backend/internal/ledger"
	"github.com/aurumworks/jewelstore-backend/internal/notifications"
	"github.com/aurumworks/jewelstore-backend/internal/sales"
	stripewebhook "github.com/aurumworks/jewelstore-backend/internal/webhooks/stripe"
	"github.com/aurumworks/jewelstore-backend/pkg/config"
	"github.com/aurumworks/jewelstore-backend/pkg/db"
	"github.com/aurumworks/jewelstore-backend/pkg/logger"
	"github.com/aurumworks/jewelstore-backend/pkg/mailer"
	"github.com/aurumworks/jewelstore-backend/pkg/metrics"
	"github.com/aurumworks/jewelstore-backend/pkg/migrate"
	"github.com/aurumworks/jewelstore-backend/pkg/redis"
	"github.com/aurumworks/jewelstore-backend/pkg/storage"
	"github.com/aurumworks/jewelstore-backend/pkg/stripe"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, cfg.FeatureFlags, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	var redisClient *redis.Client
	if cfg.Redis.URL != "" || cfg.Redis.Address != "" {
		redisClient, err = redis.New(context.Background(), cfg.Redis)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
	} else {
		logg.Warn(context.Background(), "redis not configured, webhook dedup disabled")
	}

	registry := prometheus.NewRegistry()
	ledgerMetrics := metrics.NewLedgerMetrics(registry)
	billingMetrics := metrics.NewBillingMetrics(registry)

	artifacts, err := storage.NewLocalStore(cfg.Artifacts.Dir)
	if err != nil {
		logg.Error(context.Background(), "failed to open artifact store", err)
		os.Exit(1)
	}

	inventoryService, err := inventory.NewService(inventory.NewRepository(dbClient.DB()), artifacts, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create inventory service", err)
		os.Exit(1)
	}

	ledgerService, err := ledger.NewService(ledger.NewRepository(dbClient.DB()), dbClient, logg, ledgerMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create ledger service", err)
		os.Exit(1)
	}

	salesService, err := sales.NewService(sales.NewRepository(dbClient.DB()), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create sales service", err)
		os.Exit(1)
	}

	var (
		stripeClient   *stripe.Client
		billingService billing.Service
		webhookService *stripewebhook.Service
	)
	if cfg.Stripe.APIKey != "" {
		stripeClient, err = stripe.NewClient(context.Background(), cfg.Stripe, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap stripe", err)
			os.Exit(1)
		}

		billingService, err = billing.NewService(
			billing.NewRepository(dbClient.DB()),
			billing.NewCheckoutClient(stripeClient),
			stripeClient,
			logg,
			billingMetrics,
		)
		if err != nil {
			logg.Error(context.Background(), "failed to create billing service", err)
			os.Exit(1)
		}

		var guard *stripewebhook.IdempotencyGuard
		if redisClient != nil {
			guard, err = stripewebhook.NewIdempotencyGuard(redisClient, cfg.Webhooks.IdempotencyTTL, "stripe-webhook")
			if err != nil {
				logg.Error(context.Background(), "failed to create webhook idempotency guard", err)
				os.Exit(1)
			}
		}
		webhookService, err = stripewebhook.NewService(stripewebhook.ServiceParams{
			Repo:              stripewebhook.NewRepository(dbClient.DB()),
			TransactionRunner: dbClient,
			Guard:             guard,
			Logger:            logg,
			Metrics:           billingMetrics,
		})
		if err != nil {
			logg.Error(context.Background(), "failed to create webhook service", err)
			os.Exit(1)
		}
	} else {
		logg.Warn(context.Background(), "stripe not configured, payment links disabled")
	}

	var notificationsService notifications.Service
	if cfg.Sendgrid.APIKey != "" {
		emailSender, err := mailer.New(cfg.Sendgrid)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap sendgrid", err)
			os.Exit(1)
		}
		notificationsService, err = notifications.NewService(
			notifications.NewRepository(dbClient.DB()),
			emailSender,
			notifications.NewLogSMSTransport(logg),
			logg,
		)
		if err != nil {
			logg.Error(context.Background(), "failed to create notifications service", err)
			os.Exit(1)
		}
	} else {
		logg.Warn(context.Background(), "sendgrid not configured, invoice notifications disabled")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			registry,
			inventoryService,
			ledgerService,
			salesService,
			billingService,
			notificationsService,
			stripeClient,
			webhookService,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
