package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dopeevents/dopeevents-backend/api/routes"
	"github.com/dopeevents/dopeevents-backend/internal/analytics"
	"github.com/dopeevents/dopeevents-backend/internal/events"
	"github.com/dopeevents/dopeevents-backend/internal/inventory"
	"github.com/dopeevents/dopeevents-backend/internal/merchandise"
	"github.com/dopeevents/dopeevents-backend/internal/payments"
	"github.com/dopeevents/dopeevents-backend/internal/tickets"
	"github.com/dopeevents/dopeevents-backend/pkg/config"
	"github.com/dopeevents/dopeevents-backend/pkg/db"
	"github.com/dopeevents/dopeevents-backend/pkg/logger"
	"github.com/dopeevents/dopeevents-backend/pkg/metrics"
	"github.com/dopeevents/dopeevents-backend/pkg/migrate"
	"github.com/dopeevents/dopeevents-backend/pkg/mpesa"
	"github.com/dopeevents/dopeevents-backend/pkg/redis"
	"github.com/dopeevents/dopeevents-backend/pkg/stripe"
)

const shutdownGrace = 15 * time.Second

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

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
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

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	mpesaClient, err := mpesa.NewClient(context.Background(), cfg.Mpesa, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap mpesa client", err)
		os.Exit(1)
	}

	var stripeClient *stripe.Client
	if cfg.Stripe.APIKey != "" {
		stripeClient, err = stripe.NewClient(context.Background(), cfg.Stripe, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap stripe client", err)
			os.Exit(1)
		}
	}

	stockAdjuster := inventory.NewAdjuster()
	paymentMetrics := metrics.NewPaymentMetrics(prometheus.DefaultRegisterer)

	eventsService, err := events.NewService(events.NewRepository(dbClient.DB()), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create events service", err)
		os.Exit(1)
	}

	merchandiseService, err := merchandise.NewService(
		merchandise.NewRepository(dbClient.DB()), dbClient, stockAdjuster, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create merchandise service", err)
		os.Exit(1)
	}

	paymentsRepo := payments.NewRepository(dbClient.DB())
	webhookGuard := payments.NewWebhookGuard(redisClient, cfg.Payments.WebhookGuardTTL)
	paymentsService, err := payments.NewService(
		paymentsRepo, dbClient, mpesaClient, stockAdjuster, webhookGuard, paymentMetrics, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create payments service", err)
		os.Exit(1)
	}

	var cardService payments.CardService
	if stripeClient != nil {
		cardService, err = payments.NewCardService(
			paymentsRepo, dbClient, payments.NewStripeIntentClient(), stockAdjuster, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to create card payment service", err)
			os.Exit(1)
		}
	}

	ticketsService, err := tickets.NewService(tickets.NewRepository(dbClient.DB()), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create tickets service", err)
		os.Exit(1)
	}

	analyticsService, err := analytics.NewService(analytics.NewRepository(dbClient.DB()), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create analytics service", err)
		os.Exit(1)
	}

	router := routes.NewRouter(routes.Dependencies{
		Config:          cfg,
		Logger:          logg,
		DB:              dbClient,
		Redis:           redisClient,
		Events:          eventsService,
		Merchandise:     merchandiseService,
		Payments:        paymentsService,
		CardPayment:     cardService,
		Tickets:         ticketsService,
		Analytics:       analyticsService,
		StripeClient:    stripeClient,
		MetricsGatherer: prometheus.DefaultGatherer,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "api server shutdown failed", err)
			os.Exit(1)
		}
	}

	logg.Info(ctx, "api server shut down gracefully")
}
