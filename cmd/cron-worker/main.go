package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dopeevents/dopeevents-backend/internal/cron"
	"github.com/dopeevents/dopeevents-backend/internal/inventory"
	"github.com/dopeevents/dopeevents-backend/internal/merchandise"
	"github.com/dopeevents/dopeevents-backend/internal/payments"
	"github.com/dopeevents/dopeevents-backend/pkg/config"
	"github.com/dopeevents/dopeevents-backend/pkg/db"
	"github.com/dopeevents/dopeevents-backend/pkg/logger"
	"github.com/dopeevents/dopeevents-backend/pkg/metrics"
	"github.com/dopeevents/dopeevents-backend/pkg/migrate"
	"github.com/dopeevents/dopeevents-backend/pkg/mpesa"
	"github.com/dopeevents/dopeevents-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
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

	stockAdjuster := inventory.NewAdjuster()
	paymentMetrics := metrics.NewPaymentMetrics(prometheus.DefaultRegisterer)

	paymentsService, err := payments.NewService(
		payments.NewRepository(dbClient.DB()), dbClient, mpesaClient, stockAdjuster,
		payments.NewWebhookGuard(redisClient, cfg.Payments.WebhookGuardTTL), paymentMetrics, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create payments service", err)
		os.Exit(1)
	}

	merchandiseService, err := merchandise.NewService(
		merchandise.NewRepository(dbClient.DB()), dbClient, stockAdjuster, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create merchandise service", err)
		os.Exit(1)
	}

	expiryJob, err := cron.NewPaymentExpiryJob(paymentsService, cfg.Payments.PendingTTL, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create payment expiry job", err)
		os.Exit(1)
	}
	activationJob, err := cron.NewMerchandiseActivationJob(merchandiseService, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create merchandise activation job", err)
		os.Exit(1)
	}

	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey("cron-worker"), cfg.Cron.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(expiryJob, activationJob),
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithField(ctx, "env", cfg.App.Env)
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}
