package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/pizzastock/backend/internal/alerts"
	"github.com/pizzastock/backend/internal/catalog"
	"github.com/pizzastock/backend/internal/cron"
	"github.com/pizzastock/backend/internal/ledger"
	"github.com/pizzastock/backend/internal/orders"
	"github.com/pizzastock/backend/internal/sales"
	"github.com/pizzastock/backend/pkg/config"
	"github.com/pizzastock/backend/pkg/db"
	"github.com/pizzastock/backend/pkg/logger"
	"github.com/pizzastock/backend/pkg/metrics"
	"github.com/pizzastock/backend/pkg/migrate"
	"github.com/pizzastock/backend/pkg/redis"
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

	cfg.Service.Kind = "cron-worker"

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

	catalogRepo := catalog.NewRepository(dbClient.DB())

	ledgerSvc, err := ledger.NewService(ledger.NewRepository(dbClient.DB()), dbClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create ledger service", err)
		os.Exit(1)
	}

	salesSvc, err := sales.NewService(sales.NewRepository(dbClient.DB()), dbClient, ledgerSvc, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create sales service", err)
		os.Exit(1)
	}

	ordersSvc, err := orders.NewService(
		orders.NewRepository(dbClient.DB()),
		dbClient,
		catalogRepo,
		catalogRepo,
		salesSvc,
		ledgerSvc,
		cfg.Orders,
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	notifier, err := alerts.NewLogNotifier(logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create low stock notifier", err)
		os.Exit(1)
	}

	expiryJob, err := cron.NewOrderExpiryJob(ordersSvc, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create order expiry job", err)
		os.Exit(1)
	}
	dailySalesJob, err := cron.NewDailySalesJob(salesSvc, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create daily sales job", err)
		os.Exit(1)
	}
	jobs := []cron.Job{expiryJob, dailySalesJob}
	if cfg.Alerts.LowStockEnabled {
		lowStockJob, err := cron.NewLowStockJob(ledgerSvc, notifier, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to create low stock job", err)
			os.Exit(1)
		}
		jobs = append(jobs, lowStockJob)
	}

	metricsCollector := metrics.NewCronJobMetrics(prometheus.DefaultRegisterer)
	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey("cron-worker"), cfg.Cron.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(jobs...),
		Lock:     lock,
		Metrics:  metricsCollector,
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}
