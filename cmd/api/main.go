package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/nyeinchan/shwecart-backend/api/routes"
	"github.com/nyeinchan/shwecart-backend/internal/assignments"
	"github.com/nyeinchan/shwecart-backend/internal/checkout"
	"github.com/nyeinchan/shwecart-backend/internal/notifications"
	"github.com/nyeinchan/shwecart-backend/internal/orders"
	"github.com/nyeinchan/shwecart-backend/internal/payments"
	"github.com/nyeinchan/shwecart-backend/internal/refunds"
	"github.com/nyeinchan/shwecart-backend/internal/riders"
	"github.com/nyeinchan/shwecart-backend/internal/settings"
	"github.com/nyeinchan/shwecart-backend/pkg/config"
	"github.com/nyeinchan/shwecart-backend/pkg/db"
	"github.com/nyeinchan/shwecart-backend/pkg/kpay"
	"github.com/nyeinchan/shwecart-backend/pkg/logger"
	"github.com/nyeinchan/shwecart-backend/pkg/metrics"
	"github.com/nyeinchan/shwecart-backend/pkg/migrate"
	"github.com/nyeinchan/shwecart-backend/pkg/pubsub"
	"github.com/nyeinchan/shwecart-backend/pkg/redis"
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

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	kpayClient, err := kpay.NewClient(cfg.KPay, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create kpay client", err)
		os.Exit(1)
	}

	var notifier notifications.Notifier = notifications.NewLogNotifier(logg)
	if cfg.PubSub.ProjectID != "" {
		pubsubClient, err := pubsub.NewClient(context.Background(), cfg.PubSub, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to create pubsub client", err)
			os.Exit(1)
		}
		defer func() {
			if err := pubsubClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing pubsub", err)
			}
		}()
		notifier = notifications.NewPubSubNotifier(pubsubClient, logg)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	reconMetrics := metrics.NewReconciliationMetrics(registry)

	gormDB := dbClient.DB()

	settingsSvc, err := settings.NewService(settings.NewRepository(gormDB))
	if err != nil {
		logg.Error(context.Background(), "failed to create settings service", err)
		os.Exit(1)
	}

	ridersSvc, err := riders.NewService(riders.NewRepository(gormDB))
	if err != nil {
		logg.Error(context.Background(), "failed to create riders service", err)
		os.Exit(1)
	}

	ordersSvc, err := orders.NewService(orders.NewRepository(gormDB), dbClient, notifier)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	paymentsSvc, err := payments.NewService(
		payments.NewRepository(gormDB),
		dbClient,
		ordersSvc,
		kpayClient,
		payments.Config{
			Audit:    redisClient,
			Metrics:  reconMetrics,
			Logger:   logg,
			AuditTTL: cfg.Webhooks.AuditTTL,
		},
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create payments service", err)
		os.Exit(1)
	}

	assignmentsSvc, err := assignments.NewService(
		assignments.NewRepository(gormDB),
		dbClient,
		ordersSvc,
		ridersSvc,
		redisClient,
		cfg.Earnings,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create assignments service", err)
		os.Exit(1)
	}

	refundsSvc, err := refunds.NewService(refunds.NewRepository(gormDB), dbClient, ordersSvc)
	if err != nil {
		logg.Error(context.Background(), "failed to create refunds service", err)
		os.Exit(1)
	}

	checkoutSvc, err := checkout.NewService(checkout.NewRepository(gormDB), dbClient, settingsSvc, kpayClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
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
		Handler: routes.NewRouter(routes.Deps{
			Config:      cfg,
			Logger:      logg,
			DB:          dbClient,
			Redis:       redisClient,
			Registry:    registry,
			Checkout:    checkoutSvc,
			Orders:      ordersSvc,
			Payments:    paymentsSvc,
			Assignments: assignmentsSvc,
			Refunds:     refundsSvc,
			Riders:      ridersSvc,
			Settings:    settingsSvc,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
