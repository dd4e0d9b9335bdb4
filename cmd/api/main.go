package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/narissarah/wishcraft/api/routes"
	"github.com/narissarah/wishcraft/internal/activity"
	"github.com/narissarah/wishcraft/internal/contributions"
	"github.com/narissarah/wishcraft/internal/purchases"
	"github.com/narissarah/wishcraft/internal/registry"
	shopifywebhook "github.com/narissarah/wishcraft/internal/webhooks/shopify"
	"github.com/narissarah/wishcraft/pkg/config"
	"github.com/narissarah/wishcraft/pkg/db"
	"github.com/narissarah/wishcraft/pkg/logger"
	"github.com/narissarah/wishcraft/pkg/metrics"
	"github.com/narissarah/wishcraft/pkg/migrate"
	"github.com/narissarah/wishcraft/pkg/outbox"
	"github.com/narissarah/wishcraft/pkg/pubsub"
	"github.com/narissarah/wishcraft/pkg/redis"
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

	pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap pubsub", err)
		os.Exit(1)
	}
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing pubsub client", err)
		}
	}()

	gormDB := dbClient.DB()
	events := outbox.NewService(outbox.NewRepository(gormDB), logg)

	activityService, err := activity.NewService(activity.NewRepository(gormDB), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create activity service", err)
		os.Exit(1)
	}

	registryRepo := registry.NewRepository(gormDB)
	itemRepo := registry.NewItemRepository(gormDB)
	registryService, err := registry.NewService(registryRepo, itemRepo, dbClient, events, activityService)
	if err != nil {
		logg.Error(context.Background(), "failed to create registry service", err)
		os.Exit(1)
	}

	purchaseRepo := purchases.NewRepository(gormDB)
	purchaseService, err := purchases.NewService(purchaseRepo, itemRepo, dbClient, events, activityService)
	if err != nil {
		logg.Error(context.Background(), "failed to create purchase service", err)
		os.Exit(1)
	}

	contributionService, err := contributions.NewService(contributions.NewRepository(gormDB), purchaseRepo, itemRepo, dbClient, events, activityService)
	if err != nil {
		logg.Error(context.Background(), "failed to create contribution service", err)
		os.Exit(1)
	}

	promRegistry := prometheus.NewRegistry()
	reconciliationMetrics := metrics.NewReconciliationMetrics(promRegistry)

	reconciler, err := shopifywebhook.NewService(shopifywebhook.ServiceParams{
		Purchases:         purchaseService,
		Contributions:     contributionService,
		Registries:        registryRepo,
		TransactionRunner: dbClient,
		Events:            events,
		Activity:          activityService,
		Metrics:           reconciliationMetrics,
		Logger:            logg,
		Config:            cfg.Shopify,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create order reconciler", err)
		os.Exit(1)
	}

	webhookGuard, err := shopifywebhook.NewIdempotencyGuard(redisClient, cfg.Shopify.WebhookDedupTTL, "shopify:orders-create")
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook guard", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("FLY_MACHINE_ID")
	if id == "" {
		id = "local"
	}
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:        cfg,
			Logger:        logg,
			DB:            dbClient,
			Redis:         redisClient,
			PubSub:        pubsubClient,
			Registries:    registryService,
			Purchases:     purchaseService,
			Contributions: contributionService,
			Activities:    activityService,
			Reconciler:    reconciler,
			WebhookGuard:  webhookGuard,
			Metrics:       promRegistry,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
