package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/shoplane/shoplane-backend/api/routes"
	"github.com/shoplane/shoplane-backend/internal/cart"
	"github.com/shoplane/shoplane-backend/internal/catalog"
	"github.com/shoplane/shoplane-backend/internal/inventory"
	"github.com/shoplane/shoplane-backend/internal/sales"
	"github.com/shoplane/shoplane-backend/pkg/config"
	"github.com/shoplane/shoplane-backend/pkg/logger"
	"github.com/shoplane/shoplane-backend/pkg/metrics"
	"github.com/shoplane/shoplane-backend/pkg/redis"
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

	catalogClient, err := catalog.NewClient(cfg.Catalog)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog client", err)
		os.Exit(1)
	}
	inventoryClient, err := inventory.NewClient(cfg.Inventory)
	if err != nil {
		logg.Error(context.Background(), "failed to create inventory client", err)
		os.Exit(1)
	}
	salesClient, err := sales.NewClient(cfg.Sales)
	if err != nil {
		logg.Error(context.Background(), "failed to create sales client", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	cartMetrics := metrics.NewCartMetrics(registry)

	cartStore, err := cart.NewRedisStore(redisClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart store", err)
		os.Exit(1)
	}

	cartService, err := cart.NewEngine(cart.EngineParams{
		Store:     cartStore,
		Catalog:   catalogClient,
		Inventory: inventoryClient,
		Sales:     salesClient,
		Config:    cfg.Cart,
		Logger:    logg,
		Metrics:   cartMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cart engine", err)
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
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, redisClient, cartService, registry),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
