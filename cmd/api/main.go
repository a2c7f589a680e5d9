package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/colondancer/raffle-bee/api/routes"
	"github.com/colondancer/raffle-bee/internal/entries"
	"github.com/colondancer/raffle-bee/internal/merchants"
	"github.com/colondancer/raffle-bee/internal/prizepool"
	"github.com/colondancer/raffle-bee/internal/qualification"
	shopifywebhook "github.com/colondancer/raffle-bee/internal/webhooks/shopify"
	"github.com/colondancer/raffle-bee/pkg/config"
	"github.com/colondancer/raffle-bee/pkg/db"
	"github.com/colondancer/raffle-bee/pkg/instance"
	"github.com/colondancer/raffle-bee/pkg/logger"
	"github.com/colondancer/raffle-bee/pkg/metrics"
	"github.com/colondancer/raffle-bee/pkg/migrate"
	"github.com/colondancer/raffle-bee/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

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

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	sweepstakesMetrics := metrics.NewSweepstakesMetrics(registry)

	merchantService, err := merchants.NewService(merchants.ServiceParams{
		Repo:             merchants.NewRepository(dbClient.DB()),
		TxRunner:         dbClient,
		Logger:           logg,
		DefaultThreshold: cfg.Sweepstakes.DefaultThreshold,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create merchant service", err)
		os.Exit(1)
	}

	poolService, err := prizepool.NewService(prizepool.ServiceParams{
		Repo:           prizepool.NewRepository(dbClient.DB()),
		TxRunner:       dbClient,
		Logger:         logg,
		Metrics:        sweepstakesMetrics,
		DisplayDefault: cfg.Sweepstakes.DefaultPrize,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create prize pool service", err)
		os.Exit(1)
	}

	qualificationService, err := qualification.NewService(qualification.ServiceParams{
		Merchants: merchantService,
		Pool:      poolService,
		Logger:    logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create qualification service", err)
		os.Exit(1)
	}

	entryService, err := entries.NewService(entries.ServiceParams{
		Repo:            entries.NewRepository(dbClient.DB()),
		TxRunner:        dbClient,
		Merchants:       merchantService,
		Pool:            poolService,
		Logger:          logg,
		Metrics:         sweepstakesMetrics,
		EligibleCountry: cfg.Sweepstakes.EligibleCountry,
		RecentLimit:     cfg.Sweepstakes.RecentEntryLimit,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create entry service", err)
		os.Exit(1)
	}

	webhookService, err := shopifywebhook.NewService(shopifywebhook.ServiceParams{
		Entries:   entryService,
		Merchants: merchantService,
		Logger:    logg,
		Metrics:   sweepstakesMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook service", err)
		os.Exit(1)
	}

	webhookGuard, err := shopifywebhook.NewDeliveryGuard(redisClient, cfg.Shopify.WebhookDedupTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook guard", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.GetID(),
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
			merchantService,
			qualificationService,
			entryService,
			poolService,
			webhookService,
			webhookGuard,
		),
		ReadHeaderTimeout: 10 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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
	case <-sigCtx.Done():
		logg.Info(ctx, "api server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}
}
