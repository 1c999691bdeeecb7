package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/V4T54L/menuhub/internal/adapter/api"
	"github.com/V4T54L/menuhub/internal/adapter/api/handler"
	"github.com/V4T54L/menuhub/internal/adapter/diag"
	"github.com/V4T54L/menuhub/internal/adapter/metrics"
	"github.com/V4T54L/menuhub/internal/adapter/repository/postgres"
	redisrepo "github.com/V4T54L/menuhub/internal/adapter/repository/redis"
	"github.com/V4T54L/menuhub/internal/adapter/tenantconn"
	"github.com/V4T54L/menuhub/internal/domain"
	"github.com/V4T54L/menuhub/internal/pkg/config"
	"github.com/V4T54L/menuhub/internal/pkg/currency"
	"github.com/V4T54L/menuhub/internal/pkg/logger"
	"github.com/V4T54L/menuhub/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logger.New(cfg.LogLevel)
	slog.SetDefault(logger)

	currencyMode, err := currency.ParseMode(cfg.CurrencyMode)
	if err != nil {
		logger.Error("invalid currency mode", "error", err)
		os.Exit(1)
	}

	m := metrics.NewMenuMetrics(prometheus.DefaultRegisterer)

	// --- Graceful Shutdown Context ---
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Directory Database ---
	db, err := postgres.Open(ctx, cfg.DirectoryURL)
	if err != nil {
		logger.Error("failed to connect to directory database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	var directory domain.DirectoryStore = postgres.NewDirectoryRepository(db, logger)

	// --- Optional Redis Directory Cache ---
	var invalidator domain.DirectoryCacheInvalidator
	if cfg.RedisURL != "" {
		redisOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Error("failed to parse redis url", "error", err)
			os.Exit(1)
		}
		redisClient := redis.NewClient(redisOpts)
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warn("could not connect to redis, directory lookups will read through", "error", err)
		}
		cache := redisrepo.NewDirectoryCache(redisClient, directory, cfg.DirectoryCacheTTL, logger, m)
		directory, invalidator = cache, cache
	}

	// --- Tenant Connections ---
	dialer := tenantconn.NewDialer(tenantconn.DialerConfig{
		StorageBucket: cfg.StorageBucket,
		ImageBaseURL:  cfg.ImageBaseURL,
		HTTPClient:    &http.Client{Timeout: cfg.FetchTimeout},
	}, logger)
	connections, err := tenantconn.NewKeyedCache(cfg.ConnectionCacheSize, dialer.Dial, logger, m)
	if err != nil {
		logger.Error("failed to initialize connection cache", "error", err)
		os.Exit(1)
	}
	defer connections.Close()

	// --- Use Cases ---
	resolver := usecase.NewDirectoryClient(directory, logger, m, cfg.DirectoryRetryMax, cfg.DirectoryRetryInitial)
	aggregator := usecase.NewMenuAggregator(logger, m, cfg.FetchTimeout)
	menuService := usecase.NewMenuService(resolver, connections, aggregator, logger)

	var redactor *diag.Redactor
	if cfg.ExposeDiagnostics {
		logger.Warn("diagnostics are exposed in error responses")
		redactor = diag.NewRedactor(cfg.RedactFields(), logger)
	}

	sseBroker := handler.NewSSEBroker(ctx, logger, time.Second)

	// --- Admin and Metrics Server ---
	apiKeyRepo := postgres.NewAPIKeyRepository(db, logger, cfg.APIKeyCacheTTL, m)
	adminHandler := handler.NewAdminHandler(connections, invalidator, sseBroker, logger)
	adminServer := &http.Server{
		Addr:    cfg.AdminAddr,
		Handler: api.NewAdminRouter(adminHandler, sseBroker, promhttp.Handler(), apiKeyRepo, logger),
	}

	go func() {
		logger.Info("starting admin & metrics server", "addr", adminServer.Addr)
		if err := adminServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("admin & metrics server failed", "error", err)
		}
	}()

	// --- Menu Server ---
	menuHandler := handler.NewMenuHandler(menuService, logger, m, sseBroker, redactor, currencyMode)
	menuServer := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      api.NewRouter(logger, menuHandler),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 2*cfg.FetchTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting menu server", "addr", menuServer.Addr, "currency_mode", currencyMode.String())
		if err := menuServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("menu server failed", "error", err)
			stop() // Trigger shutdown on server error
		}
	}()

	// --- Wait for shutdown signal ---
	<-ctx.Done()
	logger.Info("shutting down servers...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := adminServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("admin server shutdown failed", "error", err)
	}
	if err := menuServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("menu server shutdown failed", "error", err)
	}

	logger.Info("servers shut down gracefully")
}
