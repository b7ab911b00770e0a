package main

import (
	"context"
	"crypto/tls"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/carebridge/ecw-bridge/internal/api/router"
	"github.com/carebridge/ecw-bridge/internal/compliance"
	appconfig "github.com/carebridge/ecw-bridge/internal/config"
	"github.com/carebridge/ecw-bridge/internal/credentials"
	"github.com/carebridge/ecw-bridge/internal/ecw"
	"github.com/carebridge/ecw-bridge/internal/http/handlers"
	"github.com/carebridge/ecw-bridge/internal/observability/metrics"
	"github.com/carebridge/ecw-bridge/pkg/logging"
)

func main() {
	// Load .env when present (local development); real deployments set env vars.
	_ = godotenv.Load()

	// Load configuration
	cfg := appconfig.Load()

	// Initialize logger
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting ecw-bridge API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	if cfg.DatabaseURL == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}

	ctx := context.Background()

	// Postgres pool for the credential store.
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to create postgres pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// database/sql handle for the audit trail.
	sqlDB, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to open audit database", "error", err)
		os.Exit(1)
	}
	defer sqlDB.Close()

	// Redis for the session token cache.
	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	redisClient := redis.NewClient(redisOptions)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Error("redis not available", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	// Metrics
	registry := prometheus.NewRegistry()
	upstreamMetrics := metrics.NewUpstreamMetrics(registry)

	// ECW client factory, bound per request to one credential's tokens.
	newClient := func(tokens ecw.AuthTokens) (handlers.ECWClient, error) {
		return ecw.New(ecw.Config{
			BaseURL:         cfg.ECWBaseURL,
			Tokens:          tokens,
			UserAgent:       cfg.ECWUserAgent,
			Timeout:         cfg.ECWTimeout,
			MaxAppointments: cfg.ECWMaxAppointments,
			Logger:          logger,
			Metrics:         upstreamMetrics,
		})
	}

	// Token sets are proven against the EMR by listing facilities, the
	// cheapest authenticated call the web client makes.
	verify := func(ctx context.Context, tokens ecw.AuthTokens) error {
		client, err := newClient(tokens)
		if err != nil {
			return err
		}
		_, err = client.GetFacilities(ctx)
		return err
	}

	// Credential service
	credStore := credentials.NewStore(pool)
	tokenCache := credentials.NewTokenCache(redisClient, cfg.ECWSessionTTL, nil)
	credService := credentials.NewService(credStore, tokenCache, verify, logger, upstreamMetrics)

	// Audit trail and handlers
	auditService := compliance.NewAuditService(sqlDB)
	apiHandler := handlers.New(credService, newClient, auditService, logger)

	// Setup router
	routerCfg := &router.Config{
		Logger:             logger,
		Handler:            apiHandler,
		Credentials:        credService,
		MetricsHandler:     promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		MetricsGatherer:    registry,
		ServiceJWTSecret:   cfg.ServiceJWTSecret,
		CORSAllowedOrigins: splitOrigins(cfg.CORSAllowedOrigins),
		RateLimitPerSecond: cfg.RateLimitPerSecond,
		RateLimitBurst:     cfg.RateLimitBurst,
	}
	r := router.New(routerCfg)

	if cfg.ServiceJWTSecret == "" {
		logger.Warn("SERVICE_JWT_SECRET not set; API authentication is disabled")
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

func splitOrigins(raw string) []string {
	if raw == "" {
		return nil
	}
	var origins []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
