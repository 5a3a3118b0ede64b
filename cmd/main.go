/**
 * @description
 * This is the main entry point for the service. It initializes and wires
 * together all the components of the application (configuration, database
 * connection, repository, payment provider client, services, the recurring
 * billing scheduler and the HTTP router) and starts the HTTP server.
 */
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/chiwonkim111/vibecoding-backend/internal/api"
	"github.com/chiwonkim111/vibecoding-backend/internal/app"
	"github.com/chiwonkim111/vibecoding-backend/internal/config"
	"github.com/chiwonkim111/vibecoding-backend/internal/content"
	"github.com/chiwonkim111/vibecoding-backend/internal/store"
	"github.com/chiwonkim111/vibecoding-backend/pkg/supabaseauth"
	"github.com/chiwonkim111/vibecoding-backend/pkg/tossclient"
)

func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// Load application configuration from environment variables
	cfg, err := config.LoadConfig(".")
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up channel to listen for OS signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// Establish connection to the Supabase-hosted Postgres with connection
	// pool configuration
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Error("unable to parse database URL", "error", err)
		os.Exit(1)
	}
	poolConfig.MaxConns = 20
	poolConfig.MinConns = 2
	poolConfig.MaxConnLifetime = 30 * time.Minute
	poolConfig.MaxConnIdleTime = 5 * time.Minute
	// Use the simple protocol so Supabase's PgBouncer transaction pooling
	// does not trip over prepared-statement caching (SQLSTATE 42P05).
	poolConfig.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	dbpool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Error("unable to connect to database", "error", err)
		os.Exit(1)
	}
	defer dbpool.Close()
	logger.Info("database connection established")

	// Optional Redis client for payment endpoint rate limiting
	var rateLimitMW func(http.Handler) http.Handler
	if cfg.RedisURL != "" {
		redisOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Error("invalid REDIS_URL", "error", err)
			os.Exit(1)
		}
		redisClient := redis.NewClient(redisOpts)
		defer redisClient.Close()
		limiter := app.NewRedisPaymentRateLimiter(redisClient, cfg.RedisRateLimitPrefix)
		rateLimitMW = api.PaymentRateLimitMiddleware(limiter, cfg.PaymentRateLimitPerMinute)
		logger.Info("payment rate limiting enabled", "limit_per_minute", cfg.PaymentRateLimitPerMinute)
	}

	// Initialize application layers
	repository := store.NewRepository(dbpool)
	tossClient := tossclient.NewClient(cfg.TossAPIBaseURL, cfg.TossSecretKey)
	service := app.NewService(repository, tossClient)
	contentStore := content.NewStore(cfg.PostsDir)

	var authClient *supabaseauth.Client
	if cfg.SupabaseURL != "" {
		authClient = supabaseauth.NewClient(cfg.SupabaseURL, cfg.SupabaseAnonKey)
	} else {
		logger.Warn("supabase is not configured; requests are handled unauthenticated")
	}

	router := api.NewRouter(api.RouterDeps{
		Payments:  api.NewHandler(service),
		Content:   api.NewContentHandlers(contentStore),
		SEO:       api.NewSEOHandlers(contentStore, cfg.SiteBaseURL),
		Auth:      api.NewAuthHandlers(authClient),
		Session:   api.SessionMiddleware(cfg.SupabaseJWTSecret),
		RateLimit: rateLimitMW,
	})

	// Start the recurring billing scheduler
	jobs := app.NewJobs(repository, service, logger)
	scheduler := app.NewScheduler(jobs, logger, cfg.RecurringBillingSchedule)
	scheduler.Start()

	// Configure and start the HTTP server
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.ServerPort),
		Handler: router,
	}

	go func() {
		logger.Info("starting server", "port", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for an OS signal
	<-sigCh
	logger.Info("shutdown signal received, gracefully shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	<-scheduler.Stop().Done()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "error", err)
	}

	logger.Info("server stopped")
}
