package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/autoimport/shipquote-go/internal/calculator"
	"github.com/autoimport/shipquote-go/internal/config"
	"github.com/autoimport/shipquote-go/internal/handler"
	"github.com/autoimport/shipquote-go/internal/infra/cache"
	"github.com/autoimport/shipquote-go/internal/infra/observability"
	"github.com/autoimport/shipquote-go/internal/infra/resilience"
	"github.com/autoimport/shipquote-go/internal/infra/supabase"
	"github.com/autoimport/shipquote-go/internal/port"
	"github.com/autoimport/shipquote-go/internal/service"

	"go.uber.org/zap"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.String("calculator_api_url", cfg.CalculatorAPIURL),
		zap.Duration("calculator_timeout", cfg.CalculatorTimeout),
		zap.Duration("quote_cache_ttl", cfg.QuoteCacheTTL),
		zap.String("destination_port", cfg.DestinationPort),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
		zap.Int("max_concurrency", cfg.MaxConcurrency),
	)

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "shipquote")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Quote cache ---
	var quoteCache port.Cache[string]
	if cfg.RedisAddr != "" {
		logger.Info("using Redis quote cache", zap.String("redis_addr", cfg.RedisAddr))
		quoteCache = cache.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.QuoteCacheTTL, logger)
	} else {
		logger.Info("using in-memory quote cache", zap.Duration("ttl", cfg.QuoteCacheTTL))
		quoteCache = cache.NewMemory[string](cfg.QuoteCacheTTL)
	}

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}
	calculatorCB := resilience.NewCircuitBreaker("default-calculator")
	storeCB := resilience.NewCircuitBreaker("supabase")
	bulkhead := resilience.NewBulkhead(cfg.MaxConcurrency)

	// --- Clients ---
	calculatorHTTPClient := &http.Client{Timeout: cfg.CalculatorTimeout}
	storeHTTPClient := &http.Client{Timeout: 10 * time.Second}

	if cfg.SupabaseURL == "" {
		logger.Fatal("SUPABASE_URL is required (companies, vehicles and quotes backend)")
	}
	store := supabase.NewClient(
		storeHTTPClient,
		cfg.SupabaseURL,
		cfg.SupabaseAnonKey,
		cfg.SupabaseServiceKey,
		storeCB,
		resilienceCfg,
		logger,
	)

	// --- Calculator core ---
	factory := calculator.NewFactory(
		calculatorHTTPClient,
		cfg.CalculatorAPIURL,
		quoteCache,
		calculatorCB,
		resilienceCfg,
		metrics,
		logger,
	)
	builder := calculator.NewRequestBuilder(cfg.DestinationPort, logger)

	// --- Services ---
	quoteSvc := service.NewShippingQuoteService(
		store,
		store,
		store,
		builder,
		factory,
		bulkhead,
		metrics,
		logger,
		cfg.FallbackCity,
	)

	// --- Router ---
	router := handler.NewRouter(quoteSvc, metrics, logger, cfg.AdminJWTSecret)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
