package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caribe/factoring-bfa-go/internal/config"
	"github.com/caribe/factoring-bfa-go/internal/domain"
	"github.com/caribe/factoring-bfa-go/internal/handler"
	"github.com/caribe/factoring-bfa-go/internal/infra/cache"
	"github.com/caribe/factoring-bfa-go/internal/infra/observability"
	"github.com/caribe/factoring-bfa-go/internal/infra/postgres"
	"github.com/caribe/factoring-bfa-go/internal/infra/resilience"
	"github.com/caribe/factoring-bfa-go/internal/infra/storage"
	"github.com/caribe/factoring-bfa-go/internal/infra/supabase"
	"github.com/caribe/factoring-bfa-go/internal/port"
	"github.com/caribe/factoring-bfa-go/internal/service"

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
		zap.String("storage_backend", cfg.StorageBackend),
		zap.String("timezone", cfg.Timezone),
		zap.Int("reminder_window_days", cfg.ReminderWindowDays),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
		zap.Duration("jwt_access_ttl", cfg.JWTAccessTTL),
	)

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "factoring-bfa")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Storage ---
	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStartup()

	store, closeStore, err := openStore(startupCtx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to open storage", zap.String("backend", cfg.StorageBackend), zap.Error(err))
	}
	defer closeStore()

	// --- Cache ---
	dashboards := cache.New[domain.Dashboard](cfg.CacheTTL)
	defer dashboards.Close()
	reports := cache.New[domain.Report](cfg.CacheTTL)
	defer reports.Close()

	// --- Services ---
	factoringSvc := service.NewFactoringService(service.Options{
		Store:              store,
		Dashboards:         dashboards,
		Reports:            reports,
		Metrics:            metrics,
		Logger:             logger,
		Location:           cfg.Location(),
		ReminderWindowDays: cfg.ReminderWindowDays,
		Admin: service.AdminSeed{
			Nome:     cfg.AdminName,
			Email:    cfg.AdminEmail,
			Password: cfg.AdminPassword,
		},
	})
	if err := factoringSvc.Load(startupCtx); err != nil {
		logger.Fatal("failed to load state", zap.Error(err))
	}

	authSvc := service.NewAuthService(factoringSvc, cfg.JWTSecret, cfg.JWTAccessTTL, logger)

	// --- Router ---
	router := handler.NewRouter(factoringSvc, authSvc, metrics, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
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

// openStore builds the configured StateStore. The returned func releases
// whatever the backend holds open.
func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (port.StateStore, func(), error) {
	noop := func() {}

	switch cfg.StorageBackend {
	case "memory":
		logger.Warn("using in-memory storage, state is lost on restart")
		return storage.NewMemory(), noop, nil

	case "file":
		logger.Info("using file storage", zap.String("data_dir", cfg.DataDir))
		f, err := storage.NewFile(cfg.DataDir, logger)
		if err != nil {
			return nil, noop, err
		}
		return f, noop, nil

	case "supabase":
		if cfg.SupabaseURL == "" {
			return nil, noop, fmt.Errorf("SUPABASE_URL environment variable not set")
		}
		logger.Info("using Supabase as data backend", zap.String("supabase_url", cfg.SupabaseURL))
		resilienceCfg := resilience.Config{
			MaxRetries:     cfg.MaxRetries,
			InitialBackoff: cfg.InitialBackoff,
			MaxConcurrency: cfg.MaxConcurrency,
		}
		cb := resilience.NewCircuitBreaker("supabase", logger)
		httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
		return supabase.NewClient(
			httpClient,
			cfg.SupabaseURL,
			cfg.SupabaseAnonKey,
			cfg.SupabaseServiceKey,
			cb,
			resilienceCfg,
			logger,
		), noop, nil

	case "postgres":
		logger.Info("using PostgreSQL as data backend")
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, noop, err
		}
		s, err := postgres.NewStore(ctx, pool, logger)
		if err != nil {
			pool.Close()
			return nil, noop, err
		}
		return s, pool.Close, nil
	}

	return nil, noop, fmt.Errorf("unknown STORAGE_BACKEND %q (file | memory | supabase | postgres)", cfg.StorageBackend)
}
