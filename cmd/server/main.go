// Package main is the entrypoint for the translator API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vivatura/translator/internal/ai/anthropic"
	"github.com/vivatura/translator/internal/api"
	"github.com/vivatura/translator/internal/api/handler"
	mw "github.com/vivatura/translator/internal/api/middleware"
	"github.com/vivatura/translator/internal/api/response"
	"github.com/vivatura/translator/internal/cache"
	"github.com/vivatura/translator/internal/config"
	"github.com/vivatura/translator/internal/jobs"
	"github.com/vivatura/translator/internal/metrics"
	"github.com/vivatura/translator/internal/snippetfile"
	"github.com/vivatura/translator/internal/store"
	"github.com/vivatura/translator/internal/translation"
	"github.com/vivatura/translator/pkg/models"
)

const shutdownTimeout = 30 * time.Second

// Pinger is satisfied by the store and the cache.
type Pinger interface {
	Ping(ctx context.Context) error
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load config, failing fast on invalid values
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.RequireServer(); err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.Info("config loaded", "env", cfg.Server.Env, "model", cfg.Anthropic.Model,
		"source_language", cfg.Translation.SourceLanguage)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Run migrations and connect to database
	pool, err := store.Open(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()
	slog.Info("database connected", "migrations", cfg.Database.MigrationsDir)

	// 3. Create Redis cache
	redisCache, err := cache.NewRedisCache(cfg.Redis.URL)
	if err != nil {
		return fmt.Errorf("create redis cache: %w", err)
	}
	defer redisCache.Close()

	if err := redisCache.Ping(ctx); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	slog.Info("redis connected")

	// 4. Create translation client; a missing key only fails translation calls
	client := anthropic.NewClient(cfg.Anthropic)
	if err := client.Validate(); err != nil {
		slog.Warn("translation provider not configured; translate endpoints will fail", "error", err)
	}

	// 5. Wire services
	pgStore := store.NewPostgresStore(pool)
	settings := translation.SettingsFromConfig(cfg.Translation)
	svc := translation.NewService(pgStore, client)
	runner := jobs.NewRunner(pgStore, redisCache, svc, settings)
	scanner := snippetfile.NewScanner(cfg.Snippets.Roots)

	// 6. Build router with dependencies
	router := api.NewRouter(newDependencies(pgStore, redisCache, client, svc, runner, scanner, settings, cfg.Server.RateLimit))

	// 7. Start HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		// Synchronous snippet and file translations wait on the provider.
		WriteTimeout: cfg.Anthropic.Timeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for shutdown signal or server error
	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		slog.Info("shutdown signal received, draining connections...")
	}

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	if err := runner.Shutdown(shutdownCtx); err != nil {
		slog.Warn("jobs still running at shutdown", "error", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}

func newDependencies(
	db Pinger,
	c cache.Cache,
	tr models.Translator,
	svc *translation.Service,
	runner *jobs.Runner,
	scanner *snippetfile.Scanner,
	settings translation.Settings,
	rateLimit int,
) api.Dependencies {
	return api.Dependencies{
		RateLimit: mw.NewRateLimit(c, rateLimit),

		HealthHandler:  healthHandler(db, c),
		MetricsHandler: metrics.Handler(),

		LanguagesHandler: handler.NewLanguagesHandler(svc, settings),
		ModelsHandler:    handler.NewModelsHandler(svc, c, tr.Name()),

		TranslateProduct:     handler.NewTranslateEntityHandler(runner, models.JobTypeProduct, "productID"),
		TranslateProducts:    handler.NewTranslateEntitiesHandler(runner, models.JobTypeProduct),
		TranslateCmsPage:     handler.NewTranslateEntityHandler(runner, models.JobTypeCmsPage, "pageID"),
		TranslateCmsPages:    handler.NewTranslateEntitiesHandler(runner, models.JobTypeCmsPage),
		TranslateSnippetSet:  handler.NewTranslateSnippetSetHandler(runner),
		TranslateSnippet:     handler.NewTranslateSnippetHandler(svc, settings),
		ListSnippetFiles:     handler.NewListSnippetFilesHandler(scanner),
		TranslateSnippetFile: handler.NewTranslateSnippetFileHandler(svc, scanner, settings),

		GetJobHandler:      handler.NewGetJobHandler(runner),
		JobStatusHandler:   handler.NewJobStatusHandler(runner),
		JobStatusesHandler: handler.NewJobStatusesHandler(runner),
	}
}

// healthHandler checks database and cache connectivity.
func healthHandler(db Pinger, c Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]string{
			"database": "ok",
			"cache":    "ok",
		}

		if err := db.Ping(r.Context()); err != nil {
			checks["database"] = "degraded"
		}
		if err := c.Ping(r.Context()); err != nil {
			checks["cache"] = "degraded"
		}

		degraded := checks["database"] != "ok" || checks["cache"] != "ok"
		if degraded {
			response.Error(w, http.StatusServiceUnavailable, "DEGRADED",
				"One or more services degraded", checks)
			return
		}

		response.JSON(w, map[string]any{
			"status":   "ok",
			"services": checks,
		})
	}
}
