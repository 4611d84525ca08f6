// Package main is the entrypoint for the alertsink API server.
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

	"github.com/lumora-ai/alertsink/internal/api"
	"github.com/lumora-ai/alertsink/internal/api/handler"
	mw "github.com/lumora-ai/alertsink/internal/api/middleware"
	"github.com/lumora-ai/alertsink/internal/api/response"
	"github.com/lumora-ai/alertsink/internal/cache"
	"github.com/lumora-ai/alertsink/internal/config"
	"github.com/lumora-ai/alertsink/internal/ingest"
	"github.com/lumora-ai/alertsink/internal/scheduler"
	"github.com/lumora-ai/alertsink/internal/store"
	"github.com/lumora-ai/alertsink/internal/telegram"
)

const shutdownTimeout = 30 * time.Second

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
	// 1. Load config — fail fast on invalid config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.Info("config loaded", "env", cfg.Server.Env, "chat_id", cfg.Telegram.ChatID)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Connect to database
	pool, err := store.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()
	slog.Info("database connected")

	// 3. Run migrations
	if err := store.RunMigrations(cfg.Database.URL, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	slog.Info("database migrations applied")

	// 4. Create Redis cache
	redisCache, err := cache.NewRedisCache(cfg.Redis.URL)
	if err != nil {
		return fmt.Errorf("create redis cache: %w", err)
	}
	defer redisCache.Close()

	if err := redisCache.Ping(ctx); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	slog.Info("redis connected")

	// 5. Telegram client + bot token check
	tg := telegram.NewHTTPClient(cfg.Telegram.BaseURL, cfg.Telegram.BotToken, cfg.Telegram.Timeout)
	if me, err := tg.GetMe(ctx); err != nil {
		slog.Warn("telegram bot not reachable at startup, poll sync may fail", "error", err)
	} else {
		slog.Info("telegram bot verified", "username", me.Username)
	}

	// 6. Create store and ingestion gateway
	pgStore := store.NewPostgresStore(pool)
	gateway := ingest.NewGateway(pgStore, tg, ingest.Config{
		ChatID:         cfg.Telegram.ChatID,
		MinBlockLength: cfg.Ingest.MinBlockLength,
		DefaultDays:    cfg.Ingest.DefaultSyncDays,
	})

	// 7. Optional in-process poll-sync schedule
	if cfg.Ingest.SyncSchedule != "" {
		sched, err := scheduler.New(cfg.Ingest.SyncSchedule, func(ctx context.Context) error {
			_, err := gateway.SyncUpdates(ctx, 0)
			return err
		})
		if err != nil {
			return fmt.Errorf("create sync scheduler: %w", err)
		}
		sched.Start()
		defer sched.Stop()
	}

	// 8. Build router with dependencies
	rateLimit := mw.NewRateLimit(redisCache, 60)

	deps := api.Dependencies{
		RateLimit: rateLimit,

		HealthHandler:      healthHandler(pgStore, redisCache),
		ImportHandler:      handler.NewImportHandler(gateway),
		WebhookHandler:     handler.NewWebhookHandler(gateway),
		SyncHandler:        handler.NewSyncHandler(gateway),
		LeaderboardHandler: handler.NewLeaderboardHandler(pgStore, redisCache, cfg.Report.CacheTTL),
		BreakdownHandler:   handler.NewBreakdownHandler(pgStore, redisCache, cfg.Report.CacheTTL),
	}

	router := api.NewRouter(deps)

	// 9. Start HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
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

	slog.Info("server stopped gracefully")
	return nil
}

// healthHandler checks database and cache connectivity.
func healthHandler(s store.Store, c cache.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]string{
			"database": "ok",
			"cache":    "ok",
		}

		if err := s.Ping(r.Context()); err != nil {
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
