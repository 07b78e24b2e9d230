package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/crosscheck-hq/crosscheck/internal/config"
	"github.com/crosscheck-hq/crosscheck/internal/core"
	"github.com/crosscheck-hq/crosscheck/internal/engine"
	"github.com/crosscheck-hq/crosscheck/internal/logging"
	"github.com/crosscheck-hq/crosscheck/internal/rules"
	"github.com/crosscheck-hq/crosscheck/internal/store"
	"github.com/crosscheck-hq/crosscheck/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"run_max_concurrent", cfg.Run.MaxConcurrent,
		"database_enabled", cfg.Database.URL != "",
		"rate_limit_enabled", cfg.Rate.Enabled,
	)

	ctx := context.Background()

	// Run history persistence is optional. Without DATABASE_URL, runs
	// live only in memory and disappear on restart.
	var history *store.RunStore
	var pool *pgxpool.Pool
	if cfg.Database.URL != "" {
		poolConfig, err := pgxpool.ParseConfig(cfg.Database.URL)
		if err != nil {
			slog.Error("failed to parse database URL", "error", err)
			os.Exit(1)
		}
		poolConfig.MaxConns = int32(cfg.Database.MaxConns)
		poolConfig.MinConns = int32(cfg.Database.MinConns)
		poolConfig.MaxConnLifetime = cfg.Database.MaxConnLifetime
		poolConfig.MaxConnIdleTime = cfg.Database.MaxConnIdleTime

		pool, err = pgxpool.NewWithConfig(ctx, poolConfig)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		if err := pool.Ping(ctx); err != nil {
			slog.Error("failed to ping database", "error", err)
			os.Exit(1)
		}
		if err := store.EnsureSchema(ctx, pool); err != nil {
			slog.Error("failed to ensure schema", "error", err)
			os.Exit(1)
		}

		if u, err := url.Parse(cfg.Database.URL); err == nil {
			slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
		} else {
			slog.Info("connected to database")
		}
		history = store.NewRunStore(pool)
	} else {
		slog.Info("no DATABASE_URL set, run history will be in-memory only")
	}

	// Optional rule sheet header aliases.
	var aliases *rules.AliasTable
	if cfg.Run.AliasFile != "" {
		aliases, err = rules.LoadAliasFile(cfg.Run.AliasFile)
		if err != nil {
			slog.Error("failed to load alias file", "path", cfg.Run.AliasFile, "error", err)
			os.Exit(1)
		}
		slog.Info("loaded rule sheet aliases", "path", cfg.Run.AliasFile)
	}

	service := core.NewService(core.ServiceOptions{
		Limiter: core.NewRunLimiter(cfg.Run.MaxConcurrent, cfg.Run.MaxWaitTime),
		History: history,
		Thresholds: engine.Thresholds{
			MinorMax:    cfg.Quality.MinorMax,
			ModerateMax: cfg.Quality.ModerateMax,
		},
		Aliases: aliases,
		MaxRuns: cfg.Run.MaxHistory,
	})

	server := web.NewServer(service, web.Options{
		MaxFileSize:       cfg.Run.MaxFileSize,
		RequestTimeout:    cfg.Server.RequestTimeout,
		RateLimitEnabled:  cfg.Rate.Enabled,
		RequestsPerMinute: cfg.Rate.RequestsPerMinute,
	})

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// Let in-flight runs finish before pulling the listener.
		if status := service.LimiterStatus(); status.Active > 0 {
			slog.Info("waiting for runs to complete", "active", status.Active)
			if err := service.WaitForDrain(shutdownCtx); err != nil {
				slog.Warn("runs did not complete in time", "error", err)
			} else {
				slog.Info("all runs completed")
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	slog.Info("server starting", "addr", cfg.Server.Addr())
	if err := server.Start(cfg.Server.Addr()); err != nil {
		slog.Info("server stopped", "error", err)
	}
}
