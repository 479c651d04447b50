package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/sheetserve/internal/app"
	"github.com/JonMunkholm/sheetserve/internal/config"
	"github.com/JonMunkholm/sheetserve/internal/logging"
	"github.com/JonMunkholm/sheetserve/internal/web"
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
		"cache_ttl", cfg.Cache.TTL,
		"fetch_max_concurrent", cfg.Fetch.MaxConcurrent,
		"rate_limit_enabled", cfg.Rate.Enabled,
		"require_api_key", cfg.Security.RequireAPIKey,
	)
	slog.Debug("effective configuration", "config", cfg.String())

	// Lives until exit: the Google token source refreshes with it.
	appCtx, cancelApp := context.WithCancel(context.Background())
	defer cancelApp()

	a, err := app.New(appCtx, cfg)
	if err != nil {
		slog.Error("failed to create providers", "error", err)
		os.Exit(1)
	}

	server := web.NewServer(a.Service, cfg)

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		defer close(done)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}

		// Detached cache fills may still be talking to providers.
		if status := a.Limiter.Status(); status.Active > 0 {
			slog.Info("waiting for fetches to complete", "active", status.Active)
			if err := a.Limiter.WaitForDrain(shutdownCtx); err != nil {
				slog.Warn("fetches did not complete in time", "error", err)
			}
		}
		cancelApp()
	}()

	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	<-done
	slog.Info("server stopped")
}
