package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"linegate/internal/config"
	"linegate/internal/handler/api"
	"linegate/internal/middleware"
	"linegate/internal/notify"
	"linegate/internal/panel"
	"linegate/internal/prober"
	"linegate/internal/router"
)

func main() {
	// --- Logger ---
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// --- Config ---
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	// --- Panel client ---
	panelClient, err := panel.New(cfg.Panel, logger)
	if err != nil {
		logger.Fatal("Failed to create panel client", zap.Error(err))
	}

	// --- Echo ---
	e := echo.New()
	e.HideBanner = true

	// --- Webhook Deduper (Redis with in-memory fallback) ---
	deduper, dedupeErr := middleware.NewEventDeduper(
		cfg.Redis.Addr,
		cfg.Redis.Pass,
		cfg.Redis.DB,
		10*time.Minute,
	)
	if dedupeErr != nil {
		logger.Warn("Redis unavailable for webhook dedup, using in-memory fallback", zap.Error(dedupeErr))
	}

	// --- Notifier ---
	notifier := notify.New(cfg.Notify, logger)
	if notifier == nil {
		logger.Info("Operator notifications disabled (no bot token configured)")
	}

	// --- Panel prober ---
	panelProber := prober.New(panelClient, logger)
	panelProber.Start()

	// --- Routes ---
	lineHandler := api.NewLineHandler(panelClient, cfg.Panel.AutoPassword, notifier, panelProber, logger)
	router.Setup(e, lineHandler, logger, cfg.API.Key, deduper)

	// --- Start Server ---
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	go func() {
		logger.Info("Starting linegate server",
			zap.String("addr", addr),
			zap.String("panel_dialect", panelClient.DialectName()))
		if err := e.Start(addr); err != nil {
			logger.Info("Server stopped", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down...")

	// Stop prober
	ctx := panelProber.Stop()
	<-ctx.Done()

	// Stop HTTP server
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
