// Command coastwatch ingests NOAA tide station time series into a GridDB
// time-series store and serves recent and aggregated readings to the
// dashboard.
//
// On startup it bootstraps every configured station (7-day water level
// window, 5-year monthly means), then keeps the store current on two cron
// cadences: latest water levels and monthly mean refreshes. The JSON API
// exposes station listings, filtered reads, and manual tick triggers.
//
// Usage:
//
//	coastwatch [-config config.yaml]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/ShivaniDev-sudo/WatchingCoastlinesVanish/internal/config"
	"github.com/ShivaniDev-sudo/WatchingCoastlinesVanish/internal/griddb"
	"github.com/ShivaniDev-sudo/WatchingCoastlinesVanish/internal/noaa"
	"github.com/ShivaniDev-sudo/WatchingCoastlinesVanish/internal/observability"
	"github.com/ShivaniDev-sudo/WatchingCoastlinesVanish/internal/scheduler"
	"github.com/ShivaniDev-sudo/WatchingCoastlinesVanish/internal/stations"
	"github.com/ShivaniDev-sudo/WatchingCoastlinesVanish/internal/web"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	// .env is optional; real deployments export the variables directly.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := buildLogger(cfg.Logging)

	registry := stations.NewRegistry(cfg.NOAA.Stations)
	if len(registry.List()) == 0 {
		logger.Warn("No stations configured; ingestion ticks will be no-ops")
	}

	cache, err := stations.NewEnrichmentCache(cfg.Cache.Size)
	if err != nil {
		logger.Fatalf("Failed to create enrichment cache: %v", err)
	}
	cache.Seed(registry.List())

	metrics := observability.NewMetrics(nil)

	collector := noaa.NewCollector(noaa.Config{
		BaseURL:     cfg.NOAA.BaseURL,
		Application: cfg.NOAA.Application,
		Timeout:     cfg.NOAA.Timeout,
	}, cache, metrics, logger)

	store := griddb.NewClient(griddb.Config{
		BaseURL:              cfg.GridDB.URL,
		APIKey:               cfg.GridDB.APIKey,
		Timeout:              cfg.GridDB.Timeout,
		WaterLevelContainer:  cfg.GridDB.WaterLevelContainer,
		MonthlyMeanContainer: cfg.GridDB.MonthlyMeanContainer,
		StationContainer:     cfg.GridDB.StationContainer,
	}, logger)

	pacer := scheduler.NewFixedDelayPacer(cfg.Scheduler.StationDelay)

	orchestrator := scheduler.NewOrchestrator(registry, collector, store, pacer, metrics, logger, scheduler.Config{
		WaterLevelCron:  cfg.Scheduler.WaterLevelCron,
		MonthlyMeanCron: cfg.Scheduler.MonthlyMeanCron,
		BootstrapDays:   cfg.Scheduler.BootstrapDays,
		BootstrapYears:  cfg.Scheduler.BootstrapYears,
		RefreshYears:    cfg.Scheduler.RefreshYears,
	})

	apiServer := web.NewServer(registry, store, orchestrator, logger)
	metricsServer := observability.NewServer(cfg.Metrics.Addr, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errChan := make(chan error, 1)

	go orchestrator.Bootstrap(ctx)

	if err := orchestrator.Start(); err != nil {
		logger.Fatalf("Failed to start scheduler: %v", err)
	}

	go func() {
		if err := metricsServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("metrics server error: %w", err)
		}
	}()

	apiAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.WithField("addr", apiAddr).Info("Starting API server")
	go func() {
		if err := apiServer.Listen(apiAddr); err != nil {
			errChan <- fmt.Errorf("api server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errChan:
		logger.WithError(err).Error("Service error, shutting down")
	case sig := <-sigChan:
		logger.WithField("signal", sig.String()).Info("Received signal, shutting down")
	}

	cancel()
	orchestrator.Stop()

	if err := apiServer.Shutdown(); err != nil {
		logger.WithError(err).Warn("API server shutdown")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("Metrics server shutdown")
	}

	logger.Info("Server stopped")
}

func buildLogger(cfg config.LoggingConfig) *logrus.Logger {
	logger := logrus.New()

	if cfg.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	return logger
}
