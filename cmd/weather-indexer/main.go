package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/i474232898/weather-indexer/internal/api/http"
	"github.com/i474232898/weather-indexer/internal/config"
	"github.com/i474232898/weather-indexer/internal/scheduler"
	"github.com/i474232898/weather-indexer/internal/store"
	"github.com/i474232898/weather-indexer/internal/weather"
	"github.com/i474232898/weather-indexer/internal/weather/providers"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := config.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	fetcher := providers.NewOpenWeatherProvider(httpClient, providers.OpenWeatherOptions{
		APIKey:        cfg.OpenWeatherAPIKey,
		BaseURL:       cfg.OpenWeatherBaseURL,
		MaxRetries:    cfg.ProviderMaxRetries,
		RatePerMinute: cfg.ProviderRatePerMinute,
	})

	var docStore weather.Store
	switch cfg.StoreBackend {
	case config.BackendMemory:
		logger.Warnw("using in-memory store; documents are lost on exit", "max_history", cfg.StoreMaxHistory)
		docStore = store.NewMemoryStore(cfg.StoreMaxHistory)
	default:
		es, err := store.NewElasticStore(store.ElasticConfig{Addresses: cfg.ElasticsearchAddresses})
		if err != nil {
			logger.Fatalw("failed to create elasticsearch client", "error", err)
		}
		docStore = es
	}

	// Provision the index once. Failures are logged by the provisioner and
	// only stop the process when PROVISION_FATAL is set.
	provisioner := weather.NewProvisioner(docStore, cfg.Index, weather.DefaultIndexSchema(), logger)
	provCtx, provCancel := context.WithTimeout(context.Background(), cfg.HTTPTimeout)
	if _, err := provisioner.Provision(provCtx); err != nil && cfg.ProvisionFatal {
		provCancel()
		logger.Fatalw("index provisioning failed", "index", cfg.Index, "error", err)
	}
	provCancel()

	// Core service: one fetch, one document write per cycle.
	service := weather.NewService(fetcher, docStore, cfg.Index, cfg.Coordinates(), logger)

	sched := scheduler.New(cfg.FetchSchedule, cfg.CycleTimeout, service, logger)
	if err := sched.Start(); err != nil {
		logger.Fatalw("failed to start scheduler", "error", err)
	}
	defer sched.Stop()

	app := httpapi.NewApp()
	httpapi.RegisterRoutes(app, sched, service)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			logger.Errorw("fiber server stopped", "error", err)
		}
	}()
	logger.Infow("weather-indexer running",
		"location", cfg.Coordinates().Key(), "index", cfg.Index, "backend", cfg.StoreBackend, "port", cfg.Port)

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Errorw("error during shutdown", "error", err)
	}
}
