package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tcg-labeler/internal/cache"
	"tcg-labeler/internal/carrier"
	"tcg-labeler/internal/config"
	"tcg-labeler/internal/database"
	"tcg-labeler/internal/events"
	"tcg-labeler/internal/handler"
	"tcg-labeler/internal/metrics"
	"tcg-labeler/internal/orderimport"
	"tcg-labeler/internal/repository"
	"tcg-labeler/internal/router"
	"tcg-labeler/internal/service"

	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// stores holds the record repositories of the selected backend.
type stores struct {
	orders   repository.OrderRepository
	batches  repository.BatchRepository
	settings repository.SettingsRepository
	close    func()
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Logger)
	logger.Info().Msg("starting tcg-labeler API server")

	// Create context for application lifecycle
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize record store
	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.close()

	// Initialize export loader with S3 and local fallback
	loader := newExportLoader(ctx, cfg.S3, logger)

	// Initialize batch cache and event publisher
	batchCache, closeCache := newBatchCache(ctx, cfg.Redis, logger)
	defer closeCache()

	publisher := newPublisher(cfg.Kafka, logger)
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to close event publisher")
		}
	}()

	reg := metrics.NewRegistry()

	// Initialize carrier client
	carrierClient := carrier.NewClient(carrier.Config{
		BaseURL: cfg.Carrier.BaseURL,
		APIKey:  cfg.Carrier.APIKey,
		Timeout: cfg.Carrier.Timeout,
		Sender: carrier.Address{
			Name:    cfg.Carrier.SenderName,
			Street1: cfg.Carrier.SenderStreet1,
			Street2: cfg.Carrier.SenderStreet2,
			City:    cfg.Carrier.SenderCity,
			State:   cfg.Carrier.SenderState,
			Zip:     cfg.Carrier.SenderZip,
			Country: cfg.Carrier.SenderCountry,
		},
	}, logger)
	selector := carrier.NewPreferenceSelector(
		cfg.Carrier.PreferredCarrier,
		cfg.Carrier.PreferredService,
		cfg.Carrier.ServiceCaseInsensitive,
	)

	// Initialize services
	labelService := service.NewLabelService(carrierClient, selector, st.orders, st.batches, reg, logger,
		service.WithPublisher(publisher),
		service.WithBatchCache(batchCache),
	)
	batchService := service.NewBatchService(st.batches, st.orders, batchCache, logger)
	importService := service.NewImportService(loader, logger)
	settingsService := service.NewSettingsService(st.settings, logger)

	// Initialize router
	mux := router.New(router.Handlers{
		Label:    handler.NewLabelHandler(labelService, logger),
		Import:   handler.NewImportHandler(importService, logger),
		Batch:    handler.NewBatchHandler(batchService, logger),
		Settings: handler.NewSettingsHandler(settingsService, logger),
	}, cfg.Auth, reg, logger)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// Channel to listen for errors from the server
	serverErrors := make(chan error, 1)

	// Start HTTP server in a goroutine
	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Str("store", cfg.Store.Backend).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	// Channel to listen for interrupt signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a signal or an error
	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info().Msg("server shutdown completed")
	}

	return nil
}

func openStores(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*stores, error) {
	if cfg.Store.Backend == config.StoreBackendPebble {
		db, err := repository.OpenPebbleStore(cfg.Store.PebblePath, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize pebble store: %w", err)
		}
		return &stores{
			orders:   db.Orders(),
			batches:  db.Batches(),
			settings: db.Settings(),
			close: func() {
				if err := db.Close(); err != nil {
					logger.Error().Err(err).Msg("failed to close pebble store")
				}
			},
		}, nil
	}

	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	if err := database.Migrate(pool, logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return &stores{
		orders:   repository.NewOrderRepository(pool, logger),
		batches:  repository.NewBatchRepository(pool, logger),
		settings: repository.NewSettingsRepository(pool, logger),
		close:    pool.Close,
	}, nil
}

func newExportLoader(ctx context.Context, cfg config.S3Config, logger zerolog.Logger) orderimport.Loader {
	fileLoader := orderimport.NewFileLoader(cfg.LocalDir, logger)
	if !cfg.Enabled {
		logger.Info().Str("dir", cfg.LocalDir).Msg("using local file system for order exports (S3 disabled)")
		return fileLoader
	}

	s3Loader, err := orderimport.NewS3Loader(ctx, cfg.Bucket, cfg.Region, logger)
	if err != nil {
		logger.Warn().
			Err(err).
			Msg("failed to initialise S3 loader, falling back to local file system only")
		return fileLoader
	}
	return orderimport.NewFallbackLoader(s3Loader, fileLoader, cfg.Prefix, logger)
}

func newBatchCache(ctx context.Context, cfg config.RedisConfig, logger zerolog.Logger) (cache.BatchCache, func()) {
	if cfg.Addr == "" {
		logger.Info().Msg("batch cache disabled")
		return cache.NopBatchCache{}, func() {}
	}

	client, err := cache.NewRedisClient(ctx, cfg.Addr, cfg.Password, cfg.DB)
	if err != nil {
		logger.Warn().Err(err).Str("addr", cfg.Addr).Msg("redis unavailable, batch cache disabled")
		return cache.NopBatchCache{}, func() {}
	}

	return cache.NewRedisBatchCache(client, cfg.TTL, logger), func() {
		if err := client.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to close redis client")
		}
	}
}

func newPublisher(cfg config.KafkaConfig, logger zerolog.Logger) events.Publisher {
	if len(cfg.Brokers) == 0 {
		logger.Info().Msg("label events disabled")
		return events.NopPublisher{}
	}

	p := events.NewKafkaPublisher(cfg.Brokers, cfg.Topic, cfg.Buffer, logger)
	p.Start()
	return p
}
