package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sasabot/internal/catalog"
	"sasabot/internal/config"
	"sasabot/internal/database"
	"sasabot/internal/handler"
	"sasabot/internal/payment"
	"sasabot/internal/refdata"
	"sasabot/internal/repository"
	"sasabot/internal/router"

	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Logger)
	logger.Info().Msg("starting sasabot core API server")

	// Create context for application lifecycle
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection pool
	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	// Apply schema migrations
	if err := database.Migrate(ctx, pool, logger); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	// Initialize repositories
	businessRepo := repository.NewBusinessRepository(pool, logger)
	productRepo := repository.NewProductRepository(pool, logger)
	orderRepo := repository.NewOrderRepository(pool, logger)
	paymentRepo := repository.NewPaymentRepository(pool, logger)

	// Load the brand reference list: S3 when enabled, then local file,
	// then the built-in default list.
	brands := loadBrands(ctx, cfg, logger)

	// Initialize services
	validator := catalog.NewValidator(brands)
	catalogService := catalog.NewService(businessRepo, productRepo, validator, logger)
	gateway := payment.NewSimulatedGateway(cfg.Payment)
	paymentService := payment.NewService(orderRepo, paymentRepo, businessRepo, gateway, logger)

	// Initialize HTTP handlers
	catalogHandler := handler.NewCatalogHandler(catalogService, logger)
	paymentHandler := handler.NewPaymentHandler(paymentService, logger)
	orderHandler := handler.NewOrderHandler(orderRepo, logger)

	// Initialize router
	mux := router.New(catalogHandler, paymentHandler, orderHandler, cfg.Auth.APIKey, logger)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Channel to listen for errors from the server
	serverErrors := make(chan error, 1)

	// Start HTTP server in a goroutine
	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
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

		// Create a context with timeout for shutdown
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		// Attempt graceful shutdown
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			// Force close
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info().Msg("server shutdown completed")
	}

	return nil
}

// loadBrands resolves the recognized-brand reference list. A failed
// external load falls back to the next source rather than aborting
// startup: validation still works with the built-in list.
func loadBrands(ctx context.Context, cfg *config.Config, logger zerolog.Logger) *refdata.BrandSet {
	if cfg.Brands.S3Enabled {
		s3Loader, err := refdata.NewS3Loader(ctx, cfg.Brands.S3Bucket, cfg.Brands.S3Region, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("failed to initialise S3 brand loader, trying local sources")
		} else if set, err := s3Loader.Load(ctx, cfg.Brands.S3Key); err != nil {
			logger.Warn().Err(err).Msg("failed to load brand list from S3, trying local sources")
		} else {
			return set
		}
	}

	if cfg.Brands.FilePath != "" {
		fileLoader := refdata.NewFileLoader(logger)
		if set, err := fileLoader.Load(ctx, cfg.Brands.FilePath); err != nil {
			logger.Warn().Err(err).Msg("failed to load brand list from file, using default list")
		} else {
			return set
		}
	}

	logger.Info().Int("brands", len(refdata.DefaultBrands)).Msg("using built-in brand list")
	return refdata.NewBrandSet(refdata.DefaultBrands)
}
