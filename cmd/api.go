package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jaimytreling/AlgoMart/config"
	"github.com/jaimytreling/AlgoMart/internal/api"
	"github.com/jaimytreling/AlgoMart/internal/cache"
	"github.com/jaimytreling/AlgoMart/internal/cms"
	"github.com/jaimytreling/AlgoMart/internal/exchange"
	"github.com/jaimytreling/AlgoMart/internal/ledger"
	"github.com/jaimytreling/AlgoMart/internal/metrics"
	"github.com/jaimytreling/AlgoMart/internal/search"
	"github.com/jaimytreling/AlgoMart/internal/services"
	"github.com/jaimytreling/AlgoMart/internal/tracing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the API server",
	Long:  `Start the HTTP API server handling auction creation and bid placement`,
	RunE:  runAPI,
}

func init() {
	rootCmd.AddCommand(apiCmd)
}

func runAPI(cmd *cobra.Command, args []string) error {
	// Load configuration
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return err
	}

	// Configure logging
	if cfg.Environment == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	// Set up signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	// Initialize database connections
	db, readOnlyDB, err := initDatabases(cfg)
	if err != nil {
		return err
	}

	// Initialize cache
	redisCache, err := cache.NewRedisCache(cfg.Redis)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize Redis cache, continuing without caching")
	}

	// Initialize tracer
	tracer, err := tracing.NewTracer(cfg.Tracing)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize tracer, continuing without tracing")
		tracer = &tracing.NewRelicTracer{}
	}

	// Initialize Elasticsearch client
	elasticClient, err := search.NewElasticClient(cfg.Elastic)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize Elasticsearch client, continuing without search functionality")
	}

	// Initialize metrics
	metricsCollector := metrics.NewMetrics()

	// Initialize external adapters
	ledgerClient := ledger.NewClient(cfg.Ledger)
	cmsClient := cms.NewClient(cfg.CMS, redisCache)
	exchangeClient := exchange.NewClient(cfg.Exchange)

	// Initialize services
	currencyService := services.NewCurrencyService(exchangeClient, redisCache, cfg.Currency.Base, cfg.Exchange.CacheTTL)
	notificationService := services.NewNotificationService(db, readOnlyDB, nil, tracer)
	auctionService := services.NewAuctionService(db, readOnlyDB, ledgerClient, cmsClient, cfg.Auction, metricsCollector, tracer)
	bidService := services.NewBidService(db, readOnlyDB, currencyService, notificationService, cmsClient, elasticClient, metricsCollector, tracer)

	// Initialize and start the server
	server := api.NewServer(cfg, auctionService, bidService, metricsCollector, tracer)

	// Start the server in a goroutine
	go func() {
		if err := server.Start(); err != nil {
			log.Error().Err(err).Msg("Server error")
		}
	}()

	// Wait for termination signal
	<-ctx.Done()

	// Shutdown the server
	if err := server.Shutdown(context.Background()); err != nil {
		log.Error().Err(err).Msg("Server shutdown error")
	}

	log.Info().Msg("Shutting down API server")
	return nil
}
