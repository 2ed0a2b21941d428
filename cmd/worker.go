package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jaimytreling/AlgoMart/config"
	"github.com/jaimytreling/AlgoMart/internal/cache"
	"github.com/jaimytreling/AlgoMart/internal/cms"
	"github.com/jaimytreling/AlgoMart/internal/ledger"
	"github.com/jaimytreling/AlgoMart/internal/messaging"
	"github.com/jaimytreling/AlgoMart/internal/metrics"
	"github.com/jaimytreling/AlgoMart/internal/payment"
	"github.com/jaimytreling/AlgoMart/internal/scheduler"
	"github.com/jaimytreling/AlgoMart/internal/services"
	"github.com/jaimytreling/AlgoMart/internal/tracing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start the background worker",
	Long:  `Start the background worker running notification dispatch, pack generation and reconciliation tasks`,
	RunE:  runWorker,
}

func init() {
	rootCmd.AddCommand(workerCmd)
}

func runWorker(cmd *cobra.Command, args []string) error {
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

	// Create an error group to manage goroutines
	g, ctx := errgroup.WithContext(ctx)

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

	// Initialize metrics
	metricsCollector := metrics.NewMetrics()

	// Initialize the Service Bus client used for notification delivery
	busClient, err := messaging.NewServiceBusClient(cfg.ServiceBus, "worker")
	if err != nil {
		return err
	}
	defer busClient.Close()

	// Initialize external adapters
	ledgerClient := ledger.NewClient(cfg.Ledger)
	cmsClient := cms.NewClient(cfg.CMS, redisCache)
	paymentClient := payment.NewClient(cfg.Payment)

	// Initialize services
	notificationService := services.NewNotificationService(db, readOnlyDB, busClient, tracer)
	auctionService := services.NewAuctionService(db, readOnlyDB, ledgerClient, cmsClient, cfg.Auction, metricsCollector, tracer)
	packService := services.NewPackService(db, readOnlyDB, cmsClient, cfg.Packs)
	paymentService := services.NewPaymentService(db, readOnlyDB, paymentClient, notificationService)

	// Initialize the task scheduler
	runner, err := scheduler.New(cfg.Scheduler, notificationService, packService, paymentService, auctionService)
	if err != nil {
		return err
	}

	g.Go(func() error {
		log.Info().Msg("Starting scheduled task runner")
		return runner.Run(ctx)
	})

	// Wait for any goroutine to exit
	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Worker error")
		return err
	}

	log.Info().Msg("Worker shutting down gracefully")
	return nil
}
