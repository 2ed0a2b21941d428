package api

import (
	"context"
	"net/http"
	"time"

	"github.com/jaimytreling/AlgoMart/config"
	"github.com/jaimytreling/AlgoMart/internal/api/handlers"
	"github.com/jaimytreling/AlgoMart/internal/metrics"
	"github.com/jaimytreling/AlgoMart/internal/services"
	"github.com/jaimytreling/AlgoMart/internal/tracing"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("currencycode", validCurrencyCode)
	}
}

// validCurrencyCode accepts three-letter uppercase currency codes
func validCurrencyCode(fl validator.FieldLevel) bool {
	code := fl.Field().String()
	if len(code) != 3 {
		return false
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

// Server represents the HTTP server
type Server struct {
	config         config.Config
	router         *gin.Engine
	httpServer     *http.Server
	auctionService *services.AuctionService
	bidService     *services.BidService
	metrics        *metrics.Metrics
	tracer         tracing.Tracer
}

// NewServer creates a new HTTP server
func NewServer(cfg config.Config, auctionService *services.AuctionService, bidService *services.BidService, m *metrics.Metrics, tracer tracing.Tracer) *Server {
	if cfg.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	server := &Server{
		config:         cfg,
		auctionService: auctionService,
		bidService:     bidService,
		metrics:        m,
		tracer:         tracer,
	}

	router := server.setupRouter()
	server.router = router

	httpServer := &http.Server{
		Addr:         cfg.ServerAddress,
		Handler:      router,
		ReadTimeout:  cfg.ServerTimeout,
		WriteTimeout: cfg.ServerTimeout,
	}
	server.httpServer = httpServer

	return server
}

// setupRouter configures the HTTP router
func (s *Server) setupRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	auctionHandler := handlers.NewAuctionHandler(s.auctionService, s.tracer)
	bidHandler := handlers.NewBidHandler(s.bidService, s.tracer)

	// Write paths are gated on the marketplace flag; reads stay available.
	marketplace := router.Group("/", s.requireMarketplace())
	marketplace.POST("/auctions", auctionHandler.HandleCreateAuction)
	marketplace.POST("/packs/:id/bids", bidHandler.HandlePlaceBid)

	router.GET("/auctions/:id", auctionHandler.HandleGetAuction)
	router.GET("/packs/:id/bids", bidHandler.HandleListPackBids)
	router.GET("/packs/search", bidHandler.HandleSearchPacks)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if s.config.MetricsEnabled {
		metricsHandler := handlers.NewMetricsHandler(s.metrics, s.tracer)
		metricsHandler.RegisterRoutes(router)
	}

	return router
}

// requireMarketplace rejects marketplace writes when the feature flag is off
func (s *Server) requireMarketplace() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.config.MarketplaceEnabled {
			c.AbortWithStatusJSON(http.StatusNotImplemented, gin.H{"error": "marketplace is not enabled"})
			return
		}
		c.Next()
	}
}

// Start starts the HTTP server
func (s *Server) Start() error {
	log.Info().Str("address", s.config.ServerAddress).Msg("Starting HTTP server")

	if err := s.httpServer.ListenAndServe(); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "HTTP server error")
	}

	return nil
}

// Shutdown gracefully stops the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("Shutting down HTTP server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "HTTP server shutdown error")
	}

	log.Info().Msg("HTTP server shut down successfully")
	return nil
}
