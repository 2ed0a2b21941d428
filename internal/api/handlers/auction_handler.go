package handlers

import (
	"net/http"

	"github.com/jaimytreling/AlgoMart/internal/services"
	"github.com/jaimytreling/AlgoMart/internal/tracing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AuctionHandler handles auction-related HTTP requests
type AuctionHandler struct {
	auctionService *services.AuctionService
	tracer         tracing.Tracer
}

// NewAuctionHandler creates a new auction handler
func NewAuctionHandler(auctionService *services.AuctionService, tracer tracing.Tracer) *AuctionHandler {
	return &AuctionHandler{
		auctionService: auctionService,
		tracer:         tracer,
	}
}

// HandleCreateAuction deploys a new auction for a collectible
func (h *AuctionHandler) HandleCreateAuction(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-create-auction")
	defer h.tracer.EndTransaction(txn)

	var req services.CreateAuctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	h.tracer.AddAttribute(txn, "collectible_id", req.CollectibleID.String())

	auction, err := h.auctionService.CreateAuction(c.Request.Context(), req)
	if err != nil {
		h.tracer.RecordError(txn, err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, auction)
}

// HandleGetAuction returns an auction with its bid history
func (h *AuctionHandler) HandleGetAuction(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-get-auction")
	defer h.tracer.EndTransaction(txn)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid auction id"})
		return
	}

	details, err := h.auctionService.GetAuction(c.Request.Context(), id)
	if err != nil {
		h.tracer.RecordError(txn, err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, details)
}
