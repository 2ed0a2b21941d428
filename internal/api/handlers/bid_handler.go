package handlers

import (
	"net/http"

	"github.com/jaimytreling/AlgoMart/internal/services"
	"github.com/jaimytreling/AlgoMart/internal/tracing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// BidHandler handles bid-related HTTP requests
type BidHandler struct {
	bidService *services.BidService
	tracer     tracing.Tracer
}

// NewBidHandler creates a new bid handler
func NewBidHandler(bidService *services.BidService, tracer tracing.Tracer) *BidHandler {
	return &BidHandler{
		bidService: bidService,
		tracer:     tracer,
	}
}

type placeBidBody struct {
	ExternalUserID string `json:"external_user_id" binding:"required"`
	Amount         int64  `json:"amount" binding:"required,gt=0"`
	Currency       string `json:"currency" binding:"omitempty,currencycode"`
}

// HandlePlaceBid places a bid against a pack
func (h *BidHandler) HandlePlaceBid(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-place-bid")
	defer h.tracer.EndTransaction(txn)

	packID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid pack id"})
		return
	}

	var body placeBidBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	h.tracer.AddAttribute(txn, "pack_id", packID.String())
	h.tracer.AddAttribute(txn, "amount", body.Amount)

	bid, err := h.bidService.PlaceBid(c.Request.Context(), services.PlaceBidRequest{
		PackID:         packID,
		ExternalUserID: body.ExternalUserID,
		Amount:         body.Amount,
		Currency:       body.Currency,
	})
	if err != nil {
		h.tracer.RecordError(txn, err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, bid)
}

// HandleListPackBids returns a pack's bid history
func (h *BidHandler) HandleListPackBids(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-list-pack-bids")
	defer h.tracer.EndTransaction(txn)

	packID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid pack id"})
		return
	}

	bids, err := h.bidService.ListPackBids(c.Request.Context(), packID)
	if err != nil {
		h.tracer.RecordError(txn, err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"bids": bids})
}

// HandleSearchPacks searches the marketplace pack index
func (h *BidHandler) HandleSearchPacks(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-search-packs")
	defer h.tracer.EndTransaction(txn)

	term := c.Query("q")
	if term == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing query parameter q"})
		return
	}

	docs, err := h.bidService.SearchPacks(c.Request.Context(), term)
	if err != nil {
		h.tracer.RecordError(txn, err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"packs": docs})
}
