package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"bidr_backend/internal/service"

	"github.com/gin-gonic/gin"
)

type CreateAuctionRequest struct {
	Title         string  `json:"title" binding:"required"`
	StartingPrice float64 `json:"starting_price" binding:"required,gt=0"`
	ReservePrice  float64 `json:"reserve_price"`
	DurationHours int     `json:"duration_hours" binding:"required,gt=0"`
}

// CreateAuction lists a new auction for the authenticated seller.
func (h *Handler) CreateAuction(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req CreateAuctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title, starting_price and duration_hours are required"})
		return
	}

	endTime := time.Now().Add(time.Duration(req.DurationHours) * time.Hour)
	auction, err := h.AuctionService.Create(c.Request.Context(), userID, req.Title, req.StartingPrice, req.ReservePrice, endTime)
	if err != nil {
		if errors.Is(err, service.ErrInvalidAuction) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create auction"})
		return
	}

	c.JSON(http.StatusCreated, auction)
}

// GetAuction returns a single auction.
func (h *Handler) GetAuction(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid auction id"})
		return
	}

	auction, err := h.AuctionService.Get(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "auction not found"})
		return
	}

	c.JSON(http.StatusOK, auction)
}

// ListAuctions returns recent auctions.
func (h *Handler) ListAuctions(c *gin.Context) {
	limit := 50
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}

	auctions, err := h.AuctionService.List(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list auctions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"auctions": auctions})
}

// CancelAuction cancels an active auction and releases every active hold.
func (h *Handler) CancelAuction(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid auction id"})
		return
	}

	if err := h.AuctionService.Cancel(c.Request.Context(), id, userID); err != nil {
		switch {
		case errors.Is(err, service.ErrAuctionNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "auction not found"})
		case errors.Is(err, service.ErrNotSeller):
			c.JSON(http.StatusForbidden, gin.H{"error": "only the seller can cancel"})
		case errors.Is(err, service.ErrAlreadyCompleted):
			c.JSON(http.StatusConflict, gin.H{"error": "auction is no longer active"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to cancel auction"})
		}
		return
	}

	h.Hub.Broadcast("auction_cancelled", gin.H{"auction_id": id})
	c.JSON(http.StatusOK, gin.H{"message": "auction cancelled"})
}

// CompleteAuction settles a single auction: captures the winning hold and
// enqueues the seller payout.
func (h *Handler) CompleteAuction(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid auction id"})
		return
	}

	result, err := h.AuctionService.Complete(c.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAuctionNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "auction not found"})
		case errors.Is(err, service.ErrAlreadyCompleted):
			c.JSON(http.StatusConflict, gin.H{"error": "auction already completed"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to complete auction"})
		}
		return
	}

	h.Hub.Broadcast("auction_completed", result)
	c.JSON(http.StatusOK, result)
}

// CompleteExpired sweeps all expired active auctions. Individual failures are
// reported per auction; the endpoint itself fails only if the listing query
// does.
func (h *Handler) CompleteExpired(c *gin.Context) {
	result, err := h.AuctionService.SweepExpired(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "failed to list expired auctions",
		})
		return
	}

	for _, item := range result.Results {
		if item.Status == "completed" {
			h.Hub.Broadcast("auction_completed", gin.H{"auction_id": item.AuctionID, "title": item.Title})
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   "sweep finished",
		"completed": result.Completed,
		"failed":    result.Failed,
		"results":   result.Results,
	})
}

// ExpiredAuctions lists expired auctions still marked active, without
// settling them. Used for monitoring.
func (h *Handler) ExpiredAuctions(c *gin.Context) {
	auctions, err := h.AuctionService.ListExpiredActive(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list expired auctions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"count":    len(auctions),
		"auctions": auctions,
	})
}
