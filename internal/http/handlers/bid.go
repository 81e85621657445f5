package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"bidr_backend/internal/domain"
	"bidr_backend/internal/service"

	"github.com/gin-gonic/gin"
)

type PlaceBidRequest struct {
	Amount        float64 `json:"amount" binding:"required,gt=0"`
	PaymentMethod string  `json:"payment_method" binding:"required"`
}

// PlaceBid places a bid on an auction, taking a hold on the chosen rail.
func (h *Handler) PlaceBid(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	auctionID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid auction id"})
		return
	}

	var req PlaceBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount and payment_method are required"})
		return
	}

	bid, err := h.BidService.PlaceBid(c.Request.Context(), auctionID, userID, req.Amount, domain.PaymentMethod(req.PaymentMethod))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAuctionNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "auction not found"})
		case errors.Is(err, service.ErrAuctionEnded):
			c.JSON(http.StatusConflict, gin.H{"error": "auction has ended"})
		case errors.Is(err, service.ErrOwnAuction):
			c.JSON(http.StatusForbidden, gin.H{"error": "cannot bid on your own auction"})
		case errors.Is(err, service.ErrBelowMinimum):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrUnsupportedPayment):
			c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported payment method"})
		case errors.Is(err, service.ErrInsufficientBalance):
			c.JSON(http.StatusPaymentRequired, gin.H{"error": "insufficient bidcoin balance"})
		case errors.Is(err, service.ErrNoPaymentMethod):
			c.JSON(http.StatusPaymentRequired, gin.H{"error": "no payment method on file"})
		case errors.Is(err, service.ErrNoSellerAccount):
			c.JSON(http.StatusConflict, gin.H{"error": "seller cannot accept card payments"})
		case errors.Is(err, service.ErrAuthorizationFailed):
			c.JSON(http.StatusPaymentRequired, gin.H{"error": "card authorization failed"})
		case errors.Is(err, service.ErrPriceChanged):
			c.JSON(http.StatusConflict, gin.H{"error": "price changed, refresh and bid again"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to place bid"})
		}
		return
	}

	h.Hub.Broadcast("bid_placed", gin.H{
		"auction_id": auctionID,
		"bid_id":     bid.ID,
		"amount":     bid.Amount,
	})

	c.JSON(http.StatusCreated, bid)
}

// MyBids returns the authenticated user's recent bids.
func (h *Handler) MyBids(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	limit := 50
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}

	bids, err := h.BidService.ListByBidder(c.Request.Context(), userID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list bids"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"bids": bids})
}
