package handlers

import (
	"net/http"

	"bidr_backend/internal/domain"
	"bidr_backend/internal/logger"
	"bidr_backend/internal/repository"
	"bidr_backend/internal/service"

	"github.com/gin-gonic/gin"
)

// ReferralHandler handles referral-related requests
type ReferralHandler struct {
	repo    *repository.ReferralRepository
	wallet  *service.WalletService
	baseURL string
	bonus   int64
}

// NewReferralHandler creates a new referral handler
func NewReferralHandler(repo *repository.ReferralRepository, wallet *service.WalletService, baseURL string, bonus int64) *ReferralHandler {
	return &ReferralHandler{repo: repo, wallet: wallet, baseURL: baseURL, bonus: bonus}
}

// GetReferralCode returns user's referral code (generates if needed)
func (h *ReferralHandler) GetReferralCode(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	code, err := h.repo.GetOrCreateReferralCode(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get referral code"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"code": code})
}

// GetReferralLink returns the full referral link for sharing
func (h *ReferralHandler) GetReferralLink(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	code, err := h.repo.GetOrCreateReferralCode(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get referral code"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code": code,
		"link": h.baseURL + "/signup?ref=" + code,
	})
}

// GetReferralStats returns user's referral statistics
func (h *ReferralHandler) GetReferralStats(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	stats, err := h.repo.GetReferralStats(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get stats"})
		return
	}

	referrals, err := h.repo.GetReferralsByUser(c.Request.Context(), userID)
	if err != nil {
		referrals = []repository.Referral{}
	}

	c.JSON(http.StatusOK, gin.H{
		"stats":     stats,
		"referrals": referrals,
	})
}

// ApplyReferralCode applies a referral code for the current user
type ApplyReferralRequest struct {
	Code string `json:"code" binding:"required"`
}

func (h *ReferralHandler) ApplyReferralCode(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req ApplyReferralRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "code is required"})
		return
	}

	referrerID, err := h.repo.GetUserByReferralCode(c.Request.Context(), req.Code)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid referral code"})
		return
	}

	if referrerID == userID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot use your own code"})
		return
	}

	created, err := h.repo.CreateReferral(c.Request.Context(), referrerID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to apply referral"})
		return
	}
	if !created {
		c.JSON(http.StatusBadRequest, gin.H{"error": "already referred"})
		return
	}

	// Both sides get coins. A bonus failure is logged but does not undo the
	// referral itself.
	ctx := c.Request.Context()
	refUser := &service.LedgerRef{ID: userID, Table: "users"}
	if _, err := h.wallet.Award(ctx, referrerID, h.bonus, domain.TxReferral, refUser, nil); err != nil {
		logger.Error("failed to award referrer bonus", "referrer_id", referrerID, "error", err)
	}
	refReferrer := &service.LedgerRef{ID: referrerID, Table: "users"}
	if _, err := h.wallet.Award(ctx, userID, h.bonus, domain.TxReferral, refReferrer, nil); err != nil {
		logger.Error("failed to award referred bonus", "user_id", userID, "error", err)
	}

	c.JSON(http.StatusOK, gin.H{"message": "referral applied successfully"})
}
