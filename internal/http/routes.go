package http

import (
	"os"
	"strconv"
	"time"

	"bidr_backend/internal/config"
	"bidr_backend/internal/http/handlers"
	"bidr_backend/internal/http/middleware"
	"bidr_backend/internal/payout"
	"bidr_backend/internal/repository"
	"bidr_backend/internal/service"
	"bidr_backend/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

func RegisterRoutes(r *gin.Engine, db *pgxpool.Pool, payments service.PaymentProvider, queue *payout.Queue, hub *ws.Hub, version string, cfg *config.Config) {
	h := handlers.NewHandler(db, payments, queue, hub, cfg)
	healthHandler := handlers.NewHealthHandler(db, queue, hub, version)

	// read limits from env, with safe defaults
	apiRateLimit := 60
	if v := os.Getenv("API_RATE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			apiRateLimit = n
		}
	}
	apiRateWindow := time.Minute
	if v := os.Getenv("API_RATE_WINDOW_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			apiRateWindow = time.Duration(n) * time.Second
		}
	}

	authRateLimit := 5
	if v := os.Getenv("AUTH_RATE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			authRateLimit = n
		}
	}
	authRateWindow := time.Minute
	if v := os.Getenv("AUTH_RATE_WINDOW_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			authRateWindow = time.Duration(n) * time.Second
		}
	}

	bidRateLimit := 30
	if v := os.Getenv("BID_RATE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			bidRateLimit = n
		}
	}

	// Health checks (no rate limiting)
	r.GET("/health", healthHandler.Health)
	r.GET("/healthz", healthHandler.Liveness)
	r.GET("/readyz", healthHandler.Readiness)

	v1 := r.Group("/api/v1")
	v1.Use(middleware.RedisRateLimit(apiRateLimit, apiRateWindow))

	// Auth
	authRL := middleware.RedisRateLimit(authRateLimit, authRateWindow)
	v1.POST("/auth/register", authRL, h.Register)
	v1.POST("/auth/login", authRL, h.Login)

	// Profile
	v1.GET("/me", middleware.JWT(), h.Me)
	v1.POST("/me/seller", middleware.JWT(), h.OnboardSeller)
	v1.GET("/me/bids", middleware.JWT(), h.MyBids)
	v1.GET("/me/activity", middleware.JWT(), h.MyActivity)

	// Wallet
	v1.GET("/wallet/balance", middleware.JWT(), h.Balance)
	v1.GET("/wallet/transactions", middleware.JWT(), h.Transactions)

	// Auctions
	v1.POST("/auctions", middleware.JWT(), h.CreateAuction)
	v1.GET("/auctions", h.ListAuctions)
	v1.GET("/auctions/:id", h.GetAuction)
	v1.DELETE("/auctions/:id", middleware.JWT(), h.CancelAuction)
	v1.POST("/auctions/:id/complete", middleware.JWT(), h.CompleteAuction)

	// Expired-auction sweep: POST settles, GET only reports.
	v1.POST("/auctions/complete-expired", h.CompleteExpired)
	v1.GET("/auctions/complete-expired", h.ExpiredAuctions)

	// Bids (per-user rate limit on placement)
	bidRL := middleware.BidRateLimit(bidRateLimit, time.Minute)
	v1.POST("/auctions/:id/bids", middleware.JWT(), bidRL, h.PlaceBid)

	// Referral system
	referralRepo := repository.NewReferralRepository(db)
	referralHandler := handlers.NewReferralHandler(referralRepo, h.WalletService, cfg.BaseURL, cfg.ReferralBonusCoins)
	referral := v1.Group("/referral")
	referral.Use(middleware.JWT())
	{
		referral.GET("/code", referralHandler.GetReferralCode)
		referral.GET("/link", referralHandler.GetReferralLink)
		referral.GET("/stats", referralHandler.GetReferralStats)
		referral.POST("/apply", referralHandler.ApplyReferralCode)
	}

	// Live auction event feed
	r.GET("/ws", h.WS(hub))
}
