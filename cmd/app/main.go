package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bidr_backend/internal/config"
	"bidr_backend/internal/db"
	httpServer "bidr_backend/internal/http"
	"bidr_backend/internal/http/middleware"
	"bidr_backend/internal/logger"
	"bidr_backend/internal/payout"
	"bidr_backend/internal/repository"
	"bidr_backend/internal/service"
	"bidr_backend/internal/stripe"
	"bidr_backend/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const version = "1.0.0"

func main() {
	logger.InitFromEnv()
	cfg := config.Load()
	service.InitJWT(cfg.JWTSecret)

	dbPool := db.Connect(cfg.DatabaseURL)
	defer dbPool.Close()

	payments := stripe.NewClient(cfg.StripeSecretKey)
	payoutRepo := repository.NewPayoutRepository(dbPool)

	transfer := func(ctx context.Context, job payout.Job) (string, error) {
		t, err := payments.CreateTransfer(ctx, service.CentsFromDollars(job.Amount), "usd", job.AccountID, job.AuctionID)
		if err != nil {
			return "", err
		}
		return t.ID, nil
	}
	queue := payout.NewQueue(transfer, payoutRepo, cfg.TransferRetryDelay, cfg.TransferMaxRetries)

	// Re-enqueue payouts that were pending when the previous process stopped.
	if pending, err := payoutRepo.GetPending(context.Background()); err != nil {
		logger.Error("failed to load pending payouts", "error", err)
	} else {
		for _, p := range pending {
			queue.Enqueue(payout.Job{
				ID:         p.ID,
				AuctionID:  p.AuctionID,
				SellerID:   p.SellerID,
				AccountID:  p.SellerAccountID,
				Amount:     p.Amount,
				MaxRetries: cfg.TransferMaxRetries,
			})
		}
		if len(pending) > 0 {
			logger.Info("resumed pending payouts", "count", len(pending))
		}
	}

	r := gin.Default()

	// CORS for production (frontend on different domain)
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		}
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	middleware.InitRedisRateLimiter(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	hub := ws.NewHub()
	httpServer.RegisterRoutes(r, dbPool, payments, queue, hub, version, cfg)

	srv := &http.Server{
		Addr:    ":" + cfg.AppPort,
		Handler: r,
	}

	go func() {
		logger.Info("server started", "port", cfg.AppPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", "error", err)
	}

	logger.Info("server exited")
}
