package handlers

import (
	"bidr_backend/internal/config"
	"bidr_backend/internal/payout"
	"bidr_backend/internal/service"
	"bidr_backend/internal/ws"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Handler struct {
	DB             *pgxpool.Pool
	UserService    *service.UserService
	WalletService  *service.WalletService
	BidService     *service.BidService
	AuctionService *service.AuctionService
	AuditService   *service.AuditService
	Hub            *ws.Hub
}

func NewHandler(db *pgxpool.Pool, payments service.PaymentProvider, queue *payout.Queue, hub *ws.Hub, cfg *config.Config) *Handler {
	wallet := service.NewWalletService(db)
	bids := service.NewBidService(db, wallet, payments, cfg.PlatformFeePercent, cfg.PremiumFeePercent)
	return &Handler{
		DB:             db,
		UserService:    service.NewUserService(db, wallet, payments, cfg.SignupBonusCoins),
		WalletService:  wallet,
		BidService:     bids,
		AuctionService: service.NewAuctionService(db, bids, payments, queue, cfg.PlatformFeePercent, cfg.PremiumFeePercent),
		AuditService:   service.NewAuditService(db),
		Hub:            hub,
	}
}

// getUserID extracts user_id from the gin context
func getUserID(c interface{ Get(string) (any, bool) }) (int64, bool) {
	uidVal, ok := c.Get("user_id")
	if !ok {
		return 0, false
	}
	switch v := uidVal.(type) {
	case int64:
		return v, true
	case float64:
		return int64(v), true
	default:
		return 0, false
	}
}
