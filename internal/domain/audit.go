package domain

import "time"

// AuditLog records important settlement actions for reconciliation.
type AuditLog struct {
	ID        int64                  `db:"id" json:"id"`
	UserID    int64                  `db:"user_id" json:"user_id"`
	Action    string                 `db:"action" json:"action"`
	Category  string                 `db:"category" json:"category"`
	Details   map[string]interface{} `db:"details" json:"details"`
	CreatedAt time.Time              `db:"created_at" json:"created_at"`
}

// Audit categories
const (
	AuditCategoryAuth    = "auth"
	AuditCategoryBid     = "bid"
	AuditCategoryAuction = "auction"
	AuditCategoryBalance = "balance"
	AuditCategoryPayout  = "payout"
)

// Audit actions
const (
	AuditActionRegister = "register"
	AuditActionLogin    = "login"

	AuditActionBidPlaced   = "bid_placed"
	AuditActionBidOutbid   = "bid_outbid"
	AuditActionBidWon      = "bid_won"
	AuditActionBidRefunded = "bid_refunded"

	AuditActionAuctionCreated   = "auction_created"
	AuditActionAuctionCompleted = "auction_completed"
	AuditActionAuctionCancelled = "auction_cancelled"

	AuditActionPayoutEnqueued  = "payout_enqueued"
	AuditActionPayoutExhausted = "payout_exhausted"
)
