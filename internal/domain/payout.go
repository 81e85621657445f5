package domain

import "time"

type PayoutStatus string

const (
	PayoutStatusPending   PayoutStatus = "pending"
	PayoutStatusCompleted PayoutStatus = "completed"
	PayoutStatusFailed    PayoutStatus = "failed"
)

// Payout is the durable record of a seller transfer job. The in-process queue
// owns retry state; this row lets a restart resume pending transfers.
type Payout struct {
	ID               int64        `db:"id" json:"id"`
	AuctionID        int64        `db:"auction_id" json:"auction_id"`
	SellerID         int64        `db:"seller_id" json:"seller_id"`
	SellerAccountID  string       `db:"seller_account_id" json:"-"`
	Amount           float64      `db:"amount" json:"amount"`
	Status           PayoutStatus `db:"status" json:"status"`
	StripeTransferID string       `db:"stripe_transfer_id" json:"-"`
	FailureReason    string       `db:"failure_reason" json:"failure_reason,omitempty"`
	CreatedAt        time.Time    `db:"created_at" json:"created_at"`
	CompletedAt      *time.Time   `db:"completed_at" json:"completed_at,omitempty"`
}
