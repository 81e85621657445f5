package domain

import "time"

// TransactionType enumerates recognized ledger transaction types.
type TransactionType string

const (
	TxSignupBonus     TransactionType = "signup_bonus"
	TxReferral        TransactionType = "referral"
	TxAuctionSale     TransactionType = "auction_sale"
	TxRafflePurchase  TransactionType = "raffle_purchase"
	TxItemPurchase    TransactionType = "item_purchase"
	TxPlanPurchase    TransactionType = "plan_purchase"
	TxAuctionPurchase TransactionType = "auction_purchase"
	TxAdjustment      TransactionType = "adjustment"
)

// Valid reports whether t is one of the recognized transaction types.
func (t TransactionType) Valid() bool {
	switch t {
	case TxSignupBonus, TxReferral, TxAuctionSale, TxRafflePurchase,
		TxItemPurchase, TxPlanPurchase, TxAuctionPurchase, TxAdjustment:
		return true
	}
	return false
}

// Balance is the current coin balance for a user. Rows are created lazily on
// the first ledger adjustment and never deleted.
type Balance struct {
	UserID    int64     `db:"user_id" json:"user_id"`
	Balance   int64     `db:"balance" json:"balance"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// LedgerTransaction is an append-only record of one balance change.
// BalanceAfter snapshots the balance including this row, in creation order.
type LedgerTransaction struct {
	ID             int64                  `db:"id" json:"id"`
	UserID         int64                  `db:"user_id" json:"user_id"`
	Change         int64                  `db:"change" json:"change"`
	BalanceAfter   int64                  `db:"balance_after" json:"balance_after"`
	Type           TransactionType        `db:"type" json:"type"`
	ReferenceID    int64                  `db:"reference_id" json:"reference_id,omitempty"`
	ReferenceTable string                 `db:"reference_table" json:"reference_table,omitempty"`
	Meta           map[string]interface{} `db:"meta" json:"meta,omitempty"`
	CreatedAt      time.Time              `db:"created_at" json:"created_at"`
}
