package domain

import "time"

type BidStatus string

const (
	BidStatusActive    BidStatus = "active"
	BidStatusWinning   BidStatus = "winning"
	BidStatusOutbid    BidStatus = "outbid"
	BidStatusCancelled BidStatus = "cancelled"
)

type PaymentMethod string

const (
	PaymentMethodCard    PaymentMethod = "card"
	PaymentMethodBidcoin PaymentMethod = "bidcoin"
	PaymentMethodHybrid  PaymentMethod = "hybrid"
)

type AuthorizationStatus string

const (
	AuthorizationAuthorized AuthorizationStatus = "authorized"
	AuthorizationCaptured   AuthorizationStatus = "captured"
	AuthorizationCancelled  AuthorizationStatus = "cancelled"
)

// Bid carries exactly one kind of hold while active: a card authorization
// (StripePaymentIntentID) or a bidcoin hold (BidcoinHold coins).
type Bid struct {
	ID                    int64               `db:"id" json:"id"`
	AuctionID             int64               `db:"auction_id" json:"auction_id"`
	BidderID              int64               `db:"bidder_id" json:"bidder_id"`
	Amount                float64             `db:"amount" json:"amount"`
	Status                BidStatus           `db:"status" json:"status"`
	PaymentMethod         PaymentMethod       `db:"payment_method" json:"payment_method"`
	StripePaymentIntentID string              `db:"stripe_payment_intent_id" json:"-"`
	AuthorizationStatus   AuthorizationStatus `db:"authorization_status" json:"authorization_status,omitempty"`
	AuthorizedAmount      float64             `db:"authorized_amount" json:"authorized_amount,omitempty"`
	BidcoinHold           int64               `db:"bidcoin_hold" json:"bidcoin_hold,omitempty"`
	HoldsReleased         bool                `db:"holds_released" json:"holds_released"`
	CreatedAt             time.Time           `db:"created_at" json:"created_at"`
}
