package domain

import "time"

type AuctionStatus string

const (
	AuctionStatusActive    AuctionStatus = "active"
	AuctionStatusEnded     AuctionStatus = "ended"
	AuctionStatusCancelled AuctionStatus = "cancelled"
)

// Auction amounts are decimal dollars; conversion to processor minor units
// and to coins happens at the boundary (see service.CentsFromDollars).
type Auction struct {
	ID            int64         `db:"id" json:"id"`
	SellerID      int64         `db:"seller_id" json:"seller_id"`
	Title         string        `db:"title" json:"title"`
	StartingPrice float64       `db:"starting_price" json:"starting_price"`
	ReservePrice  float64       `db:"reserve_price" json:"reserve_price,omitempty"`
	CurrentPrice  float64       `db:"current_price" json:"current_price"`
	Status        AuctionStatus `db:"status" json:"status"`
	EndTime       time.Time     `db:"end_time" json:"end_time"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time     `db:"updated_at" json:"updated_at"`
}

// Expired reports whether the auction has passed its end time.
func (a *Auction) Expired(now time.Time) bool {
	return !now.Before(a.EndTime)
}
