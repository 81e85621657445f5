package repository

import (
	"context"
	"errors"

	"bidr_backend/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type BidRepository struct {
	db *pgxpool.Pool
}

func NewBidRepository(db *pgxpool.Pool) *BidRepository {
	return &BidRepository{db: db}
}

const bidColumns = `id, auction_id, bidder_id, amount, status, payment_method, stripe_payment_intent_id, authorization_status, authorized_amount, bidcoin_hold, holds_released, created_at`

// Create inserts a new active bid with its hold fields populated.
func (r *BidRepository) Create(ctx context.Context, b *domain.Bid) error {
	var piID, authStatus *string
	if b.StripePaymentIntentID != "" {
		piID = &b.StripePaymentIntentID
	}
	if b.AuthorizationStatus != "" {
		s := string(b.AuthorizationStatus)
		authStatus = &s
	}
	return r.db.QueryRow(ctx, `
		INSERT INTO bids (auction_id, bidder_id, amount, status, payment_method, stripe_payment_intent_id, authorization_status, authorized_amount, bidcoin_hold, holds_released)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, false)
		RETURNING id, created_at
	`, b.AuctionID, b.BidderID, b.Amount, b.Status, b.PaymentMethod, piID, authStatus, b.AuthorizedAmount, b.BidcoinHold).
		Scan(&b.ID, &b.CreatedAt)
}

// GetByID retrieves a bid by ID; returns nil when not found.
func (r *BidRepository) GetByID(ctx context.Context, id int64) (*domain.Bid, error) {
	row := r.db.QueryRow(ctx, `SELECT `+bidColumns+` FROM bids WHERE id = $1`, id)
	return scanBid(row)
}

// GetHighestActive returns the highest active bid for an auction, or nil.
func (r *BidRepository) GetHighestActive(ctx context.Context, auctionID int64) (*domain.Bid, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+bidColumns+`
		FROM bids
		WHERE auction_id = $1 AND status = 'active'
		ORDER BY amount DESC, created_at ASC
		LIMIT 1
	`, auctionID)
	return scanBid(row)
}

// ListActiveByAuction returns all active bids on an auction.
func (r *BidRepository) ListActiveByAuction(ctx context.Context, auctionID int64) ([]domain.Bid, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+bidColumns+`
		FROM bids
		WHERE auction_id = $1 AND status = 'active'
		ORDER BY amount DESC, created_at ASC
	`, auctionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanBids(rows)
}

// ListByBidder returns a bidder's recent bids.
func (r *BidRepository) ListByBidder(ctx context.Context, bidderID int64, limit int) ([]domain.Bid, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.Query(ctx, `
		SELECT `+bidColumns+`
		FROM bids
		WHERE bidder_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, bidderID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanBids(rows)
}

// SetStatus moves a bid to a terminal status.
func (r *BidRepository) SetStatus(ctx context.Context, id int64, status domain.BidStatus) error {
	_, err := r.db.Exec(ctx, `UPDATE bids SET status = $2 WHERE id = $1`, id, status)
	return err
}

// MarkHoldsReleased records that the bid's hold has been returned. The
// bidcoin hold is zeroed so a released bid never reserves coins.
func (r *BidRepository) MarkHoldsReleased(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx, `
		UPDATE bids SET holds_released = true, bidcoin_hold = 0 WHERE id = $1
	`, id)
	return err
}

// SetAuthorizationStatus updates the card-rail authorization state.
func (r *BidRepository) SetAuthorizationStatus(ctx context.Context, id int64, status domain.AuthorizationStatus) error {
	_, err := r.db.Exec(ctx, `
		UPDATE bids SET authorization_status = $2 WHERE id = $1
	`, id, string(status))
	return err
}

// MarkHoldCaptured finalizes the winning bid's hold at settlement: the hold
// no longer reserves anything, but unlike a release no funds moved back to
// the bidder.
func (r *BidRepository) MarkHoldCaptured(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx, `
		UPDATE bids SET holds_released = true, bidcoin_hold = 0 WHERE id = $1
	`, id)
	return err
}

func scanBid(row pgx.Row) (*domain.Bid, error) {
	var b domain.Bid
	var piID, authStatus *string
	var authorizedAmount *float64

	if err := row.Scan(
		&b.ID, &b.AuctionID, &b.BidderID, &b.Amount, &b.Status, &b.PaymentMethod,
		&piID, &authStatus, &authorizedAmount, &b.BidcoinHold, &b.HoldsReleased, &b.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	if piID != nil {
		b.StripePaymentIntentID = *piID
	}
	if authStatus != nil {
		b.AuthorizationStatus = domain.AuthorizationStatus(*authStatus)
	}
	if authorizedAmount != nil {
		b.AuthorizedAmount = *authorizedAmount
	}

	return &b, nil
}

func scanBids(rows pgx.Rows) ([]domain.Bid, error) {
	var bids []domain.Bid
	for rows.Next() {
		var b domain.Bid
		var piID, authStatus *string
		var authorizedAmount *float64
		if err := rows.Scan(
			&b.ID, &b.AuctionID, &b.BidderID, &b.Amount, &b.Status, &b.PaymentMethod,
			&piID, &authStatus, &authorizedAmount, &b.BidcoinHold, &b.HoldsReleased, &b.CreatedAt,
		); err != nil {
			return nil, err
		}
		if piID != nil {
			b.StripePaymentIntentID = *piID
		}
		if authStatus != nil {
			b.AuthorizationStatus = domain.AuthorizationStatus(*authStatus)
		}
		if authorizedAmount != nil {
			b.AuthorizedAmount = *authorizedAmount
		}
		bids = append(bids, b)
	}
	return bids, rows.Err()
}
