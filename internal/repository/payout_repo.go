package repository

import (
	"context"
	"errors"
	"time"

	"bidr_backend/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PayoutRepository struct {
	db *pgxpool.Pool
}

func NewPayoutRepository(db *pgxpool.Pool) *PayoutRepository {
	return &PayoutRepository{db: db}
}

// Create records a new pending payout.
func (r *PayoutRepository) Create(ctx context.Context, p *domain.Payout) error {
	p.Status = domain.PayoutStatusPending
	return r.db.QueryRow(ctx, `
		INSERT INTO payouts (auction_id, seller_id, seller_account_id, amount, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, p.AuctionID, p.SellerID, p.SellerAccountID, p.Amount, p.Status).Scan(&p.ID, &p.CreatedAt)
}

// GetPending retrieves pending payouts in creation order, for resuming the
// queue after a restart.
func (r *PayoutRepository) GetPending(ctx context.Context) ([]domain.Payout, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, auction_id, seller_id, seller_account_id, amount, status, stripe_transfer_id, failure_reason, created_at, completed_at
		FROM payouts
		WHERE status = 'pending'
		ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payouts []domain.Payout
	for rows.Next() {
		var p domain.Payout
		var transferID, reason *string
		var completedAt *time.Time
		if err := rows.Scan(
			&p.ID, &p.AuctionID, &p.SellerID, &p.SellerAccountID, &p.Amount,
			&p.Status, &transferID, &reason, &p.CreatedAt, &completedAt,
		); err != nil {
			return nil, err
		}
		if transferID != nil {
			p.StripeTransferID = *transferID
		}
		if reason != nil {
			p.FailureReason = *reason
		}
		p.CompletedAt = completedAt
		payouts = append(payouts, p)
	}
	return payouts, rows.Err()
}

// MarkCompleted records a successful transfer.
func (r *PayoutRepository) MarkCompleted(ctx context.Context, id int64, transferID string) error {
	now := time.Now()
	result, err := r.db.Exec(ctx, `
		UPDATE payouts SET status = 'completed', stripe_transfer_id = $2, completed_at = $3
		WHERE id = $1 AND status = 'pending'
	`, id, transferID, now)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return errors.New("payout not pending")
	}
	return nil
}

// MarkFailed records a payout that exhausted its retries and needs manual
// reconciliation.
func (r *PayoutRepository) MarkFailed(ctx context.Context, id int64, reason string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE payouts SET status = 'failed', failure_reason = $2 WHERE id = $1
	`, id, reason)
	return err
}

// GetByAuction retrieves the payout for an auction, or nil.
func (r *PayoutRepository) GetByAuction(ctx context.Context, auctionID int64) (*domain.Payout, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, auction_id, seller_id, seller_account_id, amount, status, stripe_transfer_id, failure_reason, created_at, completed_at
		FROM payouts
		WHERE auction_id = $1
	`, auctionID)

	var p domain.Payout
	var transferID, reason *string
	var completedAt *time.Time
	if err := row.Scan(
		&p.ID, &p.AuctionID, &p.SellerID, &p.SellerAccountID, &p.Amount,
		&p.Status, &transferID, &reason, &p.CreatedAt, &completedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if transferID != nil {
		p.StripeTransferID = *transferID
	}
	if reason != nil {
		p.FailureReason = *reason
	}
	p.CompletedAt = completedAt
	return &p, nil
}
