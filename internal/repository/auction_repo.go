package repository

import (
	"context"
	"errors"
	"time"

	"bidr_backend/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AuctionRepository struct {
	db *pgxpool.Pool
}

func NewAuctionRepository(db *pgxpool.Pool) *AuctionRepository {
	return &AuctionRepository{db: db}
}

const auctionColumns = `id, seller_id, title, starting_price, reserve_price, current_price, status, end_time, created_at, updated_at`

// GetByID retrieves an auction by ID; returns nil when not found.
func (r *AuctionRepository) GetByID(ctx context.Context, id int64) (*domain.Auction, error) {
	row := r.db.QueryRow(ctx, `SELECT `+auctionColumns+` FROM auctions WHERE id = $1`, id)
	return scanAuction(row)
}

// Create inserts a new auction with current_price = starting_price.
func (r *AuctionRepository) Create(ctx context.Context, a *domain.Auction) error {
	a.CurrentPrice = a.StartingPrice
	a.Status = domain.AuctionStatusActive
	return r.db.QueryRow(ctx, `
		INSERT INTO auctions (seller_id, title, starting_price, reserve_price, current_price, status, end_time)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`, a.SellerID, a.Title, a.StartingPrice, a.ReservePrice, a.CurrentPrice, a.Status, a.EndTime).
		Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
}

// List returns active auctions, soonest-ending first.
func (r *AuctionRepository) List(ctx context.Context, limit int) ([]domain.Auction, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.Query(ctx, `
		SELECT `+auctionColumns+`
		FROM auctions
		WHERE status = 'active'
		ORDER BY end_time ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanAuctions(rows)
}

// ListExpiredActive returns auctions still active but past their end time.
func (r *AuctionRepository) ListExpiredActive(ctx context.Context) ([]domain.Auction, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+auctionColumns+`
		FROM auctions
		WHERE status = 'active' AND end_time <= now()
		ORDER BY end_time ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanAuctions(rows)
}

// UpdateCurrentPrice conditionally raises the price: the update only applies
// if the price still equals what the caller observed and the auction is still
// active. Returns false when the row no longer matches (a concurrent bid won).
func (r *AuctionRepository) UpdateCurrentPrice(ctx context.Context, id int64, expected, newPrice float64) (bool, error) {
	result, err := r.db.Exec(ctx, `
		UPDATE auctions
		SET current_price = $3, updated_at = now()
		WHERE id = $1 AND current_price = $2 AND status = 'active'
	`, id, expected, newPrice)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() == 1, nil
}

// MarkEnded flips status active -> ended. Returns false if the auction was
// not active, which makes completion idempotent.
func (r *AuctionRepository) MarkEnded(ctx context.Context, id int64) (bool, error) {
	result, err := r.db.Exec(ctx, `
		UPDATE auctions SET status = 'ended', updated_at = now()
		WHERE id = $1 AND status = 'active'
	`, id)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() == 1, nil
}

// MarkCancelled flips status active -> cancelled.
func (r *AuctionRepository) MarkCancelled(ctx context.Context, id int64) (bool, error) {
	result, err := r.db.Exec(ctx, `
		UPDATE auctions SET status = 'cancelled', updated_at = now()
		WHERE id = $1 AND status = 'active'
	`, id)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() == 1, nil
}

func scanAuction(row pgx.Row) (*domain.Auction, error) {
	var a domain.Auction
	var reserve *float64
	var updatedAt *time.Time

	if err := row.Scan(
		&a.ID, &a.SellerID, &a.Title, &a.StartingPrice, &reserve,
		&a.CurrentPrice, &a.Status, &a.EndTime, &a.CreatedAt, &updatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	if reserve != nil {
		a.ReservePrice = *reserve
	}
	if updatedAt != nil {
		a.UpdatedAt = *updatedAt
	}

	return &a, nil
}

func scanAuctions(rows pgx.Rows) ([]domain.Auction, error) {
	var auctions []domain.Auction
	for rows.Next() {
		var a domain.Auction
		var reserve *float64
		var updatedAt *time.Time
		if err := rows.Scan(
			&a.ID, &a.SellerID, &a.Title, &a.StartingPrice, &reserve,
			&a.CurrentPrice, &a.Status, &a.EndTime, &a.CreatedAt, &updatedAt,
		); err != nil {
			return nil, err
		}
		if reserve != nil {
			a.ReservePrice = *reserve
		}
		if updatedAt != nil {
			a.UpdatedAt = *updatedAt
		}
		auctions = append(auctions, a)
	}
	return auctions, rows.Err()
}
