package repository

import (
	"context"
	"errors"

	"bidr_backend/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, email, username, password_hash, premium, stripe_customer_id, stripe_account_id, referral_code, referred_by, created_at`

// GetByID retrieves a user by ID; returns nil when not found.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// GetByEmail retrieves a user by email; returns nil when not found.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

// Create inserts a new user.
func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	return r.db.QueryRow(ctx, `
		INSERT INTO users (email, username, password_hash, premium)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, u.Email, u.Username, u.PasswordHash, u.Premium).Scan(&u.ID, &u.CreatedAt)
}

// SetStripeCustomerID stores the payment processor customer id.
func (r *UserRepository) SetStripeCustomerID(ctx context.Context, userID int64, customerID string) error {
	_, err := r.db.Exec(ctx,
		`UPDATE users SET stripe_customer_id = $2 WHERE id = $1`,
		userID, customerID,
	)
	return err
}

// SetStripeAccountID stores the seller's connected account id.
func (r *UserRepository) SetStripeAccountID(ctx context.Context, userID int64, accountID string) error {
	_, err := r.db.Exec(ctx,
		`UPDATE users SET stripe_account_id = $2 WHERE id = $1`,
		userID, accountID,
	)
	return err
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	var customerID, accountID, referralCode *string
	var referredBy *int64

	if err := row.Scan(
		&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.Premium,
		&customerID, &accountID, &referralCode, &referredBy, &u.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	if customerID != nil {
		u.StripeCustomerID = *customerID
	}
	if accountID != nil {
		u.StripeAccountID = *accountID
	}
	if referralCode != nil {
		u.ReferralCode = *referralCode
	}
	if referredBy != nil {
		u.ReferredBy = *referredBy
	}

	return &u, nil
}
