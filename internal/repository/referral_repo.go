package repository

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Referral struct {
	ID         int64     `json:"id"`
	ReferrerID int64     `json:"referrer_id"`
	ReferredID int64     `json:"referred_id"`
	CreatedAt  time.Time `json:"created_at"`
}

type ReferralStats struct {
	TotalReferrals int   `json:"total_referrals"`
	TotalEarned    int64 `json:"total_earned"`
}

type ReferralRepository struct {
	db *pgxpool.Pool
}

func NewReferralRepository(db *pgxpool.Pool) *ReferralRepository {
	return &ReferralRepository{db: db}
}

// GenerateReferralCode generates a unique referral code
func GenerateReferralCode() string {
	bytes := make([]byte, 6)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}

// GetOrCreateReferralCode gets existing or creates new referral code for user
func (r *ReferralRepository) GetOrCreateReferralCode(ctx context.Context, userID int64) (string, error) {
	var code string
	err := r.db.QueryRow(ctx,
		`SELECT referral_code FROM users WHERE id = $1 AND referral_code IS NOT NULL`,
		userID,
	).Scan(&code)
	if err == nil && code != "" {
		return code, nil
	}

	// Retry a few times in case of collision on the unique index
	for i := 0; i < 5; i++ {
		code = GenerateReferralCode()
		_, err = r.db.Exec(ctx,
			`UPDATE users SET referral_code = $1 WHERE id = $2`,
			code, userID,
		)
		if err == nil {
			return code, nil
		}
	}

	return "", err
}

// GetUserByReferralCode finds user by their referral code
func (r *ReferralRepository) GetUserByReferralCode(ctx context.Context, code string) (int64, error) {
	var userID int64
	err := r.db.QueryRow(ctx,
		`SELECT id FROM users WHERE referral_code = $1`,
		code,
	).Scan(&userID)
	return userID, err
}

// CreateReferral creates a new referral relationship. Returns false if the
// referred user already has a referrer.
func (r *ReferralRepository) CreateReferral(ctx context.Context, referrerID, referredID int64) (bool, error) {
	result, err := r.db.Exec(ctx,
		`INSERT INTO referrals (referrer_id, referred_id)
		 VALUES ($1, $2)
		 ON CONFLICT (referred_id) DO NOTHING`,
		referrerID, referredID,
	)
	if err != nil {
		return false, err
	}
	if result.RowsAffected() == 0 {
		return false, nil
	}

	_, err = r.db.Exec(ctx,
		`UPDATE users SET referred_by = $1 WHERE id = $2`,
		referrerID, referredID,
	)
	return true, err
}

// GetReferralStats returns total referral count and coins earned from them.
func (r *ReferralRepository) GetReferralStats(ctx context.Context, userID int64) (*ReferralStats, error) {
	var stats ReferralStats
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM referrals WHERE referrer_id = $1`,
		userID,
	).Scan(&stats.TotalReferrals)
	if err != nil {
		return nil, err
	}

	err = r.db.QueryRow(ctx,
		`SELECT COALESCE(SUM(change), 0)
		 FROM ledger_transactions
		 WHERE user_id = $1 AND type = 'referral' AND change > 0`,
		userID,
	).Scan(&stats.TotalEarned)
	if err != nil {
		return nil, err
	}

	return &stats, nil
}

// GetReferralsByUser lists the users referred by userID.
func (r *ReferralRepository) GetReferralsByUser(ctx context.Context, userID int64) ([]Referral, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, referrer_id, referred_id, created_at
		 FROM referrals
		 WHERE referrer_id = $1
		 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var referrals []Referral
	for rows.Next() {
		var ref Referral
		if err := rows.Scan(&ref.ID, &ref.ReferrerID, &ref.ReferredID, &ref.CreatedAt); err != nil {
			return nil, err
		}
		referrals = append(referrals, ref)
	}
	return referrals, rows.Err()
}
