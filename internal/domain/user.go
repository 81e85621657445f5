package domain

import "time"

type User struct {
	ID               int64     `db:"id" json:"id"`
	Email            string    `db:"email" json:"email"`
	Username         string    `db:"username" json:"username"`
	PasswordHash     string    `db:"password_hash" json:"-"`
	Premium          bool      `db:"premium" json:"premium"`
	StripeCustomerID string    `db:"stripe_customer_id" json:"-"`
	StripeAccountID  string    `db:"stripe_account_id" json:"-"`
	ReferralCode     string    `db:"referral_code" json:"referral_code,omitempty"`
	ReferredBy       int64     `db:"referred_by" json:"referred_by,omitempty"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
}

// HasPaymentAccount reports whether the user can receive seller payouts.
func (u *User) HasPaymentAccount() bool {
	return u.StripeAccountID != ""
}
