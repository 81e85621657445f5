package service

import (
	"context"

	"bidr_backend/internal/stripe"
)

// PaymentProvider is the boundary contract with the payment processor.
// Amounts cross this boundary in minor units (cents). stripe.Client is the
// production implementation; tests substitute fakes.
type PaymentProvider interface {
	CreateCustomer(ctx context.Context, email, name string) (*stripe.Customer, error)
	CreateConnectedAccount(ctx context.Context, email string) (*stripe.Account, error)
	CreateAuthorization(ctx context.Context, amountCents int64, currency, customerID, destinationAccountID string, applicationFeeCents int64) (*stripe.PaymentIntent, error)
	CaptureAuthorization(ctx context.Context, paymentIntentID string, amountCents int64) (*stripe.PaymentIntent, error)
	CancelAuthorization(ctx context.Context, paymentIntentID string) error
	CreateRefund(ctx context.Context, paymentIntentID string) (*stripe.Refund, error)
	CreateTransfer(ctx context.Context, amountCents int64, currency, destinationAccountID string, auctionID int64) (*stripe.Transfer, error)
}
