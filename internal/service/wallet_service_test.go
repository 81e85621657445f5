package service

import (
	"context"
	"testing"

	"bidr_backend/internal/domain"
)

// Validation happens before any storage access, so a zero-value service is
// enough for these paths.

func TestAdjustRejectsZeroChange(t *testing.T) {
	s := &WalletService{}
	if _, err := s.Adjust(context.Background(), 1, 0, domain.TxAdjustment, nil, nil); err != ErrZeroChange {
		t.Errorf("expected ErrZeroChange, got %v", err)
	}
}

func TestAdjustRejectsUnknownType(t *testing.T) {
	s := &WalletService{}
	if _, err := s.Adjust(context.Background(), 1, 100, domain.TransactionType("lottery"), nil, nil); err != ErrUnknownTransactionType {
		t.Errorf("expected ErrUnknownTransactionType, got %v", err)
	}
}

func TestSpendRejectsNonPositiveAmount(t *testing.T) {
	s := &WalletService{}
	for _, amount := range []int64{0, -5} {
		if _, err := s.Spend(context.Background(), 1, amount, domain.TxAuctionPurchase, nil, nil); err != ErrInvalidAmount {
			t.Errorf("Spend(%d): expected ErrInvalidAmount, got %v", amount, err)
		}
	}
}
