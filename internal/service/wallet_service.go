package service

import (
	"context"
	"errors"

	"bidr_backend/internal/domain"
	"bidr_backend/internal/repository"

	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrInvalidAmount          = errors.New("invalid amount")
	ErrInsufficientBalance    = errors.New("insufficient balance")
	ErrZeroChange             = errors.New("change must be non-zero")
	ErrUnknownTransactionType = errors.New("unknown transaction type")
)

// LedgerRef points a ledger transaction at the entity that caused it.
type LedgerRef struct {
	ID    int64
	Table string
}

// WalletService owns the coin ledger. Every balance change goes through
// Adjust, which applies the balance mutation and the transaction record as a
// single database-side atomic operation.
type WalletService struct {
	repo *repository.LedgerRepository
}

func NewWalletService(db *pgxpool.Pool) *WalletService {
	return &WalletService{repo: repository.NewLedgerRepository(db)}
}

// Adjust applies a signed coin change and returns the new balance.
//
// Debits are not rejected here when they would drive the balance negative:
// spenders must pre-check via Spend. Keeping the primitive permissive matches
// how every existing caller uses it.
func (s *WalletService) Adjust(ctx context.Context, userID, change int64, txType domain.TransactionType, ref *LedgerRef, meta map[string]interface{}) (int64, error) {
	if change == 0 {
		return 0, ErrZeroChange
	}
	if !txType.Valid() {
		return 0, ErrUnknownTransactionType
	}

	var refID *int64
	var refTable *string
	if ref != nil {
		refID = &ref.ID
		refTable = &ref.Table
	}

	return s.repo.Adjust(ctx, userID, change, txType, refID, refTable, meta)
}

// Award credits coins. A non-positive amount is a no-op that returns the
// current balance unchanged.
func (s *WalletService) Award(ctx context.Context, userID, amount int64, txType domain.TransactionType, ref *LedgerRef, meta map[string]interface{}) (int64, error) {
	if amount <= 0 {
		return s.repo.GetBalance(ctx, userID)
	}
	return s.Adjust(ctx, userID, amount, txType, ref, meta)
}

// Spend debits coins after verifying the balance covers the amount. Fails
// before touching storage when amount is non-positive.
func (s *WalletService) Spend(ctx context.Context, userID, amount int64, txType domain.TransactionType, ref *LedgerRef, meta map[string]interface{}) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}

	balance, err := s.repo.GetBalance(ctx, userID)
	if err != nil {
		return 0, err
	}
	if balance < amount {
		return 0, ErrInsufficientBalance
	}

	return s.Adjust(ctx, userID, -amount, txType, ref, meta)
}

// Balance returns the user's current coin balance.
func (s *WalletService) Balance(ctx context.Context, userID int64) (int64, error) {
	return s.repo.GetBalance(ctx, userID)
}

// Transactions returns the user's recent ledger transactions.
func (s *WalletService) Transactions(ctx context.Context, userID int64, limit int) ([]*domain.LedgerTransaction, error) {
	return s.repo.GetTransactions(ctx, userID, limit)
}
