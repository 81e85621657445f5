package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"bidr_backend/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// pgUndefinedFunction is the SQLSTATE Postgres raises when a called function
// does not exist. Used to fall back from the versioned adjustment function to
// the legacy name during schema migrations.
const pgUndefinedFunction = "42883"

type LedgerRepository struct {
	db *pgxpool.Pool
}

func NewLedgerRepository(db *pgxpool.Pool) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// Adjust applies a signed balance change and appends the ledger transaction in
// one database-side atomic operation, returning the resulting balance.
// It calls wallet_adjust_balance_v2 and retries against the legacy
// wallet_adjust_balance name only when the versioned function is missing.
func (r *LedgerRepository) Adjust(ctx context.Context, userID, change int64, txType domain.TransactionType, refID *int64, refTable *string, meta map[string]interface{}) (int64, error) {
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		metaJSON = []byte("{}")
	}

	var balance int64
	err = r.db.QueryRow(ctx,
		`SELECT wallet_adjust_balance_v2($1, $2, $3, $4, $5, $6)`,
		userID, change, string(txType), refID, refTable, metaJSON,
	).Scan(&balance)

	var pgErr *pgconn.PgError
	if err != nil && errors.As(err, &pgErr) && pgErr.Code == pgUndefinedFunction {
		err = r.db.QueryRow(ctx,
			`SELECT wallet_adjust_balance($1, $2, $3, $4, $5, $6)`,
			userID, change, string(txType), refID, refTable, metaJSON,
		).Scan(&balance)
	}
	if err != nil {
		return 0, fmt.Errorf("adjust balance: %w", err)
	}

	return balance, nil
}

// GetBalance returns the user's current coin balance. A user with no balance
// row has balance 0.
func (r *LedgerRepository) GetBalance(ctx context.Context, userID int64) (int64, error) {
	var balance int64
	err := r.db.QueryRow(ctx,
		`SELECT balance FROM user_balances WHERE user_id = $1`,
		userID,
	).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, err
	}
	return balance, nil
}

// GetTransactions returns recent ledger transactions for a user, newest first.
func (r *LedgerRepository) GetTransactions(ctx context.Context, userID int64, limit int) ([]*domain.LedgerTransaction, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.db.Query(ctx,
		`SELECT id, user_id, change, balance_after, type, reference_id, reference_table, meta, created_at
		 FROM ledger_transactions
		 WHERE user_id = $1
		 ORDER BY id DESC
		 LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*domain.LedgerTransaction
	for rows.Next() {
		var (
			tx        domain.LedgerTransaction
			refID     *int64
			refTable  *string
			metaJSON  []byte
			createdAt time.Time
		)
		if err := rows.Scan(&tx.ID, &tx.UserID, &tx.Change, &tx.BalanceAfter, &tx.Type, &refID, &refTable, &metaJSON, &createdAt); err != nil {
			return nil, err
		}
		if refID != nil {
			tx.ReferenceID = *refID
		}
		if refTable != nil {
			tx.ReferenceTable = *refTable
		}
		if len(metaJSON) > 0 {
			_ = json.Unmarshal(metaJSON, &tx.Meta)
		}
		tx.CreatedAt = createdAt
		result = append(result, &tx)
	}

	return result, rows.Err()
}
