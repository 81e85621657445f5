package repository

import (
	"context"
	"encoding/json"

	"bidr_backend/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

type AuditRepository struct {
	db *pgxpool.Pool
}

func NewAuditRepository(db *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{db: db}
}

// Create inserts a new audit log entry
func (r *AuditRepository) Create(ctx context.Context, log *domain.AuditLog) error {
	detailsJSON, err := json.Marshal(log.Details)
	if err != nil {
		detailsJSON = []byte("{}")
	}

	return r.db.QueryRow(ctx,
		`INSERT INTO audit_logs (user_id, action, category, details)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		log.UserID, log.Action, log.Category, detailsJSON,
	).Scan(&log.ID, &log.CreatedAt)
}

// GetRecent returns recent audit entries for a user, newest first.
func (r *AuditRepository) GetRecent(ctx context.Context, userID int64, limit int) ([]*domain.AuditLog, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.db.Query(ctx,
		`SELECT id, user_id, action, category, details, created_at
		 FROM audit_logs
		 WHERE user_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*domain.AuditLog
	for rows.Next() {
		var log domain.AuditLog
		var detailsJSON []byte
		if err := rows.Scan(&log.ID, &log.UserID, &log.Action, &log.Category, &detailsJSON, &log.CreatedAt); err != nil {
			return nil, err
		}
		if len(detailsJSON) > 0 {
			_ = json.Unmarshal(detailsJSON, &log.Details)
		}
		result = append(result, &log)
	}
	return result, rows.Err()
}
