package service

import (
	"context"

	"bidr_backend/internal/domain"
	"bidr_backend/internal/logger"
	"bidr_backend/internal/repository"

	"github.com/jackc/pgx/v5/pgxpool"
)

// AuditService records settlement actions for later reconciliation. Logging
// failures never fail the calling operation.
type AuditService struct {
	repo *repository.AuditRepository
}

func NewAuditService(db *pgxpool.Pool) *AuditService {
	return &AuditService{
		repo: repository.NewAuditRepository(db),
	}
}

// Log creates a new audit log entry
func (s *AuditService) Log(ctx context.Context, userID int64, action, category string, details map[string]interface{}) {
	entry := &domain.AuditLog{
		UserID:   userID,
		Action:   action,
		Category: category,
		Details:  details,
	}

	if err := s.repo.Create(ctx, entry); err != nil {
		logger.Error("failed to create audit log", "error", err, "action", action, "user_id", userID)
	}
}

// Recent returns the user's recent audit entries.
func (s *AuditService) Recent(ctx context.Context, userID int64, limit int) ([]*domain.AuditLog, error) {
	return s.repo.GetRecent(ctx, userID, limit)
}
