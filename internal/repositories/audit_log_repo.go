package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/denimhub/dashboard/internal/database"
	"github.com/denimhub/dashboard/internal/models"
	"github.com/google/uuid"
)

// AuditLogRepository persists login outcomes to login_audit_log
type AuditLogRepository struct {
	pool database.Querier
}

// NewAuditLogRepository creates a new AuditLogRepository
func NewAuditLogRepository(pool database.Querier) *AuditLogRepository {
	return &AuditLogRepository{pool: pool}
}

// Create appends a login audit row. ID and timestamp are filled in when unset.
func (r *AuditLogRepository) Create(ctx context.Context, log *models.AuditLog) error {
	if log.ID == uuid.Nil {
		log.ID = uuid.New()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO login_audit_log (id, user_id, email, ip_address, success, failure_reason, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.pool.Exec(ctx, query,
		log.ID, log.UserID, log.Email, log.IPAddress, log.Success, log.FailureReason, log.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create audit log: %w", database.MapPostgresError(err))
	}

	return nil
}

// Cleanup removes audit rows older than the specified number of days
func (r *AuditLogRepository) Cleanup(ctx context.Context, olderThanDays int) (int64, error) {
	query := `
		DELETE FROM login_audit_log
		WHERE timestamp < CURRENT_TIMESTAMP - INTERVAL '1 day' * $1
	`

	result, err := r.pool.Exec(ctx, query, olderThanDays)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup audit logs: %w", err)
	}

	return result.RowsAffected(), nil
}
