package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/denimhub/dashboard/internal/metrics"
	"github.com/denimhub/dashboard/internal/models"
	pkglogger "github.com/denimhub/dashboard/pkg/logger"
)

// AuditLogRepository persists login audit rows
type AuditLogRepository interface {
	Create(ctx context.Context, log *models.AuditLog) error
}

// LoginAuditEntry describes one login outcome to record
type LoginAuditEntry struct {
	UserID        string
	Email         string
	IPAddress     string
	UserAgent     string
	Success       bool
	FailureReason string
}

// AuditService records login outcomes with a dual write: a structured log line
// and a database row. The database write is best-effort; its failures are logged
// and counted but never returned.
type AuditService struct {
	repo        AuditLogRepository
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
	metrics     *metrics.Metrics
}

// NewAuditService creates a new AuditService
func NewAuditService(repo AuditLogRepository, logger *slog.Logger, auditLogger *pkglogger.AuditLogger, m *metrics.Metrics) *AuditService {
	return &AuditService{
		repo:        repo,
		logger:      logger,
		auditLogger: auditLogger,
		metrics:     m,
	}
}

// RecordLogin writes entry to the audit log
func (s *AuditService) RecordLogin(ctx context.Context, entry LoginAuditEntry) {
	eventType := pkglogger.EventLoginSuccess
	if !entry.Success {
		eventType = pkglogger.EventLoginFailure
	}

	if s.auditLogger != nil {
		s.auditLogger.LogLoginAttempt(ctx, pkglogger.LoginEvent{
			EventType:     eventType,
			UserID:        entry.UserID,
			Email:         entry.Email,
			IPAddress:     entry.IPAddress,
			UserAgent:     entry.UserAgent,
			Success:       entry.Success,
			FailureReason: entry.FailureReason,
		})
	}

	row := &models.AuditLog{
		Email:     entry.Email,
		IPAddress: entry.IPAddress,
		Success:   entry.Success,
	}
	if entry.UserID != "" {
		userID := entry.UserID
		row.UserID = &userID
	}
	if entry.FailureReason != "" {
		reason := entry.FailureReason
		row.FailureReason = &reason
	}

	if err := s.repo.Create(ctx, row); err != nil {
		err = fmt.Errorf("%w: %w", models.ErrAuditWriteFailed, err)
		s.logger.ErrorContext(ctx, "failed to persist login audit log",
			slog.String("event_type", eventType),
			slog.Any("error", err),
		)
		s.metrics.IncAuditWriteFailure()
	}
}
