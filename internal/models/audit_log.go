package models

import (
	"time"

	"github.com/google/uuid"
)

// Failure reasons recorded on login audit rows
const (
	AuditReasonInvalidPassword = "invalid_password"
)

// AuditLog is one login outcome row in login_audit_log
type AuditLog struct {
	ID            uuid.UUID `db:"id"`
	UserID        *string   `db:"user_id"`
	Email         string    `db:"email"`
	IPAddress     string    `db:"ip_address"`
	Success       bool      `db:"success"`
	FailureReason *string   `db:"failure_reason"`
	CreatedAt     time.Time `db:"timestamp"`
}
