package models

import (
	"time"

	"github.com/google/uuid"
)

// LogType classifies activity log entries for display.
type LogType string

const (
	LogInfo    LogType = "info"
	LogWarning LogType = "warning"
	LogError   LogType = "error"
	LogSuccess LogType = "success"
)

// ActivityLog is one entry in the append-only per-tenant audit trail.
// Writes are fire-and-forget: a failed log insert never fails the
// operation that produced it.
type ActivityLog struct {
	ID        uuid.UUID `json:"id" db:"id"`
	CompanyID string    `json:"company_id" db:"company_id"`
	UserID    string    `json:"user_id" db:"user_id"`
	UserName  string    `json:"user_name" db:"user_name"`
	UserEmail string    `json:"user_email" db:"user_email"`
	Action    string    `json:"action" db:"action"`
	Details   string    `json:"details" db:"details"`
	Type      LogType   `json:"type" db:"type"`
	Timestamp time.Time `json:"timestamp" db:"timestamp"`
}
