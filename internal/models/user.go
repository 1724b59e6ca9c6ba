package models

import (
	"time"

	"github.com/google/uuid"
)

// Role is the closed set of account roles. Feature gating switches on this
// exhaustively instead of comparing raw strings at call sites.
type Role string

const (
	RoleManager    Role = "manager"
	RoleWorker     Role = "worker"
	RoleSuperAdmin Role = "super-admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleManager, RoleWorker, RoleSuperAdmin:
		return true
	}
	return false
}

// UserStatus is the closed set of profile statuses. Workers start pending
// until their manager approves them.
type UserStatus string

const (
	StatusActive   UserStatus = "active"
	StatusPending  UserStatus = "pending"
	StatusRejected UserStatus = "rejected"
)

func (s UserStatus) Valid() bool {
	switch s {
	case StatusActive, StatusPending, StatusRejected:
		return true
	}
	return false
}

type User struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	CompanyID    string     `json:"company_id" db:"company_id"`
	Name         string     `json:"name" db:"name"`
	Email        string     `json:"email" db:"email"`
	PasswordHash string     `json:"-" db:"password_hash"` // Never serialize in JSON
	Role         Role       `json:"role" db:"role"`
	Status       UserStatus `json:"status" db:"status"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}
