package models

import (
	"time"

	"github.com/google/uuid"
)

// ClaimSubject is the reserved subject marking a support ticket as a
// billing payment claim. Tickets with any other subject are ordinary
// support conversations.
const ClaimSubject = "PAYMENT CLAIM"

// SystemUserID is the synthetic author of admin broadcast messages.
const SystemUserID = "SYSTEM"

// TicketStatus is the closed set of ticket states.
type TicketStatus string

const (
	TicketOpen     TicketStatus = "open"
	TicketResolved TicketStatus = "resolved"
)

type SupportTicket struct {
	ID         uuid.UUID    `json:"id" db:"id"`
	CompanyID  string       `json:"company_id" db:"company_id"`
	UserID     string       `json:"user_id" db:"user_id"` // profile UUID, or SystemUserID for broadcasts
	UserName   string       `json:"user_name" db:"user_name"`
	Subject    string       `json:"subject" db:"subject"`
	Message    string       `json:"message" db:"message"`
	Status     TicketStatus `json:"status" db:"status"`
	AdminReply *string      `json:"admin_reply" db:"admin_reply"`
	CreatedAt  time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at" db:"updated_at"`
}

// IsClaim reports whether the ticket is a billing payment claim.
func (t *SupportTicket) IsClaim() bool {
	return t.Subject == ClaimSubject
}
