package repositories

import (
	"context"

	"stockmaster/internal/models"

	"github.com/google/uuid"
)

type SupportRepository interface {
	Create(ctx context.Context, ticket *models.SupportTicket) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.SupportTicket, error)
	ListByCompany(ctx context.Context, companyID string) ([]*models.SupportTicket, error)
	ListAll(ctx context.Context, limit, offset int) ([]*models.SupportTicket, error)
	ListOpenClaims(ctx context.Context) ([]*models.SupportTicket, error)
	Resolve(ctx context.Context, id uuid.UUID, adminReply *string) error
}

type supportRepo struct {
	db DB
}

func NewSupportRepo(db DB) SupportRepository {
	return &supportRepo{db: db}
}

const ticketColumns = `id, company_id, user_id, user_name, subject, message, status, admin_reply, created_at, updated_at`

func (r *supportRepo) Create(ctx context.Context, ticket *models.SupportTicket) error {
	query := `
		INSERT INTO support_messages (id, company_id, user_id, user_name, subject, message, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, ticket.ID, ticket.CompanyID, ticket.UserID, ticket.UserName, ticket.Subject, ticket.Message, ticket.Status)
	return err
}

func (r *supportRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.SupportTicket, error) {
	ticket := &models.SupportTicket{}
	query := `
		SELECT ` + ticketColumns + `
		FROM support_messages
		WHERE id = $1
	`
	err := r.db.QueryRow(ctx, query, id).Scan(&ticket.ID, &ticket.CompanyID, &ticket.UserID, &ticket.UserName, &ticket.Subject, &ticket.Message, &ticket.Status, &ticket.AdminReply, &ticket.CreatedAt, &ticket.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return ticket, nil
}

func (r *supportRepo) ListByCompany(ctx context.Context, companyID string) ([]*models.SupportTicket, error) {
	query := `
		SELECT ` + ticketColumns + `
		FROM support_messages
		WHERE company_id = $1
		ORDER BY created_at DESC
	`
	return r.scanList(ctx, query, companyID)
}

func (r *supportRepo) ListAll(ctx context.Context, limit, offset int) ([]*models.SupportTicket, error) {
	query := `
		SELECT ` + ticketColumns + `
		FROM support_messages
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`
	return r.scanList(ctx, query, limit, offset)
}

// ListOpenClaims returns unresolved payment claims newest first. The data
// model permits several open claims per tenant; the newest one is the one
// that matters for reconciliation.
func (r *supportRepo) ListOpenClaims(ctx context.Context) ([]*models.SupportTicket, error) {
	query := `
		SELECT ` + ticketColumns + `
		FROM support_messages
		WHERE subject = $1 AND status = $2
		ORDER BY created_at DESC
	`
	return r.scanList(ctx, query, models.ClaimSubject, models.TicketOpen)
}

// Resolve closes a ticket, optionally attaching an admin reply (denials and
// support answers carry one, claim approvals do not).
func (r *supportRepo) Resolve(ctx context.Context, id uuid.UUID, adminReply *string) error {
	query := `
		UPDATE support_messages
		SET status = $1, admin_reply = COALESCE($2, admin_reply), updated_at = NOW()
		WHERE id = $3
	`
	_, err := r.db.Exec(ctx, query, models.TicketResolved, adminReply, id)
	return err
}

func (r *supportRepo) scanList(ctx context.Context, query string, args ...interface{}) ([]*models.SupportTicket, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tickets []*models.SupportTicket
	for rows.Next() {
		ticket := &models.SupportTicket{}
		if err := rows.Scan(&ticket.ID, &ticket.CompanyID, &ticket.UserID, &ticket.UserName, &ticket.Subject, &ticket.Message, &ticket.Status, &ticket.AdminReply, &ticket.CreatedAt, &ticket.UpdatedAt); err != nil {
			return nil, err
		}
		tickets = append(tickets, ticket)
	}
	return tickets, rows.Err()
}
