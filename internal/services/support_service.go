package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"stockmaster/internal/models"
	"stockmaster/internal/realtime"
	"stockmaster/internal/repositories"

	"github.com/google/uuid"
)

// ErrReservedSubject rejects tickets that try to use the payment-claim
// subject outside the billing flow.
var ErrReservedSubject = errors.New("subject is reserved for payment claims")

type SupportService interface {
	OpenTicket(ctx context.Context, user *models.User, subject, message string) (*models.SupportTicket, error)
	ListForCompany(ctx context.Context, companyID string) ([]*models.SupportTicket, error)
	ListAll(ctx context.Context, limit, offset int) ([]*models.SupportTicket, error)
	ListOpenClaims(ctx context.Context) ([]*models.SupportTicket, error)
	Reply(ctx context.Context, adminName string, ticketID uuid.UUID, reply string) error
	Broadcast(ctx context.Context, companyID, subject, message string) error
}

type supportService struct {
	supportRepo  repositories.SupportRepository
	activityRepo repositories.ActivityLogsRepository
	feed         realtime.Feed
}

func NewSupportService(
	supportRepo repositories.SupportRepository,
	activityRepo repositories.ActivityLogsRepository,
	feed realtime.Feed,
) SupportService {
	return &supportService{
		supportRepo:  supportRepo,
		activityRepo: activityRepo,
		feed:         feed,
	}
}

// OpenTicket files an ordinary support conversation. The claim subject is
// reserved for the billing flow and rejected here.
func (s *supportService) OpenTicket(ctx context.Context, user *models.User, subject, message string) (*models.SupportTicket, error) {
	if subject == "" || message == "" {
		return nil, fmt.Errorf("subject and message are required")
	}
	if subject == models.ClaimSubject {
		return nil, ErrReservedSubject
	}

	ticket := &models.SupportTicket{
		ID:        uuid.New(),
		CompanyID: user.CompanyID,
		UserID:    user.ID.String(),
		UserName:  user.Name,
		Subject:   subject,
		Message:   message,
		Status:    models.TicketOpen,
	}
	if err := s.supportRepo.Create(ctx, ticket); err != nil {
		return nil, fmt.Errorf("failed to open ticket: %w", err)
	}
	s.feed.Publish(ctx, realtime.TableSupport, user.CompanyID, "insert")
	return ticket, nil
}

func (s *supportService) ListForCompany(ctx context.Context, companyID string) ([]*models.SupportTicket, error) {
	return s.supportRepo.ListByCompany(ctx, companyID)
}

func (s *supportService) ListAll(ctx context.Context, limit, offset int) ([]*models.SupportTicket, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.supportRepo.ListAll(ctx, limit, offset)
}

func (s *supportService) ListOpenClaims(ctx context.Context) ([]*models.SupportTicket, error) {
	return s.supportRepo.ListOpenClaims(ctx)
}

// Reply resolves a ticket with an admin answer and leaves an audit entry.
func (s *supportService) Reply(ctx context.Context, adminName string, ticketID uuid.UUID, reply string) error {
	if reply == "" {
		return fmt.Errorf("reply text is required")
	}

	ticket, err := s.supportRepo.GetByID(ctx, ticketID)
	if err != nil {
		return fmt.Errorf("failed to load ticket: %w", err)
	}

	if err := s.supportRepo.Resolve(ctx, ticketID, &reply); err != nil {
		return fmt.Errorf("failed to send reply: %w", err)
	}

	// Audit entry; best effort.
	if err := s.activityRepo.Create(ctx, &models.ActivityLog{
		CompanyID: ticket.CompanyID,
		UserID:    models.SystemUserID,
		UserName:  adminName,
		Action:    "Support Reply Sent",
		Details:   fmt.Sprintf("Replied to Ticket: %s", ticket.Subject),
		Type:      models.LogSuccess,
	}); err != nil {
		log.Printf("WARN: reply audit write failed for %s: %v", ticket.CompanyID, err)
	}

	s.feed.Publish(ctx, realtime.TableSupport, ticket.CompanyID, "update")
	return nil
}

// Broadcast dispatches a system message to one tenant.
func (s *supportService) Broadcast(ctx context.Context, companyID, subject, message string) error {
	if subject == "" || message == "" {
		return fmt.Errorf("subject and message are required")
	}

	ticket := &models.SupportTicket{
		ID:        uuid.New(),
		CompanyID: companyID,
		UserID:    models.SystemUserID,
		UserName:  "SYSTEM ADMIN",
		Subject:   subject,
		Message:   message,
		Status:    models.TicketOpen,
	}
	if err := s.supportRepo.Create(ctx, ticket); err != nil {
		return fmt.Errorf("failed to dispatch system message: %w", err)
	}
	s.feed.Publish(ctx, realtime.TableSupport, companyID, "insert")
	return nil
}
