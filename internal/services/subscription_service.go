package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"stockmaster/internal/caching"
	"stockmaster/internal/models"
	"stockmaster/internal/realtime"
	"stockmaster/internal/repositories"

	"github.com/google/uuid"
)

// Sentinel outcomes of the lifecycle operations. A PIN mismatch is an
// expected negative outcome, not a remote failure: callers surface it
// inline and nothing is mutated or locked out.
var (
	ErrInvalidPIN    = errors.New("invalid unlock PIN")
	ErrInvalidPlan   = errors.New("invalid plan selection")
	ErrNotAClaim     = errors.New("ticket is not a payment claim")
	ErrClaimResolved = errors.New("payment claim already resolved")
)

// SubscriptionService is the lifecycle controller for a tenant's
// subscription: plan selection, payment-claim submission, admin
// approval/denial, PIN self-service override and license adjustment.
type SubscriptionService interface {
	StartFree(ctx context.Context, user *models.User) error
	SubmitClaim(ctx context.Context, user *models.User, companyName string, plan models.PlanType, cycle models.BillingCycle, payerPhone string) error
	ApproveClaim(ctx context.Context, ticketID uuid.UUID) error
	DenyClaim(ctx context.Context, ticketID uuid.UUID, reply string) error
	VerifyPIN(ctx context.Context, user *models.User, pin string) error
	AdjustLicense(ctx context.Context, companyID string, plan models.PlanType, duration string, pin *string) error
	Status(ctx context.Context, companyID string) (*models.Subscription, Entitlement, error)
}

type subscriptionService struct {
	subscriptionRepo repositories.SubscriptionRepository
	userRepo         repositories.UserRepository
	supportRepo      repositories.SupportRepository
	activityRepo     repositories.ActivityLogsRepository
	evaluator        *EntitlementEvaluator
	cacheSvc         caching.CacheService
	feed             realtime.Feed
}

func NewSubscriptionService(
	subscriptionRepo repositories.SubscriptionRepository,
	userRepo repositories.UserRepository,
	supportRepo repositories.SupportRepository,
	activityRepo repositories.ActivityLogsRepository,
	evaluator *EntitlementEvaluator,
	cacheSvc caching.CacheService,
	feed realtime.Feed,
) SubscriptionService {
	return &subscriptionService{
		subscriptionRepo: subscriptionRepo,
		userRepo:         userRepo,
		supportRepo:      supportRepo,
		activityRepo:     activityRepo,
		evaluator:        evaluator,
		cacheSvc:         cacheSvc,
		feed:             feed,
	}
}

// StartFree moves the tenant onto the non-expiring free tier and reactivates
// the manager profile.
func (s *subscriptionService) StartFree(ctx context.Context, user *models.User) error {
	sub := &models.Subscription{
		CompanyID: user.CompanyID,
		Plan:      models.PlanFree,
		IsActive:  true,
		EndDate:   nil,
	}
	if err := s.subscriptionRepo.Upsert(ctx, sub); err != nil {
		return fmt.Errorf("failed to start free plan: %w", err)
	}
	if err := s.userRepo.SetManagersActive(ctx, user.CompanyID); err != nil {
		return fmt.Errorf("failed to reactivate manager profile: %w", err)
	}
	s.afterLifecycleWrite(ctx, user.CompanyID)
	return nil
}

// SubmitClaim records the payment intent: the subscription row is upserted
// inactive with the payer details, and an open PAYMENT CLAIM ticket is filed
// for manual reconciliation. Resubmitting collapses onto the same row, so a
// double plan selection never yields two subscriptions.
func (s *subscriptionService) SubmitClaim(ctx context.Context, user *models.User, companyName string, plan models.PlanType, cycle models.BillingCycle, payerPhone string) error {
	if !plan.Paid() {
		return ErrInvalidPlan
	}
	if !cycle.Valid() {
		return fmt.Errorf("invalid billing cycle %q", cycle)
	}

	sub := &models.Subscription{
		CompanyID:  user.CompanyID,
		Plan:       plan,
		IsActive:   false,
		PayerName:  &user.Name,
		PayerPhone: &payerPhone,
	}
	if err := s.subscriptionRepo.Upsert(ctx, sub); err != nil {
		return fmt.Errorf("failed to record subscription intent: %w", err)
	}

	ticket := &models.SupportTicket{
		ID:        uuid.New(),
		CompanyID: user.CompanyID,
		UserID:    user.ID.String(),
		UserName:  user.Name,
		Subject:   models.ClaimSubject,
		Message:   fmt.Sprintf("%s Plan Activation (%s) for %s via %s", strings.ToUpper(string(plan)), cycle, companyName, payerPhone),
		Status:    models.TicketOpen,
	}
	if err := s.supportRepo.Create(ctx, ticket); err != nil {
		return fmt.Errorf("failed to file payment claim: %w", err)
	}

	s.feed.Publish(ctx, realtime.TableSubscriptions, user.CompanyID, "update")
	s.feed.Publish(ctx, realtime.TableSupport, user.CompanyID, "insert")
	return nil
}

// ApproveClaim resolves the claim ticket and activates the subscription.
// Approval and PIN override share the activation path so the two triggers
// can never drift apart.
func (s *subscriptionService) ApproveClaim(ctx context.Context, ticketID uuid.UUID) error {
	ticket, err := s.supportRepo.GetByID(ctx, ticketID)
	if err != nil {
		return fmt.Errorf("failed to load claim: %w", err)
	}
	if !ticket.IsClaim() {
		return ErrNotAClaim
	}
	if ticket.Status != models.TicketOpen {
		return ErrClaimResolved
	}

	if err := s.supportRepo.Resolve(ctx, ticket.ID, nil); err != nil {
		return fmt.Errorf("failed to resolve claim: %w", err)
	}
	return s.activateSubscription(ctx, ticket.CompanyID)
}

// DenyClaim resolves the ticket with a denial reply. The subscription row is
// left untouched: the tenant stays inactive on the selected plan until they
// retry or fall back to free.
func (s *subscriptionService) DenyClaim(ctx context.Context, ticketID uuid.UUID, reply string) error {
	ticket, err := s.supportRepo.GetByID(ctx, ticketID)
	if err != nil {
		return fmt.Errorf("failed to load claim: %w", err)
	}
	if !ticket.IsClaim() {
		return ErrNotAClaim
	}
	if ticket.Status != models.TicketOpen {
		return ErrClaimResolved
	}

	if reply == "" {
		reply = "Payment claim denied. Please verify your transaction details."
	}
	if err := s.supportRepo.Resolve(ctx, ticket.ID, &reply); err != nil {
		return fmt.Errorf("failed to deny claim: %w", err)
	}
	s.feed.Publish(ctx, realtime.TableSupport, ticket.CompanyID, "update")
	return nil
}

// VerifyPIN performs the self-service override. A wrong PIN changes nothing:
// no mutation, no retry budget, no lockout.
func (s *subscriptionService) VerifyPIN(ctx context.Context, user *models.User, pin string) error {
	sub, err := s.subscriptionRepo.GetByCompany(ctx, user.CompanyID)
	if err != nil {
		return fmt.Errorf("failed to load subscription: %w", err)
	}
	if sub == nil || sub.UnlockPIN == nil || *sub.UnlockPIN != pin {
		return ErrInvalidPIN
	}

	if err := s.activateSubscription(ctx, user.CompanyID); err != nil {
		return err
	}

	// Security-override audit entry; best effort.
	s.logActivity(ctx, &models.ActivityLog{
		CompanyID: user.CompanyID,
		UserID:    user.ID.String(),
		UserName:  user.Name,
		UserEmail: user.Email,
		Action:    "PIN Security Override",
		Details:   "System unlocked via Master PIN entry.",
		Type:      models.LogSuccess,
	})
	return nil
}

// AdjustLicense is the super-admin manual override: set a plan, an explicit
// duration and optionally the unlock PIN in one write.
func (s *subscriptionService) AdjustLicense(ctx context.Context, companyID string, plan models.PlanType, duration string, pin *string) error {
	if !plan.Valid() {
		return ErrInvalidPlan
	}

	var endDate *time.Time
	if plan != models.PlanFree {
		d := time.Now()
		switch duration {
		case "1mo":
			d = d.AddDate(0, 1, 0)
		case "6mos":
			d = d.AddDate(0, 6, 0)
		case "1yr":
			d = d.AddDate(1, 0, 0)
		default:
			return fmt.Errorf("invalid duration %q", duration)
		}
		endDate = &d
	}

	sub := &models.Subscription{
		CompanyID: companyID,
		Plan:      plan,
		IsActive:  true,
		EndDate:   endDate,
		UnlockPIN: pin,
	}
	if err := s.subscriptionRepo.Upsert(ctx, sub); err != nil {
		return fmt.Errorf("failed to adjust license: %w", err)
	}
	s.afterLifecycleWrite(ctx, companyID)
	return nil
}

// Status returns the raw row plus the derived entitlement; the pending-claim
// poll endpoint reads this to detect asynchronous approval.
func (s *subscriptionService) Status(ctx context.Context, companyID string) (*models.Subscription, Entitlement, error) {
	sub, err := s.subscriptionRepo.GetByCompany(ctx, companyID)
	if err != nil {
		return nil, Entitlement{}, fmt.Errorf("failed to load subscription: %w", err)
	}
	return sub, s.evaluator.Evaluate(sub, time.Now()), nil
}

// activateSubscription is the one shared activation write. The grant is a
// fixed calendar month regardless of the billing duration claimed, matching
// the manual reconciliation process as operated today.
func (s *subscriptionService) activateSubscription(ctx context.Context, companyID string) error {
	sub, err := s.subscriptionRepo.GetByCompany(ctx, companyID)
	if err != nil {
		return fmt.Errorf("failed to load subscription: %w", err)
	}

	plan := models.PlanGrowth
	if sub != nil && sub.Plan.Paid() {
		plan = sub.Plan
	}

	endDate := time.Now().AddDate(0, 1, 0)
	if err := s.subscriptionRepo.Activate(ctx, companyID, plan, &endDate); err != nil {
		return fmt.Errorf("failed to activate subscription: %w", err)
	}
	if err := s.userRepo.SetManagersActive(ctx, companyID); err != nil {
		return fmt.Errorf("failed to reactivate manager profiles: %w", err)
	}

	s.afterLifecycleWrite(ctx, companyID)
	return nil
}

// afterLifecycleWrite drops stale cached snapshots and notifies listeners.
// Both are auxiliary: failures are logged, never propagated.
func (s *subscriptionService) afterLifecycleWrite(ctx context.Context, companyID string) {
	if err := s.cacheSvc.InvalidateCompany(ctx, companyID); err != nil {
		log.Printf("WARN: cache invalidation failed for %s: %v", companyID, err)
	}
	s.feed.Publish(ctx, realtime.TableSubscriptions, companyID, "update")
	s.feed.Publish(ctx, realtime.TableProfiles, companyID, "update")
}

func (s *subscriptionService) logActivity(ctx context.Context, entry *models.ActivityLog) {
	if err := s.activityRepo.Create(ctx, entry); err != nil {
		log.Printf("WARN: activity log write failed for %s: %v", entry.CompanyID, err)
	}
}
