package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"stockmaster/internal/caching"
	"stockmaster/internal/models"
	"stockmaster/internal/realtime"
	"stockmaster/internal/repositories"

	"github.com/google/uuid"
)

const sessionSnapshotTTL = 5 * time.Minute

// SessionSnapshot is the resolved user + company + entitlement triple held
// for the lifetime of a session. It is a plain serializable value: views
// receive it by reference and never reach past it into raw subscription
// fields.
type SessionSnapshot struct {
	User        *models.User    `json:"user"`
	Company     *models.Company `json:"company"`
	Entitlement Entitlement     `json:"entitlement"`
	ResolvedAt  time.Time       `json:"resolved_at"`
}

// SessionService resolves and refreshes tenant context. Overlapping
// refreshes for the same user collapse onto one in-flight resolution;
// the source of truth is the store, so last completion wins.
type SessionService interface {
	Resolve(ctx context.Context, userID uuid.UUID) (*SessionSnapshot, error)
	Refresh(ctx context.Context, userID uuid.UUID) (*SessionSnapshot, error)
	Invalidate(ctx context.Context, userID uuid.UUID)
	WatchCompany(companyID string) (<-chan realtime.Event, func())
}

type sessionService struct {
	userRepo         repositories.UserRepository
	companyRepo      repositories.CompanyRepository
	subscriptionRepo repositories.SubscriptionRepository
	evaluator        *EntitlementEvaluator
	cacheSvc         caching.CacheService
	feed             realtime.Feed

	mu       sync.Mutex
	inflight map[uuid.UUID]*resolveCall
}

type resolveCall struct {
	done chan struct{}
	snap *SessionSnapshot
	err  error
}

func NewSessionService(
	userRepo repositories.UserRepository,
	companyRepo repositories.CompanyRepository,
	subscriptionRepo repositories.SubscriptionRepository,
	evaluator *EntitlementEvaluator,
	cacheSvc caching.CacheService,
	feed realtime.Feed,
) SessionService {
	return &sessionService{
		userRepo:         userRepo,
		companyRepo:      companyRepo,
		subscriptionRepo: subscriptionRepo,
		evaluator:        evaluator,
		cacheSvc:         cacheSvc,
		feed:             feed,
		inflight:         make(map[uuid.UUID]*resolveCall),
	}
}

// Resolve returns the cached snapshot when fresh, resolving from the store
// otherwise.
func (s *sessionService) Resolve(ctx context.Context, userID uuid.UUID) (*SessionSnapshot, error) {
	var snap SessionSnapshot
	hit, err := s.cacheSvc.GetSessionSnapshot(ctx, userID.String(), &snap)
	if err != nil {
		log.Printf("WARN: session cache read failed for %s: %v", userID, err)
	}
	if hit {
		return &snap, nil
	}
	return s.Refresh(ctx, userID)
}

// Refresh re-resolves the full triple in one pass. Concurrent callers for
// the same user share a single resolution rather than racing to overwrite
// each other with staler reads.
func (s *sessionService) Refresh(ctx context.Context, userID uuid.UUID) (*SessionSnapshot, error) {
	s.mu.Lock()
	if call, ok := s.inflight[userID]; ok {
		s.mu.Unlock()
		select {
		case <-call.done:
			return call.snap, call.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	call := &resolveCall{done: make(chan struct{})}
	s.inflight[userID] = call
	s.mu.Unlock()

	call.snap, call.err = s.resolve(ctx, userID)
	close(call.done)

	s.mu.Lock()
	delete(s.inflight, userID)
	s.mu.Unlock()

	return call.snap, call.err
}

func (s *sessionService) resolve(ctx context.Context, userID uuid.UUID) (*SessionSnapshot, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve profile: %w", err)
	}

	// Super-admin profiles carry no tenant binding.
	var company *models.Company
	var sub *models.Subscription
	if user.CompanyID != "" {
		company, err = s.companyRepo.GetByID(ctx, user.CompanyID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve company: %w", err)
		}
		sub, err = s.subscriptionRepo.GetByCompany(ctx, user.CompanyID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve subscription: %w", err)
		}
	}

	snap := &SessionSnapshot{
		User:        user,
		Company:     company,
		Entitlement: s.evaluator.Evaluate(sub, time.Now()),
		ResolvedAt:  time.Now(),
	}

	if err := s.cacheSvc.SetSessionSnapshot(ctx, userID.String(), snap, sessionSnapshotTTL); err != nil {
		log.Printf("WARN: session cache write failed for %s: %v", userID, err)
	}
	return snap, nil
}

// Invalidate drops the cached snapshot, forcing the next Resolve to hit the
// store. Called after any action known to affect entitlement.
func (s *sessionService) Invalidate(ctx context.Context, userID uuid.UUID) {
	if err := s.cacheSvc.DeleteSessionSnapshot(ctx, userID.String()); err != nil {
		log.Printf("WARN: session cache delete failed for %s: %v", userID, err)
	}
}

// WatchCompany subscribes to the tenant's change feed. Every event drops
// the tenant's cached context and is forwarded to the returned channel for
// streaming to the client; a slow consumer loses events, not ordering. The
// returned teardown must run when the session ends so events for a stale
// tenant are ignored.
func (s *sessionService) WatchCompany(companyID string) (<-chan realtime.Event, func()) {
	ctx, cancel := context.WithCancel(context.Background())
	events, unsubscribe := s.feed.Subscribe(ctx, companyID,
		realtime.TableSubscriptions,
		realtime.TableProfiles,
		realtime.TableProducts,
		realtime.TableSales,
		realtime.TableSupport,
	)
	out := make(chan realtime.Event, 16)

	go func() {
		defer close(out)
		for event := range events {
			if err := s.cacheSvc.InvalidateCompany(ctx, companyID); err != nil {
				log.Printf("WARN: feed-triggered invalidation failed for %s: %v", companyID, err)
			}
			select {
			case out <- event:
			default:
			}
		}
	}()

	return out, func() {
		unsubscribe()
		cancel()
	}
}
