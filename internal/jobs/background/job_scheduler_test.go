package background

import (
	"context"
	"testing"
	"time"

	"stockmaster/internal/models"
	"stockmaster/internal/realtime"

	"github.com/stretchr/testify/assert"
)

type stubSubscriptionRepo struct{}

func (s *stubSubscriptionRepo) GetByCompany(ctx context.Context, companyID string) (*models.Subscription, error) {
	return nil, nil
}
func (s *stubSubscriptionRepo) Upsert(ctx context.Context, sub *models.Subscription) error { return nil }
func (s *stubSubscriptionRepo) Activate(ctx context.Context, companyID string, plan models.PlanType, endDate *time.Time) error {
	return nil
}
func (s *stubSubscriptionRepo) SetUnlockPIN(ctx context.Context, companyID string, pin *string) error {
	return nil
}
func (s *stubSubscriptionRepo) ListPendingClaims(ctx context.Context) ([]*models.Subscription, error) {
	return nil, nil
}
func (s *stubSubscriptionRepo) ListExpired(ctx context.Context, now time.Time) ([]*models.Subscription, error) {
	return nil, nil
}

type stubActivityRepo struct{}

func (s *stubActivityRepo) Create(ctx context.Context, entry *models.ActivityLog) error { return nil }
func (s *stubActivityRepo) ListByCompany(ctx context.Context, companyID string, limit int) ([]*models.ActivityLog, error) {
	return nil, nil
}
func (s *stubActivityRepo) TrimOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

type stubCache struct{}

func (s *stubCache) GetPricing(ctx context.Context) (*models.PricingConfig, error) { return nil, nil }
func (s *stubCache) SetPricing(ctx context.Context, pricing *models.PricingConfig, ttl time.Duration) error {
	return nil
}
func (s *stubCache) InvalidatePricing(ctx context.Context) error { return nil }
func (s *stubCache) GetSessionSnapshot(ctx context.Context, userID string, dst interface{}) (bool, error) {
	return false, nil
}
func (s *stubCache) SetSessionSnapshot(ctx context.Context, userID string, snapshot interface{}, ttl time.Duration) error {
	return nil
}
func (s *stubCache) DeleteSessionSnapshot(ctx context.Context, userID string) error { return nil }
func (s *stubCache) InvalidateCompany(ctx context.Context, companyID string) error  { return nil }
func (s *stubCache) SetString(ctx context.Context, key string, value string, ttl time.Duration) error {
	return nil
}
func (s *stubCache) GetString(ctx context.Context, key string) (string, error) { return "", nil }
func (s *stubCache) Delete(ctx context.Context, key string) error              { return nil }

type stubFeed struct{}

func (s *stubFeed) Publish(ctx context.Context, table, companyID, action string) {}
func (s *stubFeed) Subscribe(ctx context.Context, companyID string, tables ...string) (<-chan realtime.Event, func()) {
	ch := make(chan realtime.Event)
	return ch, func() { close(ch) }
}

// All three maintenance jobs register under their names; Stop shuts the
// scheduler down cleanly before any job has run.
func TestNewJobScheduler_RegistersMaintenanceJobs(t *testing.T) {
	js := NewJobScheduler(&stubSubscriptionRepo{}, &stubActivityRepo{}, &stubCache{}, &stubFeed{})

	names := make([]string, 0, len(js.jobs))
	for _, job := range js.jobs {
		names = append(names, job.Name())
	}
	assert.ElementsMatch(t, []string{
		"subscription-expiry-sweep",
		"pending-claim-nudge",
		"activity-log-trim",
	}, names)

	assert.NoError(t, js.Stop())
}
