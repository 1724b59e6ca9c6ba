package repositories

import (
	"context"
	"errors"
	"time"

	"stockmaster/internal/models"

	"github.com/jackc/pgx/v5"
)

type SubscriptionRepository interface {
	GetByCompany(ctx context.Context, companyID string) (*models.Subscription, error)
	Upsert(ctx context.Context, sub *models.Subscription) error
	Activate(ctx context.Context, companyID string, plan models.PlanType, endDate *time.Time) error
	SetUnlockPIN(ctx context.Context, companyID string, pin *string) error
	ListPendingClaims(ctx context.Context) ([]*models.Subscription, error)
	ListExpired(ctx context.Context, now time.Time) ([]*models.Subscription, error)
}

type subscriptionRepo struct {
	db DB
}

func NewSubscriptionRepo(db DB) SubscriptionRepository {
	return &subscriptionRepo{db: db}
}

// GetByCompany returns nil, nil when the tenant has no subscription row yet
// (implicit free tier).
func (r *subscriptionRepo) GetByCompany(ctx context.Context, companyID string) (*models.Subscription, error) {
	sub := &models.Subscription{}
	query := `
		SELECT company_id, plan, is_active, start_date, end_date, payer_name, payer_phone, unlock_pin, updated_at
		FROM subscriptions
		WHERE company_id = $1
	`
	err := r.db.QueryRow(ctx, query, companyID).Scan(&sub.CompanyID, &sub.Plan, &sub.IsActive, &sub.StartDate, &sub.EndDate, &sub.PayerName, &sub.PayerPhone, &sub.UnlockPIN, &sub.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// Upsert writes the tenant's single subscription row in place. The conflict
// target is company_id, which collapses repeated plan selections into one
// row and gives last-write-wins semantics on the shared record.
func (r *subscriptionRepo) Upsert(ctx context.Context, sub *models.Subscription) error {
	query := `
		INSERT INTO subscriptions (company_id, plan, is_active, start_date, end_date, payer_name, payer_phone, unlock_pin, updated_at)
		VALUES ($1, $2, $3, NOW(), $4, $5, $6, $7, NOW())
		ON CONFLICT (company_id) DO UPDATE SET
			plan = EXCLUDED.plan,
			is_active = EXCLUDED.is_active,
			end_date = EXCLUDED.end_date,
			payer_name = COALESCE(EXCLUDED.payer_name, subscriptions.payer_name),
			payer_phone = COALESCE(EXCLUDED.payer_phone, subscriptions.payer_phone),
			unlock_pin = COALESCE(EXCLUDED.unlock_pin, subscriptions.unlock_pin),
			updated_at = NOW()
	`
	_, err := r.db.Exec(ctx, query, sub.CompanyID, sub.Plan, sub.IsActive, sub.EndDate, sub.PayerName, sub.PayerPhone, sub.UnlockPIN)
	return err
}

// Activate is the single write shared by admin approval, PIN override and
// license adjustment.
func (r *subscriptionRepo) Activate(ctx context.Context, companyID string, plan models.PlanType, endDate *time.Time) error {
	query := `
		INSERT INTO subscriptions (company_id, plan, is_active, start_date, end_date, updated_at)
		VALUES ($1, $2, TRUE, NOW(), $3, NOW())
		ON CONFLICT (company_id) DO UPDATE SET
			plan = EXCLUDED.plan,
			is_active = TRUE,
			end_date = EXCLUDED.end_date,
			updated_at = NOW()
	`
	_, err := r.db.Exec(ctx, query, companyID, plan, endDate)
	return err
}

func (r *subscriptionRepo) SetUnlockPIN(ctx context.Context, companyID string, pin *string) error {
	query := `
		UPDATE subscriptions
		SET unlock_pin = $1, updated_at = NOW()
		WHERE company_id = $2
	`
	_, err := r.db.Exec(ctx, query, pin, companyID)
	return err
}

// ListPendingClaims returns subscription rows awaiting reconciliation
// (paid plan selected, not yet activated).
func (r *subscriptionRepo) ListPendingClaims(ctx context.Context) ([]*models.Subscription, error) {
	query := `
		SELECT company_id, plan, is_active, start_date, end_date, payer_name, payer_phone, unlock_pin, updated_at
		FROM subscriptions
		WHERE is_active = FALSE AND plan != 'free'
		ORDER BY updated_at DESC
	`
	return r.scanList(ctx, query)
}

// ListExpired returns active rows whose end_date has passed, the
// expired-but-not-yet-reconciled set.
func (r *subscriptionRepo) ListExpired(ctx context.Context, now time.Time) ([]*models.Subscription, error) {
	query := `
		SELECT company_id, plan, is_active, start_date, end_date, payer_name, payer_phone, unlock_pin, updated_at
		FROM subscriptions
		WHERE is_active = TRUE AND plan != 'free' AND end_date IS NOT NULL AND end_date < $1
		ORDER BY end_date ASC
	`
	return r.scanList(ctx, query, now)
}

func (r *subscriptionRepo) scanList(ctx context.Context, query string, args ...interface{}) ([]*models.Subscription, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []*models.Subscription
	for rows.Next() {
		sub := &models.Subscription{}
		if err := rows.Scan(&sub.CompanyID, &sub.Plan, &sub.IsActive, &sub.StartDate, &sub.EndDate, &sub.PayerName, &sub.PayerPhone, &sub.UnlockPIN, &sub.UpdatedAt); err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}
