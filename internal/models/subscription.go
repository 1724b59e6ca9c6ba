package models

import "time"

// Subscription is the single billing record for a company, upserted in place
// by company_id: at most one current row per tenant, never hard-deleted.
//
// IsActive together with a past EndDate means the subscription expired but
// has not been reconciled yet; the entitlement evaluator treats that as
// expired regardless of the stored flag.
type Subscription struct {
	CompanyID string     `json:"company_id" db:"company_id"`
	Plan      PlanType   `json:"plan" db:"plan"`
	IsActive  bool       `json:"is_active" db:"is_active"`
	StartDate time.Time  `json:"start_date" db:"start_date"`
	EndDate   *time.Time `json:"end_date" db:"end_date"` // nil means non-expiring (free tier)
	PayerName *string    `json:"payer_name" db:"payer_name"`
	PayerPhone *string   `json:"payer_phone" db:"payer_phone"`
	UnlockPIN *string    `json:"-" db:"unlock_pin"` // shared secret, admin-issued, never serialized
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
}
