package services

import (
	"time"

	"stockmaster/internal/models"
)

// Entitlement is the derived, never-persisted view of what a tenant may do
// right now. Presentation and gating logic read this and only this; raw
// subscription fields stay behind the evaluator.
type Entitlement struct {
	EffectivePlan   models.PlanType   `json:"effective_plan"`
	ActualPlan      models.PlanType   `json:"actual_plan"`
	IsExpired       bool              `json:"is_expired"`
	RenewalDeadline *time.Time        `json:"renewal_deadline,omitempty"`
	Limits          models.PlanLimits `json:"limits"`
}

// DefaultPlanLimits is the production feature-gate table.
func DefaultPlanLimits() map[models.PlanType]models.PlanLimits {
	return map[models.PlanType]models.PlanLimits{
		models.PlanFree: {
			MaxProducts:   50,
			MaxWorkers:    1,
			ReportsAccess: false,
			PDFExports:    false,
		},
		models.PlanGrowth: {
			MaxProducts:   500,
			MaxWorkers:    5,
			ReportsAccess: true,
			PDFExports:    false,
		},
		models.PlanPro: {
			MaxProducts:   0, // unlimited
			MaxWorkers:    0, // unlimited
			ReportsAccess: true,
			PDFExports:    true,
		},
	}
}

// EntitlementEvaluator computes effective entitlements from a subscription
// record and a timestamp. It holds only static limit configuration, so
// Evaluate is a pure, deterministic function of its arguments.
type EntitlementEvaluator struct {
	limits map[models.PlanType]models.PlanLimits
}

func NewEntitlementEvaluator(limits map[models.PlanType]models.PlanLimits) *EntitlementEvaluator {
	if limits == nil {
		limits = DefaultPlanLimits()
	}
	return &EntitlementEvaluator{limits: limits}
}

// Evaluate derives the tenant's entitlement. A nil subscription means the
// implicit free tier. A stale is_active flag never grants access: a past
// end_date on a paid plan forces the effective plan down to free even when
// the stored row still says active.
func (e *EntitlementEvaluator) Evaluate(sub *models.Subscription, now time.Time) Entitlement {
	actual := models.PlanFree
	if sub != nil && sub.Plan.Valid() {
		actual = sub.Plan
	}

	expired := actual != models.PlanFree &&
		sub != nil && sub.EndDate != nil && sub.EndDate.Before(now)

	effective := models.PlanFree
	if sub != nil && sub.IsActive && !expired {
		effective = actual
	}

	var deadline *time.Time
	if sub != nil && sub.EndDate != nil && actual != models.PlanFree {
		d := *sub.EndDate
		deadline = &d
	}

	return Entitlement{
		EffectivePlan:   effective,
		ActualPlan:      actual,
		IsExpired:       expired,
		RenewalDeadline: deadline,
		Limits:          e.limits[effective],
	}
}
