package models

// PlanType is the closed set of subscription tiers.
type PlanType string

const (
	PlanFree   PlanType = "free"
	PlanGrowth PlanType = "growth"
	PlanPro    PlanType = "pro"
)

// Valid reports whether the plan is one of the known tiers.
func (p PlanType) Valid() bool {
	switch p {
	case PlanFree, PlanGrowth, PlanPro:
		return true
	}
	return false
}

// Paid reports whether the plan requires payment.
func (p PlanType) Paid() bool {
	return p == PlanGrowth || p == PlanPro
}

// BillingCycle is the billing duration selected at checkout.
type BillingCycle string

const (
	CycleMonthly BillingCycle = "monthly"
	CycleYearly  BillingCycle = "yearly"
)

func (b BillingCycle) Valid() bool {
	return b == CycleMonthly || b == CycleYearly
}

// PlanLimits holds the feature gates for one tier. Values are static
// configuration injected into the entitlement layer, not computed state.
type PlanLimits struct {
	MaxProducts   int  `json:"max_products"` // 0 means unlimited
	MaxWorkers    int  `json:"max_workers"`  // 0 means unlimited
	ReportsAccess bool `json:"reports_access"`
	PDFExports    bool `json:"pdf_exports"`
}

// UnlimitedProducts reports whether the product cap is disabled.
func (l PlanLimits) UnlimitedProducts() bool { return l.MaxProducts == 0 }
