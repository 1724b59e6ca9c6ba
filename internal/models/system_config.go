package models

import "time"

// SystemConfig is one key/value row of runtime business configuration:
// plan prices, the mobile-money merchant number, and the USSD dial prefix.
// Behavioral state never lives here.
type SystemConfig struct {
	Key       string    `json:"key" db:"key"`
	Value     string    `json:"value" db:"value"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Known configuration keys.
const (
	ConfigPriceGrowthMonthly = "price_growth_monthly"
	ConfigPriceGrowthYearly  = "price_growth_yearly"
	ConfigPriceProMonthly    = "price_pro_monthly"
	ConfigPriceProYearly     = "price_pro_yearly"
	ConfigMomoNumber         = "momo_number"
	ConfigManualUSSDCode     = "manual_ussd_code"
)

// PricingConfig is the resolved pricing view served to clients, with the
// defaults applied for any key missing from system_configs.
type PricingConfig struct {
	GrowthMonthly string `json:"growth_monthly"`
	GrowthYearly  string `json:"growth_yearly"`
	ProMonthly    string `json:"pro_monthly"`
	ProYearly     string `json:"pro_yearly"`
	MomoNumber    string `json:"momo_number"`
	USSDCode      string `json:"ussd_code"`
}

// DefaultPricing mirrors the values seeded at first deployment.
func DefaultPricing() PricingConfig {
	return PricingConfig{
		GrowthMonthly: "6000",
		GrowthYearly:  "54000",
		ProMonthly:    "10000",
		ProYearly:     "108000",
		MomoNumber:    "0795009861",
		USSDCode:      "*182*8*1*",
	}
}

// DialString renders the full manually dialed USSD push string.
func (p PricingConfig) DialString() string {
	return p.USSDCode + p.MomoNumber + "#"
}
