package models

import "time"

// Company is one registered shop, the unit of data isolation and billing.
// The ID is a human-shareable short code (SM-XXXXXX) generated at
// registration; workers join by quoting it. It never changes.
type Company struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Currency  string    `json:"currency" db:"currency"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// CompanyWithSubscription is one admin-console tenant row: the shop joined
// with its subscription, nil when the tenant sits on the implicit free tier.
type CompanyWithSubscription struct {
	Company      *Company      `json:"company"`
	Subscription *Subscription `json:"subscription"`
}

// Supported currency codes for shop pricing display.
const (
	CurrencyRWF = "RWF"
	CurrencyUGX = "UGX"
	CurrencyKES = "KES"
	CurrencyUSD = "USD"
	CurrencyEUR = "EUR"
)

// ValidCurrency reports whether code is one of the supported currencies.
func ValidCurrency(code string) bool {
	switch code {
	case CurrencyRWF, CurrencyUGX, CurrencyKES, CurrencyUSD, CurrencyEUR:
		return true
	}
	return false
}
