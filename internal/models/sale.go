package models

import (
	"time"

	"github.com/google/uuid"
)

type Sale struct {
	ID          uuid.UUID `json:"id" db:"id"`
	CompanyID   string    `json:"company_id" db:"company_id"`
	ProductID   uuid.UUID `json:"product_id" db:"product_id"`
	ProductName string    `json:"product_name" db:"product_name"`
	Quantity    int       `json:"quantity" db:"quantity"`
	UnitPrice   float64   `json:"unit_price" db:"unit_price"`
	TotalAmount float64   `json:"total_amount" db:"total_amount"`
	SellerID    uuid.UUID `json:"seller_id" db:"seller_id"`
	SellerName  string    `json:"seller_name" db:"seller_name"`
	Timestamp   time.Time `json:"timestamp" db:"timestamp"`
}

// SalesSummary aggregates sales over a reporting period.
type SalesSummary struct {
	CompanyID   string       `json:"company_id"`
	PeriodStart time.Time    `json:"period_start"`
	PeriodEnd   time.Time    `json:"period_end"`
	TotalSales  int          `json:"total_sales"`
	Revenue     float64      `json:"revenue"`
	Profit      float64      `json:"profit"`
	TopProducts []TopProduct `json:"top_products"`
}

// TopProduct is one entry in the best-sellers breakdown.
type TopProduct struct {
	ProductID   uuid.UUID `json:"product_id"`
	ProductName string    `json:"product_name"`
	Quantity    int       `json:"quantity"`
	Revenue     float64   `json:"revenue"`
}
