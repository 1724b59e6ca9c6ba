package models

import (
	"time"

	"github.com/google/uuid"
)

type Product struct {
	ID                uuid.UUID `json:"id" db:"id"`
	CompanyID         string    `json:"company_id" db:"company_id"`
	Name              string    `json:"name" db:"name"`
	SKU               string    `json:"sku" db:"sku"`
	Stock             int       `json:"stock" db:"stock"`
	CostPrice         float64   `json:"cost_price" db:"cost_price"`
	SellingPrice      float64   `json:"selling_price" db:"selling_price"`
	Category          string    `json:"category" db:"category"`
	LowStockThreshold int       `json:"low_stock_threshold" db:"low_stock_threshold"`
	LastRestockedAt   time.Time `json:"last_restocked_at" db:"last_restocked_at"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time `json:"updated_at" db:"updated_at"`
}

// LowStock reports whether the product is at or below its restock threshold.
func (p *Product) LowStock() bool {
	return p.Stock <= p.LowStockThreshold
}
