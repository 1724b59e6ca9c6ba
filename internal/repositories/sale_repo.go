package repositories

import (
	"context"
	"time"

	"stockmaster/internal/models"
)

type SaleRepository interface {
	Create(ctx context.Context, sale *models.Sale) error
	ListByCompany(ctx context.Context, companyID string, limit, offset int) ([]*models.Sale, error)
	ListByPeriod(ctx context.Context, companyID string, from, to time.Time) ([]*models.Sale, error)
	TopProducts(ctx context.Context, companyID string, from, to time.Time, limit int) ([]models.TopProduct, error)
}

type saleRepo struct {
	db DB
}

func NewSaleRepo(db DB) SaleRepository {
	return &saleRepo{db: db}
}

func (r *saleRepo) Create(ctx context.Context, sale *models.Sale) error {
	query := `
		INSERT INTO sales (id, company_id, product_id, product_name, quantity, unit_price, total_amount, seller_id, seller_name, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
	`
	_, err := r.db.Exec(ctx, query, sale.ID, sale.CompanyID, sale.ProductID, sale.ProductName, sale.Quantity, sale.UnitPrice, sale.TotalAmount, sale.SellerID, sale.SellerName)
	return err
}

func (r *saleRepo) ListByCompany(ctx context.Context, companyID string, limit, offset int) ([]*models.Sale, error) {
	query := `
		SELECT id, company_id, product_id, product_name, quantity, unit_price, total_amount, seller_id, seller_name, timestamp
		FROM sales
		WHERE company_id = $1
		ORDER BY timestamp DESC
		LIMIT $2 OFFSET $3
	`
	return r.scanList(ctx, query, companyID, limit, offset)
}

func (r *saleRepo) ListByPeriod(ctx context.Context, companyID string, from, to time.Time) ([]*models.Sale, error) {
	query := `
		SELECT id, company_id, product_id, product_name, quantity, unit_price, total_amount, seller_id, seller_name, timestamp
		FROM sales
		WHERE company_id = $1 AND timestamp >= $2 AND timestamp < $3
		ORDER BY timestamp DESC
	`
	return r.scanList(ctx, query, companyID, from, to)
}

func (r *saleRepo) TopProducts(ctx context.Context, companyID string, from, to time.Time, limit int) ([]models.TopProduct, error) {
	query := `
		SELECT product_id, product_name, SUM(quantity) AS quantity, SUM(total_amount) AS revenue
		FROM sales
		WHERE company_id = $1 AND timestamp >= $2 AND timestamp < $3
		GROUP BY product_id, product_name
		ORDER BY revenue DESC
		LIMIT $4
	`
	rows, err := r.db.Query(ctx, query, companyID, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var top []models.TopProduct
	for rows.Next() {
		var tp models.TopProduct
		if err := rows.Scan(&tp.ProductID, &tp.ProductName, &tp.Quantity, &tp.Revenue); err != nil {
			return nil, err
		}
		top = append(top, tp)
	}
	return top, rows.Err()
}

func (r *saleRepo) scanList(ctx context.Context, query string, args ...interface{}) ([]*models.Sale, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sales []*models.Sale
	for rows.Next() {
		sale := &models.Sale{}
		if err := rows.Scan(&sale.ID, &sale.CompanyID, &sale.ProductID, &sale.ProductName, &sale.Quantity, &sale.UnitPrice, &sale.TotalAmount, &sale.SellerID, &sale.SellerName, &sale.Timestamp); err != nil {
			return nil, err
		}
		sales = append(sales, sale)
	}
	return sales, rows.Err()
}
