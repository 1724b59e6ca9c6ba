package repositories

import (
	"context"

	"stockmaster/internal/models"

	"github.com/google/uuid"
)

type ProductRepository interface {
	Create(ctx context.Context, product *models.Product) error
	GetByID(ctx context.Context, companyID string, id uuid.UUID) (*models.Product, error)
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, companyID string, id uuid.UUID) error
	ListByCompany(ctx context.Context, companyID string) ([]*models.Product, error)
	CountByCompany(ctx context.Context, companyID string) (int, error)
	AdjustStock(ctx context.Context, companyID string, id uuid.UUID, delta int) error
	ListLowStock(ctx context.Context, companyID string) ([]*models.Product, error)
}

type productRepo struct {
	db DB
}

func NewProductRepo(db DB) ProductRepository {
	return &productRepo{db: db}
}

const productColumns = `id, company_id, name, sku, stock, cost_price, selling_price, category, low_stock_threshold, last_restocked_at, created_at, updated_at`

func (r *productRepo) Create(ctx context.Context, product *models.Product) error {
	query := `
		INSERT INTO products (id, company_id, name, sku, stock, cost_price, selling_price, category, low_stock_threshold, last_restocked_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, product.ID, product.CompanyID, product.Name, product.SKU, product.Stock, product.CostPrice, product.SellingPrice, product.Category, product.LowStockThreshold)
	return err
}

func (r *productRepo) GetByID(ctx context.Context, companyID string, id uuid.UUID) (*models.Product, error) {
	product := &models.Product{}
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE company_id = $1 AND id = $2
	`
	err := r.db.QueryRow(ctx, query, companyID, id).Scan(&product.ID, &product.CompanyID, &product.Name, &product.SKU, &product.Stock, &product.CostPrice, &product.SellingPrice, &product.Category, &product.LowStockThreshold, &product.LastRestockedAt, &product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return product, nil
}

func (r *productRepo) Update(ctx context.Context, product *models.Product) error {
	query := `
		UPDATE products
		SET name = $1, sku = $2, stock = $3, cost_price = $4, selling_price = $5, category = $6, low_stock_threshold = $7, updated_at = NOW()
		WHERE company_id = $8 AND id = $9
	`
	_, err := r.db.Exec(ctx, query, product.Name, product.SKU, product.Stock, product.CostPrice, product.SellingPrice, product.Category, product.LowStockThreshold, product.CompanyID, product.ID)
	return err
}

func (r *productRepo) Delete(ctx context.Context, companyID string, id uuid.UUID) error {
	query := `DELETE FROM products WHERE company_id = $1 AND id = $2`
	_, err := r.db.Exec(ctx, query, companyID, id)
	return err
}

func (r *productRepo) ListByCompany(ctx context.Context, companyID string) ([]*models.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE company_id = $1
		ORDER BY name ASC
	`
	return r.scanList(ctx, query, companyID)
}

func (r *productRepo) CountByCompany(ctx context.Context, companyID string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM products WHERE company_id = $1`, companyID).Scan(&count)
	return count, err
}

// AdjustStock applies a signed stock delta, clamping at zero. A positive
// delta also bumps last_restocked_at.
func (r *productRepo) AdjustStock(ctx context.Context, companyID string, id uuid.UUID, delta int) error {
	query := `
		UPDATE products
		SET stock = GREATEST(stock + $1, 0),
			last_restocked_at = CASE WHEN $1 > 0 THEN NOW() ELSE last_restocked_at END,
			updated_at = NOW()
		WHERE company_id = $2 AND id = $3
	`
	_, err := r.db.Exec(ctx, query, delta, companyID, id)
	return err
}

func (r *productRepo) ListLowStock(ctx context.Context, companyID string) ([]*models.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE company_id = $1 AND stock <= low_stock_threshold
		ORDER BY stock ASC
	`
	return r.scanList(ctx, query, companyID)
}

func (r *productRepo) scanList(ctx context.Context, query string, args ...interface{}) ([]*models.Product, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []*models.Product
	for rows.Next() {
		product := &models.Product{}
		if err := rows.Scan(&product.ID, &product.CompanyID, &product.Name, &product.SKU, &product.Stock, &product.CostPrice, &product.SellingPrice, &product.Category, &product.LowStockThreshold, &product.LastRestockedAt, &product.CreatedAt, &product.UpdatedAt); err != nil {
			return nil, err
		}
		products = append(products, product)
	}
	return products, rows.Err()
}
