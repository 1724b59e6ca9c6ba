package repositories

import (
	"context"
	"time"

	"stockmaster/internal/models"
)

type CompanyRepository interface {
	Create(ctx context.Context, company *models.Company) error
	GetByID(ctx context.Context, id string) (*models.Company, error)
	UpdateCurrency(ctx context.Context, id, currency string) error
	List(ctx context.Context, limit, offset int) ([]*models.Company, error)
	ListWithSubscriptions(ctx context.Context, limit, offset int) ([]*models.CompanyWithSubscription, error)
	Count(ctx context.Context) (int, error)
}

type companyRepo struct {
	db DB
}

func NewCompanyRepo(db DB) CompanyRepository {
	return &companyRepo{db: db}
}

func (r *companyRepo) Create(ctx context.Context, company *models.Company) error {
	query := `
		INSERT INTO companies (id, name, currency, created_at)
		VALUES ($1, $2, $3, NOW())
	`
	_, err := r.db.Exec(ctx, query, company.ID, company.Name, company.Currency)
	return err
}

func (r *companyRepo) GetByID(ctx context.Context, id string) (*models.Company, error) {
	company := &models.Company{}
	query := `
		SELECT id, name, currency, created_at
		FROM companies
		WHERE id = $1
	`
	err := r.db.QueryRow(ctx, query, id).Scan(&company.ID, &company.Name, &company.Currency, &company.CreatedAt)
	if err != nil {
		return nil, err
	}
	return company, nil
}

func (r *companyRepo) UpdateCurrency(ctx context.Context, id, currency string) error {
	query := `UPDATE companies SET currency = $1 WHERE id = $2`
	_, err := r.db.Exec(ctx, query, currency, id)
	return err
}

func (r *companyRepo) List(ctx context.Context, limit, offset int) ([]*models.Company, error) {
	query := `
		SELECT id, name, currency, created_at
		FROM companies
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var companies []*models.Company
	for rows.Next() {
		company := &models.Company{}
		if err := rows.Scan(&company.ID, &company.Name, &company.Currency, &company.CreatedAt); err != nil {
			return nil, err
		}
		companies = append(companies, company)
	}
	return companies, rows.Err()
}

// ListWithSubscriptions returns tenants newest first, each joined with its
// subscription row. One query; the LEFT JOIN keeps tenants that never chose
// a plan in the result with a nil subscription.
func (r *companyRepo) ListWithSubscriptions(ctx context.Context, limit, offset int) ([]*models.CompanyWithSubscription, error) {
	query := `
		SELECT c.id, c.name, c.currency, c.created_at,
		       s.company_id, s.plan, s.is_active, s.start_date, s.end_date,
		       s.payer_name, s.payer_phone, s.unlock_pin, s.updated_at
		FROM companies c
		LEFT JOIN subscriptions s ON s.company_id = c.id
		ORDER BY c.created_at DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.CompanyWithSubscription
	for rows.Next() {
		company := &models.Company{}
		var (
			subCompanyID, plan            *string
			isActive                      *bool
			startDate, endDate, updatedAt *time.Time
			payerName, payerPhone, pin    *string
		)
		if err := rows.Scan(
			&company.ID, &company.Name, &company.Currency, &company.CreatedAt,
			&subCompanyID, &plan, &isActive, &startDate, &endDate,
			&payerName, &payerPhone, &pin, &updatedAt,
		); err != nil {
			return nil, err
		}

		row := &models.CompanyWithSubscription{Company: company}
		if subCompanyID != nil {
			row.Subscription = &models.Subscription{
				CompanyID:  *subCompanyID,
				Plan:       models.PlanType(*plan),
				IsActive:   *isActive,
				StartDate:  *startDate,
				EndDate:    endDate,
				PayerName:  payerName,
				PayerPhone: payerPhone,
				UnlockPIN:  pin,
				UpdatedAt:  *updatedAt,
			}
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *companyRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM companies`).Scan(&count)
	return count, err
}
