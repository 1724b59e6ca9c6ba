package repositories

import (
	"context"
	"fmt"

	"stockmaster/internal/models"

	"github.com/google/uuid"
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	ListByCompany(ctx context.Context, companyID string) ([]*models.User, error)
	UpdateStatus(ctx context.Context, companyID string, id uuid.UUID, status models.UserStatus) error
	SetManagersActive(ctx context.Context, companyID string) error
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
}

type userRepo struct {
	db DB
}

func NewUserRepo(db DB) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) Create(ctx context.Context, user *models.User) error {
	// Emails are globally unique across tenants so login does not need a
	// company code.
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM profiles WHERE email = $1`, user.Email).Scan(&count)
	if err != nil {
		return fmt.Errorf("failed to check email uniqueness: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("user with email '%s' already exists", user.Email)
	}

	query := `
		INSERT INTO profiles (id, company_id, name, email, password_hash, role, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
	`
	_, err = r.db.Exec(ctx, query, user.ID, user.CompanyID, user.Name, user.Email, user.PasswordHash, user.Role, user.Status)
	return err
}

func (r *userRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user := &models.User{}
	query := `
		SELECT id, company_id, name, email, password_hash, role, status, created_at, updated_at
		FROM profiles
		WHERE id = $1
	`
	err := r.db.QueryRow(ctx, query, id).Scan(&user.ID, &user.CompanyID, &user.Name, &user.Email, &user.PasswordHash, &user.Role, &user.Status, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	user := &models.User{}
	query := `
		SELECT id, company_id, name, email, password_hash, role, status, created_at, updated_at
		FROM profiles
		WHERE email = $1
	`
	err := r.db.QueryRow(ctx, query, email).Scan(&user.ID, &user.CompanyID, &user.Name, &user.Email, &user.PasswordHash, &user.Role, &user.Status, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *userRepo) ListByCompany(ctx context.Context, companyID string) ([]*models.User, error) {
	query := `
		SELECT id, company_id, name, email, password_hash, role, status, created_at, updated_at
		FROM profiles
		WHERE company_id = $1
		ORDER BY created_at ASC
	`
	rows, err := r.db.Query(ctx, query, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user := &models.User{}
		if err := rows.Scan(&user.ID, &user.CompanyID, &user.Name, &user.Email, &user.PasswordHash, &user.Role, &user.Status, &user.CreatedAt, &user.UpdatedAt); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (r *userRepo) UpdateStatus(ctx context.Context, companyID string, id uuid.UUID, status models.UserStatus) error {
	query := `
		UPDATE profiles
		SET status = $1, updated_at = NOW()
		WHERE company_id = $2 AND id = $3
	`
	_, err := r.db.Exec(ctx, query, status, companyID, id)
	return err
}

// SetManagersActive flips every manager profile of the tenant to active.
// Called by the activation path so a manager locked out by expiry regains
// access the moment the subscription is reconciled.
func (r *userRepo) SetManagersActive(ctx context.Context, companyID string) error {
	query := `
		UPDATE profiles
		SET status = $1, updated_at = NOW()
		WHERE company_id = $2 AND role = $3
	`
	_, err := r.db.Exec(ctx, query, models.StatusActive, companyID, models.RoleManager)
	return err
}

func (r *userRepo) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	query := `
		UPDATE profiles
		SET password_hash = $1, updated_at = NOW()
		WHERE id = $2
	`
	_, err := r.db.Exec(ctx, query, passwordHash, id)
	return err
}
