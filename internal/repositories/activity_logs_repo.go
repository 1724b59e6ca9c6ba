package repositories

import (
	"context"
	"time"

	"stockmaster/internal/models"

	"github.com/google/uuid"
)

type ActivityLogsRepository interface {
	Create(ctx context.Context, entry *models.ActivityLog) error
	ListByCompany(ctx context.Context, companyID string, limit int) ([]*models.ActivityLog, error)
	TrimOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type activityLogsRepo struct {
	db DB
}

func NewActivityLogsRepo(db DB) ActivityLogsRepository {
	return &activityLogsRepo{db: db}
}

func (r *activityLogsRepo) Create(ctx context.Context, entry *models.ActivityLog) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	query := `
		INSERT INTO activity_logs (id, company_id, user_id, user_name, user_email, action, details, type, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
	`
	_, err := r.db.Exec(ctx, query, entry.ID, entry.CompanyID, entry.UserID, entry.UserName, entry.UserEmail, entry.Action, entry.Details, entry.Type)
	return err
}

func (r *activityLogsRepo) ListByCompany(ctx context.Context, companyID string, limit int) ([]*models.ActivityLog, error) {
	query := `
		SELECT id, company_id, user_id, user_name, user_email, action, details, type, timestamp
		FROM activity_logs
		WHERE company_id = $1
		ORDER BY timestamp DESC
		LIMIT $2
	`
	rows, err := r.db.Query(ctx, query, companyID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []*models.ActivityLog
	for rows.Next() {
		entry := &models.ActivityLog{}
		if err := rows.Scan(&entry.ID, &entry.CompanyID, &entry.UserID, &entry.UserName, &entry.UserEmail, &entry.Action, &entry.Details, &entry.Type, &entry.Timestamp); err != nil {
			return nil, err
		}
		logs = append(logs, entry)
	}
	return logs, rows.Err()
}

// TrimOlderThan deletes audit entries past the retention window.
func (r *activityLogsRepo) TrimOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM activity_logs WHERE timestamp < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
