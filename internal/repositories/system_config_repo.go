package repositories

import (
	"context"

	"stockmaster/internal/models"
)

type SystemConfigRepository interface {
	GetAll(ctx context.Context) (map[string]string, error)
	Upsert(ctx context.Context, key, value string) error
}

type systemConfigRepo struct {
	db DB
}

func NewSystemConfigRepo(db DB) SystemConfigRepository {
	return &systemConfigRepo{db: db}
}

func (r *systemConfigRepo) GetAll(ctx context.Context) (map[string]string, error) {
	rows, err := r.db.Query(ctx, `SELECT key, value FROM system_configs`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	configs := make(map[string]string)
	for rows.Next() {
		var cfg models.SystemConfig
		if err := rows.Scan(&cfg.Key, &cfg.Value); err != nil {
			return nil, err
		}
		configs[cfg.Key] = cfg.Value
	}
	return configs, rows.Err()
}

func (r *systemConfigRepo) Upsert(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO system_configs (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
	`
	_, err := r.db.Exec(ctx, query, key, value)
	return err
}
