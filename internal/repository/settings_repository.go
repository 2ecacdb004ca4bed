package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/auto-insurance/internal/model"
)

// SettingsRepo is the key/value store behind tariff coefficients and the
// impact speed threshold.
type SettingsRepo struct {
	db *sql.DB
}

func NewSettingsRepo(db *sql.DB) *SettingsRepo { return &SettingsRepo{db: db} }

// Get loads a setting by key. ErrNotFound when the key was never written.
func (r *SettingsRepo) Get(ctx context.Context, key string) (*model.Setting, error) {
	var (
		s   model.Setting
		num sql.NullFloat64
		str sql.NullString
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT setting_key, value_number, value_string, updated_at FROM system_settings WHERE setting_key = ?`,
		key).Scan(&s.Key, &num, &str, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	s.ValueNumber = float64Ptr(num)
	s.ValueString = stringPtr(str)
	return &s, nil
}

// UpsertNumber stores a numeric value under key, clearing any string value.
func (r *SettingsRepo) UpsertNumber(ctx context.Context, key string, value float64, at time.Time) (*model.Setting, error) {
	const q = `INSERT INTO system_settings (setting_key, value_number, value_string, updated_at) VALUES (?, ?, NULL, ?)
		ON DUPLICATE KEY UPDATE value_number = VALUES(value_number), value_string = NULL, updated_at = VALUES(updated_at)`
	if _, err := r.db.ExecContext(ctx, q, key, value, at.UTC()); err != nil {
		return nil, err
	}
	v := value
	return &model.Setting{Key: key, ValueNumber: &v, UpdatedAt: at.UTC()}, nil
}
