package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/biehatieha/timetable-api/internal/models"
)

// CatalogRepository serves the small reference tables behind the preference
// options screen: schedulable days, selectable time boundaries and global
// settings.
type CatalogRepository struct {
	db *sqlx.DB
}

// NewCatalogRepository creates a new repository instance.
func NewCatalogRepository(db *sqlx.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// ListDays returns the schedulable days in display order.
func (r *CatalogRepository) ListDays(ctx context.Context) ([]models.Day, error) {
	const query = `SELECT id, name FROM days ORDER BY position ASC`
	var days []models.Day
	if err := r.db.SelectContext(ctx, &days, query); err != nil {
		return nil, fmt.Errorf("list days: %w", err)
	}
	return days, nil
}

// ListTimeSlots returns the selectable time boundaries in clock order.
func (r *CatalogRepository) ListTimeSlots(ctx context.Context) ([]models.TimeSlot, error) {
	const query = `SELECT id, label, time FROM time_slots ORDER BY time ASC`
	var slots []models.TimeSlot
	if err := r.db.SelectContext(ctx, &slots, query); err != nil {
		return nil, fmt.Errorf("list time slots: %w", err)
	}
	return slots, nil
}

// ListSettings returns every global setting row.
func (r *CatalogRepository) ListSettings(ctx context.Context) ([]models.Setting, error) {
	const query = `SELECT id, key, value, updated_at FROM settings ORDER BY key ASC`
	var settings []models.Setting
	if err := r.db.SelectContext(ctx, &settings, query); err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	return settings, nil
}

// GetSetting returns one setting by key.
func (r *CatalogRepository) GetSetting(ctx context.Context, key string) (*models.Setting, error) {
	const query = `SELECT id, key, value, updated_at FROM settings WHERE key = $1 LIMIT 1`
	var setting models.Setting
	if err := r.db.GetContext(ctx, &setting, query, key); err != nil {
		return nil, err
	}
	return &setting, nil
}

// UpsertSetting inserts or replaces the value for a setting key.
func (r *CatalogRepository) UpsertSetting(ctx context.Context, setting *models.Setting) error {
	if setting.ID == "" {
		setting.ID = uuid.NewString()
	}
	setting.UpdatedAt = time.Now().UTC()

	const query = `INSERT INTO settings (id, key, value, updated_at) VALUES (:id, :key, :value, :updated_at)
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, setting); err != nil {
		return fmt.Errorf("upsert setting: %w", err)
	}
	return nil
}
