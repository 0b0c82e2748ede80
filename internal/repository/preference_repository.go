package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/biehatieha/timetable-api/internal/models"
)

// PreferenceRepository stores the raw preference payload a user last saved.
// One row per user.
type PreferenceRepository struct {
	db *sqlx.DB
}

// NewPreferenceRepository creates a new repository instance.
func NewPreferenceRepository(db *sqlx.DB) *PreferenceRepository {
	return &PreferenceRepository{db: db}
}

// FindByUser returns the stored preference for a user.
func (r *PreferenceRepository) FindByUser(ctx context.Context, userID string) (*models.TimetablePreference, error) {
	const query = `SELECT id, user_id, preferences, created_at, updated_at FROM timetable_preferences WHERE user_id = $1 LIMIT 1`
	var pref models.TimetablePreference
	if err := r.db.GetContext(ctx, &pref, query, userID); err != nil {
		return nil, err
	}
	return &pref, nil
}

// Upsert inserts or replaces the user's stored preference payload.
func (r *PreferenceRepository) Upsert(ctx context.Context, pref *models.TimetablePreference) error {
	if pref.ID == "" {
		pref.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if pref.CreatedAt.IsZero() {
		pref.CreatedAt = now
	}
	pref.UpdatedAt = now

	const query = `INSERT INTO timetable_preferences (id, user_id, preferences, created_at, updated_at)
VALUES (:id, :user_id, :preferences, :created_at, :updated_at)
ON CONFLICT (user_id) DO UPDATE SET preferences = EXCLUDED.preferences, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, pref); err != nil {
		return fmt.Errorf("upsert timetable preference: %w", err)
	}
	return nil
}

// Delete removes the user's stored preference.
func (r *PreferenceRepository) Delete(ctx context.Context, userID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM timetable_preferences WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("delete timetable preference: %w", err)
	}
	return nil
}
