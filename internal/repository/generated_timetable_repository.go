package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/biehatieha/timetable-api/internal/models"
)

// GeneratedTimetableRepository persists generation results. The single-active
// invariant is enforced by running DeactivateAllForUser and Insert on the
// same transaction.
type GeneratedTimetableRepository struct {
	db *sqlx.DB
}

// NewGeneratedTimetableRepository creates a new repository instance.
func NewGeneratedTimetableRepository(db *sqlx.DB) *GeneratedTimetableRepository {
	return &GeneratedTimetableRepository{db: db}
}

func (r *GeneratedTimetableRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// DeactivateAllForUser clears the active flag on every timetable of the user.
func (r *GeneratedTimetableRepository) DeactivateAllForUser(ctx context.Context, exec sqlx.ExtContext, userID string) error {
	const query = `UPDATE generated_timetables SET active = FALSE, updated_at = $2 WHERE user_id = $1 AND active = TRUE`
	if _, err := r.exec(exec).ExecContext(ctx, query, userID, time.Now().UTC()); err != nil {
		return fmt.Errorf("deactivate timetables: %w", err)
	}
	return nil
}

// Insert stores a new timetable row.
func (r *GeneratedTimetableRepository) Insert(ctx context.Context, exec sqlx.ExtContext, tt *models.GeneratedTimetable) error {
	if tt.ID == "" {
		tt.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if tt.CreatedAt.IsZero() {
		tt.CreatedAt = now
	}
	tt.UpdatedAt = now

	const query = `INSERT INTO generated_timetables (id, user_id, timetable, active, created_at, updated_at)
VALUES (:id, :user_id, :timetable, :active, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, tt); err != nil {
		return fmt.Errorf("insert generated timetable: %w", err)
	}
	return nil
}

// FindActiveByUser returns the user's currently active timetable.
func (r *GeneratedTimetableRepository) FindActiveByUser(ctx context.Context, userID string) (*models.GeneratedTimetable, error) {
	const query = `SELECT id, user_id, timetable, active, created_at, updated_at FROM generated_timetables WHERE user_id = $1 AND active = TRUE LIMIT 1`
	var tt models.GeneratedTimetable
	if err := r.db.GetContext(ctx, &tt, query, userID); err != nil {
		return nil, err
	}
	return &tt, nil
}

// FindByID returns a single timetable row.
func (r *GeneratedTimetableRepository) FindByID(ctx context.Context, id string) (*models.GeneratedTimetable, error) {
	const query = `SELECT id, user_id, timetable, active, created_at, updated_at FROM generated_timetables WHERE id = $1 LIMIT 1`
	var tt models.GeneratedTimetable
	if err := r.db.GetContext(ctx, &tt, query, id); err != nil {
		return nil, err
	}
	return &tt, nil
}

// ListByUser returns the user's timetables, newest first.
func (r *GeneratedTimetableRepository) ListByUser(ctx context.Context, userID string) ([]models.GeneratedTimetable, error) {
	const query = `SELECT id, user_id, timetable, active, created_at, updated_at FROM generated_timetables WHERE user_id = $1 ORDER BY created_at DESC`
	var timetables []models.GeneratedTimetable
	if err := r.db.SelectContext(ctx, &timetables, query, userID); err != nil {
		return nil, fmt.Errorf("list generated timetables: %w", err)
	}
	return timetables, nil
}
