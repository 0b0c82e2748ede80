package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/biehatieha/timetable-api/internal/models"
)

// ChangeRequestRepository provides database access for timetable change
// requests.
type ChangeRequestRepository struct {
	db *sqlx.DB
}

// NewChangeRequestRepository creates a new repository instance.
func NewChangeRequestRepository(db *sqlx.DB) *ChangeRequestRepository {
	return &ChangeRequestRepository{db: db}
}

// Create inserts a new change request row.
func (r *ChangeRequestRepository) Create(ctx context.Context, cr *models.TimetableChangeRequest) error {
	if cr.ID == "" {
		cr.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if cr.CreatedAt.IsZero() {
		cr.CreatedAt = now
	}
	cr.UpdatedAt = now

	const query = `INSERT INTO timetable_change_requests (id, user_id, generated_timetable_id, message, status, admin_response, created_at, updated_at)
VALUES (:id, :user_id, :generated_timetable_id, :message, :status, :admin_response, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, cr); err != nil {
		return fmt.Errorf("create change request: %w", err)
	}
	return nil
}

// FindByID returns a change request by identifier.
func (r *ChangeRequestRepository) FindByID(ctx context.Context, id string) (*models.TimetableChangeRequest, error) {
	const query = `SELECT id, user_id, generated_timetable_id, message, status, admin_response, created_at, updated_at FROM timetable_change_requests WHERE id = $1 LIMIT 1`
	var cr models.TimetableChangeRequest
	if err := r.db.GetContext(ctx, &cr, query, id); err != nil {
		return nil, err
	}
	return &cr, nil
}

// ListAll returns every change request, newest first.
func (r *ChangeRequestRepository) ListAll(ctx context.Context) ([]models.TimetableChangeRequest, error) {
	const query = `SELECT id, user_id, generated_timetable_id, message, status, admin_response, created_at, updated_at FROM timetable_change_requests ORDER BY created_at DESC`
	var requests []models.TimetableChangeRequest
	if err := r.db.SelectContext(ctx, &requests, query); err != nil {
		return nil, fmt.Errorf("list change requests: %w", err)
	}
	return requests, nil
}

// ListByUser returns the user's change requests, newest first.
func (r *ChangeRequestRepository) ListByUser(ctx context.Context, userID string) ([]models.TimetableChangeRequest, error) {
	const query = `SELECT id, user_id, generated_timetable_id, message, status, admin_response, created_at, updated_at FROM timetable_change_requests WHERE user_id = $1 ORDER BY created_at DESC`
	var requests []models.TimetableChangeRequest
	if err := r.db.SelectContext(ctx, &requests, query, userID); err != nil {
		return nil, fmt.Errorf("list change requests by user: %w", err)
	}
	return requests, nil
}

// UpdateResolution sets the status and admin response of a change request.
func (r *ChangeRequestRepository) UpdateResolution(ctx context.Context, cr *models.TimetableChangeRequest) error {
	cr.UpdatedAt = time.Now().UTC()
	const query = `UPDATE timetable_change_requests SET status = :status, admin_response = :admin_response, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, cr); err != nil {
		return fmt.Errorf("update change request: %w", err)
	}
	return nil
}

// Delete removes a change request row.
func (r *ChangeRequestRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM timetable_change_requests WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete change request: %w", err)
	}
	return nil
}
