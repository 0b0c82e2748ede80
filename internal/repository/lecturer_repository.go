package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/biehatieha/timetable-api/internal/models"
)

// LecturerRepository handles persistence for lecturers.
type LecturerRepository struct {
	db *sqlx.DB
}

// NewLecturerRepository creates a new repository instance.
func NewLecturerRepository(db *sqlx.DB) *LecturerRepository {
	return &LecturerRepository{db: db}
}

// List returns lecturers, optionally filtered by a name search.
func (r *LecturerRepository) List(ctx context.Context, search string) ([]models.Lecturer, error) {
	query := `SELECT id, name, email, created_at, updated_at FROM lecturers`
	var args []interface{}
	if search != "" {
		query += ` WHERE LOWER(name) LIKE $1`
		args = append(args, "%"+strings.ToLower(search)+"%")
	}
	query += ` ORDER BY name ASC`

	var lecturers []models.Lecturer
	if err := r.db.SelectContext(ctx, &lecturers, query, args...); err != nil {
		return nil, fmt.Errorf("list lecturers: %w", err)
	}
	return lecturers, nil
}

// FindByID returns a lecturer by id.
func (r *LecturerRepository) FindByID(ctx context.Context, id string) (*models.Lecturer, error) {
	const query = `SELECT id, name, email, created_at, updated_at FROM lecturers WHERE id = $1`
	var lecturer models.Lecturer
	if err := r.db.GetContext(ctx, &lecturer, query, id); err != nil {
		return nil, err
	}
	return &lecturer, nil
}

// FindByIDs returns lecturers for the given ids, in name order.
func (r *LecturerRepository) FindByIDs(ctx context.Context, ids []string) ([]models.Lecturer, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT id, name, email, created_at, updated_at FROM lecturers WHERE id IN (?) ORDER BY name ASC`, ids)
	if err != nil {
		return nil, fmt.Errorf("build lecturer id query: %w", err)
	}
	query = r.db.Rebind(query)

	var lecturers []models.Lecturer
	if err := r.db.SelectContext(ctx, &lecturers, query, args...); err != nil {
		return nil, fmt.Errorf("find lecturers by ids: %w", err)
	}
	return lecturers, nil
}

// FindByName returns a lecturer matching the name exactly, ignoring case.
func (r *LecturerRepository) FindByName(ctx context.Context, name string) (*models.Lecturer, error) {
	const query = `SELECT id, name, email, created_at, updated_at FROM lecturers WHERE LOWER(name) = LOWER($1) LIMIT 1`
	var lecturer models.Lecturer
	if err := r.db.GetContext(ctx, &lecturer, query, name); err != nil {
		return nil, err
	}
	return &lecturer, nil
}

// Create persists a new lecturer.
func (r *LecturerRepository) Create(ctx context.Context, lecturer *models.Lecturer) error {
	if lecturer.ID == "" {
		lecturer.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if lecturer.CreatedAt.IsZero() {
		lecturer.CreatedAt = now
	}
	lecturer.UpdatedAt = now

	const query = `INSERT INTO lecturers (id, name, email, created_at, updated_at) VALUES (:id, :name, :email, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, lecturer); err != nil {
		return fmt.Errorf("create lecturer: %w", err)
	}
	return nil
}

// Update modifies a lecturer.
func (r *LecturerRepository) Update(ctx context.Context, lecturer *models.Lecturer) error {
	lecturer.UpdatedAt = time.Now().UTC()
	const query = `UPDATE lecturers SET name = :name, email = :email, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, lecturer); err != nil {
		return fmt.Errorf("update lecturer: %w", err)
	}
	return nil
}

// Delete removes a lecturer record.
func (r *LecturerRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM lecturers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete lecturer: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("lecturer rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
