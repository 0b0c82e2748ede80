package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/biehatieha/timetable-api/internal/models"
)

const sectionColumns = `s.id, s.subject_id, s.section_number, s.activity, s.lecturer_id, s.day_of_week, s.start_time, s.end_time, s.venue, s.capacity, s.tied_to, s.created_at, s.updated_at`

const sectionRefColumns = sectionColumns + `, sub.code AS subject_code, sub.name AS subject_name, lec.name AS lecturer_name`

const sectionRefJoin = ` FROM sections s
JOIN subjects sub ON sub.id = s.subject_id
LEFT JOIN lecturers lec ON lec.id = s.lecturer_id`

// SectionRepository handles persistence for class sections and their
// subject/lecturer reference data.
type SectionRepository struct {
	db *sqlx.DB
}

// NewSectionRepository creates a new repository instance.
func NewSectionRepository(db *sqlx.DB) *SectionRepository {
	return &SectionRepository{db: db}
}

func (r *SectionRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// ListBySubject returns the sections of one subject with reference names.
func (r *SectionRepository) ListBySubject(ctx context.Context, subjectID string) ([]models.SectionWithRefs, error) {
	query := `SELECT ` + sectionRefColumns + sectionRefJoin + ` WHERE s.subject_id = $1 ORDER BY s.section_number ASC`
	var sections []models.SectionWithRefs
	if err := r.db.SelectContext(ctx, &sections, query, subjectID); err != nil {
		return nil, fmt.Errorf("list sections by subject: %w", err)
	}
	return sections, nil
}

// ListBySubjectIDs returns the full section catalog for a set of subjects.
// This is the snapshot timetable generation runs against.
func (r *SectionRepository) ListBySubjectIDs(ctx context.Context, subjectIDs []string) ([]models.SectionWithRefs, error) {
	if len(subjectIDs) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT `+sectionRefColumns+sectionRefJoin+` WHERE s.subject_id IN (?) ORDER BY sub.code ASC, s.section_number ASC`, subjectIDs)
	if err != nil {
		return nil, fmt.Errorf("build section catalog query: %w", err)
	}
	query = r.db.Rebind(query)

	var sections []models.SectionWithRefs
	if err := r.db.SelectContext(ctx, &sections, query, args...); err != nil {
		return nil, fmt.Errorf("load section catalog: %w", err)
	}
	return sections, nil
}

// ListAll returns the entire catalog with reference names, for the tie
// consistency report.
func (r *SectionRepository) ListAll(ctx context.Context) ([]models.SectionWithRefs, error) {
	query := `SELECT ` + sectionRefColumns + sectionRefJoin + ` ORDER BY sub.code ASC, s.section_number ASC`
	var sections []models.SectionWithRefs
	if err := r.db.SelectContext(ctx, &sections, query); err != nil {
		return nil, fmt.Errorf("list all sections: %w", err)
	}
	return sections, nil
}

// FindByID returns a section by id.
func (r *SectionRepository) FindByID(ctx context.Context, id string) (*models.Section, error) {
	const query = `SELECT id, subject_id, section_number, activity, lecturer_id, day_of_week, start_time, end_time, venue, capacity, tied_to, created_at, updated_at FROM sections WHERE id = $1`
	var section models.Section
	if err := r.db.GetContext(ctx, &section, query, id); err != nil {
		return nil, err
	}
	return &section, nil
}

// Create persists a new section. The optional exec lets a CSV import insert
// many rows inside one transaction.
func (r *SectionRepository) Create(ctx context.Context, exec sqlx.ExtContext, section *models.Section) error {
	if section.ID == "" {
		section.ID = uuid.NewString()
	}
	if len(section.TiedTo) == 0 {
		section.TiedTo = []byte(`[]`)
	}
	now := time.Now().UTC()
	if section.CreatedAt.IsZero() {
		section.CreatedAt = now
	}
	section.UpdatedAt = now

	const query = `INSERT INTO sections (id, subject_id, section_number, activity, lecturer_id, day_of_week, start_time, end_time, venue, capacity, tied_to, created_at, updated_at)
VALUES (:id, :subject_id, :section_number, :activity, :lecturer_id, :day_of_week, :start_time, :end_time, :venue, :capacity, :tied_to, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, section); err != nil {
		return fmt.Errorf("create section: %w", err)
	}
	return nil
}

// Update modifies a section.
func (r *SectionRepository) Update(ctx context.Context, section *models.Section) error {
	if len(section.TiedTo) == 0 {
		section.TiedTo = []byte(`[]`)
	}
	section.UpdatedAt = time.Now().UTC()
	const query = `UPDATE sections SET subject_id = :subject_id, section_number = :section_number, activity = :activity, lecturer_id = :lecturer_id, day_of_week = :day_of_week, start_time = :start_time, end_time = :end_time, venue = :venue, capacity = :capacity, tied_to = :tied_to, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, section); err != nil {
		return fmt.Errorf("update section: %w", err)
	}
	return nil
}

// Delete removes a section record.
func (r *SectionRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM sections WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete section: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("section rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ExistsBySubjectAndNumber checks uniqueness of a section number within a
// subject.
func (r *SectionRepository) ExistsBySubjectAndNumber(ctx context.Context, subjectID, sectionNumber string) (bool, error) {
	const query = `SELECT 1 FROM sections WHERE subject_id = $1 AND section_number = $2 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, subjectID, sectionNumber); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check section number: %w", err)
	}
	return true, nil
}
