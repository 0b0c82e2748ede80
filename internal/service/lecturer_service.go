package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/biehatieha/timetable-api/internal/dto"
	"github.com/biehatieha/timetable-api/internal/models"
	appErrors "github.com/biehatieha/timetable-api/pkg/errors"
)

type lecturerRepository interface {
	List(ctx context.Context, search string) ([]models.Lecturer, error)
	FindByID(ctx context.Context, id string) (*models.Lecturer, error)
	Create(ctx context.Context, lecturer *models.Lecturer) error
	Update(ctx context.Context, lecturer *models.Lecturer) error
	Delete(ctx context.Context, id string) error
}

// LecturerService manages the lecturer catalog.
type LecturerService struct {
	repo      lecturerRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewLecturerService constructs a LecturerService.
func NewLecturerService(repo lecturerRepository, validate *validator.Validate, logger *zap.Logger) *LecturerService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LecturerService{repo: repo, validator: validate, logger: logger}
}

// List returns lecturers matching an optional name search.
func (s *LecturerService) List(ctx context.Context, search string) ([]models.Lecturer, error) {
	lecturers, err := s.repo.List(ctx, search)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list lecturers")
	}
	return lecturers, nil
}

// Get returns one lecturer.
func (s *LecturerService) Get(ctx context.Context, id string) (*models.Lecturer, error) {
	lecturer, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lecturer not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lecturer")
	}
	return lecturer, nil
}

// Create adds a lecturer.
func (s *LecturerService) Create(ctx context.Context, req dto.CreateLecturerRequest) (*models.Lecturer, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid lecturer payload")
	}

	lecturer := &models.Lecturer{Name: req.Name, Email: req.Email}
	if err := s.repo.Create(ctx, lecturer); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create lecturer")
	}
	return lecturer, nil
}

// Update modifies a lecturer.
func (s *LecturerService) Update(ctx context.Context, id string, req dto.CreateLecturerRequest) (*models.Lecturer, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid lecturer payload")
	}

	lecturer, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	lecturer.Name = req.Name
	lecturer.Email = req.Email
	if err := s.repo.Update(ctx, lecturer); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update lecturer")
	}
	return lecturer, nil
}

// Delete removes a lecturer. Sections keep their rows; the lecturer simply
// becomes unassigned at generation time.
func (s *LecturerService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "lecturer not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete lecturer")
	}
	return nil
}
