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

type catalogRepository interface {
	ListDays(ctx context.Context) ([]models.Day, error)
	ListTimeSlots(ctx context.Context) ([]models.TimeSlot, error)
	ListSettings(ctx context.Context) ([]models.Setting, error)
	GetSetting(ctx context.Context, key string) (*models.Setting, error)
	UpsertSetting(ctx context.Context, setting *models.Setting) error
}

// CatalogService exposes the reference tables: days, time slots and global
// settings.
type CatalogService struct {
	repo      catalogRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCatalogService constructs a CatalogService.
func NewCatalogService(repo catalogRepository, validate *validator.Validate, logger *zap.Logger) *CatalogService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{repo: repo, validator: validate, logger: logger}
}

// Days returns the schedulable days in display order.
func (s *CatalogService) Days(ctx context.Context) ([]models.Day, error) {
	days, err := s.repo.ListDays(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list days")
	}
	return days, nil
}

// TimeSlots returns the selectable time boundaries in clock order.
func (s *CatalogService) TimeSlots(ctx context.Context) ([]models.TimeSlot, error) {
	slots, err := s.repo.ListTimeSlots(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list time slots")
	}
	return slots, nil
}

// Settings returns all global settings.
func (s *CatalogService) Settings(ctx context.Context) ([]models.Setting, error) {
	settings, err := s.repo.ListSettings(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list settings")
	}
	return settings, nil
}

// Setting returns one setting by key.
func (s *CatalogService) Setting(ctx context.Context, key string) (*models.Setting, error) {
	setting, err := s.repo.GetSetting(ctx, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "setting not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load setting")
	}
	return setting, nil
}

// UpdateSetting inserts or replaces the value under a key.
func (s *CatalogService) UpdateSetting(ctx context.Context, req dto.UpdateSettingRequest) (*models.Setting, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid setting payload")
	}

	setting := &models.Setting{Key: req.Key, Value: req.Value}
	if err := s.repo.UpsertSetting(ctx, setting); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store setting")
	}
	return setting, nil
}
