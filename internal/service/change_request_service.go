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

type changeRequestStore interface {
	Create(ctx context.Context, cr *models.TimetableChangeRequest) error
	FindByID(ctx context.Context, id string) (*models.TimetableChangeRequest, error)
	ListAll(ctx context.Context) ([]models.TimetableChangeRequest, error)
	ListByUser(ctx context.Context, userID string) ([]models.TimetableChangeRequest, error)
	UpdateResolution(ctx context.Context, cr *models.TimetableChangeRequest) error
	Delete(ctx context.Context, id string) error
}

type timetableRowReader interface {
	FindByID(ctx context.Context, id string) (*models.GeneratedTimetable, error)
}

// ChangeRequestService manages revision requests filed against generated
// timetables. Any authenticated user may file one against an existing
// timetable; listing everything, resolving and deleting are admin actions,
// while reading a single request is open to its owner as well.
type ChangeRequestService struct {
	store      changeRequestStore
	timetables timetableRowReader
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewChangeRequestService constructs a ChangeRequestService instance.
func NewChangeRequestService(store changeRequestStore, timetables timetableRowReader, validate *validator.Validate, logger *zap.Logger) *ChangeRequestService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ChangeRequestService{store: store, timetables: timetables, validator: validate, logger: logger}
}

// Create files a new pending change request for the authenticated user.
func (s *ChangeRequestService) Create(ctx context.Context, claims *models.JWTClaims, req dto.CreateChangeRequestRequest) (*models.TimetableChangeRequest, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid change request payload")
	}

	if _, err := s.timetables.FindByID(ctx, req.GeneratedTimetableID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "generated timetable not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch timetable")
	}

	cr := &models.TimetableChangeRequest{
		UserID:               claims.UserID,
		GeneratedTimetableID: req.GeneratedTimetableID,
		Message:              req.Message,
		Status:               models.ChangeRequestPending,
	}
	if err := s.store.Create(ctx, cr); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create change request")
	}

	s.logger.Info("change request filed",
		zap.String("change_request_id", cr.ID),
		zap.String("user_id", claims.UserID))
	return cr, nil
}

// List returns every change request, newest first. Admin only.
func (s *ChangeRequestService) List(ctx context.Context, claims *models.JWTClaims) ([]models.TimetableChangeRequest, error) {
	if !claims.Admin {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only administrators may list change requests")
	}
	requests, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list change requests")
	}
	return requests, nil
}

// Mine returns the authenticated user's own change requests, newest first.
func (s *ChangeRequestService) Mine(ctx context.Context, claims *models.JWTClaims) ([]models.TimetableChangeRequest, error) {
	requests, err := s.store.ListByUser(ctx, claims.UserID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list change requests")
	}
	return requests, nil
}

// Get returns a single change request. Visible to administrators and to the
// user who filed it.
func (s *ChangeRequestService) Get(ctx context.Context, claims *models.JWTClaims, id string) (*models.TimetableChangeRequest, error) {
	cr, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !claims.Admin && cr.UserID != claims.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "change request belongs to another user")
	}
	return cr, nil
}

// Resolve settles a change request with a status and an optional response.
// Admin only.
func (s *ChangeRequestService) Resolve(ctx context.Context, claims *models.JWTClaims, id string, req dto.ResolveChangeRequestRequest) (*models.TimetableChangeRequest, error) {
	if !claims.Admin {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only administrators may resolve change requests")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid resolution payload")
	}

	cr, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	cr.Status = req.Status
	cr.AdminResponse = req.AdminResponse
	if err := s.store.UpdateResolution(ctx, cr); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update change request")
	}

	s.logger.Info("change request resolved",
		zap.String("change_request_id", cr.ID),
		zap.String("status", cr.Status))
	return cr, nil
}

// Delete removes a change request. Admin only.
func (s *ChangeRequestService) Delete(ctx context.Context, claims *models.JWTClaims, id string) error {
	if !claims.Admin {
		return appErrors.Clone(appErrors.ErrForbidden, "only administrators may delete change requests")
	}
	if _, err := s.find(ctx, id); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete change request")
	}
	return nil
}

func (s *ChangeRequestService) find(ctx context.Context, id string) (*models.TimetableChangeRequest, error) {
	cr, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "change request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch change request")
	}
	return cr, nil
}
