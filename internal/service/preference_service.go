package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/biehatieha/timetable-api/internal/dto"
	"github.com/biehatieha/timetable-api/internal/engine"
	"github.com/biehatieha/timetable-api/internal/models"
	appErrors "github.com/biehatieha/timetable-api/pkg/errors"
)

type preferenceSubjectReader interface {
	List(ctx context.Context, search string) ([]models.Subject, error)
	FindByIDs(ctx context.Context, ids []string) ([]models.Subject, error)
}

type preferenceLecturerReader interface {
	List(ctx context.Context, search string) ([]models.Lecturer, error)
	FindByIDs(ctx context.Context, ids []string) ([]models.Lecturer, error)
}

type preferenceCatalogReader interface {
	ListDays(ctx context.Context) ([]models.Day, error)
	ListTimeSlots(ctx context.Context) ([]models.TimeSlot, error)
}

type preferenceStore interface {
	FindByUser(ctx context.Context, userID string) (*models.TimetablePreference, error)
	Upsert(ctx context.Context, pref *models.TimetablePreference) error
}

// NormalizedPreferences is the output of preference normalisation: the
// canonical engine constraint set plus the resolved subject rows the section
// catalog is loaded for.
type NormalizedPreferences struct {
	Engine   engine.Preferences
	Subjects []models.Subject
}

// PreferenceService validates and normalises raw preference payloads and
// manages each user's stored preference record.
type PreferenceService struct {
	subjects  preferenceSubjectReader
	lecturers preferenceLecturerReader
	catalog   preferenceCatalogReader
	store     preferenceStore
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPreferenceService wires preference dependencies.
func NewPreferenceService(
	subjects preferenceSubjectReader,
	lecturers preferenceLecturerReader,
	catalog preferenceCatalogReader,
	store preferenceStore,
	validate *validator.Validate,
	logger *zap.Logger,
) *PreferenceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PreferenceService{
		subjects:  subjects,
		lecturers: lecturers,
		catalog:   catalog,
		store:     store,
		validator: validate,
		logger:    logger,
	}
}

// Normalize resolves a raw payload into engine preferences. Every violated
// field is reported in one pass so the user can fix the whole form at once.
func (s *PreferenceService) Normalize(ctx context.Context, payload dto.PreferencePayload) (*NormalizedPreferences, error) {
	if err := s.validator.Struct(payload); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidPreference.Code, appErrors.ErrInvalidPreference.Status, "invalid preference payload")
	}

	var problems []string

	start, err := engine.ParseClock(payload.StartTime)
	if err != nil {
		problems = append(problems, fmt.Sprintf("start_time %q is not a valid clock time", payload.StartTime))
	}
	end, err := engine.ParseClock(payload.EndTime)
	if err != nil {
		problems = append(problems, fmt.Sprintf("end_time %q is not a valid clock time", payload.EndTime))
	}
	if len(problems) == 0 && start >= end {
		problems = append(problems, fmt.Sprintf("start_time %s must precede end_time %s", payload.StartTime, payload.EndTime))
	}

	subjects, err := s.subjects.FindByIDs(ctx, uniqueStrings(payload.Subjects))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve subjects")
	}
	known := make(map[string]struct{}, len(subjects))
	for _, subject := range subjects {
		known[subject.ID] = struct{}{}
	}
	for _, id := range payload.Subjects {
		if _, ok := known[id]; !ok {
			problems = append(problems, fmt.Sprintf("subject %q does not exist", id))
		}
	}

	days, err := s.validDays(ctx, payload.Days)
	if err != nil {
		return nil, err
	}
	problems = append(problems, days.problems...)

	var lecturerNames []string
	if len(payload.Lecturers) > 0 {
		lecturers, err := s.lecturers.FindByIDs(ctx, uniqueStrings(payload.Lecturers))
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve lecturers")
		}
		knownLecturers := make(map[string]string, len(lecturers))
		for _, lecturer := range lecturers {
			knownLecturers[lecturer.ID] = lecturer.Name
		}
		for _, id := range payload.Lecturers {
			name, ok := knownLecturers[id]
			if !ok {
				problems = append(problems, fmt.Sprintf("lecturer %q does not exist", id))
				continue
			}
			lecturerNames = append(lecturerNames, name)
		}
	}

	if len(problems) > 0 {
		return nil, appErrors.Clone(appErrors.ErrInvalidPreference, strings.Join(problems, "; "))
	}

	codes := make([]string, 0, len(subjects))
	for _, subject := range subjects {
		codes = append(codes, subject.Code)
	}

	return &NormalizedPreferences{
		Engine: engine.Preferences{
			Subjects:    codes,
			Lecturers:   lecturerNames,
			Days:        days.names,
			WindowStart: start,
			WindowEnd:   end,
			EnforceTies: payload.EnforceTies == "yes",
			Style:       styleForMode(payload.Mode),
		},
		Subjects: subjects,
	}, nil
}

// Store saves the raw payload as the user's preference record after
// normalisation proves it valid.
func (s *PreferenceService) Store(ctx context.Context, userID string, req dto.StorePreferenceRequest) (*models.TimetablePreference, error) {
	if _, err := s.Normalize(ctx, req.Preferences); err != nil {
		return nil, err
	}

	raw, err := json.Marshal(req.Preferences)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode preferences")
	}

	pref := &models.TimetablePreference{UserID: userID, Preferences: raw}
	if err := s.store.Upsert(ctx, pref); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store preferences")
	}
	return pref, nil
}

// Get returns the user's stored preference record.
func (s *PreferenceService) Get(ctx context.Context, userID string) (*models.TimetablePreference, error) {
	pref, err := s.store.FindByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no stored preferences for this user")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load preferences")
	}
	return pref, nil
}

// Stored decodes the user's saved payload for generation without an inline
// preferences body.
func (s *PreferenceService) Stored(ctx context.Context, userID string) (*dto.PreferencePayload, error) {
	pref, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	var payload dto.PreferencePayload
	if err := json.Unmarshal(pref.Preferences, &payload); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "stored preferences are unreadable")
	}
	return &payload, nil
}

// Options lists the catalog values the preference form offers.
func (s *PreferenceService) Options(ctx context.Context) (*dto.PreferenceOptions, error) {
	subjects, err := s.subjects.List(ctx, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list subjects")
	}
	days, err := s.catalog.ListDays(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list days")
	}
	slots, err := s.catalog.ListTimeSlots(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list time slots")
	}
	lecturers, err := s.lecturers.List(ctx, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list lecturers")
	}
	return &dto.PreferenceOptions{
		Subjects:  subjects,
		Days:      days,
		TimeSlots: slots,
		Lecturers: lecturers,
	}, nil
}

type dayResolution struct {
	names    []string
	problems []string
}

// validDays resolves the requested days to canonical day names. Clients
// submit day ids; bare names are accepted too (case-insensitively) for
// stored payloads predating the id form.
func (s *PreferenceService) validDays(ctx context.Context, requested []string) (dayResolution, error) {
	if len(requested) == 0 {
		return dayResolution{}, nil
	}
	days, err := s.catalog.ListDays(ctx)
	if err != nil {
		return dayResolution{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list days")
	}
	byID := make(map[string]string, len(days))
	byName := make(map[string]string, len(days))
	for _, day := range days {
		byID[day.ID] = day.Name
		byName[strings.ToLower(day.Name)] = day.Name
	}

	var out dayResolution
	for _, value := range requested {
		if name, ok := byID[value]; ok {
			out.names = append(out.names, name)
			continue
		}
		if name, ok := byName[strings.ToLower(value)]; ok {
			out.names = append(out.names, name)
			continue
		}
		out.problems = append(out.problems, fmt.Sprintf("day %q is not schedulable", value))
	}
	return out, nil
}

func styleForMode(mode int) engine.Style {
	if mode == 2 {
		return engine.StyleSpacedOut
	}
	return engine.StyleCompact
}

func uniqueStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
