package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/biehatieha/timetable-api/internal/dto"
	"github.com/biehatieha/timetable-api/internal/engine"
	"github.com/biehatieha/timetable-api/internal/models"
	appErrors "github.com/biehatieha/timetable-api/pkg/errors"
)

type subjectReaderStub struct {
	subjects []models.Subject
}

func (m *subjectReaderStub) List(ctx context.Context, search string) ([]models.Subject, error) {
	return m.subjects, nil
}

func (m *subjectReaderStub) FindByIDs(ctx context.Context, ids []string) ([]models.Subject, error) {
	var out []models.Subject
	for _, subject := range m.subjects {
		for _, id := range ids {
			if subject.ID == id {
				out = append(out, subject)
			}
		}
	}
	return out, nil
}

type lecturerReaderStub struct {
	lecturers []models.Lecturer
}

func (m *lecturerReaderStub) List(ctx context.Context, search string) ([]models.Lecturer, error) {
	return m.lecturers, nil
}

func (m *lecturerReaderStub) FindByIDs(ctx context.Context, ids []string) ([]models.Lecturer, error) {
	var out []models.Lecturer
	for _, lecturer := range m.lecturers {
		for _, id := range ids {
			if lecturer.ID == id {
				out = append(out, lecturer)
			}
		}
	}
	return out, nil
}

type catalogReaderStub struct {
	days  []models.Day
	slots []models.TimeSlot
}

func (m *catalogReaderStub) ListDays(ctx context.Context) ([]models.Day, error) {
	return m.days, nil
}

func (m *catalogReaderStub) ListTimeSlots(ctx context.Context) ([]models.TimeSlot, error) {
	return m.slots, nil
}

type preferenceStoreStub struct {
	stored *models.TimetablePreference
}

func (m *preferenceStoreStub) FindByUser(ctx context.Context, userID string) (*models.TimetablePreference, error) {
	if m.stored == nil {
		return nil, sql.ErrNoRows
	}
	return m.stored, nil
}

func (m *preferenceStoreStub) Upsert(ctx context.Context, pref *models.TimetablePreference) error {
	cp := *pref
	m.stored = &cp
	return nil
}

func newPreferenceService(store *preferenceStoreStub) *PreferenceService {
	return NewPreferenceService(
		&subjectReaderStub{subjects: []models.Subject{
			{ID: "sub-1", Code: "CS101", Name: "Programming I"},
			{ID: "sub-2", Code: "MA201", Name: "Calculus"},
		}},
		&lecturerReaderStub{lecturers: []models.Lecturer{
			{ID: "lec-1", Name: "Dr. Rahman"},
		}},
		&catalogReaderStub{days: []models.Day{
			{ID: "day-1", Name: "Monday"},
			{ID: "day-2", Name: "Tuesday"},
		}},
		store,
		validator.New(),
		zap.NewNop(),
	)
}

func TestPreferenceServiceNormalize(t *testing.T) {
	svc := newPreferenceService(&preferenceStoreStub{})

	normalized, err := svc.Normalize(context.Background(), dto.PreferencePayload{
		Subjects:    []string{"sub-2", "sub-1"},
		Days:        []string{"monday", "Tuesday"},
		StartTime:   "08:00",
		EndTime:     "17:00",
		EnforceTies: "yes",
		Lecturers:   []string{"lec-1"},
		Mode:        2,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"CS101", "MA201"}, normalized.Engine.Subjects)
	assert.Equal(t, []string{"Monday", "Tuesday"}, normalized.Engine.Days)
	assert.Equal(t, []string{"Dr. Rahman"}, normalized.Engine.Lecturers)
	assert.Equal(t, engine.Minutes(480), normalized.Engine.WindowStart)
	assert.Equal(t, engine.Minutes(1020), normalized.Engine.WindowEnd)
	assert.True(t, normalized.Engine.EnforceTies)
	assert.Equal(t, engine.StyleSpacedOut, normalized.Engine.Style)
}

func TestPreferenceServiceNormalizeResolvesDayIDs(t *testing.T) {
	svc := newPreferenceService(&preferenceStoreStub{})

	normalized, err := svc.Normalize(context.Background(), dto.PreferencePayload{
		Subjects:    []string{"sub-1"},
		Days:        []string{"day-1", "day-2"},
		StartTime:   "08:00",
		EndTime:     "17:00",
		EnforceTies: "no",
		Mode:        1,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Monday", "Tuesday"}, normalized.Engine.Days)
}

func TestPreferenceServiceNormalizeReportsEveryProblem(t *testing.T) {
	svc := newPreferenceService(&preferenceStoreStub{})

	_, err := svc.Normalize(context.Background(), dto.PreferencePayload{
		Subjects:    []string{"sub-1", "sub-404"},
		Days:        []string{"Funday"},
		StartTime:   "25:00",
		EndTime:     "17:00",
		EnforceTies: "no",
		Lecturers:   []string{"lec-404"},
		Mode:        1,
	})
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrInvalidPreference.Code, appErr.Code)
	assert.Contains(t, appErr.Message, `start_time "25:00"`)
	assert.Contains(t, appErr.Message, `subject "sub-404"`)
	assert.Contains(t, appErr.Message, `day "Funday"`)
	assert.Contains(t, appErr.Message, `lecturer "lec-404"`)
}

func TestPreferenceServiceNormalizeRejectsInvertedWindow(t *testing.T) {
	svc := newPreferenceService(&preferenceStoreStub{})

	_, err := svc.Normalize(context.Background(), dto.PreferencePayload{
		Subjects:    []string{"sub-1"},
		StartTime:   "17:00",
		EndTime:     "08:00",
		EnforceTies: "no",
		Mode:        1,
	})
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInvalidPreference.Code, appErr.Code)
}

func TestPreferenceServiceStoreRoundTrip(t *testing.T) {
	store := &preferenceStoreStub{}
	svc := newPreferenceService(store)

	payload := dto.PreferencePayload{
		Subjects:    []string{"sub-1"},
		StartTime:   "08:00",
		EndTime:     "17:00",
		EnforceTies: "no",
		Mode:        1,
	}
	_, err := svc.Store(context.Background(), "user-1", dto.StorePreferenceRequest{Preferences: payload})
	require.NoError(t, err)
	require.NotNil(t, store.stored)

	decoded, err := svc.Stored(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, payload, *decoded)
}

func TestPreferenceServiceStoreRejectsInvalidPayload(t *testing.T) {
	store := &preferenceStoreStub{}
	svc := newPreferenceService(store)

	_, err := svc.Store(context.Background(), "user-1", dto.StorePreferenceRequest{Preferences: dto.PreferencePayload{
		Subjects:    []string{"sub-404"},
		StartTime:   "08:00",
		EndTime:     "17:00",
		EnforceTies: "no",
		Mode:        1,
	}})
	require.Error(t, err)
	assert.Nil(t, store.stored, "invalid payloads must not be persisted")
}

func TestPreferenceServiceOptions(t *testing.T) {
	svc := newPreferenceService(&preferenceStoreStub{})

	options, err := svc.Options(context.Background())
	require.NoError(t, err)
	assert.Len(t, options.Subjects, 2)
	assert.Len(t, options.Days, 2)
	assert.Len(t, options.Lecturers, 1)
}
