package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/biehatieha/timetable-api/internal/dto"
	"github.com/biehatieha/timetable-api/internal/engine"
	"github.com/biehatieha/timetable-api/internal/models"
	appErrors "github.com/biehatieha/timetable-api/pkg/errors"
)

type normalizerStub struct {
	normalized *NormalizedPreferences
	stored     *dto.PreferencePayload
	err        error
}

func (m *normalizerStub) Normalize(ctx context.Context, payload dto.PreferencePayload) (*NormalizedPreferences, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.normalized, nil
}

func (m *normalizerStub) Stored(ctx context.Context, userID string) (*dto.PreferencePayload, error) {
	if m.stored == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no stored preferences for this user")
	}
	return m.stored, nil
}

type sectionCatalogStub struct {
	sections []models.SectionWithRefs
	err      error
}

func (m *sectionCatalogStub) ListBySubjectIDs(ctx context.Context, subjectIDs []string) ([]models.SectionWithRefs, error) {
	return m.sections, m.err
}

type timetableStoreStub struct {
	deactivated  []string
	inserted     *models.GeneratedTimetable
	active       *models.GeneratedTimetable
	execProvided bool
}

func (m *timetableStoreStub) DeactivateAllForUser(ctx context.Context, exec sqlx.ExtContext, userID string) error {
	m.execProvided = exec != nil
	m.deactivated = append(m.deactivated, userID)
	return nil
}

func (m *timetableStoreStub) Insert(ctx context.Context, exec sqlx.ExtContext, tt *models.GeneratedTimetable) error {
	if exec == nil {
		return errors.New("insert must run on the transaction")
	}
	tt.ID = "tt-new"
	tt.CreatedAt = time.Now().UTC()
	m.inserted = tt
	return nil
}

func (m *timetableStoreStub) FindActiveByUser(ctx context.Context, userID string) (*models.GeneratedTimetable, error) {
	if m.active == nil {
		return nil, sql.ErrNoRows
	}
	return m.active, nil
}

func (m *timetableStoreStub) ListByUser(ctx context.Context, userID string) ([]models.GeneratedTimetable, error) {
	if m.active == nil {
		return nil, nil
	}
	return []models.GeneratedTimetable{*m.active}, nil
}

type cacheStub struct {
	values  map[string][]byte
	deleted []string
}

func (m *cacheStub) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := m.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *cacheStub) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if m.values == nil {
		m.values = make(map[string][]byte)
	}
	m.values[key] = raw
	return nil
}

func (m *cacheStub) Delete(ctx context.Context, key string) error {
	m.deleted = append(m.deleted, key)
	delete(m.values, key)
	return nil
}

type generatorStub struct {
	result *engine.Result
	err    error
}

func (m *generatorStub) Generate(ctx context.Context, classes []engine.Class, prefs engine.Preferences) (*engine.Result, error) {
	return m.result, m.err
}

func newTxProviderMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func validPayload() *dto.PreferencePayload {
	return &dto.PreferencePayload{
		Subjects:    []string{"sub-1"},
		StartTime:   "08:00",
		EndTime:     "18:00",
		EnforceTies: "yes",
		Mode:        1,
	}
}

func sampleNormalized() *NormalizedPreferences {
	return &NormalizedPreferences{
		Engine: engine.Preferences{
			Subjects:    []string{"CS101"},
			WindowStart: 480,
			WindowEnd:   1080,
			EnforceTies: true,
			Style:       engine.StyleCompact,
		},
		Subjects: []models.Subject{{ID: "sub-1", Code: "CS101", Name: "Programming I"}},
	}
}

func sampleSections() []models.SectionWithRefs {
	return []models.SectionWithRefs{{
		Section: models.Section{
			ID:            "sec-1",
			SubjectID:     "sub-1",
			SectionNumber: "TC1L",
			Activity:      models.ActivityLecture,
			DayOfWeek:     "Monday",
			StartTime:     "09:00:00",
			EndTime:       "11:00:00",
		},
		SubjectCode: "CS101",
		SubjectName: "Programming I",
	}}
}

func sampleResult() *engine.Result {
	return &engine.Result{
		Schedule: engine.Schedule{"Monday": []engine.Entry{{
			Code: "CS101", Subject: "Programming I", Activity: "Lecture",
			Section: "TC1L", Day: "Monday", StartTime: "09:00:00", EndTime: "11:00:00",
			Venue: "TBD", Lecturer: models.LecturerUnassigned, TiedTo: []string{},
		}}},
		Summary: engine.Summary{SubjectsScheduled: 1, TotalSections: 1, DaysUtilized: 1},
	}
}

func TestTimetableServiceGenerateSwapsActiveRow(t *testing.T) {
	db, mock, cleanup := newTxProviderMock(t)
	defer cleanup()
	mock.ExpectBegin()
	mock.ExpectCommit()

	store := &timetableStoreStub{}
	cache := &cacheStub{values: map[string][]byte{activeTimetableKey("user-1"): []byte(`{}`)}}
	svc := NewTimetableService(
		&normalizerStub{normalized: sampleNormalized()},
		&sectionCatalogStub{sections: sampleSections()},
		store,
		db,
		cache,
		&generatorStub{result: sampleResult()},
		nil,
		zap.NewNop(),
		TimetableCacheConfig{Enabled: true},
	)

	resp, err := svc.Generate(context.Background(), "user-1", dto.GenerateTimetableRequest{Preferences: validPayload()})
	require.NoError(t, err)

	assert.Equal(t, []string{"user-1"}, store.deactivated)
	assert.True(t, store.execProvided, "deactivate must run on the transaction")
	require.NotNil(t, store.inserted)
	assert.True(t, store.inserted.Active)
	assert.Equal(t, "tt-new", resp.ID)
	assert.Contains(t, cache.deleted, activeTimetableKey("user-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableServiceGenerateFallsBackToStoredPreferences(t *testing.T) {
	db, mock, cleanup := newTxProviderMock(t)
	defer cleanup()
	mock.ExpectBegin()
	mock.ExpectCommit()

	svc := NewTimetableService(
		&normalizerStub{normalized: sampleNormalized(), stored: validPayload()},
		&sectionCatalogStub{sections: sampleSections()},
		&timetableStoreStub{},
		db,
		nil,
		&generatorStub{result: sampleResult()},
		nil,
		zap.NewNop(),
		TimetableCacheConfig{},
	)

	_, err := svc.Generate(context.Background(), "user-1", dto.GenerateTimetableRequest{})
	require.NoError(t, err)
}

func TestTimetableServiceGenerateWithoutStoredPreferences(t *testing.T) {
	svc := NewTimetableService(
		&normalizerStub{},
		&sectionCatalogStub{},
		&timetableStoreStub{},
		nil,
		nil,
		&generatorStub{},
		nil,
		zap.NewNop(),
		TimetableCacheConfig{},
	)

	_, err := svc.Generate(context.Background(), "user-1", dto.GenerateTimetableRequest{})
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestTimetableServiceGenerateMapsEngineReasons(t *testing.T) {
	cases := []struct {
		reason   engine.Reason
		wantCode string
	}{
		{engine.ReasonInvalidInput, appErrors.ErrInvalidPreference.Code},
		{engine.ReasonNoValidSections, appErrors.ErrNoValidSections.Code},
		{engine.ReasonUnsatisfiable, appErrors.ErrUnsatisfiable.Code},
		{engine.ReasonSearchBudget, appErrors.ErrSearchTimeout.Code},
	}

	for _, tc := range cases {
		t.Run(string(tc.reason), func(t *testing.T) {
			svc := NewTimetableService(
				&normalizerStub{normalized: sampleNormalized()},
				&sectionCatalogStub{sections: sampleSections()},
				&timetableStoreStub{},
				nil,
				nil,
				&generatorStub{err: &engine.Error{Reason: tc.reason, Message: "boom"}},
				nil,
				zap.NewNop(),
				TimetableCacheConfig{},
			)

			_, err := svc.Generate(context.Background(), "user-1", dto.GenerateTimetableRequest{Preferences: validPayload()})
			appErr := appErrors.FromError(err)
			assert.Equal(t, tc.wantCode, appErr.Code)
		})
	}
}

func TestTimetableServiceGenerateHidesEngineCrash(t *testing.T) {
	svc := NewTimetableService(
		&normalizerStub{normalized: sampleNormalized()},
		&sectionCatalogStub{sections: sampleSections()},
		&timetableStoreStub{},
		nil,
		nil,
		&generatorStub{err: fmt.Errorf("index out of range")},
		nil,
		zap.NewNop(),
		TimetableCacheConfig{},
	)

	_, err := svc.Generate(context.Background(), "user-1", dto.GenerateTimetableRequest{Preferences: validPayload()})
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErr.Code)
	assert.NotContains(t, appErr.Message, "index out of range")
}

func TestTimetableServiceActiveCachesReads(t *testing.T) {
	store := &timetableStoreStub{active: &models.GeneratedTimetable{
		ID:        "tt-1",
		UserID:    "user-1",
		Timetable: []byte(`{"timetable":{},"summary":{}}`),
		Active:    true,
	}}
	cache := &cacheStub{}
	svc := NewTimetableService(nil, nil, store, nil, cache, nil, nil, zap.NewNop(), TimetableCacheConfig{Enabled: true, TTL: time.Minute})

	first, err := svc.Active(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, "tt-1", first.ID)
	assert.Contains(t, cache.values, activeTimetableKey("user-1"))

	// Second read is served from the cache even if the store empties.
	store.active = nil
	second, err := svc.Active(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, "tt-1", second.ID)
}

func TestTimetableServiceActiveNotFound(t *testing.T) {
	svc := NewTimetableService(nil, nil, &timetableStoreStub{}, nil, nil, nil, nil, zap.NewNop(), TimetableCacheConfig{})

	_, err := svc.Active(context.Background(), "user-1")
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestBuildClassesAppliesDisplayDefaults(t *testing.T) {
	classes, err := buildClasses(sampleSections())
	require.NoError(t, err)
	require.Len(t, classes, 1)
	assert.Equal(t, "TBD", classes[0].Venue)
	assert.Equal(t, models.LecturerUnassigned, classes[0].Lecturer)
	assert.Equal(t, engine.Minutes(540), classes[0].Start)
}
