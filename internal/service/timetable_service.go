package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/biehatieha/timetable-api/internal/dto"
	"github.com/biehatieha/timetable-api/internal/engine"
	"github.com/biehatieha/timetable-api/internal/models"
	appErrors "github.com/biehatieha/timetable-api/pkg/errors"
)

type preferenceNormalizer interface {
	Normalize(ctx context.Context, payload dto.PreferencePayload) (*NormalizedPreferences, error)
	Stored(ctx context.Context, userID string) (*dto.PreferencePayload, error)
}

type sectionCatalogReader interface {
	ListBySubjectIDs(ctx context.Context, subjectIDs []string) ([]models.SectionWithRefs, error)
}

type timetableStore interface {
	DeactivateAllForUser(ctx context.Context, exec sqlx.ExtContext, userID string) error
	Insert(ctx context.Context, exec sqlx.ExtContext, tt *models.GeneratedTimetable) error
	FindActiveByUser(ctx context.Context, userID string) (*models.GeneratedTimetable, error)
	ListByUser(ctx context.Context, userID string) ([]models.GeneratedTimetable, error)
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

type timetableCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

type timetableGenerator interface {
	Generate(ctx context.Context, classes []engine.Class, prefs engine.Preferences) (*engine.Result, error)
}

// TimetableCacheConfig governs read caching of the active timetable.
type TimetableCacheConfig struct {
	Enabled bool
	TTL     time.Duration
}

// TimetableService orchestrates timetable generation: preference
// normalisation, catalog loading, the solving engine and the single-active
// persistence swap.
type TimetableService struct {
	prefs      preferenceNormalizer
	sections   sectionCatalogReader
	timetables timetableStore
	tx         txProvider
	cache      timetableCache
	generator  timetableGenerator
	metrics    *MetricsService
	logger     *zap.Logger
	cacheCfg   TimetableCacheConfig
}

// NewTimetableService wires generation dependencies.
func NewTimetableService(
	prefs preferenceNormalizer,
	sections sectionCatalogReader,
	timetables timetableStore,
	tx txProvider,
	cache timetableCache,
	generator timetableGenerator,
	metrics *MetricsService,
	logger *zap.Logger,
	cacheCfg TimetableCacheConfig,
) *TimetableService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheCfg.TTL <= 0 {
		cacheCfg.TTL = 10 * time.Minute
	}
	return &TimetableService{
		prefs:      prefs,
		sections:   sections,
		timetables: timetables,
		tx:         tx,
		cache:      cache,
		generator:  generator,
		metrics:    metrics,
		logger:     logger,
		cacheCfg:   cacheCfg,
	}
}

// Generate produces and activates a new timetable for the user. With a nil
// inline payload the user's stored preference record drives the run.
func (s *TimetableService) Generate(ctx context.Context, userID string, req dto.GenerateTimetableRequest) (*dto.GeneratedTimetableResponse, error) {
	payload := req.Preferences
	if payload == nil {
		stored, err := s.prefs.Stored(ctx, userID)
		if err != nil {
			return nil, err
		}
		payload = stored
	}

	normalized, err := s.prefs.Normalize(ctx, *payload)
	if err != nil {
		return nil, err
	}

	subjectIDs := make([]string, 0, len(normalized.Subjects))
	for _, subject := range normalized.Subjects {
		subjectIDs = append(subjectIDs, subject.ID)
	}
	sections, err := s.sections.ListBySubjectIDs(ctx, subjectIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section catalog")
	}
	if len(sections) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNoValidSections, "the selected subjects have no sections")
	}

	classes, err := buildClasses(sections)
	if err != nil {
		s.logger.Error("section catalog contains unreadable rows", zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "section catalog is unreadable")
	}

	started := time.Now()
	result, err := s.generator.Generate(ctx, classes, normalized.Engine)
	if err != nil {
		return nil, s.mapEngineError(err, userID, *payload)
	}
	s.observe("success", result.Stats.NodesExplored, time.Since(started))

	record, err := s.activate(ctx, userID, result)
	if err != nil {
		return nil, err
	}

	if s.cacheCfg.Enabled && s.cache != nil {
		if err := s.cache.Delete(ctx, activeTimetableKey(userID)); err != nil {
			s.logger.Warn("failed to invalidate timetable cache", zap.Error(err))
		}
	}

	return timetableResponse(record), nil
}

// Active returns the user's current timetable, consulting the cache first.
func (s *TimetableService) Active(ctx context.Context, userID string) (*dto.GeneratedTimetableResponse, error) {
	key := activeTimetableKey(userID)
	if s.cacheCfg.Enabled && s.cache != nil {
		var cached dto.GeneratedTimetableResponse
		err := s.cache.Get(ctx, key, &cached)
		if err == nil {
			s.metrics.RecordCacheLookup(true)
			return &cached, nil
		}
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("timetable cache read failed", zap.Error(err))
		}
		s.metrics.RecordCacheLookup(false)
	}

	record, err := s.timetables.FindActiveByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no active timetable; generate one first")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable")
	}

	resp := timetableResponse(record)
	if s.cacheCfg.Enabled && s.cache != nil {
		if err := s.cache.Set(ctx, key, resp, s.cacheCfg.TTL); err != nil {
			s.logger.Warn("timetable cache write failed", zap.Error(err))
		}
	}
	return resp, nil
}

// History returns every timetable the user has generated, newest first.
func (s *TimetableService) History(ctx context.Context, userID string) ([]dto.GeneratedTimetableResponse, error) {
	records, err := s.timetables.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable history")
	}
	out := make([]dto.GeneratedTimetableResponse, 0, len(records))
	for _, record := range records {
		out = append(out, *timetableResponse(&record))
	}
	return out, nil
}

func timetableResponse(record *models.GeneratedTimetable) *dto.GeneratedTimetableResponse {
	return &dto.GeneratedTimetableResponse{
		ID:        record.ID,
		UserID:    record.UserID,
		Timetable: json.RawMessage(record.Timetable),
		Active:    record.Active,
		CreatedAt: record.CreatedAt,
		UpdatedAt: record.UpdatedAt,
	}
}

// activate swaps the new timetable in as the single active row. Both steps
// run on one transaction so a crash cannot leave two active rows.
func (s *TimetableService) activate(ctx context.Context, userID string, result *engine.Result) (*models.GeneratedTimetable, error) {
	raw, err := json.Marshal(result)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistenceFailure.Code, appErrors.ErrPersistenceFailure.Status, "failed to encode timetable")
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistenceFailure.Code, appErrors.ErrPersistenceFailure.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = s.timetables.DeactivateAllForUser(ctx, tx, userID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistenceFailure.Code, appErrors.ErrPersistenceFailure.Status, "failed to deactivate previous timetables")
	}

	record := &models.GeneratedTimetable{
		UserID:    userID,
		Timetable: raw,
		Active:    true,
	}
	if err = s.timetables.Insert(ctx, tx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistenceFailure.Code, appErrors.ErrPersistenceFailure.Status, "failed to store timetable")
	}

	if err = tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistenceFailure.Code, appErrors.ErrPersistenceFailure.Status, "failed to commit timetable")
	}
	return record, nil
}

// mapEngineError translates the engine's typed failure union into the API
// error taxonomy. Structured reasons are safe to show the user; anything
// else is logged with full context and surfaced generically.
func (s *TimetableService) mapEngineError(err error, userID string, payload dto.PreferencePayload) error {
	var engErr *engine.Error
	if !errors.As(err, &engErr) {
		s.logger.Error("timetable generation crashed",
			zap.String("user_id", userID),
			zap.Any("preferences", payload),
			zap.Error(err))
		s.observe("crash", 0, 0)
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "timetable generation failed")
	}

	switch engErr.Reason {
	case engine.ReasonInvalidInput:
		s.observe("invalid_input", 0, 0)
		return appErrors.Clone(appErrors.ErrInvalidPreference, engErr.Message)
	case engine.ReasonNoValidSections:
		s.observe("no_valid_sections", 0, 0)
		return appErrors.Clone(appErrors.ErrNoValidSections, engErr.Message)
	case engine.ReasonUnsatisfiable:
		s.observe("unsatisfiable", 0, 0)
		return appErrors.Clone(appErrors.ErrUnsatisfiable, engErr.Message)
	case engine.ReasonSearchBudget:
		s.logger.Error("timetable search budget exhausted",
			zap.String("user_id", userID),
			zap.Any("preferences", payload))
		s.observe("search_budget", 0, 0)
		return appErrors.Clone(appErrors.ErrSearchTimeout, "")
	}

	s.observe("crash", 0, 0)
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "timetable generation failed")
}

func (s *TimetableService) observe(outcome string, nodes int, elapsed time.Duration) {
	if s.metrics != nil {
		s.metrics.ObserveGeneration(outcome, nodes, elapsed)
	}
}

// buildClasses converts the persisted catalog snapshot into engine input,
// applying the display defaults for missing venue and lecturer.
func buildClasses(sections []models.SectionWithRefs) ([]engine.Class, error) {
	classes := make([]engine.Class, 0, len(sections))
	for _, section := range sections {
		start, err := engine.ParseClock(section.StartTime)
		if err != nil {
			return nil, fmt.Errorf("section %s start time: %w", section.ID, err)
		}
		end, err := engine.ParseClock(section.EndTime)
		if err != nil {
			return nil, fmt.Errorf("section %s end time: %w", section.ID, err)
		}

		venue := "TBD"
		if section.Venue != nil && *section.Venue != "" {
			venue = *section.Venue
		}
		lecturer := models.LecturerUnassigned
		if section.LecturerName != nil && *section.LecturerName != "" {
			lecturer = *section.LecturerName
		}

		classes = append(classes, engine.Class{
			Code:     section.SubjectCode,
			Subject:  section.SubjectName,
			Activity: string(section.Activity),
			Section:  section.SectionNumber,
			Day:      section.DayOfWeek,
			Start:    start,
			End:      end,
			Venue:    venue,
			Lecturer: lecturer,
			TiedTo:   section.TiedSections(),
		})
	}
	return classes, nil
}

func activeTimetableKey(userID string) string {
	return "timetable:active:" + userID
}
