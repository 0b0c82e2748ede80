package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gocarina/gocsv"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/biehatieha/timetable-api/internal/dto"
	"github.com/biehatieha/timetable-api/internal/engine"
	"github.com/biehatieha/timetable-api/internal/models"
	appErrors "github.com/biehatieha/timetable-api/pkg/errors"
)

type sectionRepository interface {
	ListBySubject(ctx context.Context, subjectID string) ([]models.SectionWithRefs, error)
	ListAll(ctx context.Context) ([]models.SectionWithRefs, error)
	FindByID(ctx context.Context, id string) (*models.Section, error)
	Create(ctx context.Context, exec sqlx.ExtContext, section *models.Section) error
	Update(ctx context.Context, section *models.Section) error
	Delete(ctx context.Context, id string) error
	ExistsBySubjectAndNumber(ctx context.Context, subjectID, sectionNumber string) (bool, error)
}

type sectionSubjectReader interface {
	FindByID(ctx context.Context, id string) (*models.Subject, error)
	FindByCode(ctx context.Context, code string) (*models.Subject, error)
}

type sectionLecturerReader interface {
	FindByID(ctx context.Context, id string) (*models.Lecturer, error)
	FindByName(ctx context.Context, name string) (*models.Lecturer, error)
}

// SectionService manages the section catalog: CRUD, bulk CSV import and the
// tie consistency report.
type SectionService struct {
	sections  sectionRepository
	subjects  sectionSubjectReader
	lecturers sectionLecturerReader
	tx        txProvider
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSectionService wires section dependencies.
func NewSectionService(
	sections sectionRepository,
	subjects sectionSubjectReader,
	lecturers sectionLecturerReader,
	tx txProvider,
	validate *validator.Validate,
	logger *zap.Logger,
) *SectionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SectionService{
		sections:  sections,
		subjects:  subjects,
		lecturers: lecturers,
		tx:        tx,
		validator: validate,
		logger:    logger,
	}
}

// ListBySubject returns the sections of a subject with reference names.
func (s *SectionService) ListBySubject(ctx context.Context, subjectID string) ([]models.SectionWithRefs, error) {
	if _, err := s.subjects.FindByID(ctx, subjectID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}
	sections, err := s.sections.ListBySubject(ctx, subjectID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sections")
	}
	return sections, nil
}

// Create validates and persists a new section.
func (s *SectionService) Create(ctx context.Context, req dto.CreateSectionRequest) (*models.Section, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid section payload")
	}

	section, err := s.buildSection(ctx, req)
	if err != nil {
		return nil, err
	}

	exists, err := s.sections.ExistsBySubjectAndNumber(ctx, section.SubjectID, section.SectionNumber)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check section number")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("section %s already exists for this subject", section.SectionNumber))
	}

	if err := s.sections.Create(ctx, nil, section); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create section")
	}
	return section, nil
}

// Update replaces a section's fields.
func (s *SectionService) Update(ctx context.Context, id string, req dto.CreateSectionRequest) (*models.Section, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid section payload")
	}

	existing, err := s.sections.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "section not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section")
	}

	section, err := s.buildSection(ctx, req)
	if err != nil {
		return nil, err
	}
	section.ID = existing.ID
	section.CreatedAt = existing.CreatedAt

	if err := s.sections.Update(ctx, section); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update section")
	}
	return section, nil
}

// Delete removes a section.
func (s *SectionService) Delete(ctx context.Context, id string) error {
	if err := s.sections.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "section not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete section")
	}
	return nil
}

// Import loads the legacy CSV catalog format. The whole file is applied in
// one transaction; rows that cannot be resolved are skipped and reported.
func (s *SectionService) Import(ctx context.Context, r io.Reader) (*dto.SectionImportResult, error) {
	var rows []dto.SectionImportRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "unreadable csv file")
	}
	if len(rows) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "csv file has no data rows")
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	result := &dto.SectionImportResult{}
	for i, row := range rows {
		section, buildErr := s.buildImportedSection(ctx, row)
		if buildErr != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", i+2, buildErr))
			continue
		}
		if err = s.sections.Create(ctx, tx, section); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to import sections")
		}
		result.Imported++
	}

	if err = tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit import")
	}

	s.logger.Info("section catalog imported",
		zap.Int("imported", result.Imported),
		zap.Int("skipped", result.Skipped))
	return result, nil
}

// TieReport scans the whole catalog for tie declarations pointing at unknown
// sections or lacking the reverse declaration. Asymmetric ties still work at
// generation time; the report exists so catalog owners can clean them up.
func (s *SectionService) TieReport(ctx context.Context) (*dto.TieReportResponse, error) {
	sections, err := s.sections.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section catalog")
	}

	type sectionRef struct {
		tied map[string]struct{}
	}
	bySubject := make(map[string]map[string]sectionRef)
	for _, section := range sections {
		subject := bySubject[section.SubjectID]
		if subject == nil {
			subject = make(map[string]sectionRef)
			bySubject[section.SubjectID] = subject
		}
		tied := make(map[string]struct{})
		for _, label := range section.TiedSections() {
			tied[label] = struct{}{}
		}
		subject[section.SectionNumber] = sectionRef{tied: tied}
	}

	report := &dto.TieReportResponse{}
	for _, section := range sections {
		subject := bySubject[section.SubjectID]
		for _, label := range section.TiedSections() {
			target, ok := subject[label]
			if !ok {
				report.Issues = append(report.Issues, models.TieIssue{
					SubjectID:     section.SubjectID,
					SubjectCode:   section.SubjectCode,
					Section:       section.SectionNumber,
					DeclaredTie:   label,
					UnknownTarget: true,
				})
				continue
			}
			if _, back := target.tied[section.SectionNumber]; !back {
				report.Issues = append(report.Issues, models.TieIssue{
					SubjectID:     section.SubjectID,
					SubjectCode:   section.SubjectCode,
					Section:       section.SectionNumber,
					DeclaredTie:   label,
					MissingReturn: true,
				})
			}
		}
	}
	report.Clean = len(report.Issues) == 0
	return report, nil
}

func (s *SectionService) buildSection(ctx context.Context, req dto.CreateSectionRequest) (*models.Section, error) {
	if _, err := s.subjects.FindByID(ctx, req.SubjectID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "subject does not exist")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}
	if req.LecturerID != nil {
		if _, err := s.lecturers.FindByID(ctx, *req.LecturerID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrValidation, "lecturer does not exist")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lecturer")
		}
	}

	start, err := engine.ParseClock(req.StartTime)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("start_time %q is not a valid clock time", req.StartTime))
	}
	end, err := engine.ParseClock(req.EndTime)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("end_time %q is not a valid clock time", req.EndTime))
	}
	if start >= end {
		return nil, appErrors.Clone(appErrors.ErrValidation, "start_time must precede end_time")
	}

	tied, err := json.Marshal(normalizeTiedLabels(req.TiedTo))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode tied sections")
	}

	return &models.Section{
		SubjectID:     req.SubjectID,
		SectionNumber: req.SectionNumber,
		Activity:      models.Activity(req.Activity),
		LecturerID:    req.LecturerID,
		DayOfWeek:     req.DayOfWeek,
		StartTime:     start.Clock(),
		EndTime:       end.Clock(),
		Venue:         req.Venue,
		Capacity:      req.Capacity,
		TiedTo:        tied,
	}, nil
}

func (s *SectionService) buildImportedSection(ctx context.Context, row dto.SectionImportRow) (*models.Section, error) {
	subject, err := s.subjects.FindByCode(ctx, strings.TrimSpace(row.SubjectCode))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("unknown subject code %q", row.SubjectCode)
		}
		return nil, fmt.Errorf("resolve subject %q: %w", row.SubjectCode, err)
	}

	activity := models.Activity(strings.TrimSpace(row.Activity))
	if !models.ValidActivity(activity) {
		return nil, fmt.Errorf("unknown activity %q", row.Activity)
	}

	start, err := engine.ParseClock(strings.TrimSpace(row.StartTime))
	if err != nil {
		return nil, fmt.Errorf("bad start time %q", row.StartTime)
	}
	end, err := engine.ParseClock(strings.TrimSpace(row.EndTime))
	if err != nil {
		return nil, fmt.Errorf("bad end time %q", row.EndTime)
	}
	if start >= end {
		return nil, fmt.Errorf("start %q not before end %q", row.StartTime, row.EndTime)
	}

	var lecturerID *string
	name := strings.TrimSpace(row.Lecturer)
	if name != "" && !strings.EqualFold(name, models.LecturerUnassigned) {
		lecturer, err := s.lecturers.FindByName(ctx, name)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, fmt.Errorf("unknown lecturer %q", name)
			}
			return nil, fmt.Errorf("resolve lecturer %q: %w", name, err)
		}
		lecturerID = &lecturer.ID
	}

	var venue *string
	if v := strings.TrimSpace(row.Venue); v != "" {
		venue = &v
	}

	var tiedLabels []string
	for _, label := range strings.Split(row.TiedTo, ",") {
		if trimmed := strings.TrimSpace(label); trimmed != "" {
			tiedLabels = append(tiedLabels, trimmed)
		}
	}
	tied, err := json.Marshal(normalizeTiedLabels(tiedLabels))
	if err != nil {
		return nil, fmt.Errorf("encode tied sections: %w", err)
	}

	return &models.Section{
		SubjectID:     subject.ID,
		SectionNumber: strings.TrimSpace(row.SectionNumber),
		Activity:      activity,
		LecturerID:    lecturerID,
		DayOfWeek:     strings.TrimSpace(row.DayOfWeek),
		StartTime:     start.Clock(),
		EndTime:       end.Clock(),
		Venue:         venue,
		Capacity:      row.Capacity,
		TiedTo:        tied,
	}, nil
}

func normalizeTiedLabels(labels []string) []string {
	out := make([]string, 0, len(labels))
	seen := make(map[string]struct{}, len(labels))
	for _, label := range labels {
		if label == "" {
			continue
		}
		if _, ok := seen[label]; ok {
			continue
		}
		seen[label] = struct{}{}
		out = append(out, label)
	}
	return out
}
