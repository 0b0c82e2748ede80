package service

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/biehatieha/timetable-api/internal/dto"
	"github.com/biehatieha/timetable-api/internal/engine"
	appErrors "github.com/biehatieha/timetable-api/pkg/errors"
	"github.com/biehatieha/timetable-api/pkg/export"
)

type activeTimetableReader interface {
	Active(ctx context.Context, userID string) (*dto.GeneratedTimetableResponse, error)
}

var exportColumns = []export.Column{
	{Title: "Start"},
	{Title: "End"},
	{Title: "Code"},
	{Title: "Subject", Weight: 2.5},
	{Title: "Activity"},
	{Title: "Section"},
	{Title: "Venue", Weight: 1.5},
	{Title: "Lecturer", Weight: 2},
}

var exportDayOrder = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// ExportService renders the user's active timetable as CSV or PDF.
type ExportService struct {
	timetables activeTimetableReader
	csv        *export.CSVExporter
	pdf        *export.PDFExporter
	logger     *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(timetables activeTimetableReader, csv *export.CSVExporter, pdf *export.PDFExporter, logger *zap.Logger) *ExportService {
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{timetables: timetables, csv: csv, pdf: pdf, logger: logger}
}

// CSV renders the active timetable as CSV bytes.
func (s *ExportService) CSV(ctx context.Context, userID string) ([]byte, error) {
	table, err := s.table(ctx, userID)
	if err != nil {
		return nil, err
	}
	out, err := s.csv.Render(*table)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
	}
	return out, nil
}

// PDF renders the active timetable as a PDF document.
func (s *ExportService) PDF(ctx context.Context, userID string) ([]byte, error) {
	table, err := s.table(ctx, userID)
	if err != nil {
		return nil, err
	}
	out, err := s.pdf.Render(*table, "Weekly Timetable")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
	}
	return out, nil
}

func (s *ExportService) table(ctx context.Context, userID string) (*export.Table, error) {
	record, err := s.timetables.Active(ctx, userID)
	if err != nil {
		return nil, err
	}

	var stored struct {
		Timetable engine.Schedule `json:"timetable"`
	}
	if err := json.Unmarshal(record.Timetable, &stored); err != nil {
		s.logger.Error("stored timetable is unreadable", zap.String("timetable_id", record.ID), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "stored timetable is unreadable")
	}

	table := &export.Table{BlockTitle: "Day", Columns: exportColumns}
	for _, day := range exportDayOrder {
		entries := stored.Timetable[day]
		if len(entries) == 0 {
			continue
		}
		block := export.Block{Label: day}
		for _, entry := range entries {
			block.Rows = append(block.Rows, []string{
				entry.StartTime,
				entry.EndTime,
				entry.Code,
				entry.Subject,
				entry.Activity,
				entry.Section,
				entry.Venue,
				entry.Lecturer,
			})
		}
		table.Blocks = append(table.Blocks, block)
	}
	return table, nil
}
