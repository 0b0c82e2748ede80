package service

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/biehatieha/timetable-api/internal/dto"
	appErrors "github.com/biehatieha/timetable-api/pkg/errors"
)

type activeReaderStub struct {
	record *dto.GeneratedTimetableResponse
	err    error
}

func (s *activeReaderStub) Active(ctx context.Context, userID string) (*dto.GeneratedTimetableResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.record, nil
}

func exportFixture(t *testing.T) *dto.GeneratedTimetableResponse {
	t.Helper()
	payload := map[string]interface{}{
		"timetable": map[string]interface{}{
			"Tuesday": []map[string]interface{}{
				{
					"code": "CS101", "subject": "Intro to CS", "activity": "Tutorial",
					"section": "2", "days": "Tuesday", "start_time": "11:00:00",
					"end_time": "12:00:00", "venue": "R2", "lecturer": "Dr. Rahman",
				},
			},
			"Monday": []map[string]interface{}{
				{
					"code": "CS101", "subject": "Intro to CS", "activity": "Lecture",
					"section": "1", "days": "Monday", "start_time": "09:00:00",
					"end_time": "11:00:00", "venue": "Hall A", "lecturer": "Dr. Rahman",
				},
			},
		},
	}
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	return &dto.GeneratedTimetableResponse{ID: "tt-1", Timetable: raw, Active: true}
}

func TestExportServiceCSVOrdersDays(t *testing.T) {
	svc := NewExportService(&activeReaderStub{record: exportFixture(t)}, nil, nil, nil)

	out, err := svc.CSV(context.Background(), "user-1")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Day,Start,End,Code,Subject,Activity,Section,Venue,Lecturer", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "Monday,09:00:00"))
	assert.True(t, strings.HasPrefix(lines[2], "Tuesday,11:00:00"))
}

func TestExportServicePDFProducesDocument(t *testing.T) {
	svc := NewExportService(&activeReaderStub{record: exportFixture(t)}, nil, nil, nil)

	out, err := svc.PDF(context.Background(), "user-1")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(out), "%PDF"))
}

func TestExportServicePropagatesMissingTimetable(t *testing.T) {
	svc := NewExportService(&activeReaderStub{err: appErrors.ErrNotFound}, nil, nil, nil)

	_, err := svc.CSV(context.Background(), "user-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
