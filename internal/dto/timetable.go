package dto

import (
	"encoding/json"
	"time"

	"github.com/biehatieha/timetable-api/internal/models"
)

// GeneratedTimetableResponse is the API view of a persisted timetable row.
// Timetable carries the day-keyed schedule and its summary exactly as stored.
type GeneratedTimetableResponse struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	Timetable json.RawMessage `json:"timetable"`
	Active    bool            `json:"active"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// TieReportResponse lists tie declaration issues found in the catalog.
type TieReportResponse struct {
	Issues []models.TieIssue `json:"issues"`
	Clean  bool              `json:"clean"`
}
