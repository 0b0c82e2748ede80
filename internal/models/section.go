package models

import (
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx/types"
)

// Activity enumerates the kinds of class a section can be.
type Activity string

const (
	ActivityLecture  Activity = "Lecture"
	ActivityTutorial Activity = "Tutorial"
	ActivityLab      Activity = "Lab"
)

// ValidActivity reports whether the value is one of the known kinds.
func ValidActivity(a Activity) bool {
	switch a {
	case ActivityLecture, ActivityTutorial, ActivityLab:
		return true
	}
	return false
}

// Section is a concrete weekly meeting of a subject. TiedTo holds the section
// numbers (within the same subject) that must be co-selected with this one
// when tie enforcement is active. The column is a JSON array; declarations
// may be one-directional and are symmetrised when the catalog is loaded into
// the engine.
type Section struct {
	ID            string         `db:"id" json:"id"`
	SubjectID     string         `db:"subject_id" json:"subject_id"`
	SectionNumber string         `db:"section_number" json:"section_number"`
	Activity      Activity       `db:"activity" json:"activity"`
	LecturerID    *string        `db:"lecturer_id" json:"lecturer_id"`
	DayOfWeek     string         `db:"day_of_week" json:"day_of_week"`
	StartTime     string         `db:"start_time" json:"start_time"`
	EndTime       string         `db:"end_time" json:"end_time"`
	Venue         *string        `db:"venue" json:"venue"`
	Capacity      int            `db:"capacity" json:"capacity"`
	TiedTo        types.JSONText `db:"tied_to" json:"tied_to"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at" json:"updated_at"`
}

// TiedSections decodes the tied_to column into section numbers. A malformed
// or empty column yields nil rather than an error; catalog-quality issues are
// reported through the tie report, not at read time.
func (s *Section) TiedSections() []string {
	if len(s.TiedTo) == 0 {
		return nil
	}
	var tied []string
	if err := json.Unmarshal(s.TiedTo, &tied); err != nil {
		return nil
	}
	out := tied[:0]
	for _, label := range tied {
		if label != "" {
			out = append(out, label)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// SectionWithRefs joins a section with its subject and lecturer display data.
type SectionWithRefs struct {
	Section
	SubjectCode  string  `db:"subject_code" json:"subject_code"`
	SubjectName  string  `db:"subject_name" json:"subject_name"`
	LecturerName *string `db:"lecturer_name" json:"lecturer_name"`
}

// TieIssue describes an asymmetric tie declaration found in the catalog.
type TieIssue struct {
	SubjectID     string `json:"subject_id"`
	SubjectCode   string `json:"subject_code"`
	Section       string `json:"section"`
	DeclaredTie   string `json:"declared_tie"`
	MissingReturn bool   `json:"missing_return"`
	UnknownTarget bool   `json:"unknown_target"`
}
