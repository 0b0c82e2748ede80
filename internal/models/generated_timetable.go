package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// GeneratedTimetable is the persisted result of a successful generation.
// At most one row per user has Active=true; a new generation deactivates all
// prior rows and inserts the replacement inside one transaction.
type GeneratedTimetable struct {
	ID        string         `db:"id" json:"id"`
	UserID    string         `db:"user_id" json:"user_id"`
	Timetable types.JSONText `db:"timetable" json:"timetable"`
	Active    bool           `db:"active" json:"active"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt time.Time      `db:"updated_at" json:"updated_at"`
}
