package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// TimetablePreference stores the raw preference payload a user last submitted
// so generation can run without an inline preferences body.
type TimetablePreference struct {
	ID          string         `db:"id" json:"id"`
	UserID      string         `db:"user_id" json:"user_id"`
	Preferences types.JSONText `db:"preferences" json:"preferences"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}
