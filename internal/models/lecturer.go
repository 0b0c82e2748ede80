package models

import "time"

// Lecturer teaches one or more sections. The name sentinel "Not Assigned"
// appears in generated timetables when a section has no lecturer.
type Lecturer struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Email     string    `db:"email" json:"email"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// LecturerUnassigned is the display value for sections without a lecturer.
const LecturerUnassigned = "Not Assigned"
