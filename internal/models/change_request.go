package models

import "time"

// Change request lifecycle states.
const (
	ChangeRequestPending  = "pending"
	ChangeRequestApproved = "approved"
	ChangeRequestRejected = "rejected"
)

// TimetableChangeRequest is a user's request to have a generated timetable
// revised. An administrator resolves it by setting the status and an
// optional response message.
type TimetableChangeRequest struct {
	ID                   string    `db:"id" json:"id"`
	UserID               string    `db:"user_id" json:"user_id"`
	GeneratedTimetableID string    `db:"generated_timetable_id" json:"generated_timetable_id"`
	Message              string    `db:"message" json:"message"`
	Status               string    `db:"status" json:"status"`
	AdminResponse        *string   `db:"admin_response" json:"admin_response"`
	CreatedAt            time.Time `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time `db:"updated_at" json:"updated_at"`
}
