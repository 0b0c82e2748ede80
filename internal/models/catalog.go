package models

import "time"

// Day is a reference row for a schedulable day of the week.
type Day struct {
	ID   string `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// TimeSlot is a reference row describing a selectable time boundary.
type TimeSlot struct {
	ID    string `db:"id" json:"id"`
	Label string `db:"label" json:"label"`
	Time  string `db:"time" json:"time"`
}

// Setting is a global key-value configuration row.
type Setting struct {
	ID        string    `db:"id" json:"id"`
	Key       string    `db:"key" json:"key"`
	Value     string    `db:"value" json:"value"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
