package dto

// CreateSubjectRequest creates or updates a subject.
type CreateSubjectRequest struct {
	Code string `json:"code" validate:"required"`
	Name string `json:"name" validate:"required"`
}

// CreateLecturerRequest creates or updates a lecturer.
type CreateLecturerRequest struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"omitempty,email"`
}

// CreateSectionRequest creates or updates a section.
type CreateSectionRequest struct {
	SubjectID     string   `json:"subject_id" validate:"required"`
	SectionNumber string   `json:"section_number" validate:"required"`
	Activity      string   `json:"activity" validate:"required,oneof=Lecture Tutorial Lab"`
	LecturerID    *string  `json:"lecturer_id,omitempty"`
	DayOfWeek     string   `json:"day_of_week" validate:"required"`
	StartTime     string   `json:"start_time" validate:"required"`
	EndTime       string   `json:"end_time" validate:"required"`
	Venue         *string  `json:"venue,omitempty"`
	Capacity      int      `json:"capacity" validate:"gte=0"`
	TiedTo        []string `json:"tied_to,omitempty"`
}

// UpdateSettingRequest replaces the value for a settings key.
type UpdateSettingRequest struct {
	Key   string `json:"key" validate:"required"`
	Value string `json:"value" validate:"required"`
}

// SectionImportRow is one record of the legacy CSV catalog format.
type SectionImportRow struct {
	SubjectCode   string `csv:"Code"`
	SectionNumber string `csv:"Section"`
	Activity      string `csv:"Activity"`
	DayOfWeek     string `csv:"Days"`
	StartTime     string `csv:"Start Time"`
	EndTime       string `csv:"End Time"`
	Venue         string `csv:"Venue"`
	Lecturer      string `csv:"Lecturer"`
	TiedTo        string `csv:"Tied To"`
	Capacity      int    `csv:"Capacity"`
}

// SectionImportResult summarises a CSV import run.
type SectionImportResult struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors,omitempty"`
}
