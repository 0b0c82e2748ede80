package dto

// PreferencePayload is the raw preference shape accepted at the API boundary.
// Mode 1 is compact, mode 2 is spaced_out. EnforceTies is a yes/no string for
// compatibility with existing clients and is normalised to a boolean.
type PreferencePayload struct {
	Subjects    []string `json:"subjects" validate:"required,min=1"`
	Days        []string `json:"days,omitempty"`
	StartTime   string   `json:"start_time" validate:"required"`
	EndTime     string   `json:"end_time" validate:"required"`
	EnforceTies string   `json:"enforce_ties" validate:"required,oneof=yes no"`
	Lecturers   []string `json:"lecturers,omitempty"`
	Mode        int      `json:"mode" validate:"required,oneof=1 2"`
}

// GenerateTimetableRequest wraps the generation payload. When Preferences is
// nil the user's stored preference record is used instead.
type GenerateTimetableRequest struct {
	Preferences *PreferencePayload `json:"preferences,omitempty"`
}

// StorePreferenceRequest persists a preference payload for later generation.
type StorePreferenceRequest struct {
	Preferences PreferencePayload `json:"preferences" validate:"required"`
}

// PreferenceOptions lists the catalog values a preference form can offer.
type PreferenceOptions struct {
	Subjects  interface{} `json:"subjects"`
	Days      interface{} `json:"days"`
	TimeSlots interface{} `json:"time_slots"`
	Lecturers interface{} `json:"lecturers"`
}
