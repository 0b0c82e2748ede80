package dto

// CreateChangeRequestRequest files a revision request against a generated
// timetable.
type CreateChangeRequestRequest struct {
	GeneratedTimetableID string `json:"generated_timetable_id" validate:"required"`
	Message              string `json:"message" validate:"required"`
}

// ResolveChangeRequestRequest is the admin payload that settles a change
// request.
type ResolveChangeRequestRequest struct {
	Status        string  `json:"status" validate:"required,oneof=pending approved rejected"`
	AdminResponse *string `json:"admin_response" validate:"omitempty,max=2000"`
}
