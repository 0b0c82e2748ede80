package engine

import "fmt"

// Reason classifies a structured generation failure. Anything the engine
// returns that is not an *Error is an unexpected internal failure and must
// not be shown to the end user.
type Reason string

const (
	// ReasonInvalidInput means the catalog or preferences were malformed.
	ReasonInvalidInput Reason = "invalid_input"
	// ReasonNoValidSections means a requested subject has no feasible
	// sections inside the stated window, day and tie constraints.
	ReasonNoValidSections Reason = "no_valid_sections"
	// ReasonUnsatisfiable means every subject is individually feasible but
	// no conflict-free combination exists.
	ReasonUnsatisfiable Reason = "unsatisfiable"
	// ReasonSearchBudget means the node or wall-clock budget ran out before
	// the search reached a verdict. Not proof of impossibility.
	ReasonSearchBudget Reason = "search_budget"
)

// Error is the structured failure variant of the generation result union.
type Error struct {
	Reason  Reason
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s: %s", e.Reason, e.Message)
}

func invalidInput(format string, args ...interface{}) *Error {
	return &Error{Reason: ReasonInvalidInput, Message: fmt.Sprintf(format, args...)}
}

func noValidSections(subject string) *Error {
	return &Error{Reason: ReasonNoValidSections, Message: fmt.Sprintf("no valid sections for subject %q within the requested constraints", subject)}
}
