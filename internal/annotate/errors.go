package annotate

import (
	"errors"
	"fmt"
)

// StateErrorCode categorizes controller state errors.
type StateErrorCode string

const (
	// ErrCodeNotStarted indicates an operation before Start.
	ErrCodeNotStarted StateErrorCode = "NOT_STARTED"

	// ErrCodeAllComplete indicates an edit/finish after every paper is done.
	ErrCodeAllComplete StateErrorCode = "ALL_COMPLETE"

	// ErrCodeUnknownQuestion indicates an answer for a question id the
	// questionnaire does not define.
	ErrCodeUnknownQuestion StateErrorCode = "UNKNOWN_QUESTION"
)

// StateError represents a misuse of the navigation state machine.
// Distinct from validation errors, which are expected and advisory.
type StateError struct {
	Code    StateErrorCode
	Message string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsAllComplete reports whether err is the all-papers-complete state error.
func IsAllComplete(err error) bool {
	var se *StateError
	return errors.As(err, &se) && se.Code == ErrCodeAllComplete
}
