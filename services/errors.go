// services/errors.go
package services

import "errors"

// ValidationError rejects a request before any state mutation; it is
// surfaced to the caller as an actionable rejection.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// IsValidationError reports whether err is a pre-mutation rejection.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

var (
	// ErrRequestNotPending means the registration request was already decided.
	ErrRequestNotPending = errors.New("registration request is not pending")

	// ErrRequestNotFound means no registration request matches the given id.
	ErrRequestNotFound = errors.New("registration request not found")
)
