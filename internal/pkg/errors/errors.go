package errors

import "errors"

// Application-wide sentinel errors. Services wrap these with context via
// fmt.Errorf("...: %w", ...); handlers classify with errors.Is.
var (
	// ErrNotFound is returned when a record or resource does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrUnauthorized is returned for authentication failures (missing or invalid token).
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden is returned when the caller lacks rights for the action,
	// including reads of another student's attempt.
	ErrForbidden = errors.New("forbidden")

	// ErrValidation is returned for malformed or inconsistent input.
	ErrValidation = errors.New("validation failed")

	// ErrConflict is returned for state conflicts, e.g. publishing an
	// already-published quiz or deleting a quiz with recorded attempts.
	ErrConflict = errors.New("resource state conflict")
)
