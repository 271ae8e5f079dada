package store

import "errors"

var (
	// ErrNotFound is returned when a record doesn't exist or is outside the caller's scope.
	ErrNotFound = errors.New("not found")
	// ErrForbidden is returned when the caller may see a record but not change it.
	ErrForbidden = errors.New("forbidden")
	// ErrConflict is returned when a write violates a uniqueness constraint.
	ErrConflict = errors.New("conflict")
	// ErrInvalid is returned when input fails validation.
	ErrInvalid = errors.New("invalid")
)
