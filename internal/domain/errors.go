package domain

import (
	"errors"
	"fmt"
)

// ValidationError marks caller mistakes: bad amounts, missing participants,
// percentage mismatches, non-member users. Handlers surface it as 400.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// Validationf builds a ValidationError.
func Validationf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

var (
	// ErrNotFound is returned when an expense, settlement, user or group id
	// does not resolve. Surfaced as 404.
	ErrNotFound = errors.New("not found")

	// ErrPermissionDenied is returned when the actor lacks rights to edit or
	// delete a resource. Surfaced as 403.
	ErrPermissionDenied = errors.New("permission denied")
)
