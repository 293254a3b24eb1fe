package domain

import (
	"errors"
	"fmt"
)

// Error taxonomy. Every error returned by a service wraps exactly one of these kinds so
// that transports can map it with errors.Is.
var (
	ErrValidation      = errors.New("validation failed")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrDependency      = errors.New("dependency failure")
)

// Specific failures of the registration workflow and stores.
var (
	ErrEventNotFound        = fmt.Errorf("event %w", ErrNotFound)
	ErrRegistrationNotFound = fmt.Errorf("registration %w", ErrNotFound)
	ErrProfileNotFound      = fmt.Errorf("profile %w", ErrNotFound)

	ErrAlreadyRegistered = fmt.Errorf("%w: already registered for this event", ErrConflict)
	ErrEventNotActive    = fmt.Errorf("%w: event is not accepting registrations", ErrConflict)
	ErrEventFull         = fmt.Errorf("%w: event is full", ErrConflict)

	ErrExportFailed = fmt.Errorf("%w: failed to export data", ErrDependency)
)

// ValidationError names the field-level constraint a write violated.
type ValidationError struct {
	Field  string
	Reason string
}

// NewValidationError returns a *ValidationError for field.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return e.Field + ": " + e.Reason
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// AccessError is returned when the access policy rejects an operation.
type AccessError struct {
	Action   string
	Resource string
	Reason   string
	// Anonymous is set when the principal was not authenticated.
	Anonymous bool
}

func (e *AccessError) Error() string {
	return fmt.Sprintf("%s %s denied: %s", e.Action, e.Resource, e.Reason)
}

func (e *AccessError) Unwrap() error {
	if e.Anonymous {
		return ErrUnauthenticated
	}
	return ErrForbidden
}
