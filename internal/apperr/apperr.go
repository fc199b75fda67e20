// Package apperr defines the error taxonomy shared by all services. Every
// operation failure is classified into one of the sentinels below before it
// crosses a package boundary; raw storage errors never reach a handler.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound covers unknown IDs and wrong-tenant IDs alike, so that
	// another organisation's data is indistinguishable from absent data.
	ErrNotFound = errors.New("not found")
	// ErrConflict covers uniqueness violations, already-deleted records and
	// invalid status transitions.
	ErrConflict = errors.New("conflict")
	// ErrInvalidArgument covers malformed input and out-of-bounds pagination.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrUnauthenticated covers missing, malformed, expired or revoked credentials.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrForbidden covers role mismatches on protected operations.
	ErrForbidden = errors.New("forbidden")
)

// NotFound returns a formatted error wrapping ErrNotFound.
func NotFound(format string, args ...any) error {
	return wrap(ErrNotFound, format, args...)
}

// Conflict returns a formatted error wrapping ErrConflict.
func Conflict(format string, args ...any) error {
	return wrap(ErrConflict, format, args...)
}

// InvalidArgument returns a formatted error wrapping ErrInvalidArgument.
func InvalidArgument(format string, args ...any) error {
	return wrap(ErrInvalidArgument, format, args...)
}

// Unauthenticated returns a formatted error wrapping ErrUnauthenticated.
func Unauthenticated(format string, args ...any) error {
	return wrap(ErrUnauthenticated, format, args...)
}

// Forbidden returns a formatted error wrapping ErrForbidden.
func Forbidden(format string, args ...any) error {
	return wrap(ErrForbidden, format, args...)
}

func wrap(sentinel error, format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), sentinel)
}
