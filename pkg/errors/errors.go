package errors

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by the data layer. Every error returned by a service
// wraps exactly one of these so callers can branch with errors.Is.
var (
	// ErrAuth indicates there is no authenticated principal or the token is invalid
	ErrAuth = errors.New("authentication required")

	// ErrQuery indicates the backend rejected or failed a query
	ErrQuery = errors.New("query failed")

	// ErrNotFound indicates a requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a uniqueness or foreign key constraint was violated
	ErrConflict = errors.New("conflict")

	// ErrInvalidTransition indicates a relationship status change outside the transition table
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrValidation indicates invalid input data
	ErrValidation = errors.New("invalid input")
)

// Kind names, used in the response envelope and metrics labels.
const (
	KindAuth              = "auth"
	KindQuery             = "query"
	KindNotFound          = "not_found"
	KindConflict          = "conflict"
	KindInvalidTransition = "invalid_transition"
	KindValidation        = "validation"
)

// AuthError creates an authentication error with context
func AuthError(reason string) error {
	if reason == "" {
		return ErrAuth
	}
	return fmt.Errorf("%s: %w", reason, ErrAuth)
}

// QueryError wraps a backend failure for the named operation
func QueryError(op string, err error) error {
	if err == nil {
		return fmt.Errorf("%s: %w", op, ErrQuery)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrQuery, err)
}

// NotFoundError creates a not found error with context
func NotFoundError(resource string) error {
	return fmt.Errorf("%s %w", resource, ErrNotFound)
}

// ConflictError reports a constraint violation. It is also a query error.
func ConflictError(what string) error {
	return fmt.Errorf("%s: %w: %w", what, ErrConflict, ErrQuery)
}

// InvalidTransitionError reports a disallowed status change
func InvalidTransitionError(from, to string) error {
	return fmt.Errorf("%s -> %s: %w", from, to, ErrInvalidTransition)
}

// ValidationError creates an invalid input error with context
func ValidationError(field, reason string) error {
	return fmt.Errorf("%s: %s: %w", field, reason, ErrValidation)
}

// Is checks if an error matches a target error (works with wrapped errors)
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// KindOf classifies an error. Conflict is checked before query.
func KindOf(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrAuth):
		return KindAuth
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrConflict):
		return KindConflict
	case errors.Is(err, ErrInvalidTransition):
		return KindInvalidTransition
	case errors.Is(err, ErrValidation):
		return KindValidation
	default:
		return KindQuery
	}
}
