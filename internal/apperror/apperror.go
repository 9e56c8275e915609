// Package apperror defines the application's error taxonomy.
//
// Every fallible operation in the service layer returns one of these error
// kinds wrapped in an *AppError. The HTTP layer maps them to status codes
// with errors.Is — the services themselves never know about HTTP.
package apperror

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound — the requested id does not resolve to a record.
	ErrNotFound = errors.New("not found")
	// ErrValidation — a required field is missing or malformed.
	ErrValidation = errors.New("validation error")
	// ErrDuplicate — a unique constraint (username, email) was violated.
	ErrDuplicate = errors.New("duplicate")
	// ErrForbidden — the caller is authenticated but lacks privilege.
	ErrForbidden = errors.New("forbidden")
	// ErrUnauthenticated — bad username/password pair. Deliberately a single
	// undifferentiated kind so callers can't learn which half was wrong.
	ErrUnauthenticated = errors.New("invalid credentials")
	// ErrCorruptHash — a stored password hash is unreadable. This signals
	// data corruption and must never be interpreted as "wrong password".
	ErrCorruptHash = errors.New("corrupt credential hash")
)

// AppError carries a sentinel error plus a human-readable one-line message.
// The message is what a UI would flash to the user; the sentinel is what
// code branches on.
type AppError struct {
	Err     error  // one of the sentinels above
	Message string // human-readable error message
	Field   string // optional: field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NotFound returns an AppError for a record that doesn't exist.
// HTTP handlers map this to 404.
func NotFound(resource string, id int64) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %d", resource, id),
	}
}

// ValidationFailed returns an AppError for a missing or malformed field.
func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// Duplicate returns an AppError for a unique-constraint conflict on the
// given field (e.g. "username", "email"). HTTP handlers map this to 409.
func Duplicate(field, value string) *AppError {
	return &AppError{
		Err:     ErrDuplicate,
		Message: fmt.Sprintf("%s %q is already taken", field, value),
		Field:   field,
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// InvalidCredentials returns the single undifferentiated login failure.
// Whether the username was unknown or the password wrong, the caller sees
// the same error — the asymmetry would otherwise leak which accounts exist.
func InvalidCredentials() *AppError {
	return &AppError{
		Err:     ErrUnauthenticated,
		Message: "invalid username or password",
	}
}

// CorruptHash returns an AppError for an unreadable stored credential.
// Unlike the other kinds this is not recoverable at the boundary — it means
// the store itself is damaged and should be logged loudly.
func CorruptHash(userID int64) *AppError {
	return &AppError{
		Err:     ErrCorruptHash,
		Message: fmt.Sprintf("stored credential for user %d is unreadable", userID),
	}
}
