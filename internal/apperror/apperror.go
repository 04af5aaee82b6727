package apperror

import (
	"errors"
	"fmt"
)

// Sentinel errors for the error taxonomy. Services return these (wrapped in
// an *AppError); the HTTP layer maps them to status codes with errors.Is.
var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation error")
	ErrAccessDenied = errors.New("access denied") // row exists but caller may not read it
	ErrForbidden    = errors.New("forbidden")     // caller may not perform the operation
	ErrUnauthorized = errors.New("unauthorized")  // no valid identity on a protected operation
)

type AppError struct {
	Err     error  // sentinel cause, for errors.Is checks
	Message string // human-readable error message
	Field   string // optional: input field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// AccessDenied indicates the resource exists but the caller may not read it.
// Used for private texts requested by anyone other than the owner.
func AccessDenied(message string) *AppError {
	return &AppError{
		Err:     ErrAccessDenied,
		Message: message,
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
//
// Note: delete deliberately reports Forbidden for a nonexistent id too, so a
// caller cannot probe which ids exist by attempting deletes.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// Unauthorized indicates a protected operation was called without a valid
// session. HTTP handlers map this to 401.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}
