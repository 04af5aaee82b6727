package handler

// Response helpers shared by all handlers. Every error response has the
// same shape:
//
//	{"error": "not_found", "message": "text not found with id abc123"}
//
// so a client always knows what fields to expect, whatever the status code.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/txtshr/internal/apperror"
)

// ErrorResponse is the standard error body for every API error.
type ErrorResponse struct {
	Error   string `json:"error"`           // machine-readable kind, e.g. "not_found"
	Message string `json:"message"`         // human-readable description
	Field   string `json:"field,omitempty"` // for validation errors: which input was bad
}

// writeJSON sends a JSON response. Headers and status must be written
// before the body — once Encode writes, the headers are on the wire.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers already sent; nothing left to do but log.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError translates a domain error into an HTTP response.
//
// This is the single place the apperror taxonomy meets HTTP status codes;
// the service layer never sees a status code. errors.Is walks the wrapped
// chain, so a service error like
//
//	fmt.Errorf("creating text: %w", apperror.ValidationFailed(...))
//
// still maps to 400.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		kind := "internal_error"

		switch {
		case errors.Is(err, apperror.ErrValidation):
			status = http.StatusBadRequest
			kind = "validation_error"
		case errors.Is(err, apperror.ErrNotFound):
			status = http.StatusNotFound
			kind = "not_found"
		case errors.Is(err, apperror.ErrAccessDenied):
			status = http.StatusForbidden
			kind = "access_denied"
		case errors.Is(err, apperror.ErrForbidden):
			status = http.StatusForbidden
			kind = "forbidden"
		case errors.Is(err, apperror.ErrUnauthorized):
			status = http.StatusUnauthorized
			kind = "unauthorized"
		}

		writeJSON(w, status, ErrorResponse{
			Error:   kind,
			Message: appErr.Message,
			Field:   appErr.Field,
		})
		return
	}

	// Unknown error: generic 500. The raw message might carry SQL or file
	// paths — never expose it to the client.
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred",
	})
}
