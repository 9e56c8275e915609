package handler

// RESPONSE HELPERS:
// These functions standardise how we send JSON responses and errors.
//
// CONSISTENT ERROR FORMAT:
// Every error response from the API has the same shape:
//
//	{"error": "forbidden", "message": "you can't delete this post"}
//
// The message field is the human-readable one-liner a UI would flash to the
// user; the error field is the machine-readable kind.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/microblog/internal/apperror"
)

// ErrorResponse is the standard error format returned by all API endpoints.
type ErrorResponse struct {
	Error   string `json:"error"`   // machine-readable error kind (e.g. "not_found")
	Message string `json:"message"` // human-readable description
}

// writeJSON sends a JSON response with the given status code.
// Headers and status must be written before the body — once Encode calls
// Write, the headers are sent and any later changes are silently ignored.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a domain error to the appropriate HTTP status code.
//
// ERROR MAPPING:
// The service layer returns apperror sentinels; this is the single place
// they become status codes:
//
//	ErrValidation      → 400  (re-render the form with the message)
//	ErrUnauthenticated → 401  (bad credentials, undifferentiated)
//	ErrForbidden       → 403  (authenticated but not allowed)
//	ErrNotFound        → 404
//	ErrDuplicate       → 409
//	ErrCorruptHash     → 500  (store damage — generic message, loud log)
//
// ErrCorruptHash is deliberately NOT surfaced with its own message: the
// client learns nothing about the corruption, it just sees a server error,
// while the condition has already been logged by the session manager.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) && !errors.Is(err, apperror.ErrCorruptHash) {
		status := http.StatusInternalServerError
		errorKind := "internal_error"

		switch {
		case errors.Is(err, apperror.ErrValidation):
			status = http.StatusBadRequest
			errorKind = "validation_error"
		case errors.Is(err, apperror.ErrUnauthenticated):
			status = http.StatusUnauthorized
			errorKind = "unauthenticated"
		case errors.Is(err, apperror.ErrForbidden):
			status = http.StatusForbidden
			errorKind = "forbidden"
		case errors.Is(err, apperror.ErrNotFound):
			status = http.StatusNotFound
			errorKind = "not_found"
		case errors.Is(err, apperror.ErrDuplicate):
			status = http.StatusConflict
			errorKind = "duplicate"
		}

		writeJSON(w, status, ErrorResponse{
			Error:   errorKind,
			Message: appErr.Message,
		})
		return
	}

	// Unknown error (or corrupt store) — generic 500. Never expose internal
	// error details to the client; the raw message might contain SQL or paths.
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred",
	})
}
