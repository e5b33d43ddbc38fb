package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"finance/internal/core"
	"finance/internal/log"
)

// sanitizeInput removes control characters except tab, newline and
// carriage return, then trims whitespace.
func sanitizeInput(s string) string {
	s = strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeText(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(msg))
}

// requestLogger returns the request-scoped logger for component.
func requestLogger(r *http.Request, component string) *log.Logger {
	return log.FromContext(r.Context()).WithComponent(component)
}

// statusFor maps the core error taxonomy to an HTTP status.
func statusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case core.IsValidation(err):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrDuplicateEmail):
		return http.StatusConflict
	case errors.Is(err, core.ErrInvalidCredentials):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// errorType returns the log category for err.
func errorType(err error) string {
	switch statusFor(err) {
	case http.StatusBadRequest:
		return log.ErrorTypeValidation
	case http.StatusNotFound:
		return log.ErrorTypeNotFound
	case http.StatusConflict:
		return log.ErrorTypeConflict
	case http.StatusUnauthorized:
		return log.ErrorTypeAuth
	default:
		return log.ErrorTypeInternal
	}
}

// writeError replies with the error as plain text. Internal errors are
// logged and replaced by a generic message.
func writeError(w http.ResponseWriter, r *http.Request, component, op string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.NewStructuredLogger(log.FromContext(r.Context())).LogError(r.Context(), "Request failed", err, component, op,
			log.NewFields().WithErrorType(log.ErrorTypeInternal))
		writeText(w, status, "Internal error")
		return
	}
	fields := log.NewFields().
		WithError(err).
		WithOperation(op).
		WithErrorType(errorType(err))
	requestLogger(r, component).WarnContext(r.Context(), "Request rejected", fields.ToSlice()...)
	writeText(w, status, err.Error())
}
