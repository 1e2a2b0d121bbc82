package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nerrad567/sovd-sim/internal/entity"
	"github.com/nerrad567/sovd-sim/internal/lock"
	"github.com/nerrad567/sovd-sim/internal/mode"
	"github.com/nerrad567/sovd-sim/internal/operation"
	"github.com/nerrad567/sovd-sim/internal/resource"
)

// Error represents a structured error response.
type Error struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Common error codes.
const (
	ErrCodeBadRequest     = "bad_request"
	ErrCodeNotFound       = "not_found"
	ErrCodeForbidden      = "forbidden"
	ErrCodeLockRequired   = "lock_required"
	ErrCodeReadOnly       = "read_only"
	ErrCodeUnsupported    = "unsupported"
	ErrCodeInternal       = "internal_error"
	ErrCodeValidation     = "validation_error"
	ErrCodeMethodNotAllow = "method_not_allowed"
	ErrCodeUnavailable    = "unavailable"
)

// writeJSON writes a JSON response with the given status code and payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // Best-effort write to response; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}

// writeError writes a structured error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, Error{
		Status:  status,
		Code:    code,
		Message: message,
	})
}

// writeBadRequest writes a 400 error response.
func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// writeInternalError writes a 500 error response.
func writeInternalError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusInternalServerError, ErrCodeInternal, message)
}

// writeDomainError maps a simulation error onto an HTTP response.
//
//	not found      404
//	read-only      409
//	lock required  403
//	invalid value  400
//	unsupported    405
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, entity.ErrEntityNotFound),
		errors.Is(err, resource.ErrResourceNotFound),
		errors.Is(err, operation.ErrUnknownOperation),
		errors.Is(err, operation.ErrOperationNotFound):
		writeError(w, http.StatusNotFound, ErrCodeNotFound, err.Error())
	case errors.Is(err, resource.ErrReadOnly):
		writeError(w, http.StatusConflict, ErrCodeReadOnly, err.Error())
	case errors.Is(err, lock.ErrLockRequired):
		writeError(w, http.StatusForbidden, ErrCodeLockRequired, err.Error())
	case errors.Is(err, resource.ErrInvalidValue),
		errors.Is(err, mode.ErrInvalidMode),
		errors.Is(err, operation.ErrInvalidParameter),
		errors.Is(err, lock.ErrInvalidTTL):
		writeError(w, http.StatusBadRequest, ErrCodeValidation, err.Error())
	case errors.Is(err, mode.ErrUnsupported):
		writeError(w, http.StatusMethodNotAllowed, ErrCodeUnsupported, err.Error())
	default:
		s.logger.Error("unhandled request error",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", r.Context().Value(ctxKeyRequestID),
			"error", err,
		)
		writeInternalError(w, "internal server error")
	}
}
