package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nerrad567/gray-logic-panels/internal/binding"
	"github.com/nerrad567/gray-logic-panels/internal/device"
	"github.com/nerrad567/gray-logic-panels/internal/panel"
	"github.com/nerrad567/gray-logic-panels/internal/protocol"
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
	ErrCodeConflict       = "conflict"
	ErrCodeInternal       = "internal_error"
	ErrCodeValidation     = "validation_error"
	ErrCodeUnavailable    = "unavailable"
	ErrCodeUnauthorized   = "unauthorized"
	ErrCodeForbidden      = "forbidden"
	ErrCodeMethodNotAllow = "method_not_allowed"
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

func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

func writeNotFound(w http.ResponseWriter, message string) {
	writeError(w, http.StatusNotFound, ErrCodeNotFound, message)
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	writeError(w, http.StatusUnauthorized, ErrCodeUnauthorized, message)
}

func writeInternalError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusInternalServerError, ErrCodeInternal, message)
}

// writeDomainError maps package sentinel errors to HTTP responses.
func (s *Server) writeDomainError(w http.ResponseWriter, err error, action string) {
	switch {
	case errors.Is(err, panel.ErrPanelNotFound),
		errors.Is(err, device.ErrDeviceNotFound),
		errors.Is(err, device.ErrCapabilityNotFound),
		errors.Is(err, binding.ErrConfigNotFound):
		writeNotFound(w, err.Error())
	case errors.Is(err, panel.ErrCapabilityUnsupported),
		errors.Is(err, device.ErrCapabilityNotSetable):
		writeError(w, http.StatusConflict, ErrCodeConflict, err.Error())
	case errors.Is(err, device.ErrInvalidDevice),
		errors.Is(err, binding.ErrInvalidConfig),
		errors.Is(err, protocol.ErrInvalidPage),
		errors.Is(err, protocol.ErrInvalidPayload),
		errors.Is(err, protocol.ErrInvalidButtonIndex),
		errors.Is(err, panel.ErrNotButton):
		writeError(w, http.StatusBadRequest, ErrCodeValidation, err.Error())
	case errors.Is(err, errLoopUnavailable):
		writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, "event loop busy")
	default:
		s.logger.Error(action+" failed", "error", err)
		writeInternalError(w, action+" failed")
	}
}
