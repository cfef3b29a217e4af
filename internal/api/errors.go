package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nerrad567/irbridge-core/internal/bridge"
	"github.com/nerrad567/irbridge-core/internal/coordinator"
	"github.com/nerrad567/irbridge-core/internal/device"
	"github.com/nerrad567/irbridge-core/internal/ircode"
	"github.com/nerrad567/irbridge-core/internal/learning"
)

// Error represents a structured error response.
type Error struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Common error codes.
const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeNotFound     = "not_found"
	ErrCodeUnauthorized = "unauthorised"
	ErrCodeConflict     = "conflict"
	ErrCodeInternal     = "internal_error"
	ErrCodeValidation   = "validation_error"
	ErrCodeUnavailable  = "bridge_unavailable"
	ErrCodeBadGateway   = "publish_failed"
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

// writeNotFound writes a 404 error response.
func writeNotFound(w http.ResponseWriter, message string) {
	writeError(w, http.StatusNotFound, ErrCodeNotFound, message)
}

// writeUnauthorized writes a 401 error response.
func writeUnauthorized(w http.ResponseWriter, message string) {
	writeError(w, http.StatusUnauthorized, ErrCodeUnauthorized, message)
}

// writeInternalError writes a 500 error response.
func writeInternalError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusInternalServerError, ErrCodeInternal, message)
}

// writeDomainError maps sentinel errors from the subsystem onto HTTP
// status codes. Unknown errors become 500s without leaking detail.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, device.ErrDeviceNotFound),
		errors.Is(err, ircode.ErrCommandNotFound),
		errors.Is(err, learning.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, ErrCodeNotFound, err.Error())

	case errors.Is(err, device.ErrDeviceExists),
		errors.Is(err, device.ErrTopicExists),
		errors.Is(err, learning.ErrSessionAlreadyActive),
		errors.Is(err, learning.ErrSessionNotActive),
		errors.Is(err, learning.ErrSessionNotSucceeded),
		errors.Is(err, learning.ErrSessionStillActive),
		errors.Is(err, ircode.ErrEmptyLibrary):
		writeError(w, http.StatusConflict, ErrCodeConflict, err.Error())

	case errors.Is(err, device.ErrInvalidDevice),
		errors.Is(err, device.ErrInvalidName),
		errors.Is(err, device.ErrInvalidSlug),
		errors.Is(err, device.ErrInvalidTopic),
		errors.Is(err, ircode.ErrInvalidCategory),
		errors.Is(err, ircode.ErrInvalidName),
		errors.Is(err, ircode.ErrInvalidPayload),
		errors.Is(err, ircode.ErrMalformedDocument),
		errors.Is(err, learning.ErrInvalidTimeout),
		errors.Is(err, coordinator.ErrConfirmationRequired):
		writeError(w, http.StatusBadRequest, ErrCodeValidation, err.Error())

	case errors.Is(err, bridge.ErrBridgeUnavailable):
		writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, err.Error())

	case errors.Is(err, bridge.ErrPublishFailed),
		errors.Is(err, bridge.ErrSubscribeFailed):
		writeError(w, http.StatusBadGateway, ErrCodeBadGateway, err.Error())

	default:
		writeInternalError(w, "internal server error")
	}
}
