package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nerrad567/keyline-core/internal/backend"
	"github.com/nerrad567/keyline-core/internal/fleet"
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
	ErrCodeConflict     = "conflict"
	ErrCodeInternal     = "internal_error"
	ErrCodeUpstreamAuth = "upstream_auth"
	ErrCodeUnavailable  = "backend_unavailable"
	ErrCodeOperation    = "operation_failed"
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

// writeInternalError writes a 500 error response.
func writeInternalError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusInternalServerError, ErrCodeInternal, message)
}

// writeOperationError maps a sync engine failure to an HTTP response.
//
// The cloud's taxonomy translates directly: connectivity trouble is 503,
// an expired or rejected session is 502 (the engine must re-authenticate,
// the caller cannot fix it), a device the engine does not know is 404,
// and a lock that cannot be reached remotely is 409.
func writeOperationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, fleet.ErrUnknownDevice):
		writeNotFound(w, "unknown device")
	case errors.Is(err, fleet.ErrNoBridge):
		writeError(w, http.StatusConflict, ErrCodeConflict, "lock has no bridge and cannot be operated remotely")
	case backend.IsUnavailable(err):
		writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, "cloud backend unavailable")
	case errors.Is(err, backend.ErrAuthRequired), errors.Is(err, backend.ErrValidationRequired):
		writeError(w, http.StatusBadGateway, ErrCodeUpstreamAuth, "cloud session requires re-authentication")
	default:
		writeError(w, http.StatusBadGateway, ErrCodeOperation, err.Error())
	}
}
