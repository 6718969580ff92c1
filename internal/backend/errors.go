package backend

import (
	"errors"
	"fmt"
)

// Error taxonomy for the cloud API.
//
// These errors can be checked using errors.Is() / errors.As():
//
//	if errors.Is(err, backend.ErrAuthRequired) {
//	    // credentials invalid or expired — re-authentication needed
//	}
var (
	// ErrAuthRequired is returned when credentials are invalid or the
	// session has expired. Fatal to setup; the operator must re-authenticate.
	ErrAuthRequired = errors.New("backend: authentication required")

	// ErrValidationRequired is returned when the account needs an additional
	// verification step (e.g. a one-time code) before a session is granted.
	// Distinct from ErrAuthRequired: the credentials themselves are fine.
	ErrValidationRequired = errors.New("backend: account verification required")

	// ErrUnavailable is returned for timeouts and connectivity failures.
	// Retryable; setup should be re-attempted later rather than aborted.
	ErrUnavailable = errors.New("backend: service unavailable")
)

// APIError is a non-2xx response from the cloud API that is not an
// authentication or connectivity condition — typically a per-device failure
// such as an offline bridge or a rate limit.
type APIError struct {
	// StatusCode is the HTTP status of the response.
	StatusCode int

	// Message is the human-readable error from the response body, or the
	// HTTP status text when the body carried none.
	Message string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("backend: api error (status %d): %s", e.StatusCode, e.Message)
}

// IsUnavailable reports whether err represents a timeout or connectivity
// failure that is expected to clear on its own.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}

// AsAPIError unwraps err into an *APIError if it is one.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
