// Package errdefs holds the error kinds shared by the gateway client, the
// controllers and the mutators.
package errdefs

import (
	"errors"
	"fmt"
)

// ErrUnauthorized is returned for HTTP 401. It is never retried.
var ErrUnauthorized = errors.New("unauthorized")

// APIError is any other non-2xx response.
type APIError struct {
	StatusCode int
	StatusText string
	// Body holds at most the first KiB of the response for diagnostics.
	Body string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error: %s", e.StatusText)
}

// NetworkError wraps a transport-level failure (dial, TLS, timeout, reset).
type NetworkError struct {
	Op  string
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network failure during %s %s: %v", e.Op, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ValidationError is raised before any network call when input is incomplete.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Invalid is shorthand for a *ValidationError.
func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsNotFound reports whether err is an APIError with status 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == 404
}

func IsAPIError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr)
}

func IsNetwork(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr)
}

func IsValidation(err error) bool {
	var vErr *ValidationError
	return errors.As(err, &vErr)
}
