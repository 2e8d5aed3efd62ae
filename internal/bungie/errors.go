package bungie

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingAPIKey is returned by every call when the client has no API key configured.
	ErrMissingAPIKey = errors.New("bungie api key not configured")
	// ErrPlayerNotFound is returned when a player search yields no results.
	ErrPlayerNotFound = errors.New("player not found")
	// ErrNotFound is wrapped by an APIError when Bungie reports that the
	// requested resource does not exist.
	ErrNotFound = errors.New("bungie resource not found")
	// ErrUnavailable wraps transport, timeout and undecodable-response failures.
	ErrUnavailable = errors.New("bungie api unavailable")
)

// ErrorStatusSystemDisabled is the ErrorStatus Bungie reports during maintenance.
const ErrorStatusSystemDisabled = "SystemDisabled"

// APIError carries the upstream status and Bungie envelope fields of a failed call.
type APIError struct {
	// Status is the HTTP status code of the upstream response.
	Status int
	// ErrorCode is Bungie's PlatformErrorCodes value.
	ErrorCode int
	// ErrorStatus is the symbolic name of ErrorCode, e.g. "DestinyItemNotFound".
	ErrorStatus string
	// Message is Bungie's human readable error message.
	Message string
	// Path is the request path that failed.
	Path string
}

// Error implements error.
func (e *APIError) Error() string {
	return fmt.Sprintf("bungie %s: status %d, %s (%d): %s", e.Path, e.Status, e.ErrorStatus, e.ErrorCode, e.Message)
}

// Unwrap exposes ErrNotFound for responses that describe a missing resource.
func (e *APIError) Unwrap() error {
	if e.NotFound() {
		return ErrNotFound
	}
	return nil
}

// NotFound reports whether Bungie signalled a missing resource, either by a
// 404 status or by an ErrorStatus naming a NotFound condition.
func (e *APIError) NotFound() bool {
	return e.Status == 404 || strings.Contains(e.ErrorStatus, "NotFound")
}

// Maintenance reports whether Bungie refused the call because the platform is
// disabled for maintenance.
func (e *APIError) Maintenance() bool {
	return e.ErrorStatus == ErrorStatusSystemDisabled
}

// IsMaintenance reports whether err is an APIError signalling maintenance.
func IsMaintenance(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Maintenance()
}

// IsUnavailable reports whether err is a transport, timeout, maintenance or
// 5xx upstream failure rather than a definitive answer.
func IsUnavailable(err error) bool {
	if errors.Is(err, ErrUnavailable) || IsMaintenance(err) {
		return true
	}
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status >= 500
}
