package httpclient

import (
	"fmt"

	ierr "github.com/flexprice/cashier/internal/errors"
)

// Error is a non-2xx reply
type Error struct {
	StatusCode int
	Response   []byte
}

func (e *Error) Error() string {
	return fmt.Sprintf("http client error: status %d", e.StatusCode)
}

// NewError creates a new HTTP client error
func NewError(statusCode int, response []byte) error {
	return ierr.WithError(&Error{StatusCode: statusCode, Response: response}).
		WithHintf("Remote service replied with status %d", statusCode).
		Mark(ierr.ErrHTTPClient)
}

// RequestError means the request was never sent
type RequestError struct {
	Err error
}

func (e *RequestError) Error() string { return "build request: " + e.Err.Error() }
func (e *RequestError) Unwrap() error { return e.Err }

// TransportError means the request may have reached the remote side
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return "transport: " + e.Err.Error() }
func (e *TransportError) Unwrap() error { return e.Err }

// IsHTTPError checks if an error is a non-2xx reply
func IsHTTPError(err error) (*Error, bool) {
	var httpErr *Error
	if ierr.As(err, &httpErr) {
		return httpErr, true
	}
	return nil, false
}

// IsTransportError reports an error raised after the request left the process
func IsTransportError(err error) bool {
	var te *TransportError
	return ierr.As(err, &te)
}
