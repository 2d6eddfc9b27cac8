package errors

import (
	"fmt"
	"net/http"

	"github.com/cockroachdb/errors"
)

// Common error types that can be used across the application
var (
	ErrNotFound         = new(ErrCodeNotFound, "resource not found")
	ErrAlreadyExists    = new(ErrCodeAlreadyExists, "resource already exists")
	ErrVersionConflict  = new(ErrCodeVersionConflict, "version conflict")
	ErrValidation       = new(ErrCodeValidation, "validation error")
	ErrInvalidOperation = new(ErrCodeInvalidOperation, "invalid operation")
	ErrHTTPClient       = new(ErrCodeHTTPClient, "http client error")
	ErrDatabase         = new(ErrCodeDatabase, "database error")
	ErrSystem           = new(ErrCodeSystemError, "system error")
	ErrPermissionDenied = new(ErrCodePermissionDenied, "permission denied")
	ErrUnauthorized     = new(ErrCodeUnauthorized, "unauthorized")

	// Billing specific kinds
	ErrNoResponse     = new(ErrCodeNoResponse, "payment gateway returned no response")
	ErrGatewayFailure = new(ErrCodeGatewayFailure, "payment gateway rejected the request")
	ErrHeldForReview  = new(ErrCodeHeldForReview, "transaction held for review")
	ErrNotACustomer   = new(ErrCodeNotACustomer, "account is not a gateway customer")
	ErrConfiguration  = new(ErrCodeConfiguration, "configuration error")
	ErrOutcomeUnknown = new(ErrCodeOutcomeUnknown, "payment gateway outcome unknown")
	ErrCircuitOpen    = new(ErrCodeCircuitOpen, "payment gateway temporarily unavailable")

	// maps errors to http status codes, first match wins
	statusCodes = []struct {
		err    error
		status int
	}{
		{ErrNotFound, http.StatusNotFound},
		{ErrAlreadyExists, http.StatusConflict},
		{ErrVersionConflict, http.StatusConflict},
		{ErrValidation, http.StatusBadRequest},
		{ErrInvalidOperation, http.StatusBadRequest},
		{ErrUnauthorized, http.StatusUnauthorized},
		{ErrPermissionDenied, http.StatusForbidden},
		{ErrNotACustomer, http.StatusUnprocessableEntity},
		// pending manual adjudication, the charge exists but is not settled
		{ErrHeldForReview, http.StatusAccepted},
		{ErrGatewayFailure, http.StatusPaymentRequired},
		{ErrNoResponse, http.StatusBadGateway},
		{ErrOutcomeUnknown, http.StatusGatewayTimeout},
		{ErrCircuitOpen, http.StatusServiceUnavailable},
		{ErrConfiguration, http.StatusInternalServerError},
		{ErrHTTPClient, http.StatusInternalServerError},
		{ErrDatabase, http.StatusInternalServerError},
		{ErrSystem, http.StatusInternalServerError},
	}
)

const (
	ErrCodeHTTPClient       = "http_client_error"
	ErrCodeSystemError      = "system_error"
	ErrCodeNotFound         = "not_found"
	ErrCodeAlreadyExists    = "already_exists"
	ErrCodeVersionConflict  = "version_conflict"
	ErrCodeValidation       = "validation_error"
	ErrCodeInvalidOperation = "invalid_operation"
	ErrCodePermissionDenied = "permission_denied"
	ErrCodeUnauthorized     = "unauthorized"
	ErrCodeDatabase         = "database_error"
	ErrCodeNoResponse       = "no_response"
	ErrCodeGatewayFailure   = "gateway_failure"
	ErrCodeHeldForReview    = "held_for_review"
	ErrCodeNotACustomer     = "not_a_customer"
	ErrCodeConfiguration    = "configuration_error"
	ErrCodeOutcomeUnknown   = "outcome_unknown"
	ErrCodeCircuitOpen      = "circuit_open"
)

// InternalError represents a domain error
type InternalError struct {
	Code    string // Machine-readable error code
	Message string // Human-readable error message
	Op      string // Logical operation name
	Err     error  // Underlying error
}

func (e *InternalError) Error() string {
	if e.Err == nil {
		return e.DisplayError()
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Err.Error())
}

func (e *InternalError) DisplayError() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *InternalError) Unwrap() error {
	return e.Err
}

// Is implements error matching for wrapped errors
func (e *InternalError) Is(target error) bool {
	if target == nil {
		return false
	}

	t, ok := target.(*InternalError)
	if !ok {
		return errors.Is(e.Err, target)
	}

	return e.Code == t.Code
}

func new(code string, message string) *InternalError {
	return &InternalError{
		Code:    code,
		Message: message,
	}
}

func As(err error, target any) bool {
	return errors.As(err, target)
}

func Is(err, reference error) bool {
	return errors.Is(err, reference)
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if an error is an already exists error
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsVersionConflict checks if an error is a version conflict error
func IsVersionConflict(err error) bool {
	return errors.Is(err, ErrVersionConflict)
}

// IsValidation checks if an error is a validation error
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsInvalidOperation checks if an error is an invalid operation error
func IsInvalidOperation(err error) bool {
	return errors.Is(err, ErrInvalidOperation)
}

// IsUnauthorized checks if an error is a missing or invalid credential error
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsHTTPClient checks if an error is an http client error
func IsHTTPClient(err error) bool {
	return errors.Is(err, ErrHTTPClient)
}

// IsHeldForReview reports a transaction that is neither approved nor declined yet.
func IsHeldForReview(err error) bool {
	return errors.Is(err, ErrHeldForReview)
}

// IsGatewayFailure reports an explicit rejection by the gateway.
func IsGatewayFailure(err error) bool {
	return errors.Is(err, ErrGatewayFailure)
}

// IsNoResponse reports a gateway call that produced no response object.
func IsNoResponse(err error) bool {
	return errors.Is(err, ErrNoResponse)
}

// IsOutcomeUnknown reports whether the remote effect of a call may or may not have happened.
// Callers must reconcile with a lookup before retrying.
func IsOutcomeUnknown(err error) bool {
	return errors.Is(err, ErrOutcomeUnknown) || errors.Is(err, ErrNoResponse)
}

// IsNotACustomer checks if an error is a missing gateway profile error
func IsNotACustomer(err error) bool {
	return errors.Is(err, ErrNotACustomer)
}

// IsConfiguration checks if an error is a configuration error
func IsConfiguration(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

func HTTPStatusFromErr(err error) int {
	for _, sc := range statusCodes {
		if errors.Is(err, sc.err) {
			return sc.status
		}
	}
	return http.StatusInternalServerError
}

// KindFromErr returns the code of the first sentinel the error is marked with.
func KindFromErr(err error) string {
	for _, sc := range statusCodes {
		if errors.Is(err, sc.err) {
			if ie, ok := sc.err.(*InternalError); ok {
				return ie.Code
			}
		}
	}
	return ErrCodeSystemError
}
