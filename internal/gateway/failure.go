package gateway

import (
	"fmt"

	ierr "github.com/flexprice/cashier/internal/errors"
)

// Failure codes that do not come from the gateway's own message list
const (
	CodeNoResponse    = "NO_RESPONSE"
	CodeHeldForReview = "HELD_FOR_REVIEW"
)

// Failure is a rejection reported by the gateway, carrying the first message's code and text
type Failure struct {
	Code    string
	Message string
	// Transaction is set when the failure still produced a transaction, e.g. a review hold
	Transaction *Transaction
}

func (f *Failure) Error() string {
	return fmt.Sprintf("payment gateway: %s: %s", f.Code, f.Message)
}

// NewFailure classifies a gateway message into a marked error
func NewFailure(code, message string) error {
	f := &Failure{Code: code, Message: message}
	kind := ierr.ErrGatewayFailure
	if code == CodeNoResponse {
		kind = ierr.ErrNoResponse
	}
	return ierr.WithError(f).
		WithHintf("Payment gateway reply: %s %s", code, message).
		WithReportableDetails(map[string]any{
			"gateway_code":    code,
			"gateway_message": message,
		}).
		Mark(kind)
}

// NoResponse is returned when the gateway produced no response object at all
func NoResponse(operation string) error {
	f := &Failure{Code: CodeNoResponse, Message: "no response from payment gateway"}
	return ierr.WithError(f).
		WithMessagef("%s returned no response", operation).
		WithHint("The payment gateway did not respond, the outcome must be verified before retrying").
		WithReportableDetails(map[string]any{
			"gateway_code": CodeNoResponse,
			"operation":    operation,
		}).
		Mark(ierr.ErrNoResponse)
}

// HeldForReview wraps a transaction the gateway's fraud filters put on hold
func HeldForReview(tx *Transaction, message string) error {
	if message == "" {
		message = "transaction is held for review"
	}
	f := &Failure{Code: CodeHeldForReview, Message: message, Transaction: tx}
	return ierr.WithError(f).
		WithHint("The payment is pending review by the merchant").
		WithReportableDetails(map[string]any{
			"gateway_code":   CodeHeldForReview,
			"transaction_id": tx.TransactionID,
		}).
		Mark(ierr.ErrHeldForReview)
}

// OutcomeUnknown marks an error after which the remote effect may or may not have happened
func OutcomeUnknown(operation string, err error) error {
	return ierr.WithError(err).
		WithMessagef("%s outcome unknown", operation).
		WithHint("The payment gateway did not answer in time, the outcome must be verified before retrying").
		WithReportableDetails(map[string]any{
			"operation": operation,
		}).
		Mark(ierr.ErrOutcomeUnknown)
}

// AsFailure extracts the gateway failure from err
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	if ierr.As(err, &f) {
		return f, true
	}
	return nil, false
}

// HeldTransaction returns the transaction attached to a review hold
func HeldTransaction(err error) (*Transaction, bool) {
	if !ierr.IsHeldForReview(err) {
		return nil, false
	}
	f, ok := AsFailure(err)
	if !ok || f.Transaction == nil {
		return nil, false
	}
	return f.Transaction, true
}
