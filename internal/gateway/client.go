// Package gateway is the boundary to the remote payment gateway. Every method
// returns either a non-nil payload or an error, never both nil. Errors reported
// by the gateway are *Failure values marked with an ierr sentinel.
package gateway

import "context"

// Client is implemented by the Authorize.Net integration and by test doubles
type Client interface {
	CreateCustomerProfile(ctx context.Context, req CreateCustomerProfileRequest) (*CustomerProfile, error)
	UpdatePaymentProfile(ctx context.Context, req UpdatePaymentProfileRequest) error
	DeleteCustomerProfile(ctx context.Context, customerProfileID string) error

	// CreateTransaction captures a charge against a stored payment profile. A
	// transaction held for review is returned as a Failure marked
	// ierr.ErrHeldForReview that still carries the transaction.
	CreateTransaction(ctx context.Context, req CreateTransactionRequest) (*Transaction, error)
	GetTransaction(ctx context.Context, transactionID string) (*TransactionDetails, error)

	CreateRecurringSubscription(ctx context.Context, req CreateRecurringSubscriptionRequest) (*RecurringSubscriptionRef, error)
	CancelRecurringSubscription(ctx context.Context, subscriptionID string) error
	GetRecurringSubscription(ctx context.Context, subscriptionID string) (*RecurringSubscription, error)
}
