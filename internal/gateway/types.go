package gateway

import (
	"time"

	"github.com/shopspring/decimal"
)

// ResultCodeOk is the only envelope result code that means success
const ResultCodeOk = "Ok"

// Transaction response codes
const (
	ResponseCodeApproved      = "1"
	ResponseCodeDeclined      = "2"
	ResponseCodeError         = "3"
	ResponseCodeHeldForReview = "4"
)

// Transaction statuses returned by transaction lookups that are still awaiting a decision
const (
	TransactionStatusFDSPendingReview           = "FDSPendingReview"
	TransactionStatusFDSAuthorizedPendingReview = "FDSAuthorizedPendingReview"
	TransactionStatusDeclined                   = "declined"
	TransactionStatusVoided                     = "voided"
	TransactionStatusSettled                    = "settledSuccessfully"
	TransactionStatusCapturedPending            = "capturedPendingSettlement"
)

// ARB subscription statuses
const (
	SubscriptionStatusActive     = "active"
	SubscriptionStatusExpired    = "expired"
	SubscriptionStatusSuspended  = "suspended"
	SubscriptionStatusCanceled   = "canceled"
	SubscriptionStatusTerminated = "terminated"
)

const CustomerTypeIndividual = "individual"

type Address struct {
	FirstName string
	LastName  string
	Company   string
	Address   string
	City      string
	State     string
	Zip       string
	Country   string
}

// Card is raw card data, never log it
type Card struct {
	Number         string
	ExpirationDate string
	CardCode       string
}

type CreateCustomerProfileRequest struct {
	MerchantCustomerID string
	Email              string
	Description        string
	CustomerType       string
	BillTo             Address
	Card               Card
}

type CustomerProfile struct {
	CustomerProfileID string
	PaymentProfileID  string
}

type UpdatePaymentProfileRequest struct {
	CustomerProfileID string
	PaymentProfileID  string
	CustomerType      string
	BillTo            Address
	Card              Card
}

type CreateTransactionRequest struct {
	CustomerProfileID string
	PaymentProfileID  string
	Amount            decimal.Decimal
	Currency          string
	Description       string
	// InvoiceNumber doubles as the merchant idempotency reference
	InvoiceNumber string
}

type Transaction struct {
	TransactionID string
	AuthCode      string
	ResponseCode  string
	AccountNumber string
	AccountType   string
}

// Approved reports response code 1
func (t *Transaction) Approved() bool {
	return t.ResponseCode == ResponseCodeApproved
}

type TransactionDetails struct {
	ID            string          `json:"id"`
	Amount        decimal.Decimal `json:"amount" swaggertype:"string"`
	Status        string          `json:"status"`
	ResponseCode  string          `json:"response_code"`
	AuthCode      string          `json:"auth_code"`
	InvoiceNumber string          `json:"invoice_number"`
	Description   string          `json:"description"`
	SubmittedAt   time.Time       `json:"submitted_at"`
}

// PendingReview reports a fraud-filter hold that has not been decided
func (d *TransactionDetails) PendingReview() bool {
	return d.Status == TransactionStatusFDSPendingReview || d.Status == TransactionStatusFDSAuthorizedPendingReview
}

// Schedule is the ARB payment schedule. Unit is days or months.
type Schedule struct {
	IntervalUnit     string
	IntervalLength   int
	StartDate        time.Time
	TotalOccurrences int
	TrialOccurrences int
}

type CreateRecurringSubscriptionRequest struct {
	RefID             string
	Name              string
	CustomerProfileID string
	PaymentProfileID  string
	Schedule          Schedule
	Amount            decimal.Decimal
	TrialAmount       decimal.Decimal
	InvoiceNumber     string
	Description       string
}

type RecurringSubscriptionRef struct {
	SubscriptionID    string
	CustomerProfileID string
	PaymentProfileID  string
}

// RecurringSubscription is the gateway's view of an ARB subscription
type RecurringSubscription struct {
	ID                string          `json:"id"`
	Name              string          `json:"name"`
	Amount            decimal.Decimal `json:"amount" swaggertype:"string"`
	TrialAmount       decimal.Decimal `json:"trial_amount" swaggertype:"string"`
	Status            string          `json:"status"`
	Description       string          `json:"description,omitempty"`
	CustomerProfileID string          `json:"customer_profile_id,omitempty"`
	PaymentProfileID  string          `json:"payment_profile_id,omitempty"`
}

// Terminated reports a subscription the gateway will no longer bill
func (r *RecurringSubscription) Terminated() bool {
	switch r.Status {
	case SubscriptionStatusCanceled, SubscriptionStatusTerminated, SubscriptionStatusExpired:
		return true
	default:
		return false
	}
}
