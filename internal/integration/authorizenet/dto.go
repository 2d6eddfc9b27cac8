package authorizenet

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Endpoints of the JSON API
const (
	SandboxURL    = "https://apitest.authorize.net/xml/v1/request.api"
	ProductionURL = "https://api.authorize.net/xml/v1/request.api"
)

// Request names used as the single top level key of every envelope
const (
	opCreateCustomerProfile        = "createCustomerProfileRequest"
	opUpdateCustomerPaymentProfile = "updateCustomerPaymentProfileRequest"
	opDeleteCustomerProfile        = "deleteCustomerProfileRequest"
	opCreateTransaction            = "createTransactionRequest"
	opGetTransactionDetails        = "getTransactionDetailsRequest"
	opARBCreateSubscription        = "ARBCreateSubscriptionRequest"
	opARBCancelSubscription        = "ARBCancelSubscriptionRequest"
	opARBGetSubscription           = "ARBGetSubscriptionRequest"
)

const (
	transactionTypeAuthCapture = "authCaptureTransaction"
	settingDuplicateWindow     = "duplicateWindow"
	validationModeTest         = "testMode"
	validationModeLive         = "liveMode"
)

// The gateway validates element order against its schema, so struct fields below
// must stay in schema order.

type merchantAuthentication struct {
	Name           string `json:"name"`
	TransactionKey string `json:"transactionKey"`
}

type message struct {
	Code string `json:"code"`
	Text string `json:"text"`
}

type messages struct {
	ResultCode string    `json:"resultCode"`
	Message    []message `json:"message"`
}

// first returns the canonical message of the reply
func (m *messages) first() (string, string) {
	if m == nil || len(m.Message) == 0 {
		return "", ""
	}
	return m.Message[0].Code, m.Message[0].Text
}

type baseResponse struct {
	RefID    string    `json:"refId,omitempty"`
	Messages *messages `json:"messages"`
}

func (r *baseResponse) envelope() *messages { return r.Messages }

type envelopeResponse interface {
	envelope() *messages
}

type customerAddress struct {
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Company   string `json:"company,omitempty"`
	Address   string `json:"address,omitempty"`
	City      string `json:"city,omitempty"`
	State     string `json:"state,omitempty"`
	Zip       string `json:"zip,omitempty"`
	Country   string `json:"country,omitempty"`
}

type creditCard struct {
	CardNumber     string `json:"cardNumber"`
	ExpirationDate string `json:"expirationDate"`
	CardCode       string `json:"cardCode,omitempty"`
}

type payment struct {
	CreditCard *creditCard `json:"creditCard,omitempty"`
}

type paymentProfile struct {
	CustomerType             string           `json:"customerType,omitempty"`
	BillTo                   *customerAddress `json:"billTo,omitempty"`
	Payment                  *payment         `json:"payment,omitempty"`
	CustomerPaymentProfileID string           `json:"customerPaymentProfileId,omitempty"`
}

type customerProfile struct {
	MerchantCustomerID string          `json:"merchantCustomerId,omitempty"`
	Description        string          `json:"description,omitempty"`
	Email              string          `json:"email,omitempty"`
	PaymentProfiles    *paymentProfile `json:"paymentProfiles,omitempty"`
}

type createCustomerProfileRequest struct {
	MerchantAuthentication merchantAuthentication `json:"merchantAuthentication"`
	RefID                  string                 `json:"refId,omitempty"`
	Profile                customerProfile        `json:"profile"`
	ValidationMode         string                 `json:"validationMode,omitempty"`
}

type createCustomerProfileResponse struct {
	baseResponse
	CustomerProfileID             string   `json:"customerProfileId"`
	CustomerPaymentProfileIDList  []string `json:"customerPaymentProfileIdList"`
	CustomerShippingAddressIDList []string `json:"customerShippingAddressIdList"`
}

type updateCustomerPaymentProfileRequest struct {
	MerchantAuthentication merchantAuthentication `json:"merchantAuthentication"`
	RefID                  string                 `json:"refId,omitempty"`
	CustomerProfileID      string                 `json:"customerProfileId"`
	PaymentProfile         paymentProfile         `json:"paymentProfile"`
	ValidationMode         string                 `json:"validationMode,omitempty"`
}

type deleteCustomerProfileRequest struct {
	MerchantAuthentication merchantAuthentication `json:"merchantAuthentication"`
	RefID                  string                 `json:"refId,omitempty"`
	CustomerProfileID      string                 `json:"customerProfileId"`
}

type profileToCharge struct {
	CustomerProfileID string              `json:"customerProfileId"`
	PaymentProfile    paymentProfileToUse `json:"paymentProfile"`
}

type paymentProfileToUse struct {
	PaymentProfileID string `json:"paymentProfileId"`
}

type order struct {
	InvoiceNumber string `json:"invoiceNumber,omitempty"`
	Description   string `json:"description,omitempty"`
}

type setting struct {
	SettingName  string `json:"settingName"`
	SettingValue string `json:"settingValue"`
}

type transactionSettings struct {
	Setting []setting `json:"setting"`
}

type transactionRequest struct {
	TransactionType     string               `json:"transactionType"`
	Amount              string               `json:"amount"`
	CurrencyCode        string               `json:"currencyCode,omitempty"`
	Profile             *profileToCharge     `json:"profile,omitempty"`
	Order               *order               `json:"order,omitempty"`
	TransactionSettings *transactionSettings `json:"transactionSettings,omitempty"`
}

type createTransactionRequest struct {
	MerchantAuthentication merchantAuthentication `json:"merchantAuthentication"`
	RefID                  string                 `json:"refId,omitempty"`
	TransactionRequest     transactionRequest     `json:"transactionRequest"`
}

type transactionError struct {
	ErrorCode string `json:"errorCode"`
	ErrorText string `json:"errorText"`
}

type transactionMessage struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type transactionResponse struct {
	ResponseCode  string               `json:"responseCode"`
	AuthCode      string               `json:"authCode"`
	AVSResultCode string               `json:"avsResultCode"`
	CVVResultCode string               `json:"cvvResultCode"`
	TransID       string               `json:"transId"`
	AccountNumber string               `json:"accountNumber"`
	AccountType   string               `json:"accountType"`
	Messages      []transactionMessage `json:"messages"`
	Errors        []transactionError   `json:"errors"`
}

func (t *transactionResponse) firstError() (string, string) {
	if len(t.Errors) == 0 {
		return "", ""
	}
	return t.Errors[0].ErrorCode, t.Errors[0].ErrorText
}

type createTransactionResponse struct {
	baseResponse
	TransactionResponse *transactionResponse `json:"transactionResponse"`
}

type getTransactionDetailsRequest struct {
	MerchantAuthentication merchantAuthentication `json:"merchantAuthentication"`
	RefID                  string                 `json:"refId,omitempty"`
	TransID                string                 `json:"transId"`
}

type transactionDetails struct {
	TransID           string          `json:"transId"`
	SubmitTimeUTC     string          `json:"submitTimeUTC"`
	TransactionType   string          `json:"transactionType"`
	TransactionStatus string          `json:"transactionStatus"`
	ResponseCode      json.Number     `json:"responseCode"`
	AuthCode          string          `json:"authCode"`
	Order             *order          `json:"order"`
	AuthAmount        decimal.Decimal `json:"authAmount"`
	SettleAmount      decimal.Decimal `json:"settleAmount"`
}

type getTransactionDetailsResponse struct {
	baseResponse
	Transaction *transactionDetails `json:"transaction"`
}

type interval struct {
	Length int    `json:"length,string"`
	Unit   string `json:"unit"`
}

type paymentSchedule struct {
	Interval         interval `json:"interval"`
	StartDate        string   `json:"startDate"`
	TotalOccurrences int      `json:"totalOccurrences,string"`
	TrialOccurrences int      `json:"trialOccurrences,string"`
}

type subscriptionProfile struct {
	CustomerProfileID        string `json:"customerProfileId"`
	CustomerPaymentProfileID string `json:"customerPaymentProfileId"`
}

type arbSubscription struct {
	Name            string              `json:"name,omitempty"`
	PaymentSchedule paymentSchedule     `json:"paymentSchedule"`
	Amount          string              `json:"amount"`
	TrialAmount     string              `json:"trialAmount"`
	Order           *order              `json:"order,omitempty"`
	Profile         subscriptionProfile `json:"profile"`
}

type arbCreateSubscriptionRequest struct {
	MerchantAuthentication merchantAuthentication `json:"merchantAuthentication"`
	RefID                  string                 `json:"refId,omitempty"`
	Subscription           arbSubscription        `json:"subscription"`
}

type arbCreateSubscriptionResponse struct {
	baseResponse
	SubscriptionID string               `json:"subscriptionId"`
	Profile        *subscriptionProfile `json:"profile"`
}

type arbSubscriptionIDRequest struct {
	MerchantAuthentication merchantAuthentication `json:"merchantAuthentication"`
	RefID                  string                 `json:"refId,omitempty"`
	SubscriptionID         string                 `json:"subscriptionId"`
}

type arbPaymentProfile struct {
	CustomerPaymentProfileID string `json:"customerPaymentProfileId"`
}

type arbProfile struct {
	MerchantCustomerID string             `json:"merchantCustomerId"`
	Description        string             `json:"description"`
	Email              string             `json:"email"`
	CustomerProfileID  string             `json:"customerProfileId"`
	PaymentProfile     *arbPaymentProfile `json:"paymentProfile"`
}

type arbSubscriptionDetails struct {
	Name        string          `json:"name"`
	Amount      decimal.Decimal `json:"amount"`
	TrialAmount decimal.Decimal `json:"trialAmount"`
	Status      string          `json:"status"`
	Profile     *arbProfile     `json:"profile"`
	Order       *order          `json:"order"`
}

type arbGetSubscriptionResponse struct {
	baseResponse
	Subscription *arbSubscriptionDetails `json:"subscription"`
}
