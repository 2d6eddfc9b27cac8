package authorizenet

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/flexprice/cashier/internal/config"
	ierr "github.com/flexprice/cashier/internal/errors"
	"github.com/flexprice/cashier/internal/gateway"
	"github.com/flexprice/cashier/internal/httpclient"
	"github.com/flexprice/cashier/internal/logger"
	"github.com/flexprice/cashier/internal/sentry"
	"github.com/flexprice/cashier/internal/types"
	jsoniter "github.com/json-iterator/go"
	"github.com/samber/lo"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"
)

var codec = jsoniter.ConfigCompatibleWithStandardLibrary

// The gateway prefixes JSON replies with a UTF-8 byte order mark
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// maxSubscriptionNameLength is the ARB limit for subscription.name
const maxSubscriptionNameLength = 50

// Client implements gateway.Client against the Authorize.Net JSON API
type Client struct {
	endpoint        string
	auth            merchantAuthentication
	duplicateWindow int
	validationMode  string
	httpClient      httpclient.Client
	limiter         *rate.Limiter
	breaker         *gobreaker.CircuitBreaker[*httpclient.Response]
	logger          *logger.Logger
	sentry          *sentry.Service
}

// NewClient creates a new Authorize.Net client
func NewClient(cfg *config.Configuration, logger *logger.Logger, sentryService *sentry.Service) gateway.Client {
	c := newClient(cfg.Gateway, httpclient.NewDefaultClient(cfg.Gateway.Timeout), logger)
	c.sentry = sentryService
	return c
}

func newClient(cfg config.GatewayConfig, httpClient httpclient.Client, log *logger.Logger) *Client {
	c := &Client{
		endpoint: endpointFor(cfg),
		auth: merchantAuthentication{
			Name:           cfg.APILoginID,
			TransactionKey: cfg.TransactionKey,
		},
		duplicateWindow: cfg.DuplicateWindow,
		validationMode:  validationModeTest,
		httpClient:      httpClient,
		logger:          log,
	}
	if cfg.Environment == types.GatewayEnvironmentProduction {
		c.validationMode = validationModeLive
	}

	if cfg.RateLimit.RequestsPerSecond > 0 {
		burst := cfg.RateLimit.Burst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit.RequestsPerSecond), burst)
	}

	if cfg.CircuitBreaker.Enabled {
		threshold := cfg.CircuitBreaker.ConsecutiveFailures
		if threshold == 0 {
			threshold = 5
		}
		c.breaker = gobreaker.NewCircuitBreaker[*httpclient.Response](gobreaker.Settings{
			Name:        "authorizenet",
			MaxRequests: 1,
			Timeout:     cfg.CircuitBreaker.OpenTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= threshold
			},
			IsSuccessful: func(err error) bool {
				// a caller giving up says nothing about the gateway's health
				return err == nil || errors.Is(err, context.Canceled)
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.Warnw("payment gateway circuit breaker state changed",
					"breaker", name,
					"from", from.String(),
					"to", to.String())
			},
		})
	}

	return c
}

func endpointFor(cfg config.GatewayConfig) string {
	if cfg.Endpoint != "" {
		return cfg.Endpoint
	}
	if cfg.Environment == types.GatewayEnvironmentProduction {
		return ProductionURL
	}
	return SandboxURL
}

func newRefID() string {
	return types.GenerateShortIDWithPrefix(types.SHORT_ID_PREFIX_REF)
}

// do sends one request envelope and decodes the reply into out. It only fails for
// transport and decoding problems, the envelope result is checked by the caller.
func (c *Client) do(ctx context.Context, op, refID string, payload interface{}, out envelopeResponse) error {
	body, err := codec.Marshal(map[string]interface{}{op: payload})
	if err != nil {
		c.logger.Errorw("failed to marshal payment gateway request", "operation", op, "error", err)
		return ierr.WithError(err).
			WithHint("Could not encode the payment gateway request").
			Mark(ierr.ErrSystem)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return ierr.WithError(err).
				WithHint("Payment gateway request was not sent").
				WithReportableDetails(map[string]interface{}{"operation": op}).
				Mark(ierr.ErrHTTPClient)
		}
	}

	c.logger.Debugw("sending payment gateway request", "operation", op, "ref_id", refID)
	c.sentry.AddBreadcrumb("authorizenet", op, map[string]interface{}{"ref_id": refID})

	span, ctx := c.sentry.StartGatewaySpan(ctx, op, map[string]interface{}{"ref_id": refID})
	defer sentry.FinishSpan(span)

	resp, err := c.send(ctx, body)
	if err != nil {
		c.logger.Errorw("payment gateway request failed",
			"operation", op,
			"ref_id", refID,
			"error", err)
		return c.classifySendError(ctx, op, err)
	}

	raw := bytes.TrimSpace(bytes.TrimPrefix(resp.Body, utf8BOM))
	if len(raw) == 0 {
		c.logger.Errorw("payment gateway returned an empty body", "operation", op, "ref_id", refID)
		return gateway.NoResponse(op)
	}

	if err := codec.Unmarshal(raw, out); err != nil {
		c.logger.Errorw("failed to decode payment gateway reply",
			"operation", op,
			"ref_id", refID,
			"error", err)
		return gateway.NoResponse(op)
	}

	env := out.envelope()
	if env == nil || env.ResultCode == "" {
		c.logger.Errorw("payment gateway reply has no result", "operation", op, "ref_id", refID)
		return gateway.NoResponse(op)
	}

	code, _ := env.first()
	c.logger.Infow("payment gateway replied",
		"operation", op,
		"ref_id", refID,
		"result_code", env.ResultCode,
		"message_code", code)
	return nil
}

func (c *Client) send(ctx context.Context, body []byte) (*httpclient.Response, error) {
	req := &httpclient.Request{
		Method:  http.MethodPost,
		URL:     c.endpoint,
		Headers: map[string]string{"Accept": "application/json"},
		Body:    body,
	}
	if c.breaker == nil {
		return c.httpClient.Send(ctx, req)
	}
	return c.breaker.Execute(func() (*httpclient.Response, error) {
		return c.httpClient.Send(ctx, req)
	})
}

func (c *Client) classifySendError(ctx context.Context, op string, err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return ierr.WithError(err).
			WithHint("Payment gateway is temporarily unavailable, the request was not sent").
			WithReportableDetails(map[string]interface{}{"operation": op}).
			Mark(ierr.ErrCircuitOpen)
	}
	if httpErr, ok := httpclient.IsHTTPError(err); ok && httpErr.StatusCode < http.StatusInternalServerError {
		return ierr.WithError(err).
			WithHintf("Payment gateway rejected the request with status %d", httpErr.StatusCode).
			WithReportableDetails(map[string]interface{}{"operation": op}).
			Mark(ierr.ErrHTTPClient)
	}
	if httpErr, ok := httpclient.IsHTTPError(err); ok {
		// a 5xx may have been produced after the request was processed. The
		// bare reply is wrapped so the rejected-request mark does not survive.
		return gateway.OutcomeUnknown(op, httpErr)
	}
	if httpclient.IsTransportError(err) || ctx.Err() != nil {
		return gateway.OutcomeUnknown(op, err)
	}
	return ierr.WithError(err).
		WithHint("Payment gateway request could not be sent").
		Mark(ierr.ErrHTTPClient)
}

// result turns a non-Ok envelope into a failure built from its first message
func (c *Client) result(op, refID string, env *messages) error {
	if env.ResultCode == gateway.ResultCodeOk {
		return nil
	}
	code, text := env.first()
	if code == "" {
		code = env.ResultCode
	}
	c.logger.Warnw("payment gateway rejected request",
		"operation", op,
		"ref_id", refID,
		"code", code,
		"message", text)
	return gateway.NewFailure(code, text)
}

func (c *Client) CreateCustomerProfile(ctx context.Context, req gateway.CreateCustomerProfileRequest) (*gateway.CustomerProfile, error) {
	refID := newRefID()
	payload := createCustomerProfileRequest{
		MerchantAuthentication: c.auth,
		RefID:                  refID,
		Profile: customerProfile{
			MerchantCustomerID: req.MerchantCustomerID,
			Description:        req.Description,
			Email:              req.Email,
			PaymentProfiles: &paymentProfile{
				CustomerType: lo.Ternary(req.CustomerType == "", gateway.CustomerTypeIndividual, req.CustomerType),
				BillTo:       toAddress(req.BillTo),
				Payment:      toPayment(req.Card),
			},
		},
		ValidationMode: c.validationMode,
	}

	var out createCustomerProfileResponse
	if err := c.do(ctx, opCreateCustomerProfile, refID, payload, &out); err != nil {
		return nil, err
	}
	if err := c.result(opCreateCustomerProfile, refID, out.Messages); err != nil {
		return nil, err
	}
	if out.CustomerProfileID == "" {
		return nil, gateway.NoResponse(opCreateCustomerProfile)
	}

	c.logger.Infow("created customer profile",
		"customer_profile_id", out.CustomerProfileID,
		"merchant_customer_id", req.MerchantCustomerID,
		"card", "XXXX"+lastFour(req.Card.Number))

	return &gateway.CustomerProfile{
		CustomerProfileID: out.CustomerProfileID,
		PaymentProfileID:  lo.FirstOrEmpty(out.CustomerPaymentProfileIDList),
	}, nil
}

func (c *Client) UpdatePaymentProfile(ctx context.Context, req gateway.UpdatePaymentProfileRequest) error {
	refID := newRefID()
	payload := updateCustomerPaymentProfileRequest{
		MerchantAuthentication: c.auth,
		RefID:                  refID,
		CustomerProfileID:      req.CustomerProfileID,
		PaymentProfile: paymentProfile{
			CustomerType:             req.CustomerType,
			BillTo:                   toAddress(req.BillTo),
			Payment:                  toPayment(req.Card),
			CustomerPaymentProfileID: req.PaymentProfileID,
		},
		ValidationMode: c.validationMode,
	}

	var out baseResponse
	if err := c.do(ctx, opUpdateCustomerPaymentProfile, refID, payload, &out); err != nil {
		return err
	}
	return c.result(opUpdateCustomerPaymentProfile, refID, out.Messages)
}

func (c *Client) DeleteCustomerProfile(ctx context.Context, customerProfileID string) error {
	refID := newRefID()
	payload := deleteCustomerProfileRequest{
		MerchantAuthentication: c.auth,
		RefID:                  refID,
		CustomerProfileID:      customerProfileID,
	}

	var out baseResponse
	if err := c.do(ctx, opDeleteCustomerProfile, refID, payload, &out); err != nil {
		return err
	}
	return c.result(opDeleteCustomerProfile, refID, out.Messages)
}

func (c *Client) CreateTransaction(ctx context.Context, req gateway.CreateTransactionRequest) (*gateway.Transaction, error) {
	refID := newRefID()
	tr := transactionRequest{
		TransactionType: transactionTypeAuthCapture,
		Amount:          types.FormatAmount(req.Amount),
		CurrencyCode:    req.Currency,
		Profile: &profileToCharge{
			CustomerProfileID: req.CustomerProfileID,
			PaymentProfile:    paymentProfileToUse{PaymentProfileID: req.PaymentProfileID},
		},
	}
	if req.InvoiceNumber != "" || req.Description != "" {
		tr.Order = &order{InvoiceNumber: req.InvoiceNumber, Description: req.Description}
	}
	if c.duplicateWindow > 0 {
		tr.TransactionSettings = &transactionSettings{Setting: []setting{{
			SettingName:  settingDuplicateWindow,
			SettingValue: strconv.Itoa(c.duplicateWindow),
		}}}
	}
	payload := createTransactionRequest{
		MerchantAuthentication: c.auth,
		RefID:                  refID,
		TransactionRequest:     tr,
	}

	var out createTransactionResponse
	if err := c.do(ctx, opCreateTransaction, refID, payload, &out); err != nil {
		return nil, err
	}

	resp := out.TransactionResponse
	if resp != nil && resp.ResponseCode == gateway.ResponseCodeHeldForReview {
		tx := toTransaction(resp)
		c.logger.Warnw("transaction held for review", "ref_id", refID, "transaction_id", tx.TransactionID)
		return nil, gateway.HeldForReview(tx, lo.FirstOr(lo.Map(resp.Messages, func(m transactionMessage, _ int) string {
			return m.Description
		}), ""))
	}
	if err := c.result(opCreateTransaction, refID, out.Messages); err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, gateway.NoResponse(opCreateTransaction)
	}
	if resp.ResponseCode != gateway.ResponseCodeApproved {
		code, text := resp.firstError()
		if code == "" {
			code = resp.ResponseCode
		}
		c.logger.Warnw("transaction not approved",
			"ref_id", refID,
			"response_code", resp.ResponseCode,
			"error_code", code)
		return nil, gateway.NewFailure(code, text)
	}

	tx := toTransaction(resp)
	c.logger.Infow("transaction approved",
		"ref_id", refID,
		"transaction_id", tx.TransactionID,
		"account_number", tx.AccountNumber)
	return tx, nil
}

func (c *Client) GetTransaction(ctx context.Context, transactionID string) (*gateway.TransactionDetails, error) {
	refID := newRefID()
	payload := getTransactionDetailsRequest{
		MerchantAuthentication: c.auth,
		RefID:                  refID,
		TransID:                transactionID,
	}

	var out getTransactionDetailsResponse
	if err := c.do(ctx, opGetTransactionDetails, refID, payload, &out); err != nil {
		return nil, err
	}
	if err := c.result(opGetTransactionDetails, refID, out.Messages); err != nil {
		return nil, err
	}
	if out.Transaction == nil {
		return nil, gateway.NoResponse(opGetTransactionDetails)
	}

	t := out.Transaction
	details := &gateway.TransactionDetails{
		ID:           t.TransID,
		Amount:       lo.Ternary(t.SettleAmount.IsZero(), t.AuthAmount, t.SettleAmount),
		Status:       t.TransactionStatus,
		ResponseCode: t.ResponseCode.String(),
		AuthCode:     t.AuthCode,
	}
	if t.Order != nil {
		details.InvoiceNumber = t.Order.InvoiceNumber
		details.Description = t.Order.Description
	}
	if submitted, err := time.Parse(time.RFC3339, t.SubmitTimeUTC); err == nil {
		details.SubmittedAt = submitted
	}
	return details, nil
}

func (c *Client) CreateRecurringSubscription(ctx context.Context, req gateway.CreateRecurringSubscriptionRequest) (*gateway.RecurringSubscriptionRef, error) {
	refID := lo.Ternary(req.RefID == "", newRefID(), req.RefID)
	sub := arbSubscription{
		Name: truncate(req.Name, maxSubscriptionNameLength),
		PaymentSchedule: paymentSchedule{
			Interval: interval{
				Length: req.Schedule.IntervalLength,
				Unit:   req.Schedule.IntervalUnit,
			},
			StartDate:        types.FormatGatewayDate(req.Schedule.StartDate),
			TotalOccurrences: req.Schedule.TotalOccurrences,
			TrialOccurrences: req.Schedule.TrialOccurrences,
		},
		Amount:      types.FormatAmount(req.Amount),
		TrialAmount: types.FormatAmount(req.TrialAmount),
		Profile: subscriptionProfile{
			CustomerProfileID:        req.CustomerProfileID,
			CustomerPaymentProfileID: req.PaymentProfileID,
		},
	}
	if req.InvoiceNumber != "" || req.Description != "" {
		sub.Order = &order{InvoiceNumber: req.InvoiceNumber, Description: req.Description}
	}
	payload := arbCreateSubscriptionRequest{
		MerchantAuthentication: c.auth,
		RefID:                  refID,
		Subscription:           sub,
	}

	var out arbCreateSubscriptionResponse
	if err := c.do(ctx, opARBCreateSubscription, refID, payload, &out); err != nil {
		return nil, err
	}
	if err := c.result(opARBCreateSubscription, refID, out.Messages); err != nil {
		return nil, err
	}
	if out.SubscriptionID == "" {
		return nil, gateway.NoResponse(opARBCreateSubscription)
	}

	ref := &gateway.RecurringSubscriptionRef{SubscriptionID: out.SubscriptionID}
	if out.Profile != nil {
		ref.CustomerProfileID = out.Profile.CustomerProfileID
		ref.PaymentProfileID = out.Profile.CustomerPaymentProfileID
	}
	c.logger.Infow("created recurring subscription", "ref_id", refID, "subscription_id", ref.SubscriptionID)
	return ref, nil
}

func (c *Client) CancelRecurringSubscription(ctx context.Context, subscriptionID string) error {
	refID := newRefID()
	payload := arbSubscriptionIDRequest{
		MerchantAuthentication: c.auth,
		RefID:                  refID,
		SubscriptionID:         subscriptionID,
	}

	var out baseResponse
	if err := c.do(ctx, opARBCancelSubscription, refID, payload, &out); err != nil {
		return err
	}
	return c.result(opARBCancelSubscription, refID, out.Messages)
}

func (c *Client) GetRecurringSubscription(ctx context.Context, subscriptionID string) (*gateway.RecurringSubscription, error) {
	refID := newRefID()
	payload := arbSubscriptionIDRequest{
		MerchantAuthentication: c.auth,
		RefID:                  refID,
		SubscriptionID:         subscriptionID,
	}

	var out arbGetSubscriptionResponse
	if err := c.do(ctx, opARBGetSubscription, refID, payload, &out); err != nil {
		return nil, err
	}
	if err := c.result(opARBGetSubscription, refID, out.Messages); err != nil {
		return nil, err
	}
	if out.Subscription == nil {
		return nil, gateway.NoResponse(opARBGetSubscription)
	}

	s := out.Subscription
	remote := &gateway.RecurringSubscription{
		ID:          subscriptionID,
		Name:        s.Name,
		Amount:      s.Amount,
		TrialAmount: s.TrialAmount,
		Status:      s.Status,
	}
	if s.Profile != nil {
		remote.Description = s.Profile.Description
		remote.CustomerProfileID = s.Profile.CustomerProfileID
		if s.Profile.PaymentProfile != nil {
			remote.PaymentProfileID = s.Profile.PaymentProfile.CustomerPaymentProfileID
		}
	}
	if remote.Description == "" && s.Order != nil {
		remote.Description = s.Order.Description
	}
	return remote, nil
}

func toAddress(a gateway.Address) *customerAddress {
	return &customerAddress{
		FirstName: a.FirstName,
		LastName:  a.LastName,
		Company:   a.Company,
		Address:   a.Address,
		City:      a.City,
		State:     a.State,
		Zip:       a.Zip,
		Country:   a.Country,
	}
}

func toPayment(card gateway.Card) *payment {
	return &payment{CreditCard: &creditCard{
		CardNumber:     card.Number,
		ExpirationDate: card.ExpirationDate,
		CardCode:       card.CardCode,
	}}
}

func toTransaction(r *transactionResponse) *gateway.Transaction {
	return &gateway.Transaction{
		TransactionID: r.TransID,
		AuthCode:      r.AuthCode,
		ResponseCode:  r.ResponseCode,
		AccountNumber: r.AccountNumber,
		AccountType:   r.AccountType,
	}
}

func lastFour(number string) string {
	if len(number) <= 4 {
		return number
	}
	return number[len(number)-4:]
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
