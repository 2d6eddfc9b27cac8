package authorizenet

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/flexprice/cashier/internal/config"
	ierr "github.com/flexprice/cashier/internal/errors"
	"github.com/flexprice/cashier/internal/gateway"
	"github.com/flexprice/cashier/internal/httpclient"
	"github.com/flexprice/cashier/internal/logger"
	"github.com/flexprice/cashier/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

const bom = "\xEF\xBB\xBF"

type recordedRequest struct {
	op   string
	body string
}

type ClientSuite struct {
	suite.Suite
	server   *httptest.Server
	client   *Client
	mu       sync.Mutex
	requests []recordedRequest
	status   int
	reply    string
	delay    time.Duration
}

func TestClientSuite(t *testing.T) {
	suite.Run(t, new(ClientSuite))
}

func (s *ClientSuite) SetupTest() {
	s.requests = nil
	s.status = http.StatusOK
	s.reply = ""
	s.delay = 0

	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		var envelope map[string]json.RawMessage
		if err := json.Unmarshal(raw, &envelope); err != nil || len(envelope) != 1 {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		s.mu.Lock()
		for op := range envelope {
			s.requests = append(s.requests, recordedRequest{op: op, body: string(raw)})
		}
		status, reply, delay := s.status, s.reply, s.delay
		s.mu.Unlock()

		if delay > 0 {
			time.Sleep(delay)
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(reply))
	}))

	cfg := config.GatewayConfig{
		Environment:     types.GatewayEnvironmentSandbox,
		APILoginID:      "login",
		TransactionKey:  "key",
		Endpoint:        s.server.URL,
		Timeout:         200 * time.Millisecond,
		DuplicateWindow: 120,
		CircuitBreaker: config.CircuitBreakerConfig{
			Enabled:             true,
			ConsecutiveFailures: 2,
			OpenTimeout:         time.Minute,
		},
	}
	s.client = newClient(cfg, httpclient.NewDefaultClient(cfg.Timeout), logger.NewNopLogger())
}

func (s *ClientSuite) TearDownTest() {
	s.server.Close()
}

func (s *ClientSuite) respond(reply string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reply = reply
}

func (s *ClientSuite) lastRequest() recordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Require().NotEmpty(s.requests)
	return s.requests[len(s.requests)-1]
}

// assertOrder checks that keys appear in the request body in the given order
func (s *ClientSuite) assertOrder(body string, keys ...string) {
	pos := 0
	for _, k := range keys {
		idx := strings.Index(body[pos:], `"`+k+`"`)
		s.Require().GreaterOrEqual(idx, 0, "key %s missing or out of order", k)
		pos += idx + len(k) + 2
	}
}

func (s *ClientSuite) TestCreateCustomerProfile() {
	s.respond(bom + `{"customerProfileId":"1500","customerPaymentProfileIdList":["1600"],"customerShippingAddressIdList":[],"messages":{"resultCode":"Ok","message":[{"code":"I00001","text":"Successful."}]}}`)

	profile, err := s.client.CreateCustomerProfile(context.Background(), gateway.CreateCustomerProfileRequest{
		MerchantCustomerID: "M_acct_1",
		Email:              "jane@example.com",
		BillTo:             gateway.Address{FirstName: "Jane", LastName: "Doe", Address: "1 Main", City: "Denver", State: "CO", Zip: "80202", Country: "US"},
		Card:               gateway.Card{Number: "4111111111111111", ExpirationDate: "2030-12"},
	})
	s.Require().NoError(err)
	s.Equal("1500", profile.CustomerProfileID)
	s.Equal("1600", profile.PaymentProfileID)

	req := s.lastRequest()
	s.Equal(opCreateCustomerProfile, req.op)
	s.assertOrder(req.body, "merchantAuthentication", "name", "transactionKey", "refId", "profile",
		"merchantCustomerId", "email", "paymentProfiles", "customerType", "billTo", "payment", "validationMode")
	s.Contains(req.body, `"validationMode":"testMode"`)
	s.Contains(req.body, `"customerType":"individual"`)
}

func (s *ClientSuite) TestCreateTransactionApproved() {
	s.respond(bom + `{"transactionResponse":{"responseCode":"1","authCode":"A1","transId":"T1","accountNumber":"XXXX1111","accountType":"Visa","messages":[{"code":"1","description":"This transaction has been approved."}]},"refId":"REF1","messages":{"resultCode":"Ok","message":[{"code":"I00001","text":"Successful."}]}}`)

	tx, err := s.client.CreateTransaction(context.Background(), gateway.CreateTransactionRequest{
		CustomerProfileID: "1500",
		PaymentProfileID:  "1600",
		Amount:            decimal.RequireFromString("53.5"),
		Currency:          "USD",
		Description:       "One-off",
		InvoiceNumber:     "CH0123456789ABCDEF01",
	})
	s.Require().NoError(err)
	s.Equal("A1", tx.AuthCode)
	s.Equal("T1", tx.TransactionID)
	s.True(tx.Approved())

	req := s.lastRequest()
	s.Equal(opCreateTransaction, req.op)
	s.assertOrder(req.body, "merchantAuthentication", "refId", "transactionRequest",
		"transactionType", "amount", "currencyCode", "profile", "customerProfileId", "paymentProfileId",
		"order", "invoiceNumber", "description", "transactionSettings")
	s.Contains(req.body, `"amount":"53.50"`)
	s.Contains(req.body, `"settingName":"duplicateWindow","settingValue":"120"`)
}

func (s *ClientSuite) TestCreateTransactionHeldForReview() {
	s.respond(`{"transactionResponse":{"responseCode":"4","authCode":"A2","transId":"T2","messages":[{"code":"252","description":"Your order has been received."}]},"messages":{"resultCode":"Ok","message":[{"code":"I00001","text":"Successful."}]}}`)

	tx, err := s.client.CreateTransaction(context.Background(), gateway.CreateTransactionRequest{Amount: decimal.NewFromInt(50)})
	s.Nil(tx)
	s.Require().Error(err)
	s.True(ierr.IsHeldForReview(err))

	held, ok := gateway.HeldTransaction(err)
	s.Require().True(ok)
	s.Equal("T2", held.TransactionID)
}

func (s *ClientSuite) TestCreateTransactionDeclined() {
	s.respond(`{"transactionResponse":{"responseCode":"2","transId":"T3","errors":[{"errorCode":"2","errorText":"This transaction has been declined."}]},"messages":{"resultCode":"Error","message":[{"code":"E00027","text":"Decline"}]}}`)

	tx, err := s.client.CreateTransaction(context.Background(), gateway.CreateTransactionRequest{Amount: decimal.NewFromInt(50)})
	s.Nil(tx)
	s.True(ierr.IsGatewayFailure(err))

	f, ok := gateway.AsFailure(err)
	s.Require().True(ok)
	s.Equal("E00027", f.Code)
	s.Equal("Decline", f.Message)
}

func (s *ClientSuite) TestEmptyBodyIsNoResponse() {
	s.respond(bom)

	tx, err := s.client.CreateTransaction(context.Background(), gateway.CreateTransactionRequest{Amount: decimal.NewFromInt(50)})
	s.Nil(tx)
	s.True(ierr.IsNoResponse(err))
}

func (s *ClientSuite) TestMissingEnvelopeIsNoResponse() {
	s.respond(`{"refId":"x"}`)

	err := s.client.CancelRecurringSubscription(context.Background(), "100")
	s.True(ierr.IsNoResponse(err))
}

func (s *ClientSuite) TestTimeoutIsOutcomeUnknown() {
	s.mu.Lock()
	s.delay = 500 * time.Millisecond
	s.reply = `{"messages":{"resultCode":"Ok","message":[]}}`
	s.mu.Unlock()

	err := s.client.CancelRecurringSubscription(context.Background(), "100")
	s.Require().Error(err)
	s.True(ierr.IsOutcomeUnknown(err))
	s.False(ierr.IsGatewayFailure(err))
}

func (s *ClientSuite) TestServerErrorsTripBreaker() {
	s.mu.Lock()
	s.status = http.StatusInternalServerError
	s.mu.Unlock()

	for i := 0; i < 2; i++ {
		err := s.client.DeleteCustomerProfile(context.Background(), "1500")
		s.True(ierr.IsOutcomeUnknown(err))
		s.False(ierr.IsHTTPClient(err))
		httpErr, ok := httpclient.IsHTTPError(err)
		s.Require().True(ok)
		s.Equal(http.StatusInternalServerError, httpErr.StatusCode)
	}

	err := s.client.DeleteCustomerProfile(context.Background(), "1500")
	s.True(ierr.Is(err, ierr.ErrCircuitOpen))

	s.mu.Lock()
	defer s.mu.Unlock()
	s.Len(s.requests, 2)
}

func (s *ClientSuite) TestCreateRecurringSubscription() {
	s.respond(`{"subscriptionId":"100748","profile":{"customerProfileId":"1500","customerPaymentProfileId":"1600"},"refId":"REF","messages":{"resultCode":"Ok","message":[{"code":"I00001","text":"Successful."}]}}`)

	ref, err := s.client.CreateRecurringSubscription(context.Background(), gateway.CreateRecurringSubscriptionRequest{
		RefID:             "REFABC",
		Name:              "default",
		CustomerProfileID: "1500",
		PaymentProfileID:  "1600",
		Schedule: gateway.Schedule{
			IntervalUnit:     "months",
			IntervalLength:   1,
			StartDate:        time.Date(2024, time.June, 29, 0, 0, 0, 0, time.UTC),
			TotalOccurrences: 9999,
			TrialOccurrences: 1,
		},
		Amount:      decimal.RequireFromString("10.7"),
		TrialAmount: decimal.Zero,
	})
	s.Require().NoError(err)
	s.Equal("100748", ref.SubscriptionID)
	s.Equal("1600", ref.PaymentProfileID)

	req := s.lastRequest()
	s.Equal(opARBCreateSubscription, req.op)
	s.Contains(req.body, `"refId":"REFABC"`)
	s.Contains(req.body, `"interval":{"length":"1","unit":"months"}`)
	s.Contains(req.body, `"startDate":"2024-06-29"`)
	s.Contains(req.body, `"totalOccurrences":"9999"`)
	s.Contains(req.body, `"amount":"10.70","trialAmount":"0.00"`)
	s.assertOrder(req.body, "merchantAuthentication", "refId", "subscription", "name", "paymentSchedule", "amount", "trialAmount", "profile")
}

func (s *ClientSuite) TestCreateRecurringSubscriptionFailure() {
	s.respond(`{"messages":{"resultCode":"Error","message":[{"code":"E00027","text":"Decline"},{"code":"E00001","text":"other"}]}}`)

	ref, err := s.client.CreateRecurringSubscription(context.Background(), gateway.CreateRecurringSubscriptionRequest{})
	s.Nil(ref)
	f, ok := gateway.AsFailure(err)
	s.Require().True(ok)
	s.Equal("E00027", f.Code)
	s.Equal("Decline", f.Message)
}

func (s *ClientSuite) TestGetRecurringSubscription() {
	s.respond(bom + `{"subscription":{"name":"default","amount":10.70,"trialAmount":0.00,"status":"canceled","profile":{"merchantCustomerId":"M_1","description":"Basic","email":"jane@example.com","customerProfileId":"1500","paymentProfile":{"customerPaymentProfileId":"1600"}}},"messages":{"resultCode":"Ok","message":[{"code":"I00001","text":"Successful."}]}}`)

	remote, err := s.client.GetRecurringSubscription(context.Background(), "100748")
	s.Require().NoError(err)
	s.Equal("100748", remote.ID)
	s.Equal("default", remote.Name)
	s.True(remote.Amount.Equal(decimal.RequireFromString("10.70")))
	s.Equal("Basic", remote.Description)
	s.Equal("1500", remote.CustomerProfileID)
	s.True(remote.Terminated())
}

func (s *ClientSuite) TestGetTransaction() {
	s.respond(`{"transaction":{"transId":"T1","submitTimeUTC":"2024-05-01T12:00:00.123Z","transactionType":"authCaptureTransaction","transactionStatus":"FDSPendingReview","responseCode":4,"authCode":"A1","order":{"invoiceNumber":"CH1","description":"One-off"},"authAmount":53.50,"settleAmount":0},"messages":{"resultCode":"Ok","message":[{"code":"I00001","text":"Successful."}]}}`)

	details, err := s.client.GetTransaction(context.Background(), "T1")
	s.Require().NoError(err)
	s.Equal("T1", details.ID)
	s.Equal("4", details.ResponseCode)
	s.True(details.PendingReview())
	s.True(details.Amount.Equal(decimal.RequireFromString("53.5")))
	s.Equal("CH1", details.InvoiceNumber)
	s.Equal(2024, details.SubmittedAt.Year())
}

func (s *ClientSuite) TestUpdatePaymentProfileFailure() {
	s.respond(`{"messages":{"resultCode":"Error","message":[{"code":"E00040","text":"The record cannot be found."}]}}`)

	err := s.client.UpdatePaymentProfile(context.Background(), gateway.UpdatePaymentProfileRequest{
		CustomerProfileID: "1500",
		PaymentProfileID:  "1600",
		Card:              gateway.Card{Number: "4111111111111111", ExpirationDate: "2031-01"},
	})
	s.True(ierr.IsGatewayFailure(err))

	req := s.lastRequest()
	s.assertOrder(req.body, "customerProfileId", "paymentProfile", "billTo", "payment", "customerPaymentProfileId")
}

func (s *ClientSuite) TestEndpointSelection() {
	s.Equal(SandboxURL, endpointFor(config.GatewayConfig{Environment: types.GatewayEnvironmentSandbox}))
	s.Equal(ProductionURL, endpointFor(config.GatewayConfig{Environment: types.GatewayEnvironmentProduction}))
	s.Equal("http://proxy", endpointFor(config.GatewayConfig{Endpoint: "http://proxy"}))
}
