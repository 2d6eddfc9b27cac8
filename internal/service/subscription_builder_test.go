package service

import (
	"strings"
	"testing"
	"time"

	"github.com/flexprice/cashier/internal/domain/account"
	"github.com/flexprice/cashier/internal/domain/plan"
	"github.com/flexprice/cashier/internal/domain/subscription"
	ierr "github.com/flexprice/cashier/internal/errors"
	"github.com/flexprice/cashier/internal/gateway"
	"github.com/flexprice/cashier/internal/testutil"
	"github.com/flexprice/cashier/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type SubscriptionBuilderSuite struct {
	testutil.BaseServiceTestSuite
	billing BillingService
	sent    *gateway.CreateRecurringSubscriptionRequest
}

func TestSubscriptionBuilder(t *testing.T) {
	suite.Run(t, new(SubscriptionBuilderSuite))
}

func (s *SubscriptionBuilderSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.billing = NewBillingService(newTestParams(&s.BaseServiceTestSuite))
	s.sent = nil
}

// expectCreate records the request and answers with ref or err
func (s *SubscriptionBuilderSuite) expectCreate(ref *gateway.RecurringSubscriptionRef, err error) {
	s.GetGateway().On("CreateRecurringSubscription", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			req := args.Get(1).(gateway.CreateRecurringSubscriptionRequest)
			s.sent = &req
		}).
		Return(ref, err).Once()
}

func (s *SubscriptionBuilderSuite) denverDay(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, s.GetLocation())
}

func (s *SubscriptionBuilderSuite) TestCreateWithPlanTrial() {
	acct := s.CreateAccount(func(a *account.Account) { a.TaxPercent = 7 })
	s.expectCreate(&gateway.RecurringSubscriptionRef{SubscriptionID: "ARB100"}, nil)

	sub, err := s.billing.NewSubscription(acct, "", testutil.TrialPlan().Key).
		WithCoupon("SPRING").
		WithMetadata(types.Metadata{"source": "signup"}).
		Quantity(3).
		Create(s.GetContext())
	s.Require().NoError(err)
	s.Require().NotNil(s.sent)

	req := s.sent
	s.Equal("Pro", req.Name)
	s.Equal(acct.GatewayCustomerID, req.CustomerProfileID)
	s.Equal(acct.GatewayPaymentProfileID, req.PaymentProfileID)
	s.Equal("107.00", types.FormatAmount(req.Amount))
	s.Equal("0.00", types.FormatAmount(req.TrialAmount))
	s.Equal("months", req.Schedule.IntervalUnit)
	s.Equal(1, req.Schedule.IntervalLength)
	s.Equal(plan.UnlimitedOccurrences, req.Schedule.TotalOccurrences)
	s.Equal(1, req.Schedule.TrialOccurrences)
	s.True(req.Schedule.StartDate.Equal(s.denverDay(2024, time.March, 29)), "got %s", req.Schedule.StartDate)
	s.True(strings.HasPrefix(req.RefID, types.SHORT_ID_PREFIX_REF))
	s.LessOrEqual(len(req.RefID), types.MaxRefIDLength)
	s.Len(req.InvoiceNumber, 20)

	s.Equal("ARB100", sub.GatewaySubscriptionID)
	s.Equal(subscription.DefaultName, sub.Name)
	s.Equal(3, sub.Quantity)
	s.Nil(sub.EndsAt)
	s.Require().NotNil(sub.TrialEndsAt)
	s.True(sub.TrialEndsAt.Equal(s.GetNow().AddDate(0, 0, 14)))
	s.Equal(req.RefID, sub.Metadata[subscription.MetadataKeyRefID])
	s.Equal("SPRING", sub.Metadata[subscription.MetadataKeyCoupon])
	s.Equal("signup", sub.Metadata["source"])

	stored, err := s.GetStores().SubscriptionRepo.Get(s.GetContext(), sub.ID)
	s.Require().NoError(err)
	s.Equal(sub.GatewaySubscriptionID, stored.GatewaySubscriptionID)
	s.True(stored.OnTrial(s.GetNow()))
	s.True(stored.Valid(s.GetNow()))
}

func (s *SubscriptionBuilderSuite) TestSkipTrial() {
	acct := s.CreateCustomer()
	s.expectCreate(&gateway.RecurringSubscriptionRef{SubscriptionID: "ARB101"}, nil)

	sub, err := s.billing.NewSubscription(acct, "", testutil.TrialPlan().Key).
		TrialDays(30).
		SkipTrial().
		Add(s.GetContext())
	s.Require().NoError(err)

	s.True(s.sent.Schedule.StartDate.Equal(s.denverDay(2024, time.March, 15)), "got %s", s.sent.Schedule.StartDate)
	s.Equal(0, s.sent.Schedule.TrialOccurrences)
	s.Nil(sub.TrialEndsAt)
	s.Equal(subscription.StateActive, sub.State(s.GetNow()))
}

func (s *SubscriptionBuilderSuite) TestTrialDaysOverride() {
	acct := s.CreateCustomer()
	s.expectCreate(&gateway.RecurringSubscriptionRef{SubscriptionID: "ARB102"}, nil)

	sub, err := s.billing.NewSubscription(acct, "", testutil.MonthlyPlan().Key).
		TrialDays(7).
		Create(s.GetContext())
	s.Require().NoError(err)

	s.True(s.sent.Schedule.StartDate.Equal(s.denverDay(2024, time.March, 22)))
	s.Require().NotNil(sub.TrialEndsAt)
	s.True(sub.TrialEndsAt.Equal(s.GetNow().AddDate(0, 0, 7)))
}

func (s *SubscriptionBuilderSuite) TestWeeklyScheduleIsSentInDays() {
	s.GetPlans().Add(&plan.Plan{
		Key:      "biweekly",
		Name:     "Biweekly",
		Amount:   decimal.RequireFromString("4.99"),
		Interval: types.Interval{Unit: types.IntervalUnitWeeks, Length: 2},
	})
	acct := s.CreateCustomer()
	s.expectCreate(&gateway.RecurringSubscriptionRef{SubscriptionID: "ARB103"}, nil)

	_, err := s.billing.NewSubscription(acct, "", "biweekly").Create(s.GetContext())
	s.Require().NoError(err)
	s.Equal("days", s.sent.Schedule.IntervalUnit)
	s.Equal(14, s.sent.Schedule.IntervalLength)
	s.Equal("4.99", types.FormatAmount(s.sent.Amount))
}

func (s *SubscriptionBuilderSuite) TestGatewayFailureLeavesNoRecord() {
	acct := s.CreateCustomer()
	s.expectCreate(nil, gateway.NewFailure("E00027", "Decline"))

	sub, err := s.billing.NewSubscription(acct, "", testutil.MonthlyPlan().Key).Create(s.GetContext())
	s.Nil(sub)
	s.True(ierr.IsGatewayFailure(err))

	f, ok := gateway.AsFailure(err)
	s.Require().True(ok)
	s.Equal("E00027", f.Code)
	s.Equal("Decline", f.Message)

	subs, err := s.GetStores().SubscriptionRepo.ListByOwner(s.GetContext(), acct.ID)
	s.Require().NoError(err)
	s.Empty(subs)
}

func (s *SubscriptionBuilderSuite) TestPreconditions() {
	s.Run("not_a_customer", func() {
		acct := s.CreateAccount(func(a *account.Account) { a.ClearGatewayProfile() })
		_, err := s.billing.NewSubscription(acct, "", testutil.MonthlyPlan().Key).Create(s.GetContext())
		s.True(ierr.IsNotACustomer(err))
	})

	s.Run("unknown_plan", func() {
		acct := s.CreateCustomer()
		_, err := s.billing.NewSubscription(acct, "", "platinum").Create(s.GetContext())
		s.True(ierr.IsConfiguration(err))
	})

	s.Run("invalid_quantity", func() {
		acct := s.CreateCustomer()
		_, err := s.billing.NewSubscription(acct, "", testutil.MonthlyPlan().Key).Quantity(0).Create(s.GetContext())
		s.True(ierr.IsValidation(err))
	})

	s.GetGateway().AssertNotCalled(s.T(), "CreateRecurringSubscription", mock.Anything, mock.Anything)
}
