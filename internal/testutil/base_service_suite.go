package testutil

import (
	"context"
	"time"

	"github.com/flexprice/cashier/internal/cache"
	"github.com/flexprice/cashier/internal/config"
	"github.com/flexprice/cashier/internal/domain/account"
	"github.com/flexprice/cashier/internal/domain/subscription"
	"github.com/flexprice/cashier/internal/logger"
	"github.com/flexprice/cashier/internal/types"
	"github.com/stretchr/testify/suite"
)

// Stores holds the in-memory repositories for testing
type Stores struct {
	AccountRepo      *InMemoryAccountStore
	SubscriptionRepo *InMemorySubscriptionStore
}

// BaseServiceTestSuite provides common functionality for all service test suites
type BaseServiceTestSuite struct {
	suite.Suite
	ctx      context.Context
	stores   Stores
	logger   *logger.Logger
	config   *config.Configuration
	clock    *FixedClock
	gateway  *MockGatewayClient
	plans    *StaticPlanProvider
	cache    cache.Cache
	location *time.Location
}

// SetupSuite is called once before running the tests in the suite
func (s *BaseServiceTestSuite) SetupSuite() {
	s.config = config.GetDefaultConfig()
	s.logger = logger.NewNopLogger()

	loc, err := types.LoadBillingLocation(s.config.Billing.Timezone)
	if err != nil {
		s.T().Fatalf("failed to load billing location: %v", err)
	}
	s.location = loc
}

// SetupTest is called before each test
func (s *BaseServiceTestSuite) SetupTest() {
	s.ctx = SetupContext()
	s.stores = Stores{
		AccountRepo:      NewInMemoryAccountStore(),
		SubscriptionRepo: NewInMemorySubscriptionStore(),
	}
	// mid-month, mid-day in Denver so day arithmetic is unambiguous
	s.clock = NewFixedClock(time.Date(2024, time.March, 15, 18, 0, 0, 0, time.UTC))
	s.gateway = NewMockGatewayClient()
	s.plans = NewStaticPlanProvider(MonthlyPlan(), TrialPlan())
	s.cache = cache.NewInMemoryCache(s.config)
}

// TearDownTest is called after each test
func (s *BaseServiceTestSuite) TearDownTest() {
	s.ClearStores()
	s.cache.Flush(s.ctx)
}

// ClearStores empties every in-memory repository
func (s *BaseServiceTestSuite) ClearStores() {
	s.stores.AccountRepo.Clear()
	s.stores.SubscriptionRepo.Clear()
}

func (s *BaseServiceTestSuite) GetContext() context.Context {
	return s.ctx
}

func (s *BaseServiceTestSuite) GetConfig() *config.Configuration {
	return s.config
}

func (s *BaseServiceTestSuite) GetStores() Stores {
	return s.stores
}

func (s *BaseServiceTestSuite) GetLogger() *logger.Logger {
	return s.logger
}

func (s *BaseServiceTestSuite) GetClock() *FixedClock {
	return s.clock
}

func (s *BaseServiceTestSuite) GetNow() time.Time {
	return s.clock.Now()
}

func (s *BaseServiceTestSuite) GetGateway() *MockGatewayClient {
	return s.gateway
}

func (s *BaseServiceTestSuite) GetPlans() *StaticPlanProvider {
	return s.plans
}

func (s *BaseServiceTestSuite) GetCache() cache.Cache {
	return s.cache
}

func (s *BaseServiceTestSuite) GetLocation() *time.Location {
	return s.location
}

func (s *BaseServiceTestSuite) GetUUID() string {
	return types.GenerateUUID()
}

// CreateCustomer stores an account that already has a gateway profile and a card on file
func (s *BaseServiceTestSuite) CreateCustomer() *account.Account {
	return s.CreateAccount(func(a *account.Account) {})
}

// CreateAccount stores a customer account after mutate adjusted it
func (s *BaseServiceTestSuite) CreateAccount(mutate func(a *account.Account)) *account.Account {
	a := &account.Account{
		ID:                      types.GenerateUUIDWithPrefix(types.UUID_PREFIX_ACCOUNT),
		Email:                   "jordan@example.com",
		FirstName:               "Jordan",
		LastName:                "Lee",
		Address:                 "1 Main St",
		City:                    "Denver",
		State:                   "CO",
		Zip:                     "80202",
		Country:                 "US",
		GatewayCustomerID:       "900100",
		GatewayPaymentProfileID: "800200",
		CardBrand:               "Visa",
		CardLastFour:            "1111",
		BaseModel:               types.GetDefaultBaseModel(s.ctx, s.GetNow()),
	}
	mutate(a)
	s.Require().NoError(s.stores.AccountRepo.Create(s.ctx, a))
	return a
}

// CreateSubscription stores a subscription in the default slot created at createdAt
func (s *BaseServiceTestSuite) CreateSubscription(a *account.Account, planKey string, createdAt time.Time, mutate func(sub *subscription.Subscription)) *subscription.Subscription {
	sub := &subscription.Subscription{
		ID:                      types.GenerateUUIDWithPrefix(types.UUID_PREFIX_SUBSCRIPTION),
		AccountID:               a.ID,
		Name:                    subscription.DefaultName,
		PlanKey:                 planKey,
		GatewaySubscriptionID:   "ARB" + types.GenerateShortIDWithPrefix(""),
		GatewayPaymentProfileID: a.GatewayPaymentProfileID,
		Quantity:                1,
		Version:                 1,
		BaseModel:               types.GetDefaultBaseModel(s.ctx, createdAt),
	}
	if mutate != nil {
		mutate(sub)
	}
	s.Require().NoError(s.stores.SubscriptionRepo.Create(s.ctx, sub))
	return sub
}
