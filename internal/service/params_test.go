package service

import (
	"github.com/flexprice/cashier/internal/cardbrand"
	"github.com/flexprice/cashier/internal/idempotency"
	"github.com/flexprice/cashier/internal/testutil"
)

// newTestParams wires the services against the suite's in-memory collaborators
func newTestParams(s *testutil.BaseServiceTestSuite) ServiceParams {
	return ServiceParams{
		Logger:      s.GetLogger(),
		Config:      s.GetConfig(),
		AccountRepo: s.GetStores().AccountRepo,
		SubRepo:     s.GetStores().SubscriptionRepo,
		Plans:       s.GetPlans(),
		Gateway:     s.GetGateway(),
		CardBrand:   cardbrand.NewDetector(),
		Clock:       s.GetClock(),
		Location:    s.GetLocation(),
		Cache:       s.GetCache(),
		Idempotency: idempotency.NewGenerator(),
	}
}
