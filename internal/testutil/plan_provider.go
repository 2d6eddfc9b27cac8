package testutil

import (
	"context"
	"sync"

	"github.com/flexprice/cashier/internal/domain/plan"
	ierr "github.com/flexprice/cashier/internal/errors"
	"github.com/flexprice/cashier/internal/types"
	"github.com/shopspring/decimal"
)

var _ plan.Provider = (*StaticPlanProvider)(nil)

// StaticPlanProvider serves plans registered by the test
type StaticPlanProvider struct {
	mu    sync.RWMutex
	plans map[string]*plan.Plan
}

func NewStaticPlanProvider(plans ...*plan.Plan) *StaticPlanProvider {
	p := &StaticPlanProvider{plans: make(map[string]*plan.Plan)}
	for _, pl := range plans {
		p.Add(pl)
	}
	return p
}

func (p *StaticPlanProvider) Add(pl *plan.Plan) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.plans[pl.Key] = pl
}

func (p *StaticPlanProvider) GetPlan(_ context.Context, key string) (*plan.Plan, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	pl, ok := p.plans[key]
	if !ok {
		return nil, ierr.NewErrorf("plan %s is not configured", key).
			WithHintf("Plan %s is not configured", key).
			Mark(ierr.ErrConfiguration)
	}
	c := *pl
	return &c, nil
}

// MonthlyPlan is a 10.00 monthly plan without a trial
func MonthlyPlan() *plan.Plan {
	return &plan.Plan{
		Key:      "monthly-10-1",
		Name:     "Monthly",
		Amount:   decimal.RequireFromString("10.00"),
		Interval: types.Interval{Unit: types.IntervalUnitMonths, Length: 1},
	}
}

// TrialPlan is a 100.00 monthly plan with a 14 day free trial
func TrialPlan() *plan.Plan {
	return &plan.Plan{
		Key:              "monthly-100-trial",
		Name:             "Pro",
		Amount:           decimal.RequireFromString("100.00"),
		TrialAmount:      decimal.Zero,
		TrialDays:        14,
		TrialOccurrences: 1,
		Interval:         types.Interval{Unit: types.IntervalUnitMonths, Length: 1},
	}
}
