package repository

import (
	"context"
	"strings"

	"github.com/flexprice/cashier/internal/config"
	"github.com/flexprice/cashier/internal/domain/plan"
	ierr "github.com/flexprice/cashier/internal/errors"
	"github.com/shopspring/decimal"
)

// configPlanProvider serves plans from the plans section of the configuration
type configPlanProvider struct {
	plans map[string]config.PlanConfig
}

func NewConfigPlanProvider(cfg *config.Configuration) plan.Provider {
	plans := make(map[string]config.PlanConfig, len(cfg.Plans))
	for key, p := range cfg.Plans {
		// viper lowercases map keys, lookups do the same
		plans[strings.ToLower(key)] = p
	}
	return &configPlanProvider{plans: plans}
}

func (p *configPlanProvider) GetPlan(_ context.Context, key string) (*plan.Plan, error) {
	raw, ok := p.plans[strings.ToLower(key)]
	if !ok {
		return nil, ierr.NewErrorf("plan %q is not configured", key).
			WithHintf("Plan %s does not exist", key).
			WithReportableDetails(map[string]any{"plan": key}).
			Mark(ierr.ErrConfiguration)
	}

	amount, err := parseAmount(key, "amount", raw.Amount)
	if err != nil {
		return nil, err
	}
	trialAmount, err := parseAmount(key, "trial_amount", raw.TrialAmount)
	if err != nil {
		return nil, err
	}
	taxMultiplier, err := parseAmount(key, "tax_multiplier", raw.TaxMultiplier)
	if err != nil {
		return nil, err
	}
	if err := raw.Interval.Validate(); err != nil {
		return nil, ierr.WithError(err).
			WithHintf("Plan %s has an invalid interval", key).
			Mark(ierr.ErrConfiguration)
	}

	return &plan.Plan{
		Key:              key,
		Name:             raw.Name,
		Description:      raw.Description,
		Amount:           amount,
		TrialAmount:      trialAmount,
		TrialDays:        raw.TrialDays,
		TrialOccurrences: raw.TrialOccurrences,
		TotalOccurrences: raw.TotalOccurrences,
		Interval:         raw.Interval,
		TaxMultiplier:    taxMultiplier,
	}, nil
}

// parseAmount reads an optional decimal field, empty means zero
func parseAmount(key, field, value string) (decimal.Decimal, error) {
	if strings.TrimSpace(value) == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return decimal.Zero, ierr.WithError(err).
			WithHintf("Plan %s has an invalid %s", key, field).
			WithReportableDetails(map[string]any{"plan": key, "field": field, "value": value}).
			Mark(ierr.ErrConfiguration)
	}
	return d, nil
}
