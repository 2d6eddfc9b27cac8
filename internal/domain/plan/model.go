package plan

import (
	"context"

	"github.com/flexprice/cashier/internal/types"
	"github.com/shopspring/decimal"
)

// Plan is a typed plan definition resolved once per operation
type Plan struct {
	Key              string          `json:"key"`
	Name             string          `json:"name"`
	Description      string          `json:"description,omitempty"`
	Amount           decimal.Decimal `json:"amount" swaggertype:"string"`
	TrialAmount      decimal.Decimal `json:"trial_amount" swaggertype:"string"`
	TrialDays        int             `json:"trial_days"`
	TrialOccurrences int             `json:"trial_occurrences"`
	TotalOccurrences int             `json:"total_occurrences"`
	Interval         types.Interval  `json:"interval"`
	// TaxMultiplier is a plan-level tax fraction, zero when not configured
	TaxMultiplier decimal.Decimal `json:"tax_multiplier" swaggertype:"string"`
}

// UnlimitedOccurrences is the gateway's marker for an ARB with no end date
const UnlimitedOccurrences = 9999

// Occurrences returns the total occurrences to send, unlimited when unset
func (p *Plan) Occurrences() int {
	if p.TotalOccurrences <= 0 {
		return UnlimitedOccurrences
	}
	return p.TotalOccurrences
}

// Provider resolves plan definitions by key
type Provider interface {
	// GetPlan returns ierr.ErrConfiguration when key is not configured
	GetPlan(ctx context.Context, key string) (*Plan, error)
}

// TaxMultiplierOrZero is the plan-level tax fraction, 0.00 when the plan declares none
func (p *Plan) TaxMultiplierOrZero() decimal.Decimal {
	if p == nil || p.TaxMultiplier.IsNegative() {
		return decimal.Zero
	}
	return p.TaxMultiplier
}
