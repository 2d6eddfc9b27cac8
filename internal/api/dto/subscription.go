package dto

import (
	"context"
	"time"

	"github.com/flexprice/cashier/internal/domain/account"
	"github.com/flexprice/cashier/internal/domain/subscription"
	"github.com/flexprice/cashier/internal/service"
	"github.com/flexprice/cashier/internal/types"
	"github.com/flexprice/cashier/internal/validator"
)

type CreateSubscriptionRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Plan     string `json:"plan" validate:"required"`
	Quantity int    `json:"quantity" validate:"omitempty,gte=1"`
	// TrialDays overrides the plan's trial length when set
	TrialDays *int              `json:"trial_days,omitempty" validate:"omitempty,gte=0"`
	SkipTrial bool              `json:"skip_trial"`
	Coupon    string            `json:"coupon,omitempty" validate:"omitempty,max=50"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

func (r *CreateSubscriptionRequest) Validate() error {
	return validator.ValidateRequest(r)
}

// Create runs the builder with the requested options
func (r *CreateSubscriptionRequest) Create(ctx context.Context, billing service.BillingService, acct *account.Account) (*subscription.Subscription, error) {
	b := billing.NewSubscription(acct, r.Name, r.Plan)
	if r.Quantity > 0 {
		b.Quantity(r.Quantity)
	}
	if r.TrialDays != nil {
		b.TrialDays(*r.TrialDays)
	}
	if r.SkipTrial {
		b.SkipTrial()
	}
	if r.Coupon != "" {
		b.WithCoupon(r.Coupon)
	}
	if len(r.Metadata) > 0 {
		b.WithMetadata(types.Metadata(r.Metadata))
	}
	return b.Create(ctx)
}

type SubscriptionResponse struct {
	*subscription.Subscription
	State         subscription.State `json:"state"`
	Valid         bool               `json:"valid"`
	OnTrial       bool               `json:"on_trial"`
	OnGracePeriod bool               `json:"on_grace_period"`
}

func NewSubscriptionResponse(sub *subscription.Subscription, now time.Time) *SubscriptionResponse {
	return &SubscriptionResponse{
		Subscription:  sub,
		State:         sub.State(now),
		Valid:         sub.Valid(now),
		OnTrial:       sub.OnTrial(now),
		OnGracePeriod: sub.OnGracePeriod(now),
	}
}
