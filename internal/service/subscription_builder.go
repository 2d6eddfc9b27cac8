package service

import (
	"context"
	"time"

	"github.com/flexprice/cashier/internal/domain/account"
	"github.com/flexprice/cashier/internal/domain/subscription"
	ierr "github.com/flexprice/cashier/internal/errors"
	"github.com/flexprice/cashier/internal/gateway"
	"github.com/flexprice/cashier/internal/idempotency"
	"github.com/flexprice/cashier/internal/types"
	"github.com/samber/lo"
)

// SubscriptionBuilder collects the options of a new subscription. Nothing is
// sent or stored until Create.
type SubscriptionBuilder struct {
	params  ServiceParams
	account *account.Account
	name    string
	planKey string

	quantity  int
	trialDays *int
	skipTrial bool
	coupon    string
	metadata  types.Metadata
}

func newSubscriptionBuilder(params ServiceParams, acct *account.Account, name, planKey string) *SubscriptionBuilder {
	return &SubscriptionBuilder{
		params:   params,
		account:  acct,
		name:     lo.Ternary(name == "", subscription.DefaultName, name),
		planKey:  planKey,
		quantity: 1,
	}
}

func (b *SubscriptionBuilder) Quantity(n int) *SubscriptionBuilder {
	b.quantity = n
	return b
}

// TrialDays overrides the plan's trial length
func (b *SubscriptionBuilder) TrialDays(n int) *SubscriptionBuilder {
	b.trialDays = lo.ToPtr(n)
	return b
}

// SkipTrial starts billing today whatever the plan or TrialDays say
func (b *SubscriptionBuilder) SkipTrial() *SubscriptionBuilder {
	b.skipTrial = true
	return b
}

// WithCoupon records a coupon code on the subscription. The gateway has no
// coupon concept, so it does not change the billed amount.
func (b *SubscriptionBuilder) WithCoupon(code string) *SubscriptionBuilder {
	b.coupon = code
	return b
}

func (b *SubscriptionBuilder) WithMetadata(md types.Metadata) *SubscriptionBuilder {
	b.metadata = b.metadata.Merge(md)
	return b
}

// Add creates the subscription against the payment profile already on file
func (b *SubscriptionBuilder) Add(ctx context.Context) (*subscription.Subscription, error) {
	return b.Create(ctx)
}

// Create opens the ARB subscription on the gateway and stores the local record
// once the gateway confirmed it. A gateway failure leaves nothing behind.
func (b *SubscriptionBuilder) Create(ctx context.Context) (*subscription.Subscription, error) {
	acct := b.account
	if !acct.HasPaymentProfile() {
		return nil, errNotACustomer(acct)
	}
	if b.quantity < 1 {
		return nil, ierr.NewErrorf("invalid quantity %d", b.quantity).
			WithHint("Quantity must be at least 1").
			Mark(ierr.ErrValidation)
	}

	p, err := b.params.Plans.GetPlan(ctx, b.planKey)
	if err != nil {
		return nil, err
	}

	now := b.params.now()
	loc := b.params.location()

	trialDays := p.TrialDays
	if b.trialDays != nil {
		trialDays = *b.trialDays
	}
	trialOccurrences := p.TrialOccurrences
	if b.skipTrial {
		trialDays = 0
		trialOccurrences = 0
	}

	local := now.In(loc)
	startDate := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc).AddDate(0, 0, trialDays)
	unit, length := p.Interval.GatewaySchedule()
	refID := types.GenerateShortIDWithPrefix(types.SHORT_ID_PREFIX_REF)

	req := gateway.CreateRecurringSubscriptionRequest{
		RefID:             refID,
		Name:              p.Name,
		CustomerProfileID: acct.GatewayCustomerID,
		PaymentProfileID:  acct.GatewayPaymentProfileID,
		Schedule: gateway.Schedule{
			IntervalUnit:     unit,
			IntervalLength:   length,
			StartDate:        startDate,
			TotalOccurrences: p.Occurrences(),
			TrialOccurrences: trialOccurrences,
		},
		Amount:      types.ComposeAmount(p.Amount, acct.TaxPercentage()),
		TrialAmount: types.RoundAmount(p.TrialAmount),
		InvoiceNumber: b.params.Idempotency.GenerateReference(idempotency.ScopeRecurring, map[string]interface{}{
			"account_id": acct.ID,
			"name":       b.name,
			"plan":       p.Key,
			"ref_id":     refID,
		}),
		Description: p.Description,
	}

	b.params.Logger.Infow("creating recurring subscription",
		"account_id", acct.ID,
		"name", b.name,
		"plan", p.Key,
		"ref_id", refID,
		"amount", types.FormatAmount(req.Amount),
		"start_date", types.FormatGatewayDate(startDate))

	ref, err := b.params.Gateway.CreateRecurringSubscription(ctx, req)
	if err != nil {
		b.params.Logger.Errorw("failed to create recurring subscription",
			"account_id", acct.ID,
			"plan", p.Key,
			"ref_id", refID,
			"error", err)
		b.params.Sentry.CaptureGatewayError(ctx, "createRecurringSubscription", err)
		return nil, err
	}

	var trialEndsAt *time.Time
	if !b.skipTrial && trialDays > 0 {
		trialEndsAt = lo.ToPtr(now.AddDate(0, 0, trialDays).UTC())
	}

	md := types.Metadata{subscription.MetadataKeyRefID: refID}
	if b.coupon != "" {
		md[subscription.MetadataKeyCoupon] = b.coupon
	}

	sub := &subscription.Subscription{
		ID:                      types.GenerateUUIDWithPrefix(types.UUID_PREFIX_SUBSCRIPTION),
		AccountID:               acct.ID,
		Name:                    b.name,
		PlanKey:                 p.Key,
		GatewaySubscriptionID:   ref.SubscriptionID,
		GatewayPaymentProfileID: acct.GatewayPaymentProfileID,
		Quantity:                b.quantity,
		TrialEndsAt:             trialEndsAt,
		Metadata:                b.metadata.Merge(md),
		Version:                 1,
		BaseModel:               types.GetDefaultBaseModel(ctx, now),
	}

	if err := b.params.SubRepo.Create(ctx, sub); err != nil {
		b.params.Logger.Errorw("recurring subscription created but not stored, cancelling it",
			"account_id", acct.ID,
			"gateway_subscription_id", ref.SubscriptionID,
			"error", err)
		if cancelErr := b.params.Gateway.CancelRecurringSubscription(ctx, ref.SubscriptionID); cancelErr != nil {
			b.params.Logger.Errorw("failed to cancel orphaned recurring subscription",
				"gateway_subscription_id", ref.SubscriptionID,
				"error", cancelErr)
			b.params.Sentry.CaptureException(cancelErr)
		}
		return nil, err
	}

	b.params.Logger.Infow("created subscription",
		"subscription_id", sub.ID,
		"gateway_subscription_id", sub.GatewaySubscriptionID,
		"trial_ends_at", sub.TrialEndsAt)
	return sub, nil
}
