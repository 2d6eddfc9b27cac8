package service

import (
	"context"
	"time"

	"github.com/flexprice/cashier/internal/cache"
	"github.com/flexprice/cashier/internal/domain/subscription"
	ierr "github.com/flexprice/cashier/internal/errors"
	"github.com/flexprice/cashier/internal/types"
)

// SubscriptionService owns every transition of a subscription's lifecycle
type SubscriptionService interface {
	GetSubscription(ctx context.Context, id string) (*subscription.Subscription, error)
	// Cancel stops the ARB on the gateway and lets the subscription run until the
	// end of its trial or the current billing period
	Cancel(ctx context.Context, id string) (*subscription.Subscription, error)
	// CancelNow cancels and ends the subscription immediately
	CancelNow(ctx context.Context, id string) (*subscription.Subscription, error)
	// MarkAsCancelled ends the subscription locally without calling the gateway
	MarkAsCancelled(ctx context.Context, id string) (*subscription.Subscription, error)
}

type subscriptionService struct {
	ServiceParams
}

func NewSubscriptionService(params ServiceParams) SubscriptionService {
	return &subscriptionService{
		ServiceParams: params,
	}
}

func (s *subscriptionService) GetSubscription(ctx context.Context, id string) (*subscription.Subscription, error) {
	return s.SubRepo.Get(ctx, id)
}

func (s *subscriptionService) Cancel(ctx context.Context, id string) (*subscription.Subscription, error) {
	sub, err := s.SubRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if sub.Ended(now) {
		return nil, errAlreadyCancelled(sub)
	}
	// already in its grace period, the ARB is gone on the gateway
	if sub.OnGracePeriod(now) {
		return sub, nil
	}

	if err := s.cancelRemote(ctx, sub, now); err != nil {
		return nil, err
	}
	if err := s.save(ctx, sub, now); err != nil {
		return nil, err
	}
	return sub, nil
}

func (s *subscriptionService) CancelNow(ctx context.Context, id string) (*subscription.Subscription, error) {
	sub, err := s.SubRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if sub.Ended(now) {
		return sub, nil
	}
	if !sub.OnGracePeriod(now) {
		if err := s.cancelRemote(ctx, sub, now); err != nil {
			return nil, err
		}
	}

	sub.MarkEnded(now)
	if err := s.save(ctx, sub, now); err != nil {
		return nil, err
	}
	return sub, nil
}

func (s *subscriptionService) MarkAsCancelled(ctx context.Context, id string) (*subscription.Subscription, error) {
	sub, err := s.SubRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.now()
	sub.MarkEnded(now)
	if err := s.save(ctx, sub, now); err != nil {
		return nil, err
	}
	return sub, nil
}

// cancelRemote cancels the ARB and schedules the local end. sub is only
// modified once the gateway confirmed the cancellation.
func (s *subscriptionService) cancelRemote(ctx context.Context, sub *subscription.Subscription, now time.Time) error {
	endsAt, err := cancellationEnd(ctx, s.ServiceParams, sub, now)
	if err != nil {
		return err
	}

	s.Logger.Infow("cancelling recurring subscription",
		"subscription_id", sub.ID,
		"gateway_subscription_id", sub.GatewaySubscriptionID)

	err = s.Gateway.CancelRecurringSubscription(ctx, sub.GatewaySubscriptionID)
	s.Cache.Delete(ctx, cache.GenerateKey(cache.PrefixRecurringSubscription, sub.GatewaySubscriptionID))
	if err != nil {
		s.Logger.Errorw("failed to cancel recurring subscription",
			"subscription_id", sub.ID,
			"gateway_subscription_id", sub.GatewaySubscriptionID,
			"error", err)
		s.Sentry.CaptureGatewayError(ctx, "cancelRecurringSubscription", err)
		return err
	}

	sub.EndAt(endsAt, now)
	return nil
}

// cancellationEnd is when a subscription cancelled at now stops being usable:
// the end of its trial, or the end of the current billing period
func cancellationEnd(ctx context.Context, params ServiceParams, sub *subscription.Subscription, now time.Time) (time.Time, error) {
	if sub.OnTrial(now) {
		return *sub.TrialEndsAt, nil
	}
	p, err := params.Plans.GetPlan(ctx, sub.PlanKey)
	if err != nil {
		return time.Time{}, err
	}
	return types.GracePeriodEnd(sub.CreatedAt, now, p.Interval, params.location()), nil
}

func (s *subscriptionService) save(ctx context.Context, sub *subscription.Subscription, now time.Time) error {
	sub.Touch(ctx, now)
	if err := s.SubRepo.Update(ctx, sub); err != nil {
		s.Logger.Errorw("failed to save subscription",
			"subscription_id", sub.ID,
			"error", err)
		return err
	}
	s.Logger.Infow("subscription updated",
		"subscription_id", sub.ID,
		"state", sub.State(now),
		"ends_at", sub.EndsAt)
	return nil
}

func errAlreadyCancelled(sub *subscription.Subscription) error {
	return ierr.NewErrorf("subscription %s is already cancelled", sub.ID).
		WithHint("The subscription is already cancelled").
		WithReportableDetails(map[string]any{
			"subscription_id": sub.ID,
		}).
		Mark(ierr.ErrInvalidOperation)
}
