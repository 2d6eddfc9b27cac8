package service

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/flexprice/cashier/internal/cache"
	"github.com/flexprice/cashier/internal/domain/subscription"
	ierr "github.com/flexprice/cashier/internal/errors"
	"github.com/flexprice/cashier/internal/gateway"
)

// ReconcileService settles calls whose outcome was not known when they
// returned. It only ever reads from the gateway.
type ReconcileService interface {
	// AwaitTransactionDecision polls a transaction held for review until the
	// merchant approves or declines it, or the reconcile window runs out
	AwaitTransactionDecision(ctx context.Context, transactionID string) (*gateway.TransactionDetails, error)
	// ReconcileCancellation applies a cancellation the gateway performed but
	// whose confirmation never arrived
	ReconcileCancellation(ctx context.Context, subscriptionID string) (*subscription.Subscription, error)
}

type reconcileService struct {
	ServiceParams
}

func NewReconcileService(params ServiceParams) ReconcileService {
	return &reconcileService{
		ServiceParams: params,
	}
}

var errStillPending = ierr.NewError("transaction still pending review").
	Mark(ierr.ErrHeldForReview)

// newBackOff refuses an unbounded window: a zero MaxElapsedTime never stops
func (s *reconcileService) newBackOff(ctx context.Context) (backoff.BackOffContext, error) {
	cfg := s.Config.Gateway.Reconcile
	if cfg.InitialInterval <= 0 || cfg.MaxInterval < cfg.InitialInterval || cfg.MaxElapsed <= 0 {
		return nil, ierr.NewErrorf("invalid reconcile window initial=%s max=%s elapsed=%s",
			cfg.InitialInterval, cfg.MaxInterval, cfg.MaxElapsed).
			WithHint("Reconciliation is misconfigured").
			Mark(ierr.ErrConfiguration)
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = cfg.InitialInterval
	b.MaxInterval = cfg.MaxInterval
	b.MaxElapsedTime = cfg.MaxElapsed
	return backoff.WithContext(b, ctx), nil
}

func (s *reconcileService) AwaitTransactionDecision(ctx context.Context, transactionID string) (*gateway.TransactionDetails, error) {
	if transactionID == "" {
		return nil, ierr.NewError("transaction id is required").
			WithHint("Transaction ID is required").
			Mark(ierr.ErrValidation)
	}
	b, err := s.newBackOff(ctx)
	if err != nil {
		return nil, err
	}

	var details *gateway.TransactionDetails

	operation := func() error {
		d, err := s.Gateway.GetTransaction(ctx, transactionID)
		if err != nil {
			// an explicit rejection will not change on the next poll
			if ierr.IsGatewayFailure(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		details = d
		if d.PendingReview() {
			return errStillPending
		}
		return nil
	}

	notify := func(err error, wait time.Duration) {
		s.Logger.Debugw("transaction not decided yet",
			"transaction_id", transactionID,
			"retry_in", wait,
			"error", err)
	}

	if err := backoff.RetryNotify(operation, b, notify); err != nil {
		if details != nil && details.PendingReview() {
			return details, ierr.WithError(err).
				WithHintf("Transaction %s is still held for review", transactionID).
				WithReportableDetails(map[string]any{
					"transaction_id": transactionID,
					"status":         details.Status,
				}).
				Mark(ierr.ErrHeldForReview)
		}
		return nil, err
	}

	s.Cache.Set(ctx, cache.GenerateKey(cache.PrefixTransaction, transactionID), details, 0)
	s.Logger.Infow("transaction decided",
		"transaction_id", transactionID,
		"status", details.Status)
	return details, nil
}

func (s *reconcileService) ReconcileCancellation(ctx context.Context, subscriptionID string) (*subscription.Subscription, error) {
	sub, err := s.SubRepo.Get(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}
	if sub.Cancelled() {
		return sub, nil
	}

	s.Cache.Delete(ctx, cache.GenerateKey(cache.PrefixRecurringSubscription, sub.GatewaySubscriptionID))
	remote, err := fetchRecurringSubscription(ctx, s.ServiceParams, sub.GatewaySubscriptionID)
	if err != nil {
		return nil, err
	}

	if !remote.Terminated() {
		return nil, ierr.NewErrorf("recurring subscription %s is %s", remote.ID, remote.Status).
			WithHint("The payment gateway still bills this subscription, cancel it again").
			WithReportableDetails(map[string]any{
				"subscription_id":         sub.ID,
				"gateway_subscription_id": sub.GatewaySubscriptionID,
				"gateway_status":          remote.Status,
			}).
			Mark(ierr.ErrInvalidOperation)
	}

	now := s.now()
	endsAt, err := cancellationEnd(ctx, s.ServiceParams, sub, now)
	if err != nil {
		return nil, err
	}
	sub.EndAt(endsAt, now)
	sub.Touch(ctx, now)
	if err := s.SubRepo.Update(ctx, sub); err != nil {
		return nil, err
	}

	s.Logger.Infow("reconciled cancellation",
		"subscription_id", sub.ID,
		"gateway_status", remote.Status,
		"ends_at", sub.EndsAt)
	return sub, nil
}
