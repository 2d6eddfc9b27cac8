package testutil

import (
	"context"

	"github.com/flexprice/cashier/internal/domain/subscription"
	ierr "github.com/flexprice/cashier/internal/errors"
	"github.com/samber/lo"
)

// InMemorySubscriptionStore implements subscription.Repository
type InMemorySubscriptionStore struct {
	*InMemoryStore[*subscription.Subscription]
}

func NewInMemorySubscriptionStore() *InMemorySubscriptionStore {
	return &InMemorySubscriptionStore{
		InMemoryStore: NewInMemoryStore(copySubscription),
	}
}

func copySubscription(sub *subscription.Subscription) *subscription.Subscription {
	if sub == nil {
		return nil
	}
	c := *sub
	if sub.TrialEndsAt != nil {
		c.TrialEndsAt = lo.ToPtr(*sub.TrialEndsAt)
	}
	if sub.EndsAt != nil {
		c.EndsAt = lo.ToPtr(*sub.EndsAt)
	}
	if sub.Metadata != nil {
		c.Metadata = sub.Metadata.Merge(nil)
	}
	return &c
}

// newestFirst orders by creation time, ties broken by the k-sortable id
func newestFirst(a, b *subscription.Subscription) bool {
	if a.CreatedAt.Equal(b.CreatedAt) {
		return a.ID > b.ID
	}
	return a.CreatedAt.After(b.CreatedAt)
}

func (s *InMemorySubscriptionStore) Create(ctx context.Context, sub *subscription.Subscription) error {
	if sub == nil {
		return ierr.NewError("subscription cannot be nil").
			Mark(ierr.ErrValidation)
	}
	return s.InMemoryStore.Create(ctx, sub.ID, sub)
}

func (s *InMemorySubscriptionStore) Get(ctx context.Context, id string) (*subscription.Subscription, error) {
	return s.InMemoryStore.Get(ctx, id)
}

// Update applies the same optimistic version check as the postgres repository
func (s *InMemorySubscriptionStore) Update(ctx context.Context, sub *subscription.Subscription) error {
	return s.InMemoryStore.Update(ctx, sub.ID, sub, func(stored *subscription.Subscription) error {
		if stored.Version != sub.Version {
			return ierr.NewErrorf("subscription %s was modified concurrently", sub.ID).
				WithHint("Subscription was changed by another request, reload and retry").
				WithReportableDetails(map[string]any{
					"subscription_id": sub.ID,
					"version":         sub.Version,
				}).
				Mark(ierr.ErrVersionConflict)
		}
		sub.Version++
		return nil
	})
}

func (s *InMemorySubscriptionStore) GetByOwnerAndName(ctx context.Context, accountID, name string) (*subscription.Subscription, error) {
	subs, err := s.List(ctx, func(_ context.Context, sub *subscription.Subscription) bool {
		return sub.AccountID == accountID && sub.Name == name
	}, newestFirst)
	if err != nil {
		return nil, err
	}
	if len(subs) == 0 {
		return nil, ierr.NewErrorf("no %s subscription for account %s", name, accountID).
			WithHintf("Subscription %s not found", name).
			Mark(ierr.ErrNotFound)
	}
	return subs[0], nil
}

func (s *InMemorySubscriptionStore) ListByOwner(ctx context.Context, accountID string) ([]*subscription.Subscription, error) {
	return s.List(ctx, func(_ context.Context, sub *subscription.Subscription) bool {
		return sub.AccountID == accountID
	}, newestFirst)
}
