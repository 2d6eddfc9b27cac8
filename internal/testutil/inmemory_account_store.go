package testutil

import (
	"context"

	"github.com/flexprice/cashier/internal/domain/account"
	ierr "github.com/flexprice/cashier/internal/errors"
	"github.com/samber/lo"
)

// InMemoryAccountStore implements account.Repository
type InMemoryAccountStore struct {
	*InMemoryStore[*account.Account]
}

func NewInMemoryAccountStore() *InMemoryAccountStore {
	return &InMemoryAccountStore{
		InMemoryStore: NewInMemoryStore(copyAccount),
	}
}

func copyAccount(a *account.Account) *account.Account {
	if a == nil {
		return nil
	}
	c := *a
	if a.TrialEndsAt != nil {
		c.TrialEndsAt = lo.ToPtr(*a.TrialEndsAt)
	}
	if a.Metadata != nil {
		c.Metadata = a.Metadata.Merge(nil)
	}
	return &c
}

func (s *InMemoryAccountStore) Create(ctx context.Context, a *account.Account) error {
	if a == nil {
		return ierr.NewError("account cannot be nil").
			Mark(ierr.ErrValidation)
	}
	return s.InMemoryStore.Create(ctx, a.ID, a)
}

func (s *InMemoryAccountStore) Get(ctx context.Context, id string) (*account.Account, error) {
	return s.InMemoryStore.Get(ctx, id)
}

func (s *InMemoryAccountStore) Update(ctx context.Context, a *account.Account) error {
	return s.InMemoryStore.Update(ctx, a.ID, a, func(stored *account.Account) error {
		if stored.Version != a.Version {
			return ierr.NewErrorf("account %s was modified concurrently", a.ID).
				WithHint("Account was changed by another request, reload and retry").
				Mark(ierr.ErrVersionConflict)
		}
		a.Version++
		return nil
	})
}
