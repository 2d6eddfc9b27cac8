package subscription

import "context"

// Repository defines the interface for subscription data access
type Repository interface {
	Create(ctx context.Context, sub *Subscription) error
	// Update persists sub when its Version matches the stored one and bumps it,
	// ierr.ErrVersionConflict otherwise
	Update(ctx context.Context, sub *Subscription) error
	Get(ctx context.Context, id string) (*Subscription, error)
	// GetByOwnerAndName returns the most recently created subscription in the slot
	GetByOwnerAndName(ctx context.Context, accountID, name string) (*Subscription, error)
	// ListByOwner is ordered by creation, newest first
	ListByOwner(ctx context.Context, accountID string) ([]*Subscription, error)
}
