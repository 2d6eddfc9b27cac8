package subscription

import (
	"time"

	"github.com/flexprice/cashier/internal/types"
)

// DefaultName is the subscription slot used when callers do not name one
const DefaultName = "default"

// Metadata keys recorded at creation
const (
	MetadataKeyRefID  = "ref_id"
	MetadataKeyCoupon = "coupon"
)

// Subscription is the local mirror of a gateway ARB subscription. It is created
// only after the gateway confirms the ARB and is never hard deleted.
type Subscription struct {
	ID        string `db:"id" json:"id"`
	AccountID string `db:"account_id" json:"account_id"`
	// Name is the logical slot, e.g. "default"
	Name    string `db:"name" json:"name"`
	PlanKey string `db:"plan_key" json:"plan_key"`

	GatewaySubscriptionID   string `db:"gateway_subscription_id" json:"gateway_subscription_id"`
	GatewayPaymentProfileID string `db:"gateway_payment_profile_id" json:"gateway_payment_profile_id"`

	// Quantity is a local seat count, it does not scale the gateway amount
	Quantity int `db:"quantity" json:"quantity"`

	TrialEndsAt *time.Time `db:"trial_ends_at" json:"trial_ends_at,omitempty"`
	EndsAt      *time.Time `db:"ends_at" json:"ends_at,omitempty"`

	Metadata types.Metadata `db:"metadata" json:"metadata,omitempty"`

	// Version is bumped on every update and checked by the store
	Version int `db:"version" json:"version"`

	types.BaseModel
}

// AnchorDay is the day of month the subscription bills on
func (s *Subscription) AnchorDay(loc *time.Location) int {
	return s.CreatedAt.In(loc).Day()
}

// MostRecent returns the subscription created last, ties go to the later id.
// IDs are ULIDs, so id order is insertion order.
func MostRecent(subs []*Subscription) *Subscription {
	var latest *Subscription
	for _, s := range subs {
		if latest == nil || newer(s, latest) {
			latest = s
		}
	}
	return latest
}

func newer(a, b *Subscription) bool {
	if a.CreatedAt.Equal(b.CreatedAt) {
		return a.ID > b.ID
	}
	return a.CreatedAt.After(b.CreatedAt)
}
