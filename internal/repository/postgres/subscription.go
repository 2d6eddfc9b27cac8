package postgres

import (
	"context"
	"database/sql"

	"github.com/flexprice/cashier/internal/domain/subscription"
	ierr "github.com/flexprice/cashier/internal/errors"
	"github.com/flexprice/cashier/internal/logger"
	"github.com/flexprice/cashier/internal/postgres"
)

type subscriptionRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewSubscriptionRepository(db *postgres.DB, logger *logger.Logger) subscription.Repository {
	return &subscriptionRepository{db: db, logger: logger}
}

const subscriptionColumns = `id, account_id, name, plan_key,
	gateway_subscription_id, gateway_payment_profile_id, quantity,
	trial_ends_at, ends_at, metadata, version,
	status, created_at, updated_at, created_by, updated_by`

// newest first, ids are ULIDs so they break ties in creation order
const subscriptionOrder = ` ORDER BY created_at DESC, id DESC`

func (r *subscriptionRepository) Create(ctx context.Context, sub *subscription.Subscription) error {
	ctx, finish := r.db.StartSpan(ctx, "subscription.create", map[string]interface{}{"subscription_id": sub.ID})
	defer finish()

	query := `
		INSERT INTO subscriptions (` + subscriptionColumns + `) VALUES (
			:id, :account_id, :name, :plan_key,
			:gateway_subscription_id, :gateway_payment_profile_id, :quantity,
			:trial_ends_at, :ends_at, :metadata, :version,
			:status, :created_at, :updated_at, :created_by, :updated_by
		)`

	if _, err := r.db.GetQuerier(ctx).NamedExecContext(ctx, query, sub); err != nil {
		if isUniqueViolation(err) {
			return ierr.WithError(err).
				WithHintf("Subscription %s already exists", sub.ID).
				Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).
			WithHint("Failed to create subscription").
			Mark(ierr.ErrDatabase)
	}

	r.logger.Debugw("stored subscription",
		"subscription_id", sub.ID,
		"account_id", sub.AccountID,
		"gateway_subscription_id", sub.GatewaySubscriptionID)
	return nil
}

func (r *subscriptionRepository) Get(ctx context.Context, id string) (*subscription.Subscription, error) {
	ctx, finish := r.db.StartSpan(ctx, "subscription.get", map[string]interface{}{"subscription_id": id})
	defer finish()

	var sub subscription.Subscription
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE id = $1`
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &sub, query, id); err != nil {
		if ierr.Is(err, sql.ErrNoRows) {
			return nil, ierr.NewErrorf("subscription %s not found", id).
				WithHintf("Subscription %s not found", id).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get subscription").
			Mark(ierr.ErrDatabase)
	}
	return &sub, nil
}

func (r *subscriptionRepository) GetByOwnerAndName(ctx context.Context, accountID, name string) (*subscription.Subscription, error) {
	ctx, finish := r.db.StartSpan(ctx, "subscription.get_by_owner_and_name", map[string]interface{}{
		"account_id": accountID,
		"name":       name,
	})
	defer finish()

	var sub subscription.Subscription
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions
		WHERE account_id = $1 AND name = $2` + subscriptionOrder + ` LIMIT 1`
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &sub, query, accountID, name); err != nil {
		if ierr.Is(err, sql.ErrNoRows) {
			return nil, ierr.NewErrorf("no %s subscription for account %s", name, accountID).
				WithHintf("Account has no %s subscription", name).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get subscription").
			Mark(ierr.ErrDatabase)
	}
	return &sub, nil
}

func (r *subscriptionRepository) ListByOwner(ctx context.Context, accountID string) ([]*subscription.Subscription, error) {
	ctx, finish := r.db.StartSpan(ctx, "subscription.list_by_owner", map[string]interface{}{"account_id": accountID})
	defer finish()

	var subs []*subscription.Subscription
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE account_id = $1` + subscriptionOrder
	if err := r.db.GetQuerier(ctx).SelectContext(ctx, &subs, query, accountID); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list subscriptions").
			Mark(ierr.ErrDatabase)
	}
	return subs, nil
}

// Update writes sub when the stored version matches sub.Version and bumps it
func (r *subscriptionRepository) Update(ctx context.Context, sub *subscription.Subscription) error {
	ctx, finish := r.db.StartSpan(ctx, "subscription.update", map[string]interface{}{"subscription_id": sub.ID})
	defer finish()

	query := `
		UPDATE subscriptions SET
			name = $1, plan_key = $2,
			gateway_subscription_id = $3, gateway_payment_profile_id = $4, quantity = $5,
			trial_ends_at = $6, ends_at = $7, metadata = $8,
			status = $9, updated_at = $10, updated_by = $11,
			version = version + 1
		WHERE id = $12 AND version = $13`

	res, err := r.db.GetQuerier(ctx).ExecContext(ctx, query,
		sub.Name, sub.PlanKey,
		sub.GatewaySubscriptionID, sub.GatewayPaymentProfileID, sub.Quantity,
		sub.TrialEndsAt, sub.EndsAt, sub.Metadata,
		sub.Status, sub.UpdatedAt, sub.UpdatedBy,
		sub.ID, sub.Version,
	)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update subscription").
			Mark(ierr.ErrDatabase)
	}

	if err := checkVersionedUpdate(ctx, r.db, res, "subscriptions", sub.ID); err != nil {
		return err
	}
	sub.Version++
	return nil
}
