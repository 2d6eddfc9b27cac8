package postgres

import (
	"context"
	"database/sql"

	"github.com/flexprice/cashier/internal/domain/account"
	ierr "github.com/flexprice/cashier/internal/errors"
	"github.com/flexprice/cashier/internal/logger"
	"github.com/flexprice/cashier/internal/postgres"
)

type accountRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewAccountRepository(db *postgres.DB, logger *logger.Logger) account.Repository {
	return &accountRepository{db: db, logger: logger}
}

const accountColumns = `id, email, first_name, last_name, company,
	address, city, state, zip, country,
	gateway_customer_id, gateway_payment_profile_id, card_brand, card_last_four,
	trial_ends_at, tax_percent, currency, metadata, version,
	status, created_at, updated_at, created_by, updated_by`

func (r *accountRepository) Create(ctx context.Context, a *account.Account) error {
	ctx, finish := r.db.StartSpan(ctx, "account.create", map[string]interface{}{"account_id": a.ID})
	defer finish()

	query := `
		INSERT INTO accounts (` + accountColumns + `) VALUES (
			:id, :email, :first_name, :last_name, :company,
			:address, :city, :state, :zip, :country,
			:gateway_customer_id, :gateway_payment_profile_id, :card_brand, :card_last_four,
			:trial_ends_at, :tax_percent, :currency, :metadata, :version,
			:status, :created_at, :updated_at, :created_by, :updated_by
		)`

	if _, err := r.db.GetQuerier(ctx).NamedExecContext(ctx, query, a); err != nil {
		if isUniqueViolation(err) {
			return ierr.WithError(err).
				WithHintf("Account %s already exists", a.ID).
				Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).
			WithHint("Failed to create account").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *accountRepository) Get(ctx context.Context, id string) (*account.Account, error) {
	ctx, finish := r.db.StartSpan(ctx, "account.get", map[string]interface{}{"account_id": id})
	defer finish()

	var a account.Account
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &a, query, id); err != nil {
		if ierr.Is(err, sql.ErrNoRows) {
			return nil, ierr.NewErrorf("account %s not found", id).
				WithHintf("Account %s not found", id).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get account").
			Mark(ierr.ErrDatabase)
	}
	return &a, nil
}

// Update writes a when the stored version matches a.Version and bumps it
func (r *accountRepository) Update(ctx context.Context, a *account.Account) error {
	ctx, finish := r.db.StartSpan(ctx, "account.update", map[string]interface{}{"account_id": a.ID})
	defer finish()

	query := `
		UPDATE accounts SET
			email = $1, first_name = $2, last_name = $3, company = $4,
			address = $5, city = $6, state = $7, zip = $8, country = $9,
			gateway_customer_id = $10, gateway_payment_profile_id = $11,
			card_brand = $12, card_last_four = $13,
			trial_ends_at = $14, tax_percent = $15, currency = $16, metadata = $17,
			status = $18, updated_at = $19, updated_by = $20,
			version = version + 1
		WHERE id = $21 AND version = $22`

	res, err := r.db.GetQuerier(ctx).ExecContext(ctx, query,
		a.Email, a.FirstName, a.LastName, a.Company,
		a.Address, a.City, a.State, a.Zip, a.Country,
		a.GatewayCustomerID, a.GatewayPaymentProfileID,
		a.CardBrand, a.CardLastFour,
		a.TrialEndsAt, a.TaxPercent, a.Currency, a.Metadata,
		a.Status, a.UpdatedAt, a.UpdatedBy,
		a.ID, a.Version,
	)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update account").
			Mark(ierr.ErrDatabase)
	}

	if err := checkVersionedUpdate(ctx, r.db, res, "accounts", a.ID); err != nil {
		return err
	}
	a.Version++
	return nil
}
