package postgres

import (
	"context"
	"database/sql/driver"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/flexprice/cashier/internal/domain/subscription"
	ierr "github.com/flexprice/cashier/internal/errors"
	"github.com/flexprice/cashier/internal/logger"
	"github.com/flexprice/cashier/internal/postgres"
	"github.com/flexprice/cashier/internal/types"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/suite"
)

var subscriptionRowColumns = []string{
	"id", "account_id", "name", "plan_key",
	"gateway_subscription_id", "gateway_payment_profile_id", "quantity",
	"trial_ends_at", "ends_at", "metadata", "version",
	"status", "created_at", "updated_at", "created_by", "updated_by",
}

type SubscriptionRepositorySuite struct {
	suite.Suite
	ctx  context.Context
	mock sqlmock.Sqlmock
	db   *postgres.DB
	repo subscription.Repository
	now  time.Time
}

func TestSubscriptionRepository(t *testing.T) {
	suite.Run(t, new(SubscriptionRepositorySuite))
}

func (s *SubscriptionRepositorySuite) SetupTest() {
	mockDB, mock, err := sqlmock.New()
	s.Require().NoError(err)

	s.ctx = context.Background()
	s.mock = mock
	s.db = postgres.NewFromSqlx(sqlx.NewDb(mockDB, "postgres"), logger.NewNopLogger(), nil)
	s.repo = NewSubscriptionRepository(s.db, logger.NewNopLogger())
	s.now = time.Date(2024, time.March, 15, 18, 0, 0, 0, time.UTC)
}

func (s *SubscriptionRepositorySuite) TearDownTest() {
	s.NoError(s.mock.ExpectationsWereMet())
	_ = s.db.DB.Close()
}

func (s *SubscriptionRepositorySuite) newSubscription() *subscription.Subscription {
	return &subscription.Subscription{
		ID:                      "subs_01HZX",
		AccountID:               "acct_01HZX",
		Name:                    subscription.DefaultName,
		PlanKey:                 "monthly-10-1",
		GatewaySubscriptionID:   "ARB900",
		GatewayPaymentProfileID: "800200",
		Quantity:                1,
		Metadata:                types.Metadata{subscription.MetadataKeyRefID: "REF1"},
		Version:                 1,
		BaseModel:               types.GetDefaultBaseModel(s.ctx, s.now),
	}
}

func (s *SubscriptionRepositorySuite) row(id string, createdAt time.Time, endsAt interface{}) []driver.Value {
	return []driver.Value{
		id, "acct_01HZX", "default", "monthly-10-1",
		"ARB900", "800200", 2,
		nil, endsAt, []byte(`{"ref_id":"REF1"}`), 3,
		"published", createdAt, createdAt, "system", "system",
	}
}

func (s *SubscriptionRepositorySuite) TestCreate() {
	s.mock.ExpectExec("INSERT INTO subscriptions").WillReturnResult(sqlmock.NewResult(0, 1))
	s.NoError(s.repo.Create(s.ctx, s.newSubscription()))
}

func (s *SubscriptionRepositorySuite) TestCreateDuplicate() {
	s.mock.ExpectExec("INSERT INTO subscriptions").WillReturnError(&pq.Error{Code: pqUniqueViolation})

	err := s.repo.Create(s.ctx, s.newSubscription())
	s.True(ierr.IsAlreadyExists(err))
}

func (s *SubscriptionRepositorySuite) TestGet() {
	endsAt := s.now.AddDate(0, 0, 5)
	s.mock.ExpectQuery(`FROM subscriptions WHERE id = \$1`).
		WithArgs("subs_01HZX").
		WillReturnRows(sqlmock.NewRows(subscriptionRowColumns).AddRow(s.row("subs_01HZX", s.now, endsAt)...))

	sub, err := s.repo.Get(s.ctx, "subs_01HZX")
	s.Require().NoError(err)
	s.Equal("ARB900", sub.GatewaySubscriptionID)
	s.Equal(2, sub.Quantity)
	s.Equal(3, sub.Version)
	s.Nil(sub.TrialEndsAt)
	s.Require().NotNil(sub.EndsAt)
	s.True(sub.EndsAt.Equal(endsAt))
	s.Equal("REF1", sub.Metadata[subscription.MetadataKeyRefID])
	s.Equal(types.StatusPublished, sub.Status)
}

func (s *SubscriptionRepositorySuite) TestGetMissing() {
	s.mock.ExpectQuery(`FROM subscriptions WHERE id = \$1`).
		WithArgs("subs_missing").
		WillReturnRows(sqlmock.NewRows(subscriptionRowColumns))

	_, err := s.repo.Get(s.ctx, "subs_missing")
	s.True(ierr.IsNotFound(err))
}

func (s *SubscriptionRepositorySuite) TestListByOwnerKeepsOrder() {
	s.mock.ExpectQuery(`ORDER BY created_at DESC, id DESC`).
		WithArgs("acct_01HZX").
		WillReturnRows(sqlmock.NewRows(subscriptionRowColumns).
			AddRow(s.row("subs_02", s.now, nil)...).
			AddRow(s.row("subs_01", s.now.Add(-time.Hour), nil)...))

	subs, err := s.repo.ListByOwner(s.ctx, "acct_01HZX")
	s.Require().NoError(err)
	s.Require().Len(subs, 2)
	s.Equal("subs_02", subs[0].ID)
	s.Equal("subs_01", subs[1].ID)
}

func (s *SubscriptionRepositorySuite) TestGetByOwnerAndNameMissing() {
	s.mock.ExpectQuery(`WHERE account_id = \$1 AND name = \$2`).
		WithArgs("acct_01HZX", "default").
		WillReturnRows(sqlmock.NewRows(subscriptionRowColumns))

	_, err := s.repo.GetByOwnerAndName(s.ctx, "acct_01HZX", "default")
	s.True(ierr.IsNotFound(err))
}

func (s *SubscriptionRepositorySuite) TestUpdateBumpsVersion() {
	sub := s.newSubscription()
	s.mock.ExpectExec("UPDATE subscriptions SET").WillReturnResult(sqlmock.NewResult(0, 1))

	s.Require().NoError(s.repo.Update(s.ctx, sub))
	s.Equal(2, sub.Version)
}

func (s *SubscriptionRepositorySuite) TestUpdateStaleVersion() {
	sub := s.newSubscription()
	s.mock.ExpectExec("UPDATE subscriptions SET").WillReturnResult(sqlmock.NewResult(0, 0))
	s.mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(sub.ID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	err := s.repo.Update(s.ctx, sub)
	s.True(ierr.IsVersionConflict(err))
	s.Equal(1, sub.Version)
}

func (s *SubscriptionRepositorySuite) TestUpdateMissingRow() {
	sub := s.newSubscription()
	s.mock.ExpectExec("UPDATE subscriptions SET").WillReturnResult(sqlmock.NewResult(0, 0))
	s.mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(sub.ID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	err := s.repo.Update(s.ctx, sub)
	s.True(ierr.IsNotFound(err))
}

func (s *SubscriptionRepositorySuite) TestUpdateInsideTransaction() {
	sub := s.newSubscription()
	s.mock.ExpectBegin()
	s.mock.ExpectExec("UPDATE subscriptions SET").WillReturnResult(sqlmock.NewResult(0, 1))
	s.mock.ExpectCommit()

	err := s.db.WithTx(s.ctx, func(ctx context.Context) error {
		return s.repo.Update(ctx, sub)
	})
	s.Require().NoError(err)
}

func (s *SubscriptionRepositorySuite) TestTransactionRollsBackOnError() {
	sub := s.newSubscription()
	s.mock.ExpectBegin()
	s.mock.ExpectExec("UPDATE subscriptions SET").WillReturnResult(sqlmock.NewResult(0, 0))
	s.mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(sub.ID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	s.mock.ExpectRollback()

	err := s.db.WithTx(s.ctx, func(ctx context.Context) error {
		return s.repo.Update(ctx, sub)
	})
	s.True(ierr.IsVersionConflict(err))
}
