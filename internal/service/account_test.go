package service

import (
	"testing"
	"time"

	"github.com/flexprice/cashier/internal/domain/account"
	ierr "github.com/flexprice/cashier/internal/errors"
	"github.com/flexprice/cashier/internal/testutil"
	"github.com/flexprice/cashier/internal/types"
	"github.com/samber/lo"
	"github.com/stretchr/testify/suite"
)

type AccountServiceSuite struct {
	testutil.BaseServiceTestSuite
	service AccountService
}

func TestAccountService(t *testing.T) {
	suite.Run(t, new(AccountServiceSuite))
}

func (s *AccountServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.service = NewAccountService(newTestParams(&s.BaseServiceTestSuite))
}

func (s *AccountServiceSuite) TestCreateStampsDefaults() {
	acct, err := s.service.CreateAccount(s.GetContext(), &account.Account{
		Email:       "sam@example.com",
		FirstName:   "Sam",
		LastName:    "Rivera",
		TrialEndsAt: lo.ToPtr(s.GetNow().AddDate(0, 0, 10)),
	})
	s.Require().NoError(err)
	s.Contains(acct.ID, types.UUID_PREFIX_ACCOUNT)
	s.Equal(1, acct.Version)
	s.Equal(types.StatusPublished, acct.Status)
	s.Equal(s.GetNow(), acct.CreatedAt)
	s.True(acct.OnGenericTrial(s.GetNow()))
	s.False(acct.HasGatewayID())

	stored, err := s.service.GetAccount(s.GetContext(), acct.ID)
	s.Require().NoError(err)
	s.Equal("sam@example.com", stored.Email)
	s.WithinDuration(s.GetNow().AddDate(0, 0, 10), *stored.TrialEndsAt, time.Second)
}

func (s *AccountServiceSuite) TestCreateRequiresEmail() {
	_, err := s.service.CreateAccount(s.GetContext(), &account.Account{FirstName: "Sam"})
	s.True(ierr.IsValidation(err))
}

func (s *AccountServiceSuite) TestCreateDuplicate() {
	existing := s.CreateCustomer()
	_, err := s.service.CreateAccount(s.GetContext(), &account.Account{ID: existing.ID, Email: "x@example.com"})
	s.True(ierr.IsAlreadyExists(err))
}

func (s *AccountServiceSuite) TestGetAccount() {
	_, err := s.service.GetAccount(s.GetContext(), "acct_missing")
	s.True(ierr.IsNotFound(err))

	_, err = s.service.GetAccount(s.GetContext(), "")
	s.True(ierr.IsValidation(err))
}
