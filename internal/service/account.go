package service

import (
	"context"
	"strings"

	"github.com/flexprice/cashier/internal/domain/account"
	ierr "github.com/flexprice/cashier/internal/errors"
	"github.com/flexprice/cashier/internal/types"
)

type AccountService interface {
	CreateAccount(ctx context.Context, acct *account.Account) (*account.Account, error)
	GetAccount(ctx context.Context, id string) (*account.Account, error)
}

type accountService struct {
	ServiceParams
}

func NewAccountService(params ServiceParams) AccountService {
	return &accountService{
		ServiceParams: params,
	}
}

func (s *accountService) CreateAccount(ctx context.Context, acct *account.Account) (*account.Account, error) {
	if acct == nil {
		return nil, ierr.NewError("account is required").
			WithHint("Account details are required").
			Mark(ierr.ErrValidation)
	}
	if strings.TrimSpace(acct.Email) == "" {
		return nil, ierr.NewError("email is required").
			WithHint("Please provide an email address for the account").
			Mark(ierr.ErrValidation)
	}

	if acct.ID == "" {
		acct.ID = types.GenerateUUIDWithPrefix(types.UUID_PREFIX_ACCOUNT)
	}
	if acct.Version == 0 {
		acct.Version = 1
	}
	if acct.Status == "" {
		acct.BaseModel = types.GetDefaultBaseModel(ctx, s.now())
	}

	if err := s.AccountRepo.Create(ctx, acct); err != nil {
		return nil, err
	}

	s.Logger.Infow("account created", "account_id", acct.ID, "generic_trial", acct.OnGenericTrial(s.now()))
	return acct, nil
}

func (s *accountService) GetAccount(ctx context.Context, id string) (*account.Account, error) {
	if id == "" {
		return nil, ierr.NewError("account id is required").
			WithHint("Account ID is required").
			Mark(ierr.ErrValidation)
	}
	return s.AccountRepo.Get(ctx, id)
}
