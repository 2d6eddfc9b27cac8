package dto

import (
	"context"
	"time"

	"github.com/flexprice/cashier/internal/domain/account"
	"github.com/flexprice/cashier/internal/types"
	"github.com/flexprice/cashier/internal/validator"
	"github.com/samber/lo"
)

type CreateAccountRequest struct {
	Email      string            `json:"email" validate:"required,email"`
	FirstName  string            `json:"first_name" validate:"required,max=50"`
	LastName   string            `json:"last_name" validate:"required,max=50"`
	Company    string            `json:"company" validate:"omitempty,max=50"`
	Address    string            `json:"address" validate:"omitempty,max=60"`
	City       string            `json:"city" validate:"omitempty,max=40"`
	State      string            `json:"state" validate:"omitempty,max=40"`
	Zip        string            `json:"zip" validate:"omitempty,max=20"`
	Country    string            `json:"country" validate:"omitempty,len=2"`
	TaxPercent int               `json:"tax_percent" validate:"gte=0,lte=100"`
	Currency   string            `json:"currency" validate:"omitempty,len=3"`
	// TrialDays grants a generic trial before any subscription exists
	TrialDays int               `json:"trial_days" validate:"gte=0"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

func (r *CreateAccountRequest) Validate() error {
	return validator.ValidateRequest(r)
}

func (r *CreateAccountRequest) ToAccount(ctx context.Context, now time.Time) *account.Account {
	a := &account.Account{
		ID:         types.GenerateUUIDWithPrefix(types.UUID_PREFIX_ACCOUNT),
		Email:      r.Email,
		FirstName:  r.FirstName,
		LastName:   r.LastName,
		Company:    r.Company,
		Address:    r.Address,
		City:       r.City,
		State:      r.State,
		Zip:        r.Zip,
		Country:    r.Country,
		TaxPercent: r.TaxPercent,
		Metadata:   r.Metadata,
		Version:    1,
		BaseModel:  types.GetDefaultBaseModel(ctx, now),
	}
	if r.Currency != "" {
		a.Currency = types.NormalizeCurrency(r.Currency, "")
	}
	if r.TrialDays > 0 {
		a.TrialEndsAt = lo.ToPtr(now.AddDate(0, 0, r.TrialDays).UTC())
	}
	return a
}

type AccountResponse struct {
	*account.Account
	OnGenericTrial bool `json:"on_generic_trial"`
	HasCardOnFile  bool `json:"has_card_on_file"`
}

func NewAccountResponse(a *account.Account, now time.Time) *AccountResponse {
	return &AccountResponse{
		Account:        a,
		OnGenericTrial: a.OnGenericTrial(now),
		HasCardOnFile:  a.HasCardOnFile(),
	}
}

// CreateGatewayCustomerRequest opens the gateway profile with a first card
type CreateGatewayCustomerRequest struct {
	Location account.Address `json:"location" validate:"required"`
	Card     account.Card    `json:"card" validate:"required"`
}

func (r *CreateGatewayCustomerRequest) Validate() error {
	return validator.ValidateRequest(r)
}

type UpdateCardRequest struct {
	Card account.Card `json:"card" validate:"required"`
}

func (r *UpdateCardRequest) Validate() error {
	return validator.ValidateRequest(r)
}
