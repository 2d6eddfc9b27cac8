package dto

import (
	"github.com/flexprice/cashier/internal/domain/invoice"
	"github.com/flexprice/cashier/internal/service"
	"github.com/flexprice/cashier/internal/validator"
	"github.com/shopspring/decimal"
)

type ChargeRequest struct {
	Amount      decimal.Decimal `json:"amount" swaggertype:"string"`
	Currency    string          `json:"currency" validate:"omitempty,len=3"`
	Description string          `json:"description" validate:"omitempty,max=255"`
	// IdempotencyKey lets a client retry the same charge safely
	IdempotencyKey string `json:"idempotency_key" validate:"omitempty,max=64"`
}

func (r *ChargeRequest) Validate() error {
	return validator.ValidateRequest(r)
}

func (r *ChargeRequest) ToOptions() service.ChargeOptions {
	return service.ChargeOptions{
		Currency:       r.Currency,
		Description:    r.Description,
		IdempotencyKey: r.IdempotencyKey,
	}
}

// InvoiceRequest is a described one-off charge
type InvoiceRequest struct {
	ChargeRequest
}

func (r *InvoiceRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	return validator.ValidateRequest(&struct {
		Description string `validate:"required"`
	}{r.Description})
}

type InvoiceListResponse struct {
	Items []*invoice.Invoice `json:"items"`
}
