package account

import (
	"strings"
	"time"

	"github.com/flexprice/cashier/internal/types"
)

// merchantCustomerIDMax is the gateway limit for merchantCustomerId
const merchantCustomerIDMax = 20

// Account is the billable entity. It mirrors the gateway customer profile through
// GatewayCustomerID/GatewayPaymentProfileID and caches the card brand and last four
// digits because the gateway never returns them.
type Account struct {
	ID        string `db:"id" json:"id"`
	Email     string `db:"email" json:"email"`
	FirstName string `db:"first_name" json:"first_name"`
	LastName  string `db:"last_name" json:"last_name"`
	Company   string `db:"company" json:"company,omitempty"`

	Address string `db:"address" json:"address"`
	City    string `db:"city" json:"city"`
	State   string `db:"state" json:"state"`
	Zip     string `db:"zip" json:"zip"`
	Country string `db:"country" json:"country"`

	GatewayCustomerID       string `db:"gateway_customer_id" json:"gateway_customer_id,omitempty"`
	GatewayPaymentProfileID string `db:"gateway_payment_profile_id" json:"gateway_payment_profile_id,omitempty"`
	CardBrand               string `db:"card_brand" json:"card_brand,omitempty"`
	CardLastFour            string `db:"card_last_four" json:"card_last_four,omitempty"`

	// TrialEndsAt is the generic trial, granted before any subscription exists
	TrialEndsAt *time.Time `db:"trial_ends_at" json:"trial_ends_at,omitempty"`
	TaxPercent  int        `db:"tax_percent" json:"tax_percent"`
	Currency    string     `db:"currency" json:"currency,omitempty"`

	Metadata types.Metadata `db:"metadata" json:"metadata,omitempty"`
	Version  int            `db:"version" json:"version"`

	types.BaseModel
}

// HasGatewayID reports whether a customer profile exists on the gateway
func (a *Account) HasGatewayID() bool {
	return a.GatewayCustomerID != ""
}

// HasPaymentProfile reports whether both profile ids needed to charge are present
func (a *Account) HasPaymentProfile() bool {
	return a.GatewayCustomerID != "" && a.GatewayPaymentProfileID != ""
}

func (a *Account) HasCardOnFile() bool {
	return a.CardBrand != ""
}

// OnGenericTrial reports an account-level trial that is not tied to a subscription
func (a *Account) OnGenericTrial(now time.Time) bool {
	return a.TrialEndsAt != nil && now.Before(*a.TrialEndsAt)
}

func (a *Account) TaxPercentage() int {
	return a.TaxPercent
}

// PreferredCurrency returns the account currency or fallback when unset
func (a *Account) PreferredCurrency(fallback string) string {
	return types.NormalizeCurrency(a.Currency, fallback)
}

// MerchantCustomerID is the merchant-side reference stored on the gateway profile
func (a *Account) MerchantCustomerID() string {
	id := "M_" + a.ID
	if len(id) > merchantCustomerIDMax {
		id = id[:merchantCustomerIDMax]
	}
	return id
}

// BillingAddress builds the bill-to block from the stored address
func (a *Account) BillingAddress() Address {
	return Address{
		FirstName: a.FirstName,
		LastName:  a.LastName,
		Company:   a.Company,
		Address:   a.Address,
		City:      a.City,
		State:     a.State,
		Zip:       a.Zip,
		Country:   a.Country,
	}
}

// ApplyAddress stores a location as the account's billing address
func (a *Account) ApplyAddress(addr Address) {
	a.Address = addr.Address
	a.City = addr.City
	a.State = addr.State
	a.Zip = addr.Zip
	a.Country = addr.Country
	if addr.Company != "" {
		a.Company = addr.Company
	}
}

// ClearGatewayProfile forgets the remote profile and the cached card fields
func (a *Account) ClearGatewayProfile() {
	a.GatewayCustomerID = ""
	a.GatewayPaymentProfileID = ""
	a.CardBrand = ""
	a.CardLastFour = ""
}

// Address is a bill-to location
type Address struct {
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Company   string `json:"company,omitempty"`
	Address   string `json:"address" validate:"required"`
	City      string `json:"city" validate:"required"`
	State     string `json:"state" validate:"required"`
	Zip       string `json:"zip" validate:"required"`
	Country   string `json:"country,omitempty"`
}

// WithDefaults fills Country with US like the gateway does for domestic merchants
func (a Address) WithDefaults() Address {
	if strings.TrimSpace(a.Country) == "" {
		a.Country = "US"
	}
	return a
}

// Card is raw card data. It is only ever held in memory for the duration of a
// gateway call and must never be logged or persisted.
type Card struct {
	Number         string `json:"number" validate:"required,credit_card"`
	ExpirationDate string `json:"expiration_date" validate:"required,card_expiry"` // YYYY-MM
	CardCode       string `json:"card_code,omitempty" validate:"omitempty,numeric,min=3,max=4"`
}

// LastFour returns the trailing four digits of the card number
func (c Card) LastFour() string {
	if len(c.Number) <= 4 {
		return c.Number
	}
	return c.Number[len(c.Number)-4:]
}

// String masks the card number so it is safe in log lines
func (c Card) String() string {
	return "XXXX" + c.LastFour()
}
