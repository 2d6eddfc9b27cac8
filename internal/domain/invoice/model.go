package invoice

import (
	"time"

	"github.com/flexprice/cashier/internal/domain/subscription"
	"github.com/flexprice/cashier/internal/gateway"
	"github.com/flexprice/cashier/internal/types"
	"github.com/shopspring/decimal"
)

// Invoice is a projection of what a subscription bills on a given date. It is
// computed on demand and never stored. Historical invoices built this way are
// derived from elapsed months, not from settled transactions.
type Invoice struct {
	ID           string                         `json:"id"`
	Subscription *subscription.Subscription     `json:"subscription"`
	BillingDate  time.Time                      `json:"billing_date"`
	TaxPercent   decimal.Decimal                `json:"tax_percent" swaggertype:"string"`
	Amount       decimal.Decimal                `json:"amount" swaggertype:"string"`
	TaxAmount    decimal.Decimal                `json:"tax_amount" swaggertype:"string"`
	Total        decimal.Decimal                `json:"total" swaggertype:"string"`
	Currency     string                         `json:"currency"`
	Projected    bool                           `json:"projected"`
	Remote       *gateway.RecurringSubscription `json:"remote,omitempty"`
}

// FormatTotal renders the total with its currency symbol, e.g. $107.00
func (i *Invoice) FormatTotal() string {
	return types.GetCurrencySymbol(i.Currency) + types.FormatAmount(i.Total)
}
