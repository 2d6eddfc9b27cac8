package types

import (
	"github.com/shopspring/decimal"
)

// CurrencyPrecision is the number of decimal places amounts are rounded to before
// they reach the gateway.
const CurrencyPrecision = 2

var hundred = decimal.NewFromInt(100)

// ComposeAmount returns base with taxPercent percent of tax added, rounded half-up
// to currency precision. ComposeAmount(100.00, 7) is 107.00.
func ComposeAmount(base decimal.Decimal, taxPercent int) decimal.Decimal {
	multiplier := decimal.NewFromInt(1).Add(decimal.NewFromInt(int64(taxPercent)).Div(hundred))
	return RoundAmount(base.Mul(multiplier))
}

// TaxAmount returns only the tax portion of base at taxPercent percent.
func TaxAmount(base decimal.Decimal, taxPercent int) decimal.Decimal {
	return RoundAmount(base.Mul(decimal.NewFromInt(int64(taxPercent))).Div(hundred))
}

// TaxFraction converts a whole percent into its fractional multiplier, 7 -> 0.07.
func TaxFraction(taxPercent int) decimal.Decimal {
	return decimal.NewFromInt(int64(taxPercent)).Div(hundred)
}

// TaxPercentFromFraction is the inverse of TaxFraction, 0.075 -> 7.5.
func TaxPercentFromFraction(rate decimal.Decimal) decimal.Decimal {
	return rate.Mul(hundred)
}

// RoundAmount rounds half away from zero, which is half-up for the non-negative
// amounts billed here.
func RoundAmount(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(CurrencyPrecision)
}

// FormatAmount renders an amount the way the gateway expects it, always with two decimals.
func FormatAmount(amount decimal.Decimal) string {
	return amount.StringFixed(CurrencyPrecision)
}
