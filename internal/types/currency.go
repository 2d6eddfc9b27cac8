package types

import "strings"

// DefaultCurrency is used when neither the charge nor billing.currency names one
const DefaultCurrency = "USD"

// currencySymbols covers the currencies the gateway settles in
var currencySymbols = map[string]string{
	"USD": "$",
	"CAD": "CA$",
	"GBP": "£",
	"EUR": "€",
	"AUD": "AU$",
	"NZD": "NZ$",
}

// NormalizeCurrency upper-cases a currency code and falls back to fallback when empty
func NormalizeCurrency(code, fallback string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return strings.ToUpper(fallback)
	}
	return code
}

// GetCurrencySymbol returns the symbol for a given currency code
// if the code is not found, it returns the code itself
func GetCurrencySymbol(code string) string {
	if symbol, ok := currencySymbols[strings.ToUpper(code)]; ok {
		return symbol
	}
	return code
}
