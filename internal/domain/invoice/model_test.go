package invoice

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFormatTotal(t *testing.T) {
	tests := []struct {
		currency string
		total    string
		want     string
	}{
		{"USD", "107", "$107.00"},
		{"eur", "9.5", "€9.50"},
		{"JPY", "1200", "JPY1200.00"},
	}

	for _, tt := range tests {
		t.Run(tt.currency, func(t *testing.T) {
			inv := &Invoice{Currency: tt.currency, Total: decimal.RequireFromString(tt.total)}
			assert.Equal(t, tt.want, inv.FormatTotal())
		})
	}
}
