package account

import (
	"testing"
	"time"

	ierr "github.com/flexprice/cashier/internal/errors"
	"github.com/flexprice/cashier/internal/validator"
	"github.com/stretchr/testify/assert"
)

func TestMerchantCustomerIDIsTruncated(t *testing.T) {
	a := &Account{ID: "acct_01HZX3W8Q1Y6N4J2K7M9P0R5ST"}
	assert.Len(t, a.MerchantCustomerID(), 20)
	assert.Equal(t, "M_acct_01HZX3W8Q1Y6N", a.MerchantCustomerID())

	short := &Account{ID: "42"}
	assert.Equal(t, "M_42", short.MerchantCustomerID())
}

func TestOnGenericTrial(t *testing.T) {
	now := time.Date(2024, time.May, 1, 12, 0, 0, 0, time.UTC)
	future := now.Add(time.Hour)
	past := now.Add(-time.Hour)

	assert.False(t, (&Account{}).OnGenericTrial(now))
	assert.True(t, (&Account{TrialEndsAt: &future}).OnGenericTrial(now))
	assert.False(t, (&Account{TrialEndsAt: &past}).OnGenericTrial(now))
	assert.False(t, (&Account{TrialEndsAt: &now}).OnGenericTrial(now))
}

func TestClearGatewayProfile(t *testing.T) {
	a := &Account{
		GatewayCustomerID:       "1500",
		GatewayPaymentProfileID: "1600",
		CardBrand:               "Visa",
		CardLastFour:            "1111",
	}
	assert.True(t, a.HasGatewayID())
	assert.True(t, a.HasCardOnFile())

	a.ClearGatewayProfile()
	assert.False(t, a.HasGatewayID())
	assert.False(t, a.HasPaymentProfile())
	assert.False(t, a.HasCardOnFile())
	assert.Empty(t, a.CardLastFour)
}

func TestCardMasking(t *testing.T) {
	c := Card{Number: "4111111111111111", ExpirationDate: "2030-12"}
	assert.Equal(t, "1111", c.LastFour())
	assert.Equal(t, "XXXX1111", c.String())
	assert.NotContains(t, c.String(), "411111")
}

func TestAddressDefaults(t *testing.T) {
	assert.Equal(t, "US", Address{}.WithDefaults().Country)
	assert.Equal(t, "CA", Address{Country: "CA"}.WithDefaults().Country)
}

func TestCardValidation(t *testing.T) {
	tests := []struct {
		number string
		valid  bool
	}{
		{"4111111111111111", true},
		{"4111 1111 1111 1111", true},
		{"378282246310005", true},
		{"4111111111111112", false},
		{"4111", false},
		{"4111x11111111111", false},
	}

	for _, tt := range tests {
		t.Run(tt.number, func(t *testing.T) {
			err := validator.ValidateRequest(Card{Number: tt.number, ExpirationDate: "2030-12"})
			if tt.valid {
				assert.NoError(t, err)
				return
			}
			assert.True(t, ierr.IsValidation(err))
		})
	}
}
