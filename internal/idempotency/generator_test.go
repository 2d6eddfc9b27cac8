package idempotency

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateReferenceIsStable(t *testing.T) {
	g := NewGenerator()
	params := map[string]interface{}{"subscription_id": "subs_1", "billing_date": "2024-05-10"}

	r1 := g.GenerateReference(ScopeInvoice, params)
	r2 := g.GenerateReference(ScopeInvoice, map[string]interface{}{"billing_date": "2024-05-10", "subscription_id": "subs_1"})
	assert.Equal(t, r1, r2)
	assert.True(t, strings.HasPrefix(r1, "IN"))

	other := g.GenerateReference(ScopeInvoice, map[string]interface{}{"subscription_id": "subs_1", "billing_date": "2024-06-10"})
	assert.NotEqual(t, r1, other)
}

func TestGenerateReferenceFitsGateway(t *testing.T) {
	g := NewGenerator()
	ref := g.GenerateReference(ScopeCharge, map[string]interface{}{"account_id": "acct_1", "amount": "50.00"})
	assert.Len(t, ref, 20)
	assert.True(t, strings.HasPrefix(ref, "CH"))
	assert.Equal(t, ref, g.GenerateReference(ScopeCharge, map[string]interface{}{"amount": "50.00", "account_id": "acct_1"}))
	assert.NotEqual(t, ref, g.GenerateReference(ScopeRecurring, map[string]interface{}{"account_id": "acct_1", "amount": "50.00"}))
}
