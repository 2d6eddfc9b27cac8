package idempotency

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// Scope represents the scope of idempotency
type Scope string

const (
	// ScopeCharge keys a one-off charge, sent as the gateway invoice number
	ScopeCharge Scope = "charge"
	// ScopeInvoice keys a projected invoice so the same billing date always gets the same id
	ScopeInvoice Scope = "invoice"
	// ScopeRecurring keys an ARB creation
	ScopeRecurring Scope = "recurring"
)

// maxReferenceLength is the gateway limit for invoiceNumber
const maxReferenceLength = 20

var referencePrefix = map[Scope]string{
	ScopeCharge:    "CH",
	ScopeInvoice:   "IN",
	ScopeRecurring: "RC",
}

// Generator derives deterministic gateway references
type Generator struct{}

// NewGenerator creates a new reference generator
func NewGenerator() *Generator {
	return &Generator{}
}

// GenerateReference returns a key short enough for the gateway's 20 character
// reference fields, e.g. CH3F2A9C01D4B7E6A18C
func (g *Generator) GenerateReference(scope Scope, params map[string]interface{}) string {
	ref := referencePrefix[scope] + strings.ToUpper(hex.EncodeToString(g.hash(scope, params)))
	return ref[:maxReferenceLength]
}

func (g *Generator) hash(scope Scope, params map[string]interface{}) []byte {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(string(scope))
	for _, k := range keys {
		b.WriteString(fmt.Sprintf(":%s=%v", k, params[k]))
	}

	hash := sha256.Sum256([]byte(b.String()))
	return hash[:]
}
