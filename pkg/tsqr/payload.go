package tsqr

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Well-known payload keys.
const (
	KeyTenantID      = "tenant_id"
	KeyTransactionID = "transaction_id"
	KeyTimestamp     = "timestamp"
	KeyNonce         = "nonce"
	KeyActorRole     = "actor_role"
	KeyProfileID     = "profile_id"
	KeyMerchantID    = "merchant_id"
	KeyPlanID        = "plan_id"
	KeyAmountCents   = "amount_cents"
	KeyCurrency      = "currency"
)

// Payload is the signed claim set carried by a token.
//
// Values decoded from a token keep JSON numbers as json.Number so that the
// canonical encoding can be reproduced byte for byte.
type Payload map[string]any

// String returns the value for key if it is a string.
func (p Payload) String(key string) string {
	s, _ := p[key].(string)
	return s
}

// TenantID returns the tenant_id claim.
func (p Payload) TenantID() string { return p.String(KeyTenantID) }

// Nonce returns the nonce claim.
func (p Payload) Nonce() string { return p.String(KeyNonce) }

// Timestamp returns the issuance time in Unix seconds.
// The second return is false unless the claim is an integer.
func (p Payload) Timestamp() (int64, bool) {
	return p.Int(KeyTimestamp)
}

// Int returns the value for key if it is an integer.
// Floats, exponents, booleans and numeric strings are rejected.
func (p Payload) Int(key string) (int64, bool) {
	switch v := p[key].(type) {
	case json.Number:
		if strings.ContainsAny(string(v), ".eE") {
			return 0, false
		}
		n, err := strconv.ParseInt(string(v), 10, 64)
		return n, err == nil
	case int:
		return int64(v), true
	case int64:
		return v, true
	case int32:
		return int64(v), true
	default:
		return 0, false
	}
}

// Clone returns a shallow copy of the payload.
func (p Payload) Clone() Payload {
	if p == nil {
		return nil
	}
	out := make(Payload, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Claims is a typed view of the well-known payload fields.
type Claims struct {
	TenantID      string `json:"tenant_id"`
	TransactionID string `json:"transaction_id"`
	Timestamp     int64  `json:"timestamp"`
	Nonce         string `json:"nonce"`
	ActorRole     string `json:"actor_role,omitempty"`
	ProfileID     string `json:"profile_id,omitempty"`
	MerchantID    string `json:"merchant_id,omitempty"`
	PlanID        string `json:"plan_id,omitempty"`
	AmountCents   *int64 `json:"amount_cents,omitempty"`
	Currency      string `json:"currency,omitempty"`
}

// Claims extracts the well-known fields. Fields of the wrong type are left zero.
func (p Payload) Claims() Claims {
	c := Claims{
		TenantID:      p.TenantID(),
		TransactionID: p.String(KeyTransactionID),
		Nonce:         p.Nonce(),
		ActorRole:     p.String(KeyActorRole),
		ProfileID:     p.String(KeyProfileID),
		MerchantID:    p.String(KeyMerchantID),
		PlanID:        p.String(KeyPlanID),
		Currency:      p.String(KeyCurrency),
	}
	c.Timestamp, _ = p.Timestamp()
	if amt, ok := p.Int(KeyAmountCents); ok {
		c.AmountCents = &amt
	}
	return c
}
