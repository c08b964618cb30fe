package domain

import "github.com/yndnr/tsqr-go/pkg/tsqr"

// Reason is the machine-readable outcome of a verification attempt.
type Reason string

// Verification reasons. The string values are part of the wire contract.
const (
	ReasonOK                    Reason = "ok"
	ReasonInvalidTokenFormat    Reason = "invalid_token_format"
	ReasonInvalidPayload        Reason = "invalid_payload"
	ReasonMissingRequiredFields Reason = "missing_required_fields"
	ReasonUnknownTenant         Reason = "unknown_tenant"
	ReasonBadSignature          Reason = "bad_signature"
	ReasonTimestampInFuture     Reason = "timestamp_in_future"
	ReasonExpired               Reason = "expired"
	ReasonReplay                Reason = "replay"
)

// Reasons lists every verification reason in state machine order.
var Reasons = []Reason{
	ReasonOK,
	ReasonInvalidTokenFormat,
	ReasonInvalidPayload,
	ReasonMissingRequiredFields,
	ReasonUnknownTenant,
	ReasonBadSignature,
	ReasonTimestampInFuture,
	ReasonExpired,
	ReasonReplay,
}

// String implements fmt.Stringer.
func (r Reason) String() string { return string(r) }

// IsConflict reports whether the reason means the token was already consumed.
func (r Reason) IsConflict() bool { return r == ReasonReplay }

// Verdict is the result of one verification attempt.
//
// Payload is nil for format failures and set for every later outcome.
type Verdict struct {
	Valid   bool         `json:"valid"`
	Reason  Reason       `json:"reason"`
	Payload tsqr.Payload `json:"payload,omitempty"`
}

// Accept returns a successful verdict.
func Accept(p tsqr.Payload) Verdict {
	return Verdict{Valid: true, Reason: ReasonOK, Payload: p}
}

// Reject returns a failed verdict carrying whatever payload was parsed.
func Reject(reason Reason, p tsqr.Payload) Verdict {
	return Verdict{Valid: false, Reason: reason, Payload: p}
}
