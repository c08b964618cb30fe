package service

import (
	"strings"

	"github.com/yndnr/tsqr-go/pkg/tsqr"
)

// Trust is a rating derived from verified claims.
type Trust struct {
	Role       string  `json:"role"`
	Rating     int     `json:"rating"`     // 1-5
	Confidence float64 `json:"confidence"` // 0-1
}

// TrustPolicy derives a trust signal from the claims of a verified token.
// It returns false when the claims carry nothing it can rate.
//
// Trust is policy layered on top of verification. It must only be fed
// payloads from a valid Verdict.
type TrustPolicy func(tsqr.Claims) (Trust, bool)

// Profile is one row of a profile trust table.
type Profile struct {
	Role       string
	Rating     int
	Confidence float64
	// Capped profiles never rate above CapRating.
	CapRating     int
	CapConfidence float64
}

// DefaultProfiles is the built-in profile table.
var DefaultProfiles = map[string]Profile{
	"merchant_gold":       {Role: "merchant", Rating: 5, Confidence: 0.98},
	"merchant_new":        {Role: "merchant", Rating: 4, Confidence: 0.90},
	"merchant_flagged":    {Role: "merchant", Rating: 2, Confidence: 0.85, CapRating: 2, CapConfidence: 0.90},
	"customer_loyal":      {Role: "customer", Rating: 5, Confidence: 0.97},
	"customer_new":        {Role: "customer", Rating: 3, Confidence: 0.80},
	"customer_chargeback": {Role: "customer", Rating: 2, Confidence: 0.88, CapRating: 2},
	"insurer_partner":     {Role: "insurer", Rating: 5, Confidence: 0.99},
	"insurer_auditor":     {Role: "insurer", Rating: 4, Confidence: 0.92},
	"insurer_unknown":     {Role: "insurer", Rating: 3, Confidence: 0.85},
}

// HighValueCents is the amount at which confidence gets a small bump.
const HighValueCents = 50000

// ProfileTrustPolicy rates claims by looking up profile_id in table.
func ProfileTrustPolicy(table map[string]Profile) TrustPolicy {
	return func(c tsqr.Claims) (Trust, bool) {
		id := strings.TrimSpace(c.ProfileID)
		if id == "" {
			return Trust{}, false
		}
		p, ok := table[id]
		if !ok {
			return Trust{}, false
		}

		rating := p.Rating
		if rating == 0 {
			rating = 3
		}
		conf := p.Confidence
		if conf == 0 {
			conf = 0.85
		}

		if c.AmountCents != nil && *c.AmountCents >= HighValueCents {
			conf += 0.02
		}
		if p.CapRating > 0 {
			rating = min(rating, p.CapRating)
		}
		if p.CapConfidence > 0 {
			conf = min(conf, p.CapConfidence)
		}

		return Trust{
			Role:       p.Role,
			Rating:     max(1, min(5, rating)),
			Confidence: max(0.0, min(1.0, conf)),
		}, true
	}
}
