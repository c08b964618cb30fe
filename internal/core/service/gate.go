package service

import (
	"context"
	"iter"

	"github.com/yndnr/tsqr-go/internal/core/domain"
	"github.com/yndnr/tsqr-go/internal/telemetry/logger"
)

// CandidateSource yields candidate QR texts from raster bytes.
// *qrdecode.Pipeline is the production implementation.
type CandidateSource interface {
	Candidates(data []byte) (iter.Seq[string], error)
}

// GateResult is the outcome of verifying the code printed on an image.
type GateResult struct {
	Verdict     domain.Verdict
	DecodedText string
	// Trust is set only for valid verdicts rated by the trust policy.
	Trust *Trust
}

// GateConfig wires a Gate.
type GateConfig struct {
	Source   CandidateSource
	Verifier *Verifier
	Secrets  map[string]string
	Store    ReplayGuard
	Policy   Policy
	Trust    TrustPolicy
}

// Gate verifies the signed token carried by a receipt photograph.
type Gate struct {
	source   CandidateSource
	verifier *Verifier
	secrets  map[string]string
	store    ReplayGuard
	policy   Policy
	trust    TrustPolicy
}

// NewGate creates a Gate. A nil Verifier defaults to NewVerifier().
func NewGate(cfg GateConfig) *Gate {
	v := cfg.Verifier
	if v == nil {
		v = NewVerifier()
	}
	return &Gate{
		source:   cfg.Source,
		verifier: v,
		secrets:  cfg.Secrets,
		store:    cfg.Store,
		policy:   cfg.Policy,
		trust:    cfg.Trust,
	}
}

// HasSecrets reports whether any tenant secret is configured.
func (g *Gate) HasSecrets() bool {
	return len(g.secrets) > 0
}

// VerifyImage decodes data and verifies the first candidate text.
//
// Decoder failures are returned as errors (domain.ErrInvalidImage,
// domain.ErrDecoderUnavailable), as are domain.ErrNoCode and
// domain.ErrSecretsNotConfigured. A rejected token is not an error: it is
// reported in the result's Verdict.
func (g *Gate) VerifyImage(ctx context.Context, data []byte) (*GateResult, error) {
	if g.source == nil {
		return nil, domain.ErrDecoderUnavailable.WithDetails("no candidate source")
	}
	seq, err := g.source.Candidates(data)
	if err != nil {
		return nil, err
	}

	// Only the first candidate is verified; stop decoding once it is known.
	var text string
	for t := range seq {
		text = t
		break
	}
	if text == "" {
		return nil, domain.ErrNoCode
	}

	if !g.HasSecrets() {
		return nil, domain.ErrSecretsNotConfigured
	}

	verdict := g.verifier.Verify(ctx, text, g.secrets, g.store, g.policy)
	result := &GateResult{Verdict: verdict, DecodedText: text}

	if verdict.Valid && g.trust != nil {
		if t, ok := g.trust(verdict.Payload.Claims()); ok {
			result.Trust = &t
			logger.L(ctx).Debug("trust rated",
				"role", t.Role,
				"rating", t.Rating,
				"confidence", t.Confidence,
			)
		}
	}
	return result, nil
}
