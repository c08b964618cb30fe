package service

import (
	"context"
	"errors"
	"iter"
	"testing"
	"time"

	"github.com/yndnr/tsqr-go/internal/core/domain"
)

// stubSource yields fixed texts and records how many were pulled.
type stubSource struct {
	texts  []string
	err    error
	pulled int
}

func (s *stubSource) Candidates([]byte) (iter.Seq[string], error) {
	if s.err != nil {
		return nil, s.err
	}
	return func(yield func(string) bool) {
		for _, t := range s.texts {
			s.pulled++
			if !yield(t) {
				return
			}
		}
	}, nil
}

func newTestGate(src CandidateSource, secrets map[string]string) *Gate {
	return NewGate(GateConfig{
		Source:   src,
		Verifier: fixedVerifier(epoch),
		Secrets:  secrets,
		Store:    NewNonceStore(time.Hour),
		Policy:   DefaultPolicy(),
		Trust:    ProfileTrustPolicy(DefaultProfiles),
	})
}

func TestGate_VerifyImage(t *testing.T) {
	p := basePayload(epoch.Unix())
	p["profile_id"] = "merchant_gold"
	token := mint(t, p, testSecret)

	src := &stubSource{texts: []string{token, "second"}}
	g := newTestGate(src, testSecrets)

	res, err := g.VerifyImage(context.Background(), []byte("png"))
	if err != nil {
		t.Fatalf("VerifyImage() error = %v", err)
	}
	if !res.Verdict.Valid || res.DecodedText != token {
		t.Errorf("result = %+v", res)
	}
	if res.Trust == nil || res.Trust.Rating != 5 {
		t.Errorf("trust = %+v, want rating 5", res.Trust)
	}
	if src.pulled != 1 {
		t.Errorf("pulled %d candidates, want 1", src.pulled)
	}

	again, err := g.VerifyImage(context.Background(), []byte("png"))
	if err != nil {
		t.Fatalf("second VerifyImage() error = %v", err)
	}
	if again.Verdict.Reason != domain.ReasonReplay || again.Trust != nil {
		t.Errorf("second result = %+v, want replay without trust", again)
	}
}

func TestGate_OnlyFirstCandidateIsVerified(t *testing.T) {
	token := mint(t, basePayload(epoch.Unix()), testSecret)
	g := newTestGate(&stubSource{texts: []string{"https://example.com", token}}, testSecrets)

	res, err := g.VerifyImage(context.Background(), nil)
	if err != nil {
		t.Fatalf("VerifyImage() error = %v", err)
	}
	if res.Verdict.Reason != domain.ReasonInvalidTokenFormat || res.DecodedText != "https://example.com" {
		t.Errorf("result = %+v", res)
	}
}

func TestGate_Errors(t *testing.T) {
	token := mint(t, basePayload(epoch.Unix()), testSecret)

	tests := []struct {
		name    string
		src     CandidateSource
		secrets map[string]string
		wantErr error
	}{
		{"invalid image", &stubSource{err: domain.ErrInvalidImage}, testSecrets, domain.ErrInvalidImage},
		{"decoder unavailable", &stubSource{err: domain.ErrDecoderUnavailable}, testSecrets, domain.ErrDecoderUnavailable},
		{"no source", nil, testSecrets, domain.ErrDecoderUnavailable},
		{"no code", &stubSource{}, testSecrets, domain.ErrNoCode},
		{"no secrets", &stubSource{texts: []string{token}}, nil, domain.ErrSecretsNotConfigured},
		{"no code wins over no secrets", &stubSource{}, nil, domain.ErrNoCode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newTestGate(tt.src, tt.secrets)
			_, err := g.VerifyImage(context.Background(), nil)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("VerifyImage() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestGate_RejectionCarriesNoTrust(t *testing.T) {
	p := basePayload(epoch.Unix() - 10_000)
	p["profile_id"] = "merchant_gold"
	g := newTestGate(&stubSource{texts: []string{mint(t, p, testSecret)}}, testSecrets)

	res, err := g.VerifyImage(context.Background(), nil)
	if err != nil {
		t.Fatalf("VerifyImage() error = %v", err)
	}
	if res.Verdict.Reason != domain.ReasonExpired || res.Trust != nil {
		t.Errorf("result = %+v, want expired without trust", res)
	}
}

func TestGate_HasSecrets(t *testing.T) {
	if newTestGate(nil, nil).HasSecrets() {
		t.Error("HasSecrets() = true for nil map")
	}
	if !newTestGate(nil, testSecrets).HasSecrets() {
		t.Error("HasSecrets() = false")
	}
}
