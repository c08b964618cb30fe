package service

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/yndnr/tsqr-go/internal/core/domain"
	"github.com/yndnr/tsqr-go/internal/telemetry/logger"
	"github.com/yndnr/tsqr-go/pkg/tsqr"
)

// ReplayGuard is the replay check consulted after a token passes signature
// and freshness checks. *NonceStore is the production implementation.
type ReplayGuard interface {
	CheckAndMark(tenantID, nonce string, now time.Time) bool
}

// VerdictRecorder receives every verification outcome.
type VerdictRecorder interface {
	ObserveVerdict(reason domain.Reason)
}

// Policy is the freshness window applied to token timestamps.
type Policy struct {
	// MaxAge is how far in the past a timestamp may lie (inclusive).
	MaxAge time.Duration

	// MaxFutureSkew is how far ahead of now a timestamp may lie (inclusive).
	MaxFutureSkew time.Duration
}

// DefaultPolicy returns the default freshness window (900s age, 60s skew).
func DefaultPolicy() Policy {
	return Policy{
		MaxAge:        900 * time.Second,
		MaxFutureSkew: 60 * time.Second,
	}
}

// Verifier runs the token verification state machine:
//
//	parse -> required fields -> tenant -> signature -> freshness -> replay -> ok
//
// Each step short-circuits to a rejected Verdict. Verifier holds no mutable
// state of its own and is safe for concurrent use.
type Verifier struct {
	signer   tsqr.Signer
	now      func() time.Time
	recorder VerdictRecorder
}

// VerifierOption configures a Verifier.
type VerifierOption func(*Verifier)

// WithSigner overrides the signature primitive.
func WithSigner(s tsqr.Signer) VerifierOption {
	return func(v *Verifier) { v.signer = s }
}

// WithClock overrides the wall clock.
func WithClock(now func() time.Time) VerifierOption {
	return func(v *Verifier) { v.now = now }
}

// WithRecorder attaches a verdict recorder.
func WithRecorder(r VerdictRecorder) VerifierOption {
	return func(v *Verifier) { v.recorder = r }
}

// NewVerifier creates a Verifier using HMAC-SHA256 and time.Now.
func NewVerifier(opts ...VerifierOption) *Verifier {
	v := &Verifier{
		signer: tsqr.HMACSigner{},
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Verify checks token against the tenant secrets, the freshness policy and
// the replay guard. It never returns an error: every failure is a Verdict.
// A nil guard fails closed and rejects every otherwise valid token as a replay.
func (v *Verifier) Verify(ctx context.Context, token string, secrets map[string]string, guard ReplayGuard, policy Policy) domain.Verdict {
	verdict := v.verify(token, secrets, guard, policy)

	if v.recorder != nil {
		v.recorder.ObserveVerdict(verdict.Reason)
	}
	log := logger.L(ctx)
	if verdict.Valid {
		log.Debug("token verified", "tenant_id", verdict.Payload.TenantID())
	} else {
		attrs := []any{"reason", verdict.Reason.String()}
		if verdict.Payload != nil {
			attrs = append(attrs, "tenant_id", verdict.Payload.TenantID())
		}
		log.Info("token rejected", attrs...)
	}
	return verdict
}

func (v *Verifier) verify(token string, secrets map[string]string, guard ReplayGuard, policy Policy) domain.Verdict {
	// 1. Parse
	payload, sig, err := tsqr.Decode(token)
	if err != nil {
		if errors.Is(err, tsqr.ErrInvalidPayload) {
			return domain.Reject(domain.ReasonInvalidPayload, nil)
		}
		return domain.Reject(domain.ReasonInvalidTokenFormat, nil)
	}

	// 2. Required fields
	tenantID := payload.TenantID()
	nonce := payload.Nonce()
	ts, ok := payload.Timestamp()
	if tenantID == "" || nonce == "" || !ok {
		return domain.Reject(domain.ReasonMissingRequiredFields, payload)
	}

	// 3. Tenant secret, resolved before any MAC work
	secret := secrets[tenantID]
	if secret == "" {
		return domain.Reject(domain.ReasonUnknownTenant, payload)
	}

	// 4. Signature over the recomputed canonical bytes
	canonical, err := tsqr.Canonicalize(payload)
	if err != nil || !v.signer.Verify(canonical, []byte(secret), sig) {
		return domain.Reject(domain.ReasonBadSignature, payload)
	}

	// 5. Freshness window, whole seconds
	now := v.now()
	nowSec := now.Unix()
	if ts > nowSec+seconds(policy.MaxFutureSkew) {
		return domain.Reject(domain.ReasonTimestampInFuture, payload)
	}
	// Written as ts < now-maxAge so hostile timestamps cannot overflow.
	if ts < nowSec-seconds(policy.MaxAge) {
		return domain.Reject(domain.ReasonExpired, payload)
	}

	// 6. Replay, on the same whole-second clock as the window above
	if guard == nil || !guard.CheckAndMark(tenantID, nonce, time.Unix(nowSec, 0)) {
		return domain.Reject(domain.ReasonReplay, payload)
	}

	return domain.Accept(payload)
}

func seconds(d time.Duration) int64 {
	return int64(d / time.Second)
}

// VerifyToken verifies token with the default verifier. It mirrors the
// collaborator contract (valid, reason, payload).
func VerifyToken(token string, secrets map[string]string, store ReplayGuard, maxAgeSeconds, maxFutureSkewSeconds int) (bool, string, tsqr.Payload) {
	verdict := NewVerifier().Verify(context.Background(), token, secrets, store, Policy{
		MaxAge:        secondsDuration(maxAgeSeconds),
		MaxFutureSkew: secondsDuration(maxFutureSkewSeconds),
	})
	return verdict.Valid, verdict.Reason.String(), verdict.Payload
}

// secondsDuration converts whole seconds to a Duration, saturating at the
// Duration range (about 292 years) instead of wrapping.
func secondsDuration(n int) time.Duration {
	const limit = int64(math.MaxInt64 / time.Second)
	switch s := int64(n); {
	case s > limit:
		return math.MaxInt64
	case s < -limit:
		return math.MinInt64
	default:
		return time.Duration(s) * time.Second
	}
}
