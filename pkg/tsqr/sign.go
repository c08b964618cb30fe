package tsqr

import (
	"crypto/hmac"
	"crypto/sha256"
)

// SignatureSize is the length of a token signature in bytes.
const SignatureSize = sha256.Size

// Signer computes and checks token signatures.
type Signer interface {
	Sign(canonical, secret []byte) []byte
	Verify(canonical, secret, sig []byte) bool
}

// HMACSigner signs with HMAC-SHA256.
type HMACSigner struct{}

// Sign implements Signer.
func (HMACSigner) Sign(canonical, secret []byte) []byte { return Sign(canonical, secret) }

// Verify implements Signer.
func (HMACSigner) Verify(canonical, secret, sig []byte) bool { return Verify(canonical, secret, sig) }

// Sign returns HMAC-SHA256(secret, canonical).
func Sign(canonical, secret []byte) []byte {
	mac := hmac.New(sha256.New, secret)
	mac.Write(canonical)
	return mac.Sum(nil)
}

// Verify recomputes the signature and compares it in constant time.
func Verify(canonical, secret, sig []byte) bool {
	return hmac.Equal(Sign(canonical, secret), sig)
}
