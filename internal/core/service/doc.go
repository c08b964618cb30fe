// Package service implements token verification on top of pkg/tsqr.
//
// This package contains:
//
//   - NonceStore: in-memory replay gate keyed by (tenant_id, nonce)
//   - Verifier: the verification state machine producing domain.Verdict
//   - Gate: decodes a receipt image and verifies the first QR candidate
//   - TrustPolicy: rates the claims of an already verified token
//
// Verifier and Gate are safe for concurrent use. NonceStore serializes
// its check-then-insert under a single lock.
package service
