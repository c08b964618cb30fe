// Package domain defines the core domain models for tsqr.
//
// Domain models are pure values without IO dependencies. This package contains:
//
//   - Reason: machine-readable verification outcome codes
//   - Verdict: the structured (valid, reason, payload) result of one verification
//   - Errors: DomainError taxonomy for environment-level failures
//
// Verification outcomes are data. Only conditions such as a missing QR decoder
// or an unreadable upload are represented as errors.
package domain
