// Package tsqr implements the tenant-signed QR token format.
//
// Token Format:
//
//	TSQR1.<base64url(canonical_json(payload))>.<base64url(hmac_sha256(secret, canonical_json(payload)))>
//
//   - Prefix: TSQR1 (fixed literal, must match exactly)
//   - Payload: canonical JSON object, keys sorted by code point, no whitespace
//   - Signature: 32 byte HMAC-SHA256 over the exact payload bytes
//   - Base64 RawURL encoding (padding stripped on encode, tolerated on decode)
//
// Security:
//
//   - Decode is a strict grammar over untrusted bytes; content is never evaluated
//   - Signatures are compared in constant time
//   - The canonical form is recomputed at verify time, so formatting drift fails
package tsqr
