package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a domain error with a structured error code.
type DomainError struct {
	Code    string // Error code (e.g., "TS-QR-4010")
	Message string // Human-readable message
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is() support for error comparison.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Cause:   e.Cause,
	}
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Cause:   cause,
	}
}

// IsDomainError checks if an error is a DomainError with the given code.
// If code is empty, it only checks if the error is a DomainError.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		if code == "" {
			return true // Only check if it's a DomainError
		}
		return de.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error if it's a DomainError.
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// ============================================================================
// Verification Errors (QR)
// One per Reason; used when a rejection has to travel as an error.
// ============================================================================

var (
	// ErrTokenFormat indicates the token is not a TSQR1 three-segment token.
	ErrTokenFormat = NewDomainError("TS-QR-4000", "invalid token format")

	// ErrTokenPayload indicates the payload segment is not a JSON object.
	ErrTokenPayload = NewDomainError("TS-QR-4001", "invalid token payload")

	// ErrMissingFields indicates tenant_id, nonce or timestamp is absent.
	ErrMissingFields = NewDomainError("TS-QR-4002", "missing required fields")

	// ErrUnknownTenant indicates no secret is configured for the tenant.
	ErrUnknownTenant = NewDomainError("TS-QR-4010", "unknown tenant")

	// ErrBadSignature indicates the signature does not match the payload.
	ErrBadSignature = NewDomainError("TS-QR-4011", "bad signature")

	// ErrTimestampInFuture indicates the token was issued too far ahead of now.
	ErrTimestampInFuture = NewDomainError("TS-QR-4012", "timestamp in future")

	// ErrTokenExpired indicates the token is older than the freshness window.
	ErrTokenExpired = NewDomainError("TS-QR-4013", "token expired")

	// ErrNonceReplay indicates the nonce was already consumed.
	ErrNonceReplay = NewDomainError("TS-QR-4090", "nonce replay detected")
)

var reasonErrors = map[Reason]*DomainError{
	ReasonInvalidTokenFormat:    ErrTokenFormat,
	ReasonInvalidPayload:        ErrTokenPayload,
	ReasonMissingRequiredFields: ErrMissingFields,
	ReasonUnknownTenant:         ErrUnknownTenant,
	ReasonBadSignature:          ErrBadSignature,
	ReasonTimestampInFuture:     ErrTimestampInFuture,
	ReasonExpired:               ErrTokenExpired,
	ReasonReplay:                ErrNonceReplay,
}

// ReasonError returns the DomainError for a rejection reason, or nil for ok
// and unknown reasons.
func ReasonError(r Reason) *DomainError {
	return reasonErrors[r]
}

// Err returns the verdict as an error, nil when valid.
func (v Verdict) Err() error {
	if v.Valid {
		return nil
	}
	if de := ReasonError(v.Reason); de != nil {
		return de
	}
	return ErrInternal.WithDetails("unknown reason " + string(v.Reason))
}

// ============================================================================
// Image Errors (IMG)
// ============================================================================

var (
	// ErrInvalidImage indicates the upload is not a decodable raster image.
	ErrInvalidImage = NewDomainError("TS-IMG-4000", "invalid image")

	// ErrNoCode indicates no QR code was found in the image.
	ErrNoCode = NewDomainError("TS-IMG-4001", "no QR code found")

	// ErrImageTooLarge indicates the upload exceeds the size limit.
	ErrImageTooLarge = NewDomainError("TS-IMG-4130", "file too large")

	// ErrUnsupportedMedia indicates the upload content type is not an image.
	ErrUnsupportedMedia = NewDomainError("TS-IMG-4150", "unsupported content type")
)

// ============================================================================
// System Errors (SYS)
// ============================================================================

var (
	// ErrInternal indicates an internal server error.
	ErrInternal = NewDomainError("TS-SYS-5000", "internal server error")

	// ErrSecretsNotConfigured indicates no tenant secrets are loaded.
	ErrSecretsNotConfigured = NewDomainError("TS-SYS-5001", "tenant secrets not configured")

	// ErrDecoderUnavailable indicates the QR decoder could not be initialized.
	// Callers treat this as a service outage, not a client error.
	ErrDecoderUnavailable = NewDomainError("TS-SYS-5030", "decoder_unavailable")

	// ErrRateLimited indicates too many requests.
	ErrRateLimited = NewDomainError("TS-SYS-4290", "too many requests")

	// ErrBadRequest indicates a malformed request.
	ErrBadRequest = NewDomainError("TS-SYS-4000", "bad request")
)
