package handler

import (
	"time"

	"github.com/yndnr/tsqr-go/internal/core/domain"
	"github.com/yndnr/tsqr-go/internal/core/service"
	"github.com/yndnr/tsqr-go/pkg/tsqr"
)

// Response is the standard API response envelope.
// All JSON responses use this format (except /metrics which uses Prometheus format).
type Response struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
	Timestamp int64  `json:"timestamp"`
	Data      any    `json:"data,omitempty"`
	Details   any    `json:"details,omitempty"` // Additional error details
}

// NewResponse creates a success response.
func NewResponse(requestID string, data any) *Response {
	return &Response{
		Code:      "OK",
		Message:   "Success",
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
		Data:      data,
	}
}

// NewErrorResponse creates an error response.
func NewErrorResponse(requestID, code, message string, details any) *Response {
	return &Response{
		Code:      code,
		Message:   message,
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
		Details:   details,
	}
}

// VerifyResponse is the response body for POST /api/pos/qr/verify.
type VerifyResponse struct {
	Valid       bool          `json:"valid"`
	Reason      domain.Reason `json:"reason"`
	Payload     tsqr.Payload  `json:"payload,omitempty"`
	DecodedText string        `json:"decoded_text"`
}

func newVerifyResponse(res *service.GateResult) VerifyResponse {
	return VerifyResponse{
		Valid:       res.Verdict.Valid,
		Reason:      res.Verdict.Reason,
		Payload:     res.Verdict.Payload,
		DecodedText: res.DecodedText,
	}
}

// GateResponse is the response body for POST /api/pos/qr/gate.
//
// When Required is false the upload passes through unverified.
type GateResponse struct {
	Required bool           `json:"required"`
	Verified bool           `json:"verified"`
	Reason   domain.Reason  `json:"reason,omitempty"`
	Payload  tsqr.Payload   `json:"payload,omitempty"`
	Trust    *service.Trust `json:"trust,omitempty"`
}

// HealthResponse is the response body for GET /health and GET /ready.
type HealthResponse struct {
	Status            string `json:"status"`
	Time              string `json:"time"`
	SecretsConfigured *bool  `json:"secrets_configured,omitempty"`
	Enforcement       string `json:"enforcement,omitempty"`
}
