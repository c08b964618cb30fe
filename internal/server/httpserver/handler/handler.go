package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/yndnr/tsqr-go/internal/core/domain"
	"github.com/yndnr/tsqr-go/internal/core/service"
	"github.com/yndnr/tsqr-go/internal/server/config"
	"github.com/yndnr/tsqr-go/internal/telemetry/logger"
)

// DefaultMaxUploadBytes bounds a receipt upload when Config leaves it zero.
const DefaultMaxUploadBytes int64 = 3_000_000

// ImageVerifier verifies the signed code printed on a receipt image.
// *service.Gate is the production implementation.
type ImageVerifier interface {
	VerifyImage(ctx context.Context, data []byte) (*service.GateResult, error)
	HasSecrets() bool
}

// DecodeTimer records how long one image took to verify.
type DecodeTimer interface {
	ObserveDecode(d time.Duration)
}

// Config wires a Handler.
type Config struct {
	Gate           ImageVerifier
	Enforcement    config.Enforcement
	MaxUploadBytes int64

	// Metrics serves GET /metrics. Nil leaves the route unregistered.
	Metrics http.Handler
	Timer   DecodeTimer
	Logger  logger.Logger
}

// Handler is the main HTTP handler that routes requests to appropriate handlers.
type Handler struct {
	gate        ImageVerifier
	enforcement config.Enforcement
	maxUpload   int64
	metrics     http.Handler
	timer       DecodeTimer
	logger      logger.Logger
	mux         *http.ServeMux
}

// New creates a new Handler.
func New(cfg Config) *Handler {
	h := &Handler{
		gate:        cfg.Gate,
		enforcement: cfg.Enforcement,
		maxUpload:   cfg.MaxUploadBytes,
		metrics:     cfg.Metrics,
		timer:       cfg.Timer,
		logger:      cfg.Logger,
		mux:         http.NewServeMux(),
	}
	if h.enforcement == "" {
		h.enforcement = config.EnforcementOn
	}
	if h.maxUpload <= 0 {
		h.maxUpload = DefaultMaxUploadBytes
	}
	if h.logger == nil {
		h.logger = logger.Default()
	}

	h.registerRoutes()
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// registerRoutes registers all HTTP routes.
func (h *Handler) registerRoutes() {
	h.mux.HandleFunc("GET /health", h.handleHealth)
	h.mux.HandleFunc("GET /ready", h.handleReady)
	if h.metrics != nil {
		h.mux.Handle("GET /metrics", h.metrics)
	}

	h.mux.HandleFunc("POST /api/pos/qr/verify", h.handleVerify)
	h.mux.HandleFunc("POST /api/pos/qr/gate", h.handleGate)
}

// writeJSON writes a JSON response with standard envelope format.
func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	requestID := getRequestID(r)
	response := NewResponse(requestID, data)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Request-ID", requestID)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

// writeError writes an error response with standard envelope format.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, status int, code, message string, details any) {
	requestID := getRequestID(r)
	response := NewErrorResponse(requestID, code, message, details)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Error-Code", code)
	w.Header().Set("X-Request-ID", requestID)
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(response)
}

// getRequestID extracts the request ID from context or header.
func getRequestID(r *http.Request) string {
	if id := logger.RequestIDFromContext(r.Context()); id != "" {
		return id
	}
	return r.Header.Get("X-Request-ID")
}

// handleServiceError converts service errors to HTTP responses.
func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var de *domain.DomainError
	if errors.As(err, &de) {
		status := StatusFor(err)
		if status >= http.StatusInternalServerError {
			logger.L(r.Context()).Error("request failed", "code", de.Code, "error", err)
		}
		h.writeError(w, r, status, de.Code, errorMessage(de), nil)
		return
	}

	// Generic internal error
	logger.L(r.Context()).Error("internal error", "error", err)
	h.writeError(w, r, http.StatusInternalServerError, domain.ErrInternal.Code, domain.ErrInternal.Message, nil)
}

func errorMessage(de *domain.DomainError) string {
	if de.Details != "" {
		return de.Message + ": " + de.Details
	}
	return de.Message
}

// StatusFor maps an error returned while verifying an upload to an HTTP
// status code.
func StatusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, domain.ErrUnsupportedMedia):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, domain.ErrImageTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, domain.ErrInvalidImage),
		errors.Is(err, domain.ErrNoCode),
		errors.Is(err, domain.ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNonceReplay):
		return http.StatusConflict
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, domain.ErrDecoderUnavailable):
		return http.StatusServiceUnavailable
	}

	// Remaining token rejections are client errors.
	var de *domain.DomainError
	if errors.As(err, &de) && isReasonCode(de.Code) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func isReasonCode(code string) bool {
	for _, reason := range domain.Reasons {
		if de := domain.ReasonError(reason); de != nil && de.Code == code {
			return true
		}
	}
	return false
}
