package httpserver

import (
	"net/http"

	"github.com/yndnr/tsqr-go/internal/server/httpserver/handler"
)

// RouterConfig holds configuration for the HTTP router.
type RouterConfig struct {
	// Handler wires the endpoint handlers.
	Handler handler.Config

	// RateLimiter limits API requests per client IP. Nil disables limiting.
	RateLimiter *RateLimiter

	// Recorder observes every routed request. Nil disables request metrics.
	Recorder RequestRecorder

	// CORSAllowedOrigins is the list of allowed CORS origins (empty = allow all).
	CORSAllowedOrigins []string

	// EnableAudit enables audit logging for API requests.
	EnableAudit bool
}

// API routes.
const (
	RouteVerify = "/api/pos/qr/verify"
	RouteGate   = "/api/pos/qr/gate"
)

// NewRouter creates and configures the HTTP router with all routes and middleware.
func NewRouter(cfg *RouterConfig) http.Handler {
	h := handler.New(cfg.Handler)
	mux := http.NewServeMux()

	// Probe endpoints: no rate limiting, no audit.
	for _, route := range []string{"/health", "/ready"} {
		mux.Handle("GET "+route, Chain(h,
			Recover(),
			RequestID(),
			Metrics(cfg.Recorder, route),
		))
	}
	if cfg.Handler.Metrics != nil {
		mux.Handle("GET /metrics", Chain(h, Recover(), RequestID()))
	}

	// Business API endpoints.
	// Order: Recover -> RequestID -> CORS -> Metrics -> RateLimit -> Audit -> Handler
	api := func(route string) http.Handler {
		mws := []Middleware{
			Recover(),
			RequestID(),
			CORS(cfg.CORSAllowedOrigins),
			Metrics(cfg.Recorder, route),
		}
		if cfg.RateLimiter != nil {
			mws = append(mws, RateLimit(cfg.RateLimiter))
		}
		if cfg.EnableAudit {
			mws = append(mws, Audit())
		}
		return Chain(h, mws...)
	}

	for _, route := range []string{RouteVerify, RouteGate} {
		chain := api(route)
		mux.Handle("POST "+route, chain)
		mux.Handle("OPTIONS "+route, chain)
	}

	return mux
}

// DefaultRouterConfig returns default router configuration.
func DefaultRouterConfig() *RouterConfig {
	return &RouterConfig{
		RateLimiter: NewRateLimiter(20, 40),
		EnableAudit: true,
	}
}
