package httpserver

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/time/rate"

	"github.com/yndnr/tsqr-go/internal/core/domain"
	"github.com/yndnr/tsqr-go/internal/telemetry/logger"
	"github.com/yndnr/tsqr-go/pkg/cmap"
)

// Middleware wraps an http.Handler with additional functionality.
type Middleware func(http.Handler) http.Handler

// Chain chains multiple middlewares together. The first middleware is the
// outermost.
func Chain(h http.Handler, middlewares ...Middleware) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

// RequestID adds a unique request ID to each request. An incoming
// X-Request-ID header is kept; otherwise a ULID is generated.
func RequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := strings.TrimSpace(r.Header.Get("X-Request-ID"))
			if requestID == "" || len(requestID) > 128 {
				requestID = "req-" + ulid.Make().String()
			}

			w.Header().Set("X-Request-ID", requestID)
			ctx := logger.WithRequestID(r.Context(), requestID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// clientLimiter is the token bucket of one client.
type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64 // unix nanos
}

// RateLimiter keeps one token bucket per client key.
//
// Buckets idle for longer than the idle timeout are swept lazily from the
// request path, at most once per idle timeout.
type RateLimiter struct {
	limit   rate.Limit
	burst   int
	idle    time.Duration
	now     func() time.Time
	clients *cmap.Map[*clientLimiter]

	lastSweep atomic.Int64
}

// RateLimiterOption configures a RateLimiter.
type RateLimiterOption func(*RateLimiter)

// WithIdleTimeout sets how long an unused bucket is kept.
func WithIdleTimeout(d time.Duration) RateLimiterOption {
	return func(l *RateLimiter) { l.idle = d }
}

// WithRateClock overrides the clock, for tests.
func WithRateClock(now func() time.Time) RateLimiterOption {
	return func(l *RateLimiter) { l.now = now }
}

// NewRateLimiter allows rps sustained requests per second per client with
// the given burst. A burst below 1 defaults to ceil(rps).
func NewRateLimiter(rps float64, burst int, opts ...RateLimiterOption) *RateLimiter {
	if burst < 1 {
		burst = max(1, int(rps+0.999))
	}
	l := &RateLimiter{
		limit:   rate.Limit(rps),
		burst:   burst,
		idle:    10 * time.Minute,
		now:     time.Now,
		clients: cmap.New[*clientLimiter](),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.lastSweep.Store(l.now().UnixNano())
	return l
}

// Allow reports whether one more request from key is allowed now.
func (l *RateLimiter) Allow(key string) bool {
	now := l.now()
	c := l.clients.GetOrCompute(key, func() *clientLimiter {
		return &clientLimiter{limiter: rate.NewLimiter(l.limit, l.burst)}
	})
	c.lastSeen.Store(now.UnixNano())

	l.maybeSweep(now)
	return c.limiter.AllowN(now, 1)
}

// Sweep drops buckets idle since before now minus the idle timeout and
// returns how many were dropped.
func (l *RateLimiter) Sweep() int {
	now := l.now()
	l.lastSweep.Store(now.UnixNano())
	return l.sweep(now)
}

// Clients returns the number of tracked clients.
func (l *RateLimiter) Clients() int {
	return l.clients.Count()
}

func (l *RateLimiter) maybeSweep(now time.Time) {
	last := l.lastSweep.Load()
	if now.UnixNano()-last < int64(l.idle) {
		return
	}
	if l.lastSweep.CompareAndSwap(last, now.UnixNano()) {
		l.sweep(now)
	}
}

func (l *RateLimiter) sweep(now time.Time) int {
	cutoff := now.Add(-l.idle).UnixNano()
	return l.clients.DeleteFunc(func(_ string, c *clientLimiter) bool {
		return c.lastSeen.Load() < cutoff
	})
}

// RateLimit applies per-client-IP rate limiting.
func RateLimit(l *RateLimiter) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.Allow(getClientIP(r)) {
				w.Header().Set("Retry-After", "1")
				writeMiddlewareError(w, r, http.StatusTooManyRequests, domain.ErrRateLimited)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequestRecorder receives one observation per served request.
type RequestRecorder interface {
	ObserveRequest(method, route string, code int, d time.Duration)
}

// Metrics records the status and latency of requests to route.
func Metrics(rec RequestRecorder, route string) Middleware {
	return func(next http.Handler) http.Handler {
		if rec == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(wrapped, r)
			rec.ObserveRequest(r.Method, route, wrapped.statusCode, time.Since(start))
		})
	}
}

// Audit logs one line per request.
func Audit() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			attrs := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", wrapped.statusCode,
				"duration_ms", time.Since(start).Milliseconds(),
				"client_ip", getClientIP(r),
				"bytes_in", r.ContentLength,
			}
			if v := r.Header.Get("X-POS-Require-QR"); v != "" {
				attrs = append(attrs, "require_qr", v)
			}

			log := logger.L(r.Context())
			switch {
			case wrapped.statusCode >= 500:
				log.Error("request completed with error", attrs...)
			case wrapped.statusCode >= 400:
				log.Warn("request completed with client error", attrs...)
			default:
				log.Info("request completed", attrs...)
			}
		})
	}
}

// Recover recovers from panics and returns 500 error.
func Recover() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					if err == http.ErrAbortHandler {
						panic(err)
					}
					logger.L(r.Context()).Error("panic recovered",
						"error", err,
						"path", r.URL.Path,
					)
					writeMiddlewareError(w, r, http.StatusInternalServerError, domain.ErrInternal)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// CORS adds Cross-Origin Resource Sharing headers. An empty allow list
// allows every origin.
func CORS(allowedOrigins []string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			allowed := len(allowedOrigins) == 0
			for _, o := range allowedOrigins {
				if o == "*" || o == origin {
					allowed = true
					break
				}
			}

			if allowed && origin != "" {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID, X-POS-Require-QR")
				w.Header().Set("Access-Control-Max-Age", "86400")
				w.Header().Add("Vary", "Origin")
			}

			// Handle preflight
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// responseWriter wraps http.ResponseWriter to capture status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (w *responseWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.statusCode = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *responseWriter) Write(b []byte) (int, error) {
	w.wroteHeader = true
	return w.ResponseWriter.Write(b)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *responseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// writeMiddlewareError writes an error response for a request rejected
// before it reached a handler.
func writeMiddlewareError(w http.ResponseWriter, r *http.Request, status int, de *domain.DomainError) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Error-Code", de.Code)
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"code":       de.Code,
		"message":    de.Message,
		"request_id": logger.RequestIDFromContext(r.Context()),
		"timestamp":  time.Now().UnixMilli(),
	})
}

// getClientIP extracts the client IP from the request.
func getClientIP(r *http.Request) string {
	// Check X-Forwarded-For header
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}

	// Check X-Real-IP header
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	// Use net.SplitHostPort to correctly handle IPv6 addresses like [::1]:8080
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
