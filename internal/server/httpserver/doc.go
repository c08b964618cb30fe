// Package httpserver provides the HTTP/HTTPS server for tsqr-server.
//
// This package implements the external API using stdlib net/http:
//
//   - Verification endpoints: /api/pos/qr/verify, /api/pos/qr/gate
//   - Health endpoints: /health, /ready, /metrics
//
// Features:
//
//   - Optional TLS
//   - Middleware chain: Recover, RequestID, CORS, Metrics, RateLimit, Audit
//   - Graceful shutdown with configurable timeout
//   - Prometheus metrics integration
package httpserver
