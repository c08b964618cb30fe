// Package main provides the entry point for tsqr-server.
//
// The server verifies tenant-signed QR codes printed on POS receipts:
//
//   - POST /api/pos/qr/verify decodes an uploaded receipt image and
//     verifies the TSQR1 token it carries
//   - POST /api/pos/qr/gate applies the configured enforcement mode
//   - GET /health, /ready and /metrics for probes and Prometheus
//
// Usage:
//
//	tsqr-server [flags]
//	tsqr-server --config /path/to/config.yaml
//
// Configuration is read from defaults, the optional YAML file and TSQR_*
// environment variables. Changes to log.level in the file apply without a
// restart.
package main
