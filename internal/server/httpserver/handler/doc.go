// Package handler provides HTTP request handlers for tsqr-server.
//
// This package contains handlers for all HTTP endpoints:
//
//   - qr.go: receipt verification and QR enforcement gate
//   - health.go: health and readiness checks
//
// All handlers follow a consistent pattern:
//
//   - Parse and validate request
//   - Call domain service
//   - Format and return response
//   - Handle errors with appropriate HTTP status codes
package handler
