// Package logger provides structured logging for the tsqr services.
//
// It wraps log/slog:
//
//   - logger.go: Logger interface, handler construction, dynamic level
//   - context.go: request-scoped loggers and request ID propagation
//   - redact.go: masking of tokens and secrets before they reach output
//
// Tokens (values starting with "TSQR1.") are partially masked wherever they
// appear. Attributes whose key looks like a credential are replaced entirely,
// whatever their type, so a tenant secret map can never be printed.
package logger
