// Package main provides the entry point for tsqr-cli.
//
// The CLI tool works with TSQR1 tenant-signed QR tokens:
//
//   - mint: sign a payload into a token, optionally as a QR PNG
//   - verify: verify a token or receipt image offline
//   - decode: list the QR texts found in an image
//   - submit: upload a receipt image to a running tsqr-server
//
// Usage:
//
//	tsqr-cli mint --tenant demo --secret dev-secret --png receipt.png
//	tsqr-cli verify --secret demo=dev-secret TSQR1.eyJ...
//	tsqr-cli -o json submit --gate receipt.png
package main
