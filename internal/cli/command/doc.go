// Package command provides CLI command definitions for tsqr-cli.
//
// This package defines all CLI commands using urfave/cli/v2:
//
//   - root.go: Root command, global flags, CLI config loading
//   - mint.go: Sign a payload into a token, optionally as a QR PNG
//   - verify.go: Offline verification of a token or receipt image
//   - decode.go: Run the image decode pipeline and list candidates
//   - submit.go: Upload a receipt image to a running tsqr-server
//
// Commands follow a consistent pattern of parsing flags,
// calling the appropriate service, and formatting output.
package command
