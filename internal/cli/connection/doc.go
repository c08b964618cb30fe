// Package connection provides the tsqr-server HTTP client used by tsqr-cli.
//
// The client uploads receipt images to the verification endpoints and
// unwraps the server's response envelope.
package connection
