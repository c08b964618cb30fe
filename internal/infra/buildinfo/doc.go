// Package buildinfo exposes version information injected at build time:
//
//	go build -ldflags "-X github.com/yndnr/tsqr-go/internal/infra/buildinfo.Version=v1.0.0"
//
// Commit and Go version fall back to the module build info recorded by the
// toolchain when not set by ldflags.
package buildinfo
