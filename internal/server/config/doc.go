// Package config defines the tsqr-server configuration.
//
//   - spec.go: ServerConfig struct definition
//   - default.go: default values, also fed to the loader as the lowest layer
//   - verify.go: validation of windows, decode parameters and secrets
//   - sanitize.go: copy with tenant secrets masked, for logging
//   - load.go: file + environment loading through internal/infra/confloader
package config
