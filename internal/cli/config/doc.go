// Package config provides CLI configuration for tsqr-cli.
//
// This package defines CLI-specific configuration:
//
//   - spec.go: CLIConfig struct (~/.tsqr/cli.yaml)
//   - loader.go: Configuration loading
//
// Configuration includes:
//
//   - Default server address for submit
//   - Output format preference
//   - Tenant secrets for offline mint and verify
package config
