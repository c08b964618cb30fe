package config

import "strings"

// CLIConfig is the configuration for tsqr-cli.
type CLIConfig struct {
	// Server is the tsqr-server base URL used by submit.
	Server string `yaml:"server"`

	// Output is the default output format: table, json, yaml.
	Output string `yaml:"output"`

	// TenantSecrets maps tenant_id to its HMAC secret for offline mint and
	// verify. Command-line --secret flags take precedence.
	TenantSecrets map[string]string `yaml:"tenant_secrets"`
}

// Default returns the default CLI configuration.
func Default() *CLIConfig {
	return &CLIConfig{
		Server:        "http://127.0.0.1:8080",
		Output:        "table",
		TenantSecrets: make(map[string]string),
	}
}

// Secret returns the configured secret for tenant, or "".
func (c *CLIConfig) Secret(tenant string) string {
	if c == nil {
		return ""
	}
	return c.TenantSecrets[strings.TrimSpace(tenant)]
}
