package config

import (
	"maps"
	"strings"
)

// Sanitize returns a copy of the config with tenant secrets masked, for
// logging the effective configuration.
func Sanitize(cfg *ServerConfig) *ServerConfig {
	out := *cfg
	out.Decode.Scales = append([]float64(nil), cfg.Decode.Scales...)

	if cfg.POS.TenantSecrets != nil {
		out.POS.TenantSecrets = maps.Clone(cfg.POS.TenantSecrets)
		for tenant, secret := range out.POS.TenantSecrets {
			out.POS.TenantSecrets[tenant] = maskSecret(secret)
		}
	}
	if cfg.POS.TenantSecretsJSON != "" {
		out.POS.TenantSecretsJSON = maskSecret(cfg.POS.TenantSecretsJSON)
	}
	return &out
}

// maskSecret keeps the first and last two characters of long values.
func maskSecret(s string) string {
	if len(s) <= 8 {
		return "****"
	}
	return s[:2] + strings.Repeat("*", len(s)-4) + s[len(s)-2:]
}
