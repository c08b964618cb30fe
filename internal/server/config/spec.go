package config

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ServerConfig is the root configuration for tsqr-server.
type ServerConfig struct {
	Server ServerSection `koanf:"server"`
	POS    POSSection    `koanf:"pos"`
	Decode DecodeSection `koanf:"decode"`
	Log    LogSection    `koanf:"log"`
}

// ServerSection configures server endpoints.
type ServerSection struct {
	HTTP HTTPConfig `koanf:"http"`
}

// HTTPConfig configures the HTTP server.
type HTTPConfig struct {
	Addr        string `koanf:"addr"`
	TLSCertFile string `koanf:"tls_cert_file"`
	TLSKeyFile  string `koanf:"tls_key_file"`

	// RateLimit is the sustained requests per second allowed per client IP.
	// Zero disables rate limiting.
	RateLimit float64 `koanf:"rate_limit"`
	RateBurst int     `koanf:"rate_burst"`

	// MaxUploadBytes bounds the size of an uploaded receipt image.
	MaxUploadBytes int64 `koanf:"max_upload_bytes"`

	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// Enforcement controls whether the gate endpoint demands a signed QR code.
type Enforcement string

const (
	EnforcementOn   Enforcement = "on"
	EnforcementOff  Enforcement = "off"
	EnforcementAuto Enforcement = "auto" // on when tenant secrets are configured
)

// ParseEnforcement maps a mode name or one of its boolean spellings
// (1/true/yes/enabled, 0/false/no/disabled) to an Enforcement. Matching
// ignores case and surrounding space; an empty value is on.
func ParseEnforcement(s string) (Enforcement, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "on", "1", "true", "yes", "enabled":
		return EnforcementOn, nil
	case "off", "0", "false", "no", "disabled":
		return EnforcementOff, nil
	case "auto":
		return EnforcementAuto, nil
	default:
		return "", fmt.Errorf("unknown mode %q", s)
	}
}

// POSSection configures token verification.
type POSSection struct {
	// TenantSecrets maps tenant_id to its HMAC secret.
	TenantSecrets map[string]string `koanf:"tenant_secrets"`

	// TenantSecretsJSON is a JSON object of tenant_id to secret. Entries are
	// merged over TenantSecrets. Convenient for a single environment variable.
	TenantSecretsJSON string `koanf:"tenant_secrets_json"`

	MaxAge          time.Duration `koanf:"max_age"`
	MaxFutureSkew   time.Duration `koanf:"max_future_skew"`
	NonceTTL        time.Duration `koanf:"nonce_ttl"`
	NonceMaxEntries int           `koanf:"nonce_max_entries"`
	Enforcement     Enforcement   `koanf:"enforcement"`
}

// Secrets returns the merged tenant secret table. Entries with an empty
// tenant or secret, or a non-string secret, are dropped.
func (p POSSection) Secrets() (map[string]string, error) {
	out := make(map[string]string, len(p.TenantSecrets))
	for tenant, secret := range p.TenantSecrets {
		if tenant != "" && secret != "" {
			out[tenant] = secret
		}
	}

	raw := strings.TrimSpace(p.TenantSecretsJSON)
	if raw == "" {
		return out, nil
	}
	var parsed map[string]any
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("pos.tenant_secrets_json: %w", err)
	}
	for tenant, v := range parsed {
		if secret, ok := v.(string); ok && tenant != "" && secret != "" {
			out[tenant] = secret
		}
	}
	return out, nil
}

// DecodeSection configures the image decode pipeline.
type DecodeSection struct {
	Scales           []float64 `koanf:"scales"`
	MaxVariantPixels int       `koanf:"max_variant_pixels"`
	MaxSourcePixels  int       `koanf:"max_source_pixels"`
	ThresholdBlock   int       `koanf:"threshold_block"`
	ThresholdC       float64   `koanf:"threshold_c"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}
