package config

import (
	"time"

	"github.com/yndnr/tsqr-go/internal/qrdecode"
)

// Default configuration values.
const (
	DefaultHTTPAddr        = "127.0.0.1:8080"
	DefaultRateLimit       = 20.0
	DefaultRateBurst       = 40
	DefaultMaxUploadBytes  = 3_000_000
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 60 * time.Second
	DefaultShutdownTimeout = 15 * time.Second

	DefaultMaxAge        = 900 * time.Second
	DefaultMaxFutureSkew = 60 * time.Second
	DefaultEnforcement   = EnforcementOn

	// DefaultNonceTTL outlives the longest span a token can stay fresh.
	DefaultNonceTTL = DefaultMaxAge + DefaultMaxFutureSkew + time.Second

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// Default returns the default server configuration.
func Default() *ServerConfig {
	d := qrdecode.DefaultOptions()
	return &ServerConfig{
		Server: ServerSection{
			HTTP: HTTPConfig{
				Addr:            DefaultHTTPAddr,
				RateLimit:       DefaultRateLimit,
				RateBurst:       DefaultRateBurst,
				MaxUploadBytes:  DefaultMaxUploadBytes,
				ReadTimeout:     DefaultReadTimeout,
				WriteTimeout:    DefaultWriteTimeout,
				ShutdownTimeout: DefaultShutdownTimeout,
			},
		},
		POS: POSSection{
			MaxAge:        DefaultMaxAge,
			MaxFutureSkew: DefaultMaxFutureSkew,
			NonceTTL:      DefaultNonceTTL,
			Enforcement:   DefaultEnforcement,
		},
		Decode: DecodeSection{
			Scales:           d.Scales,
			MaxVariantPixels: d.MaxVariantPixels,
			MaxSourcePixels:  d.MaxSourcePixels,
			ThresholdBlock:   d.ThresholdBlock,
			ThresholdC:       d.ThresholdC,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

// defaultValues flattens Default into dotted keys for the loader. Every
// scalar key must appear here so that environment names resolve to it.
func defaultValues() map[string]any {
	c := Default()
	return map[string]any{
		"server.http.addr":             c.Server.HTTP.Addr,
		"server.http.tls_cert_file":    c.Server.HTTP.TLSCertFile,
		"server.http.tls_key_file":     c.Server.HTTP.TLSKeyFile,
		"server.http.rate_limit":       c.Server.HTTP.RateLimit,
		"server.http.rate_burst":       c.Server.HTTP.RateBurst,
		"server.http.max_upload_bytes": c.Server.HTTP.MaxUploadBytes,
		"server.http.read_timeout":     c.Server.HTTP.ReadTimeout.String(),
		"server.http.write_timeout":    c.Server.HTTP.WriteTimeout.String(),
		"server.http.shutdown_timeout": c.Server.HTTP.ShutdownTimeout.String(),

		"pos.tenant_secrets_json": c.POS.TenantSecretsJSON,
		"pos.max_age":             c.POS.MaxAge.String(),
		"pos.max_future_skew":     c.POS.MaxFutureSkew.String(),
		"pos.nonce_ttl":           c.POS.NonceTTL.String(),
		"pos.nonce_max_entries":   c.POS.NonceMaxEntries,
		"pos.enforcement":         string(c.POS.Enforcement),

		"decode.scales":             c.Decode.Scales,
		"decode.max_variant_pixels": c.Decode.MaxVariantPixels,
		"decode.max_source_pixels":  c.Decode.MaxSourcePixels,
		"decode.threshold_block":    c.Decode.ThresholdBlock,
		"decode.threshold_c":        c.Decode.ThresholdC,

		"log.level":  c.Log.Level,
		"log.format": c.Log.Format,
	}
}
