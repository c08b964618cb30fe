package config

import (
	"errors"
	"fmt"
	"net"
	"os"

	"github.com/yndnr/tsqr-go/internal/telemetry/logger"
)

// Verify validates the configuration and returns every problem found. It
// also rewrites enforcement aliases to their canonical mode.
func Verify(cfg *ServerConfig) error {
	return errors.Join(
		verifyHTTP(&cfg.Server.HTTP),
		verifyPOS(&cfg.POS),
		verifyDecode(&cfg.Decode),
		verifyLog(&cfg.Log),
	)
}

func verifyHTTP(c *HTTPConfig) error {
	var errs []error
	if _, _, err := net.SplitHostPort(c.Addr); err != nil {
		errs = append(errs, fmt.Errorf("server.http.addr: %w", err))
	}
	if (c.TLSCertFile == "") != (c.TLSKeyFile == "") {
		errs = append(errs, errors.New("server.http.tls_cert_file and tls_key_file must be set together"))
	}
	for _, f := range []string{c.TLSCertFile, c.TLSKeyFile} {
		if f == "" {
			continue
		}
		if _, err := os.Stat(f); err != nil {
			errs = append(errs, fmt.Errorf("server.http tls file: %w", err))
		}
	}
	if c.RateLimit < 0 {
		errs = append(errs, errors.New("server.http.rate_limit must not be negative"))
	}
	if c.RateLimit > 0 && c.RateBurst < 1 {
		errs = append(errs, errors.New("server.http.rate_burst must be at least 1"))
	}
	if c.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("server.http.max_upload_bytes must be positive"))
	}
	return errors.Join(errs...)
}

func verifyPOS(c *POSSection) error {
	var errs []error
	if c.MaxAge <= 0 {
		errs = append(errs, errors.New("pos.max_age must be positive"))
	}
	if c.MaxFutureSkew < 0 {
		errs = append(errs, errors.New("pos.max_future_skew must not be negative"))
	}
	if c.NonceTTL <= 0 {
		errs = append(errs, errors.New("pos.nonce_ttl must be positive"))
	} else if c.MaxAge > 0 && c.MaxFutureSkew >= 0 && c.NonceTTL <= c.MaxAge+c.MaxFutureSkew {
		// A token stamped max_future_skew ahead stays fresh for
		// max_age+max_future_skew, inclusive of the last second.
		errs = append(errs, fmt.Errorf("pos.nonce_ttl %v must exceed max_age + max_future_skew (%v)",
			c.NonceTTL, c.MaxAge+c.MaxFutureSkew))
	}
	if c.NonceMaxEntries < 0 {
		errs = append(errs, errors.New("pos.nonce_max_entries must not be negative"))
	}
	// Normalized in place; consumers switch on the canonical names.
	if mode, err := ParseEnforcement(string(c.Enforcement)); err != nil {
		errs = append(errs, fmt.Errorf("pos.enforcement: %w", err))
	} else {
		c.Enforcement = mode
	}
	if _, err := c.Secrets(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func verifyDecode(c *DecodeSection) error {
	var errs []error
	for _, s := range c.Scales {
		if s <= 1 {
			errs = append(errs, fmt.Errorf("decode.scales: %v is not an upscale", s))
		}
	}
	if c.ThresholdBlock < 3 || c.ThresholdBlock%2 == 0 {
		errs = append(errs, errors.New("decode.threshold_block must be odd and at least 3"))
	}
	if c.MaxVariantPixels < 0 || c.MaxSourcePixels < 0 {
		errs = append(errs, errors.New("decode pixel bounds must not be negative"))
	}
	return errors.Join(errs...)
}

func verifyLog(c *LogSection) error {
	if _, err := logger.ParseLevel(c.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	switch c.Format {
	case "json", "text", "console":
		return nil
	default:
		return fmt.Errorf("log.format: unknown format %q", c.Format)
	}
}
