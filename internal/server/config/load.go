package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/yndnr/tsqr-go/internal/infra/confloader"
)

// RequireQREnv forces pos.enforcement to on when set to a true value. It is
// read without the TSQR_ prefix so existing kiosk deployments keep working.
const RequireQREnv = "POS_REQUIRE_QR"

// Load reads defaults, then the YAML file at path (optional), then TSQR_*
// environment variables, and verifies the result.
func Load(path string) (*ServerConfig, error) {
	loader := confloader.NewLoader(
		confloader.WithConfigFile(path),
		confloader.WithDefaults(defaultValues()),
	)

	cfg := &ServerConfig{}
	if err := loader.Load(cfg); err != nil {
		return nil, err
	}
	applyRequireQR(&cfg.POS, os.Getenv(RequireQREnv))
	if err := Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// applyRequireQR overrides enforcement when v is a true value. Anything else,
// including an explicit false, leaves the configured mode alone.
func applyRequireQR(p *POSSection, v string) {
	if strings.TrimSpace(v) == "" {
		return
	}
	if mode, err := ParseEnforcement(v); err == nil && mode == EnforcementOn {
		p.Enforcement = EnforcementOn
	}
}
