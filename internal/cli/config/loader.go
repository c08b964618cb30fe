package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultConfigPath returns the default CLI config file path.
func DefaultConfigPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".tsqr", "cli.yaml")
}

// Load loads CLI configuration from file. A missing file yields the
// defaults; fields absent from the file keep their default values.
func Load(path string) (*CLIConfig, error) {
	if path == "" {
		path = DefaultConfigPath()
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cli config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse cli config %s: %w", path, err)
	}
	if cfg.TenantSecrets == nil {
		cfg.TenantSecrets = make(map[string]string)
	}

	switch cfg.Output {
	case "", "table", "json", "yaml":
	default:
		return nil, fmt.Errorf("cli config %s: unknown output format %q", path, cfg.Output)
	}
	return cfg, nil
}
