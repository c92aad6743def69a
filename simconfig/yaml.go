package simconfig

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Default returns a validated Config populated entirely with defaults,
// equivalent to the original's get_default_config.
func Default() *Config {
	cfg, err := New()
	if err != nil {
		// the zero-option default set is validated by TestDefaultConfigIsValid;
		// if it ever stops validating that is a programmer error, not a
		// runtime condition callers should need to handle.
		panic(fmt.Sprintf("simconfig: default configuration is invalid: %v", err))
	}
	return cfg
}

// Load reads a Config from a YAML file at path, overlaying it onto the
// defaults, and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("simconfig: reading %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes a Config from YAML bytes, overlaying it onto the
// defaults, and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("simconfig: parsing yaml: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg to path as YAML.
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("simconfig: marshalling yaml: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("simconfig: writing %s: %w", path, err)
	}
	return nil
}
