// Package config loads the optional TOML configuration file the CLI accepts
// via -config: default memory size, trace-on-by-default, and whether the
// floating-point word set is enabled.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Config is the root of the TOML document.
type Config struct {
	Memory struct {
		// Size overrides the data-space ceiling (MEM_SIZE), in bytes. Zero
		// means "use the VM's built-in default."
		Size uint32 `toml:"size"`
	} `toml:"memory"`

	Trace struct {
		// Enabled turns on word-dispatch trace logging by default, as if
		// -trace had been passed.
		Enabled bool `toml:"enabled"`
	} `toml:"trace"`

	Float struct {
		// Enabled controls whether the floating-point word set is
		// installed by default.
		Enabled bool `toml:"enabled"`
	} `toml:"float"`
}

// Default returns the configuration the VM uses when no -config file is
// given: no memory override, tracing off, floats on.
func Default() *Config {
	cfg := &Config{}
	cfg.Float.Enabled = true
	return cfg
}

// LoadFrom reads and decodes the TOML file at path, starting from
// Default() so an unspecified field keeps its default rather than
// zeroing out.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}
