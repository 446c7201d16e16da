// Package config loads the ambient engine configuration — RNG seed,
// default network delay, and log level — from TOML or YAML, the two
// serialization formats the teacher corpus reaches for (BurntSushi/toml,
// gopkg.in/yaml.v3) rather than a hand-rolled flag/env parser.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// EngineConfig holds the handful of ambient knobs a simcore-based
// simulation binary typically wants to externalize: none of these
// participate in the engine's own determinism contract (the seed is the
// only one that does, and it is passed to NewSimulation explicitly by the
// caller after loading).
type EngineConfig struct {
	Seed            int64   `toml:"seed" yaml:"seed"`
	DefaultNetDelay float64 `toml:"default_net_delay" yaml:"default_net_delay"`
	LogLevel        string  `toml:"log_level" yaml:"log_level"`
}

// Default returns the configuration used when no file is present: seed 0,
// a 100ms default network delay, and info-level logging.
func Default() EngineConfig {
	return EngineConfig{Seed: 0, DefaultNetDelay: 0.1, LogLevel: "info"}
}

// Load reads path as TOML or YAML, selected by its extension
// (.toml / .yml / .yaml), into a copy of Default().
func Load(path string) (EngineConfig, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(b), &cfg); err != nil {
			return cfg, fmt.Errorf("config: decode toml %s: %w", path, err)
		}
	case ".yml", ".yaml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("config: decode yaml %s: %w", path, err)
		}
	default:
		return cfg, fmt.Errorf("config: unrecognized extension for %s", path)
	}
	return cfg, nil
}
