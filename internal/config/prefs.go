package config

import (
	"fmt"
	"os"
)

// Preference store backends.
const (
	PrefsBackendMemory = "memory"
	PrefsBackendPebble = "pebble"
)

// PrefsConfig selects where UI preferences are kept.
type PrefsConfig struct {
	Backend string `yaml:"backend"`

	// Path is the PebbleDB directory.
	Path string `yaml:"path"`
}

// DefaultPrefsConfig returns default preference store settings.
func DefaultPrefsConfig() PrefsConfig {
	return PrefsConfig{Backend: PrefsBackendMemory, Path: "data/prefs"}
}

func (c *PrefsConfig) ApplyDefaults() {
	if c.Backend == "" {
		c.Backend = PrefsBackendMemory
	}
	if c.Path == "" {
		c.Path = "data/prefs"
	}
}

func (c *PrefsConfig) ApplyEnvOverrides() {
	if v := os.Getenv(EnvPrefix + "PREFS_BACKEND"); v != "" {
		c.Backend = v
	}
	if v := os.Getenv(EnvPrefix + "PREFS_PATH"); v != "" {
		c.Path = v
	}
}

func (c *PrefsConfig) ResolvePaths(configDir string) {
	c.Path = resolveDataPath(configDir, c.Path)
}

func (c *PrefsConfig) Validate() error {
	switch c.Backend {
	case PrefsBackendMemory:
	case PrefsBackendPebble:
		if c.Path == "" {
			return fmt.Errorf("prefs.path is required for the pebble backend")
		}
	default:
		return fmt.Errorf("invalid prefs backend: %s (must be memory or pebble)", c.Backend)
	}
	return nil
}
