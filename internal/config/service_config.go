package config

import (
	"path/filepath"
	"strings"
)

// SectionConfig defines the standard configuration lifecycle methods.
// Each config section implements it so files, environment and paths are
// handled the same way everywhere.
type SectionConfig interface {
	// ApplyDefaults fills zero values with sensible defaults
	ApplyDefaults()

	// ApplyEnvOverrides applies FILTERCTL_* environment variable overrides
	ApplyEnvOverrides()

	// ResolvePaths resolves relative paths against the config directory.
	ResolvePaths(configDir string)

	// Validate returns an error if the configuration is invalid.
	Validate() error
}

// ApplySectionConfigs applies the configuration lifecycle to all sections.
// It calls ApplyDefaults, ApplyEnvOverrides, ResolvePaths, and Validate in order.
func ApplySectionConfigs(configDir string, configs ...SectionConfig) error {
	for _, cfg := range configs {
		cfg.ApplyDefaults()
		cfg.ApplyEnvOverrides()
		cfg.ResolvePaths(configDir)
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// resolveDataPath resolves p next to configDir, or relative to it when p
// starts with "..".
func resolveDataPath(configDir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	if strings.HasPrefix(p, "..") {
		return filepath.Clean(filepath.Join(configDir, p))
	}
	return filepath.Clean(filepath.Join(filepath.Dir(configDir), p))
}
