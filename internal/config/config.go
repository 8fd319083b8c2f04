package config

import (
	"log"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "FILTERCTL_"

// Config holds the application configuration
type Config struct {
	Logging LoggingConfig `yaml:"logging"`
	Filters FiltersConfig `yaml:"filters"`
	Suggest SuggestConfig `yaml:"suggest"`
	Prefs   PrefsConfig   `yaml:"prefs"`
	Notify  NotifyConfig  `yaml:"notify"`
}

// Default returns the coded defaults of every section.
func Default() *Config {
	return &Config{
		Logging: DefaultLoggingConfig(),
		Filters: DefaultFiltersConfig(),
		Suggest: DefaultSuggestConfig(),
		Prefs:   DefaultPrefsConfig(),
		Notify:  DefaultNotifyConfig(),
	}
}

// LoadConfig loads configuration from the config directory and exits on
// invalid configuration.
func LoadConfig() *Config {
	cfg, err := Load("config")
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}
	return cfg
}

// Load reads configDir/config.yml then configDir/config.local.yml over the
// defaults and runs the section lifecycle.
// Order: defaults -> config.yml -> config.local.yml -> ApplyEnvOverrides -> ResolvePaths -> Validate
func Load(configDir string) (*Config, error) {
	cfg := Default()

	loadFile(filepath.Join(configDir, "config.yml"), cfg)
	loadFile(filepath.Join(configDir, "config.local.yml"), cfg)

	if err := ApplySectionConfigs(configDir,
		&cfg.Logging,
		&cfg.Filters,
		&cfg.Suggest,
		&cfg.Prefs,
		&cfg.Notify,
	); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(filename string, cfg *Config) {
	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return // File doesn't exist, skip
		}
		log.Printf("Warning: Error reading %s: %v", filename, err)
		return
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		log.Printf("Warning: Error parsing %s: %v", filename, err)
	}
}
