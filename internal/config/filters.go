package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// FiltersConfig holds filter interaction settings.
type FiltersConfig struct {
	// SearchMinLength is the shortest non-empty free-text search applied.
	SearchMinLength int `yaml:"search_min_length"`

	// SearchDebounce delays writing free-text search changes.
	SearchDebounce time.Duration `yaml:"search_debounce"`

	// AdvancedDebounce delays writing advanced filter edits.
	AdvancedDebounce time.Duration `yaml:"advanced_debounce"`
}

// DefaultFiltersConfig returns default filter settings.
func DefaultFiltersConfig() FiltersConfig {
	return FiltersConfig{
		SearchMinLength:  3,
		SearchDebounce:   300 * time.Millisecond,
		AdvancedDebounce: 300 * time.Millisecond,
	}
}

func (c *FiltersConfig) ApplyDefaults() {
	defaults := DefaultFiltersConfig()
	if c.SearchMinLength == 0 {
		c.SearchMinLength = defaults.SearchMinLength
	}
	if c.SearchDebounce == 0 {
		c.SearchDebounce = defaults.SearchDebounce
	}
	if c.AdvancedDebounce == 0 {
		c.AdvancedDebounce = defaults.AdvancedDebounce
	}
}

func (c *FiltersConfig) ApplyEnvOverrides() {
	if v := os.Getenv(EnvPrefix + "SEARCH_MIN_LENGTH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.SearchMinLength = n
		}
	}
	if v := os.Getenv(EnvPrefix + "SEARCH_DEBOUNCE"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.SearchDebounce = d
		}
	}
	if v := os.Getenv(EnvPrefix + "ADVANCED_DEBOUNCE"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.AdvancedDebounce = d
		}
	}
}

func (c *FiltersConfig) ResolvePaths(string) {}

func (c *FiltersConfig) Validate() error {
	if c.SearchMinLength < 1 {
		return fmt.Errorf("filters.search_min_length must be positive")
	}
	if c.SearchDebounce < 0 || c.AdvancedDebounce < 0 {
		return fmt.Errorf("filters debounce delays cannot be negative")
	}
	return nil
}
