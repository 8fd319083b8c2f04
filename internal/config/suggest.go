package config

import (
	"fmt"
	"os"
	"strconv"
)

// SuggestConfig holds "did you mean" settings.
type SuggestConfig struct {
	MaxDistance int `yaml:"max_distance"`
	MaxResults  int `yaml:"max_results"`
}

// DefaultSuggestConfig returns default suggestion settings.
func DefaultSuggestConfig() SuggestConfig {
	return SuggestConfig{MaxDistance: 3, MaxResults: 3}
}

func (c *SuggestConfig) ApplyDefaults() {
	if c.MaxDistance == 0 {
		c.MaxDistance = 3
	}
	if c.MaxResults == 0 {
		c.MaxResults = 3
	}
}

func (c *SuggestConfig) ApplyEnvOverrides() {
	if v := os.Getenv(EnvPrefix + "SUGGEST_MAX_DISTANCE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxDistance = n
		}
	}
	if v := os.Getenv(EnvPrefix + "SUGGEST_MAX_RESULTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxResults = n
		}
	}
}

func (c *SuggestConfig) ResolvePaths(string) {}

func (c *SuggestConfig) Validate() error {
	if c.MaxDistance < 1 {
		return fmt.Errorf("suggest.max_distance must be positive")
	}
	if c.MaxResults < 1 {
		return fmt.Errorf("suggest.max_results must be positive")
	}
	return nil
}
