package config

import (
	"fmt"
	"os"
	"strconv"
)

// NotifyConfig holds change notification settings.
type NotifyConfig struct {
	Enabled       bool   `yaml:"enabled"`
	NatsURL       string `yaml:"nats_url"`
	SubjectPrefix string `yaml:"subject_prefix"`
	StreamName    string `yaml:"stream_name"`
	RetryAttempts int    `yaml:"retry_attempts"`
}

// DefaultNotifyConfig returns default notification settings.
func DefaultNotifyConfig() NotifyConfig {
	return NotifyConfig{
		NatsURL:       "nats://localhost:4222",
		SubjectPrefix: "filterstate",
	}
}

func (c *NotifyConfig) ApplyDefaults() {
	if c.NatsURL == "" {
		c.NatsURL = "nats://localhost:4222"
	}
	if c.SubjectPrefix == "" {
		c.SubjectPrefix = "filterstate"
	}
}

func (c *NotifyConfig) ApplyEnvOverrides() {
	if v := os.Getenv(EnvPrefix + "NOTIFY_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Enabled = b
		}
	}
	if v := os.Getenv(EnvPrefix + "NATS_URL"); v != "" {
		c.NatsURL = v
	}
	if v := os.Getenv(EnvPrefix + "NOTIFY_SUBJECT_PREFIX"); v != "" {
		c.SubjectPrefix = v
	}
}

func (c *NotifyConfig) ResolvePaths(string) {}

func (c *NotifyConfig) Validate() error {
	if c.RetryAttempts < 0 {
		return fmt.Errorf("notify.retry_attempts cannot be negative")
	}
	if c.Enabled && c.NatsURL == "" {
		return fmt.Errorf("notify.nats_url is required when notifications are enabled")
	}
	return nil
}
