package config

import (
	"fmt"
	"os"
)

// LoggingConfig controls diagnostics for the interactive shell. Console
// records go to stderr so they never mix with command output on stdout.
type LoggingConfig struct {
	Level    string         `yaml:"level"`  // debug, info, warn, error
	Format   string         `yaml:"format"` // text, json
	Dir      string         `yaml:"dir"`
	Rotation RotationConfig `yaml:"rotation"`
	Console  ConsoleConfig  `yaml:"console"`
	File     FileConfig     `yaml:"file"`
}

// RotationConfig bounds the session log files.
type RotationConfig struct {
	MaxSize    int  `yaml:"max_size"` // MB
	MaxBackups int  `yaml:"max_backups"`
	MaxAge     int  `yaml:"max_age"` // days
	Compress   bool `yaml:"compress"`
}

type ConsoleConfig struct {
	Enabled bool   `yaml:"enabled"`
	Level   string `yaml:"level"`
	Format  string `yaml:"format"`
}

// FileConfig turns on the session transcript under Dir. Off unless asked for.
type FileConfig struct {
	Enabled bool   `yaml:"enabled"`
	Level   string `yaml:"level"`
	Format  string `yaml:"format"`
}

const (
	defaultLogLevel     = "info"
	defaultConsoleLevel = "warn"
	defaultLogFormat    = "text"
	defaultLogDir       = "logs"
)

// DefaultLoggingConfig keeps the prompt quiet: warnings on stderr, no files.
func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		Level:  defaultLogLevel,
		Format: defaultLogFormat,
		Dir:    defaultLogDir,
		Rotation: RotationConfig{
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     7,
		},
		Console: ConsoleConfig{
			Enabled: true,
			Level:   defaultConsoleLevel,
			Format:  defaultLogFormat,
		},
		File: FileConfig{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
	}
}

// ApplyDefaults fills in missing values. An untouched console section is
// enabled at warn level; the file section stays off unless enabled.
func (c *LoggingConfig) ApplyDefaults() {
	def := DefaultLoggingConfig()
	if c.Level == "" {
		c.Level = def.Level
	}
	if c.Format == "" {
		c.Format = def.Format
	}
	if c.Dir == "" {
		c.Dir = def.Dir
	}

	if c.Rotation.MaxSize == 0 {
		c.Rotation.MaxSize = def.Rotation.MaxSize
	}
	if c.Rotation.MaxBackups == 0 {
		c.Rotation.MaxBackups = def.Rotation.MaxBackups
	}
	if c.Rotation.MaxAge == 0 {
		c.Rotation.MaxAge = def.Rotation.MaxAge
	}

	if c.Console == (ConsoleConfig{}) {
		c.Console = def.Console
	}
	if c.Console.Level == "" {
		c.Console.Level = c.Level
	}
	if c.Console.Format == "" {
		c.Console.Format = c.Format
	}

	if c.File.Level == "" {
		c.File.Level = c.Level
	}
	if c.File.Format == "" {
		c.File.Format = c.Format
	}
}

// ApplyEnvOverrides reads FILTERCTL_LOG_*. Setting FILTERCTL_LOG_DIR also
// turns on the file transcript, which is handy for one-off debugging.
func (c *LoggingConfig) ApplyEnvOverrides() {
	if v := os.Getenv(EnvPrefix + "LOG_LEVEL"); v != "" {
		c.Level = v
		c.Console.Level = v
		c.File.Level = v
	}
	if v := os.Getenv(EnvPrefix + "LOG_FORMAT"); v != "" {
		c.Format = v
		c.Console.Format = v
		c.File.Format = v
	}
	if v := os.Getenv(EnvPrefix + "LOG_DIR"); v != "" {
		c.Dir = v
		c.File.Enabled = true
	}
}

// ResolvePaths resolves the log directory. A simple relative path ends up
// next to the config directory, one starting with ".." is taken from it.
func (c *LoggingConfig) ResolvePaths(configDir string) {
	c.Dir = resolveDataPath(configDir, c.Dir)
}

var (
	logLevels  = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	logFormats = map[string]bool{"text": true, "json": true}
)

func (c *LoggingConfig) Validate() error {
	if !logLevels[c.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Level)
	}
	if !logFormats[c.Format] {
		return fmt.Errorf("invalid log format: %s (must be text or json)", c.Format)
	}

	if c.Console.Enabled {
		if c.Console.Level != "" && !logLevels[c.Console.Level] {
			return fmt.Errorf("invalid console log level: %s", c.Console.Level)
		}
		if c.Console.Format != "" && !logFormats[c.Console.Format] {
			return fmt.Errorf("invalid console log format: %s", c.Console.Format)
		}
	}

	if c.File.Enabled {
		if c.Dir == "" {
			return fmt.Errorf("log directory cannot be empty when file logging is enabled")
		}
		if c.File.Level != "" && !logLevels[c.File.Level] {
			return fmt.Errorf("invalid file log level: %s", c.File.Level)
		}
		if c.File.Format != "" && !logFormats[c.File.Format] {
			return fmt.Errorf("invalid file log format: %s", c.File.Format)
		}
	}
	return nil
}
