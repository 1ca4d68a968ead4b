// Package config provides the kernel's configuration: handler defaults,
// execution history bounds, logging, and plugin paths. Configuration is
// loaded from TOML or YAML files plus environment variables, and can be
// reloaded while the process runs.
package config

import (
	"fmt"
	"time"
)

// Config holds the kernel-wide settings.
type Config struct {
	// DefaultTimeout bounds a handler execution when the registration
	// sets no timeout of its own. Zero disables the default.
	DefaultTimeout time.Duration `toml:"default_timeout" yaml:"default_timeout"`

	// HistoryLimit is the execution history capacity per registry.
	HistoryLimit int `toml:"history_limit" yaml:"history_limit"`

	// HistoryCompact is the size the history shrinks to on overflow.
	HistoryCompact int `toml:"history_compact" yaml:"history_compact"`

	// LogLevel is the minimum log level: debug, info, warn, error.
	LogLevel string `toml:"log_level" yaml:"log_level"`

	// PluginDir is where plugin directories are discovered.
	PluginDir string `toml:"plugin_dir" yaml:"plugin_dir"`

	// TelemetryQueueSize bounds the outward telemetry queue.
	TelemetryQueueSize int `toml:"telemetry_queue_size" yaml:"telemetry_queue_size"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		DefaultTimeout:     0,
		HistoryLimit:       10_000,
		HistoryCompact:     5_000,
		LogLevel:           "info",
		PluginDir:          "plugins",
		TelemetryQueueSize: 1024,
	}
}

// Validate checks the configuration for inconsistencies.
func (c *Config) Validate() error {
	if c.DefaultTimeout < 0 {
		return fmt.Errorf("config: default_timeout must not be negative")
	}
	if c.HistoryLimit <= 0 {
		return fmt.Errorf("config: history_limit must be positive")
	}
	if c.HistoryCompact <= 0 || c.HistoryCompact >= c.HistoryLimit {
		return fmt.Errorf("config: history_compact must be positive and below history_limit")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: unknown log_level %q", c.LogLevel)
	}
	if c.TelemetryQueueSize <= 0 {
		return fmt.Errorf("config: telemetry_queue_size must be positive")
	}
	return nil
}

// Merge overlays non-zero fields of other onto a copy of c.
func (c *Config) Merge(other *Config) *Config {
	out := *c
	if other == nil {
		return &out
	}
	if other.DefaultTimeout != 0 {
		out.DefaultTimeout = other.DefaultTimeout
	}
	if other.HistoryLimit != 0 {
		out.HistoryLimit = other.HistoryLimit
	}
	if other.HistoryCompact != 0 {
		out.HistoryCompact = other.HistoryCompact
	}
	if other.LogLevel != "" {
		out.LogLevel = other.LogLevel
	}
	if other.PluginDir != "" {
		out.PluginDir = other.PluginDir
	}
	if other.TelemetryQueueSize != 0 {
		out.TelemetryQueueSize = other.TelemetryQueueSize
	}
	return &out
}
