package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix for configuration environment variables.
const EnvPrefix = "HOOKKIT_"

// Load reads configuration from path, chooses the parser by extension
// (.toml, .yaml, .yml), and overlays environment variables on top of the
// defaults. A missing file is not an error; defaults plus environment
// apply.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		fileCfg, err := loadFile(path)
		if err != nil {
			return nil, err
		}
		cfg = cfg.Merge(fileCfg)
	}

	cfg = cfg.Merge(fromEnv())

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFile parses one configuration file. A non-existent file yields nil.
func loadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}
	return Parse(data, filepath.Ext(path))
}

// Parse decodes configuration bytes in the format named by ext.
func Parse(data []byte, ext string) (*Config, error) {
	var cfg Config
	switch ext {
	case ".toml", "toml":
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing toml config: %w", err)
		}
	case ".yaml", ".yml", "yaml", "yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing yaml config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format %q", ext)
	}
	return &cfg, nil
}

// ParseReader decodes configuration from a reader in the named format.
func ParseReader(r io.Reader, ext string) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return Parse(data, ext)
}

// fromEnv builds a partial Config from environment variables.
func fromEnv() *Config {
	var cfg Config

	if v, ok := os.LookupEnv(EnvPrefix + "DEFAULT_TIMEOUT"); ok {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.DefaultTimeout = d
		}
	}
	if v, ok := os.LookupEnv(EnvPrefix + "HISTORY_LIMIT"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.HistoryLimit = n
		}
	}
	if v, ok := os.LookupEnv(EnvPrefix + "HISTORY_COMPACT"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.HistoryCompact = n
		}
	}
	if v, ok := os.LookupEnv(EnvPrefix + "LOG_LEVEL"); ok {
		cfg.LogLevel = v
	}
	if v, ok := os.LookupEnv(EnvPrefix + "PLUGIN_DIR"); ok {
		cfg.PluginDir = v
	}
	if v, ok := os.LookupEnv(EnvPrefix + "TELEMETRY_QUEUE_SIZE"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.TelemetryQueueSize = n
		}
	}

	return &cfg
}
