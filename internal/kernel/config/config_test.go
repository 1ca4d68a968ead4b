package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
	if cfg.HistoryLimit != 10_000 || cfg.HistoryCompact != 5_000 {
		t.Errorf("unexpected history bounds %d/%d", cfg.HistoryLimit, cfg.HistoryCompact)
	}
	if cfg.DefaultTimeout != 0 {
		t.Errorf("expected no default timeout, got %v", cfg.DefaultTimeout)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid defaults", func(*Config) {}, false},
		{"negative timeout", func(c *Config) { c.DefaultTimeout = -time.Second }, true},
		{"zero history limit", func(c *Config) { c.HistoryLimit = 0 }, true},
		{"compact above limit", func(c *Config) { c.HistoryCompact = 20_000 }, true},
		{"compact equals limit", func(c *Config) { c.HistoryCompact = c.HistoryLimit }, true},
		{"bad log level", func(c *Config) { c.LogLevel = "verbose" }, true},
		{"zero queue", func(c *Config) { c.TelemetryQueueSize = 0 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMerge(t *testing.T) {
	base := Default()

	merged := base.Merge(&Config{
		LogLevel:     "debug",
		HistoryLimit: 500,
	})

	if merged.LogLevel != "debug" || merged.HistoryLimit != 500 {
		t.Errorf("expected overlay applied, got %+v", merged)
	}
	if merged.HistoryCompact != base.HistoryCompact {
		t.Error("expected zero fields to keep the base value")
	}
	if base.LogLevel != "info" {
		t.Error("expected Merge to leave the receiver untouched")
	}

	if got := base.Merge(nil); *got != *base {
		t.Error("expected nil overlay to copy the base")
	}
}

func TestParse_TOML(t *testing.T) {
	data := []byte(`
default_timeout = "2s"
history_limit = 200
log_level = "warn"
plugin_dir = "/opt/plugins"
`)

	cfg, err := Parse(data, ".toml")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cfg.DefaultTimeout != 2*time.Second {
		t.Errorf("expected 2s timeout, got %v", cfg.DefaultTimeout)
	}
	if cfg.HistoryLimit != 200 || cfg.LogLevel != "warn" || cfg.PluginDir != "/opt/plugins" {
		t.Errorf("unexpected config %+v", cfg)
	}
}

func TestParse_YAML(t *testing.T) {
	data := []byte(`
default_timeout: 500ms
history_limit: 100
history_compact: 50
telemetry_queue_size: 64
`)

	cfg, err := Parse(data, ".yaml")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cfg.DefaultTimeout != 500*time.Millisecond {
		t.Errorf("expected 500ms timeout, got %v", cfg.DefaultTimeout)
	}
	if cfg.HistoryLimit != 100 || cfg.HistoryCompact != 50 || cfg.TelemetryQueueSize != 64 {
		t.Errorf("unexpected config %+v", cfg)
	}
}

func TestParse_UnsupportedFormat(t *testing.T) {
	if _, err := Parse([]byte("{}"), ".json"); err == nil {
		t.Error("expected an error for an unsupported format")
	}
}

func TestParse_Invalid(t *testing.T) {
	if _, err := Parse([]byte("history_limit = ["), ".toml"); err == nil {
		t.Error("expected a toml parse error")
	}
	if _, err := Parse([]byte(":\n:"), ".yaml"); err == nil {
		t.Error("expected a yaml parse error")
	}
}

func TestParseReader(t *testing.T) {
	cfg, err := ParseReader(strings.NewReader(`log_level = "error"`), ".toml")
	if err != nil {
		t.Fatalf("ParseReader() error = %v", err)
	}
	if cfg.LogLevel != "error" {
		t.Errorf("expected error level, got %q", cfg.LogLevel)
	}
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hookkit.toml")
	content := `
log_level = "debug"
history_limit = 1000
history_compact = 100
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.LogLevel != "debug" || cfg.HistoryLimit != 1000 {
		t.Errorf("expected file values, got %+v", cfg)
	}
	if cfg.PluginDir != "plugins" {
		t.Error("expected defaults to fill unset fields")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("expected a missing file to fall back to defaults, got %v", err)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("expected defaults, got %+v", cfg)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hookkit.yaml")
	if err := os.WriteFile(path, []byte("log_level: warn\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv(EnvPrefix+"LOG_LEVEL", "error")
	t.Setenv(EnvPrefix+"DEFAULT_TIMEOUT", "3s")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.LogLevel != "error" {
		t.Errorf("expected environment to win over the file, got %q", cfg.LogLevel)
	}
	if cfg.DefaultTimeout != 3*time.Second {
		t.Errorf("expected 3s from environment, got %v", cfg.DefaultTimeout)
	}
}

func TestLoad_InvalidAfterMerge(t *testing.T) {
	t.Setenv(EnvPrefix+"HISTORY_COMPACT", "999999")

	if _, err := Load(""); err == nil {
		t.Error("expected validation to reject compact above limit")
	}
}
