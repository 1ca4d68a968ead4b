package plugin

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// ManifestFile is the manifest's file name inside a plugin directory.
const ManifestFile = "plugin.toml"

// Manifest describes a plugin's identity and entry point.
type Manifest struct {
	// Name is the unique plugin identifier and the plugin's hook owner
	// name (e.g., "seo-tools").
	Name string `toml:"name"`

	// Version is the plugin's semver string.
	Version string `toml:"version"`

	// Description is a short human-readable summary.
	Description string `toml:"description"`

	// Author is the author name or org.
	Author string `toml:"author"`

	// Main is the relative path to the entry script. Defaults to
	// "init.lua".
	Main string `toml:"main"`

	// path is the plugin directory the manifest was loaded from.
	path string
}

// namePattern validates plugin names.
var namePattern = regexp.MustCompile(`^[a-z][a-z0-9-]*[a-z0-9]$|^[a-z]$`)

// semverPattern validates version strings (simplified semver).
var semverPattern = regexp.MustCompile(`^\d+\.\d+\.\d+(-[a-zA-Z0-9.-]+)?(\+[a-zA-Z0-9.-]+)?$`)

// LoadManifest reads and validates the manifest in a plugin directory.
func LoadManifest(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		return nil, fmt.Errorf("plugin: reading manifest in %s: %w", dir, err)
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("plugin: parsing manifest in %s: %w", dir, err)
	}
	m.path = dir

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks the manifest's required fields and applies defaults.
func (m *Manifest) Validate() error {
	if m.Name == "" {
		return ErrMissingName
	}
	if !namePattern.MatchString(m.Name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, m.Name)
	}
	if m.Version == "" {
		return ErrMissingVersion
	}
	if !semverPattern.MatchString(m.Version) {
		return fmt.Errorf("%w: %q", ErrInvalidVersion, m.Version)
	}
	if m.Main == "" {
		m.Main = "init.lua"
	}
	if !strings.HasSuffix(m.Main, ".lua") {
		return fmt.Errorf("%w: %q", ErrInvalidMain, m.Main)
	}
	return nil
}

// MainPath returns the absolute path of the entry script.
func (m *Manifest) MainPath() string {
	return filepath.Join(m.path, m.Main)
}

// Dir returns the plugin directory.
func (m *Manifest) Dir() string {
	return m.path
}
