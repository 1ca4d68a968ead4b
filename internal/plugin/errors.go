package plugin

import "errors"

// Sentinel errors for the plugin system.
var (
	// ErrNilManifest is returned when a host is created without a manifest.
	ErrNilManifest = errors.New("plugin: manifest cannot be nil")

	// ErrHostClosed is returned when operations are attempted on a closed host.
	ErrHostClosed = errors.New("plugin: host is closed")

	// ErrPluginExists is returned when loading a plugin whose name is taken.
	ErrPluginExists = errors.New("plugin: plugin already loaded")

	// ErrPluginNotFound is returned when unloading an unknown plugin.
	ErrPluginNotFound = errors.New("plugin: plugin not found")

	// ErrMissingName is returned when a manifest has no name.
	ErrMissingName = errors.New("plugin: manifest name is required")

	// ErrInvalidName is returned when a manifest name is malformed.
	ErrInvalidName = errors.New("plugin: manifest name must be lowercase alphanumeric with hyphens")

	// ErrMissingVersion is returned when a manifest has no version.
	ErrMissingVersion = errors.New("plugin: manifest version is required")

	// ErrInvalidVersion is returned when a manifest version is not semver.
	ErrInvalidVersion = errors.New("plugin: manifest version must be valid semver")

	// ErrInvalidMain is returned when a manifest entry point is not a Lua file.
	ErrInvalidMain = errors.New("plugin: manifest main must be a .lua file")
)
