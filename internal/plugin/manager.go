package plugin

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/coralcms/hookkit/internal/kernel"
	"github.com/coralcms/hookkit/internal/logging"
)

// Manager loads and unloads plugins against one kernel.
type Manager struct {
	kernel *kernel.Kernel
	logger logging.Logger

	mu      sync.RWMutex
	plugins map[string]*Host
}

// NewManager creates a plugin manager for the kernel.
func NewManager(k *kernel.Kernel, logger logging.Logger) *Manager {
	return &Manager{
		kernel:  k,
		logger:  logging.Protect(logger),
		plugins: make(map[string]*Host),
	}
}

// Load reads the manifest in dir, creates the plugin's host, and runs its
// entry script.
func (m *Manager) Load(dir string) (*Host, error) {
	manifest, err := LoadManifest(dir)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	if _, exists := m.plugins[manifest.Name]; exists {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrPluginExists, manifest.Name)
	}
	// Reserve the name before the entry script runs so concurrent loads
	// of the same plugin cannot race.
	m.plugins[manifest.Name] = nil
	m.mu.Unlock()

	host, err := NewHost(manifest, m.kernel, m.logger)
	if err != nil {
		m.mu.Lock()
		delete(m.plugins, manifest.Name)
		m.mu.Unlock()
		return nil, err
	}

	m.mu.Lock()
	m.plugins[manifest.Name] = host
	m.mu.Unlock()
	return host, nil
}

// LoadAll loads every plugin directory under root (a directory containing a
// plugin.toml). Load failures are logged and skipped; the number of loaded
// plugins is returned.
func (m *Manager) LoadAll(root string) (int, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("plugin: reading plugin dir %s: %w", root, err)
	}

	loaded := 0
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(root, entry.Name())
		if _, err := os.Stat(filepath.Join(dir, ManifestFile)); err != nil {
			continue
		}
		if _, err := m.Load(dir); err != nil {
			m.logger.Warn("plugin load failed", "dir", dir, "error", err.Error())
			continue
		}
		loaded++
	}
	return loaded, nil
}

// Unload closes a plugin by name, removing all its hook registrations.
func (m *Manager) Unload(name string) error {
	m.mu.Lock()
	host, ok := m.plugins[name]
	if !ok || host == nil {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrPluginNotFound, name)
	}
	delete(m.plugins, name)
	m.mu.Unlock()

	return host.Close()
}

// UnloadAll closes every loaded plugin.
func (m *Manager) UnloadAll() {
	m.mu.Lock()
	hosts := make([]*Host, 0, len(m.plugins))
	for _, h := range m.plugins {
		if h != nil {
			hosts = append(hosts, h)
		}
	}
	m.plugins = make(map[string]*Host)
	m.mu.Unlock()

	for _, h := range hosts {
		_ = h.Close()
	}
}

// Get returns a loaded plugin by name.
func (m *Manager) Get(name string) (*Host, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h, ok := m.plugins[name]
	return h, ok && h != nil
}

// Names returns the loaded plugin names, sorted.
func (m *Manager) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.plugins))
	for name, h := range m.plugins {
		if h != nil {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Count returns the number of loaded plugins.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := 0
	for _, h := range m.plugins {
		if h != nil {
			n++
		}
	}
	return n
}
