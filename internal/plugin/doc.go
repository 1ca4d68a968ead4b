// Package plugin hosts Lua plugins as hook owners. Each plugin runs in its
// own Lua state and registers action and filter handlers with the kernel
// through the exposed "hooks" module; the plugin's name is its owner
// identity, so unloading a plugin removes every registration it made.
package plugin
