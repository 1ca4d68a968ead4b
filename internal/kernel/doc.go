// Package kernel unifies the action and filter registries behind one API.
// A Kernel is constructed explicitly and threaded through the components
// that need it; there is no package-level singleton. Beyond forwarding to
// the registries it owns hook definitions (introspection metadata), merges
// both registries' statistics, and hands out per-owner namespaces so a
// component never restates its own identity.
package kernel
