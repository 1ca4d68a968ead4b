package kernel

import (
	"github.com/coralcms/hookkit/internal/hook"
)

// Namespace is a kernel view bound to one owner. Registration and removal
// calls supply the owner implicitly, so a component never restates its own
// identity.
type Namespace struct {
	kernel *Kernel
	owner  string
}

// Owner returns the bound owner name.
func (n *Namespace) Owner() string {
	return n.owner
}

// AddAction registers an action handler owned by the namespace.
func (n *Namespace) AddAction(name string, cb hook.Callback, opts ...hook.Option) string {
	return n.kernel.AddAction(name, cb, n.owner, opts...)
}

// AddActionFunc registers a function action handler owned by the namespace.
func (n *Namespace) AddActionFunc(name string, fn hook.CallbackFunc, opts ...hook.Option) string {
	return n.kernel.AddAction(name, fn, n.owner, opts...)
}

// AddFilter registers a filter handler owned by the namespace.
func (n *Namespace) AddFilter(name string, cb hook.FilterCallback, opts ...hook.Option) string {
	return n.kernel.AddFilter(name, cb, n.owner, opts...)
}

// AddFilterFunc registers a function filter handler owned by the namespace.
func (n *Namespace) AddFilterFunc(name string, fn hook.FilterCallbackFunc, opts ...hook.Option) string {
	return n.kernel.AddFilter(name, fn, n.owner, opts...)
}

// RemoveAction removes one of the namespace's action registrations.
func (n *Namespace) RemoveAction(name, id string) bool {
	return n.kernel.RemoveAction(name, id)
}

// RemoveFilter removes one of the namespace's filter registrations.
func (n *Namespace) RemoveFilter(name, id string) bool {
	return n.kernel.RemoveFilter(name, id)
}

// RemoveAll removes every registration owned by the namespace.
func (n *Namespace) RemoveAll() OwnerRemoval {
	return n.kernel.RemoveOwnerHooks(n.owner)
}

// Actions returns the action hook names the namespace has registrations on.
func (n *Namespace) Actions() []string {
	return n.kernel.Actions().OwnerHooks(n.owner)
}

// Filters returns the filter names the namespace has registrations on.
func (n *Namespace) Filters() []string {
	return n.kernel.Filters().OwnerHooks(n.owner)
}
