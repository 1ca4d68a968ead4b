package kernel

import (
	"sort"
	"sync"

	"github.com/coralcms/hookkit/internal/hook"
)

// ParamSpec documents one argument of a hook or filter.
type ParamSpec struct {
	// Name is the argument's documented name.
	Name string

	// Type is a free-form type description ("string", "post map", ...).
	Type string

	// Description explains the argument.
	Description string
}

// Definition is introspection metadata for a hook or filter name. It is
// never consulted during execution.
type Definition struct {
	// Name is the hook or filter name.
	Name string

	// Kind is action or filter.
	Kind hook.Kind

	// Description explains when the extension point fires.
	Description string

	// Params documents the invocation arguments. For filters the first
	// entry describes the chained value.
	Params []ParamSpec

	// Since is the version the extension point appeared in.
	Since string

	// Deprecated, when non-empty, names the replacement.
	Deprecated string
}

// defKey separates action and filter definitions sharing a name.
type defKey struct {
	name string
	kind hook.Kind
}

// definitionTable stores definitions keyed by name and kind.
type definitionTable struct {
	mu   sync.RWMutex
	defs map[defKey]Definition
}

func newDefinitionTable() *definitionTable {
	return &definitionTable{defs: make(map[defKey]Definition)}
}

func (t *definitionTable) put(d Definition) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.defs[defKey{name: d.Name, kind: d.Kind}] = d
}

func (t *definitionTable) get(name string, kind hook.Kind) (Definition, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	d, ok := t.defs[defKey{name: name, kind: kind}]
	return d, ok
}

func (t *definitionTable) all() []Definition {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]Definition, 0, len(t.defs))
	for _, d := range t.defs {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Kind < out[j].Kind
	})
	return out
}

func (t *definitionTable) clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.defs = make(map[defKey]Definition)
}

// RegisterDefinition stores introspection metadata for a hook or filter
// name, replacing any previous definition for the same name and kind.
func (k *Kernel) RegisterDefinition(d Definition) {
	k.defs.put(d)
	k.logger.Debug("definition registered", "name", d.Name, "kind", string(d.Kind))
}

// Definition returns the metadata registered for a name and kind.
func (k *Kernel) Definition(name string, kind hook.Kind) (Definition, bool) {
	return k.defs.get(name, kind)
}

// Definitions returns all registered definitions sorted by name.
func (k *Kernel) Definitions() []Definition {
	return k.defs.all()
}
