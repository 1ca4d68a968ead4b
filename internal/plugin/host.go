package plugin

import (
	"context"
	"fmt"
	"sync"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/coralcms/hookkit/internal/hook"
	"github.com/coralcms/hookkit/internal/kernel"
	"github.com/coralcms/hookkit/internal/logging"
)

// hooksModule is the name of the Lua table exposed to plugins.
const hooksModule = "hooks"

// ctxKey marks a context as originating inside a host's Lua execution.
// The callback wrapper uses it to detect reentrant dispatch: a plugin whose
// Lua code invokes a hook served by the same plugin would otherwise
// deadlock on the state lock.
type ctxKey struct{ host *Host }

// Host runs one plugin's Lua state and owns its hook registrations.
//
// gopher-lua states are not goroutine-safe; all entry into the state goes
// through mu. Hook callbacks may arrive on any goroutine.
type Host struct {
	name     string
	manifest *Manifest
	ns       *kernel.Namespace
	logger   logging.Logger

	mu     sync.Mutex
	L      *lua.LState
	closed bool
}

// NewHost creates a host for the manifest, binds the hooks module into a
// fresh Lua state, and runs the plugin's entry script.
func NewHost(manifest *Manifest, k *kernel.Kernel, logger logging.Logger) (*Host, error) {
	if manifest == nil {
		return nil, ErrNilManifest
	}

	h := &Host{
		name:     manifest.Name,
		manifest: manifest,
		ns:       k.Namespace(manifest.Name),
		logger:   logging.Protect(logger),
		L:        lua.NewState(),
	}
	h.installModule(k)

	if err := h.runEntry(); err != nil {
		h.L.Close()
		return nil, err
	}

	h.logger.Info("plugin loaded",
		"plugin", h.name,
		"version", manifest.Version,
	)
	return h, nil
}

// Name returns the plugin name, which is also its hook owner identity.
func (h *Host) Name() string {
	return h.name
}

// Manifest returns the plugin's manifest.
func (h *Host) Manifest() *Manifest {
	return h.manifest
}

// Close removes the plugin's hook registrations and tears down the Lua
// state.
func (h *Host) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return ErrHostClosed
	}
	h.closed = true

	removed := h.ns.RemoveAll()
	h.L.Close()

	h.logger.Info("plugin unloaded",
		"plugin", h.name,
		"actions_removed", removed.Actions,
		"filters_removed", removed.Filters,
	)
	return nil
}

// runEntry executes the plugin's entry script.
func (h *Host) runEntry() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.L.DoFile(h.manifest.MainPath()); err != nil {
		return fmt.Errorf("plugin %s: running %s: %w", h.name, h.manifest.Main, err)
	}
	return nil
}

// installModule binds the hooks table into the Lua state.
func (h *Host) installModule(k *kernel.Kernel) {
	L := h.L
	mod := L.NewTable()

	L.SetField(mod, "add_action", L.NewFunction(h.luaAddAction))
	L.SetField(mod, "add_filter", L.NewFunction(h.luaAddFilter))
	L.SetField(mod, "remove_action", L.NewFunction(h.luaRemoveAction))
	L.SetField(mod, "remove_filter", L.NewFunction(h.luaRemoveFilter))
	L.SetField(mod, "remove_all", L.NewFunction(h.luaRemoveAll))
	L.SetField(mod, "do_action", h.luaDispatchAction(k))
	L.SetField(mod, "apply_filters", h.luaApplyFilters(k))

	L.SetGlobal(hooksModule, mod)
}

// luaAddAction implements hooks.add_action(name, fn [, opts]) -> id.
func (h *Host) luaAddAction(L *lua.LState) int {
	name := L.CheckString(1)
	fn := L.CheckFunction(2)
	opts := h.parseOptions(L, 3, true)

	cb := h.actionCallback(fn)
	id := h.ns.AddAction(name, cb, opts...)

	L.Push(lua.LString(id))
	return 1
}

// luaAddFilter implements hooks.add_filter(name, fn [, opts]) -> id.
func (h *Host) luaAddFilter(L *lua.LState) int {
	name := L.CheckString(1)
	fn := L.CheckFunction(2)
	opts := h.parseOptions(L, 3, false)

	cb := h.filterCallback(fn)
	id := h.ns.AddFilter(name, cb, opts...)

	L.Push(lua.LString(id))
	return 1
}

// luaRemoveAction implements hooks.remove_action(name, id) -> bool.
func (h *Host) luaRemoveAction(L *lua.LState) int {
	name := L.CheckString(1)
	id := L.CheckString(2)
	L.Push(lua.LBool(h.ns.RemoveAction(name, id)))
	return 1
}

// luaRemoveFilter implements hooks.remove_filter(name, id) -> bool.
func (h *Host) luaRemoveFilter(L *lua.LState) int {
	name := L.CheckString(1)
	id := L.CheckString(2)
	L.Push(lua.LBool(h.ns.RemoveFilter(name, id)))
	return 1
}

// luaRemoveAll implements hooks.remove_all() -> actions, filters.
func (h *Host) luaRemoveAll(L *lua.LState) int {
	removed := h.ns.RemoveAll()
	L.Push(lua.LNumber(removed.Actions))
	L.Push(lua.LNumber(removed.Filters))
	return 2
}

// luaDispatchAction implements hooks.do_action(name, ...).
func (h *Host) luaDispatchAction(k *kernel.Kernel) *lua.LFunction {
	return h.L.NewFunction(func(L *lua.LState) int {
		name := L.CheckString(1)
		args := make([]any, 0, L.GetTop()-1)
		for i := 2; i <= L.GetTop(); i++ {
			args = append(args, toGoValue(L.Get(i)))
		}

		k.DoAction(h.dispatchContext(), name, args...)
		return 0
	})
}

// luaApplyFilters implements hooks.apply_filters(name, value, ...) -> value.
func (h *Host) luaApplyFilters(k *kernel.Kernel) *lua.LFunction {
	return h.L.NewFunction(func(L *lua.LState) int {
		name := L.CheckString(1)
		value := toGoValue(L.Get(2))
		args := make([]any, 0, L.GetTop()-2)
		for i := 3; i <= L.GetTop(); i++ {
			args = append(args, toGoValue(L.Get(i)))
		}

		result := k.ApplyFilters(h.dispatchContext(), name, value, args...)
		L.Push(toLuaValue(L, result))
		return 1
	})
}

// dispatchContext marks a kernel dispatch as originating inside this host's
// Lua execution. The context is also marked inline so every handler of the
// dispatch, timeout or not, runs on this goroutine: the reentrancy marker is
// only sound when the callback and the dispatching Lua code cannot run
// concurrently in the same state.
func (h *Host) dispatchContext() context.Context {
	ctx := context.WithValue(context.Background(), ctxKey{host: h}, true)
	return hook.WithInline(ctx)
}

// reentrant reports whether the context carries this host's dispatch marker,
// meaning this goroutine is already inside the Lua state.
func (h *Host) reentrant(ctx context.Context) bool {
	return ctx.Value(ctxKey{host: h}) != nil
}

// actionCallback wraps a Lua function as a hook.Callback.
func (h *Host) actionCallback(fn *lua.LFunction) hook.Callback {
	return hook.CallbackFunc(func(ctx context.Context, args []any) error {
		_, err := h.callLua(ctx, fn, nil, args, false)
		return err
	})
}

// filterCallback wraps a Lua function as a hook.FilterCallback. A Lua
// handler that returns no values passes the chain value through unchanged.
func (h *Host) filterCallback(fn *lua.LFunction) hook.FilterCallback {
	return hook.FilterCallbackFunc(func(ctx context.Context, value any, args []any) (any, error) {
		return h.callLua(ctx, fn, value, args, true)
	})
}

// callLua enters the Lua state and calls fn. For filters the chain value is
// the first Lua argument. Zero Lua return values map to hook.Skip.
func (h *Host) callLua(ctx context.Context, fn *lua.LFunction, value any, args []any, withValue bool) (any, error) {
	if !h.reentrant(ctx) {
		h.mu.Lock()
		defer h.mu.Unlock()
	}

	if h.closed {
		return hook.Skip, ErrHostClosed
	}

	L := h.L
	top := L.GetTop()
	defer L.SetTop(top)

	nargs := len(args)
	L.Push(fn)
	if withValue {
		L.Push(toLuaValue(L, value))
		nargs++
	}
	for _, a := range args {
		L.Push(toLuaValue(L, a))
	}

	if err := h.pcall(nargs); err != nil {
		return hook.Skip, err
	}

	nret := L.GetTop() - top
	if nret == 0 {
		return hook.Skip, nil
	}
	return toGoValue(L.Get(top + 1)), nil
}

// pcall performs the protected call with panic containment around the VM.
func (h *Host) pcall(nargs int) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("plugin %s: lua panic: %v", h.name, r)
		}
	}()
	return h.L.PCall(nargs, lua.MultRet, nil)
}

// parseOptions converts an optional Lua options table at stack index idx
// into registration options.
func (h *Host) parseOptions(L *lua.LState, idx int, allowOnce bool) []hook.Option {
	var opts []hook.Option

	v := L.Get(idx)
	tbl, ok := v.(*lua.LTable)
	if !ok {
		return opts
	}

	if p, ok := tbl.RawGetString("priority").(lua.LNumber); ok {
		opts = append(opts, hook.WithPriority(int(p)))
	}
	if allowOnce {
		if once, ok := tbl.RawGetString("once").(lua.LBool); ok && bool(once) {
			opts = append(opts, hook.WithOnce())
		}
	}
	if ms, ok := tbl.RawGetString("timeout_ms").(lua.LNumber); ok && ms > 0 {
		opts = append(opts, hook.WithTimeout(time.Duration(ms)*time.Millisecond))
	}
	if cond, ok := tbl.RawGetString("json_condition").(*lua.LTable); ok {
		if c := parseJSONCondition(cond); c != nil {
			opts = append(opts, hook.WithCondition(c))
		}
	}

	return opts
}

// parseJSONCondition builds a condition from a declarative Lua table:
// { arg = 1, path = "post.status", value = "published" }. The arg index is
// 1-based, matching Lua convention.
func parseJSONCondition(tbl *lua.LTable) hook.Condition {
	path, ok := tbl.RawGetString("path").(lua.LString)
	if !ok || path == "" {
		return nil
	}

	arg := 1
	if n, ok := tbl.RawGetString("arg").(lua.LNumber); ok && int(n) >= 1 {
		arg = int(n)
	}

	want := toGoValue(tbl.RawGetString("value"))
	return hook.JSONCondition(arg-1, string(path), want)
}
