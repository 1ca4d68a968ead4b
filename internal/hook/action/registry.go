package action

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/coralcms/hookkit/internal/hook"
	"github.com/coralcms/hookkit/internal/hook/stats"
	"github.com/coralcms/hookkit/internal/logging"
	"github.com/coralcms/hookkit/internal/telemetry"
)

// entry pairs a registration with its callback. The registry stores entries
// rather than bare callbacks so the invocation loop is type-uniform.
type entry struct {
	reg *hook.Registration
	cb  hook.Callback
}

// Registry stores action handlers per hook name and drives their execution.
// It is safe for concurrent use. The handler list seen by one Invoke call is
// a snapshot taken at call start; registration changes made while the chain
// runs take effect on the next invocation.
type Registry struct {
	mu      sync.RWMutex
	hooks   map[string][]*entry
	byID    map[string]*entry
	nextSeq uint64

	tracker *stats.Tracker
	logger  logging.Logger
	emitter telemetry.Emitter
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithLogger sets the registry's logging sink.
func WithLogger(l logging.Logger) RegistryOption {
	return func(r *Registry) {
		r.logger = logging.Protect(l)
	}
}

// WithEmitter sets the registry's telemetry emitter.
func WithEmitter(e telemetry.Emitter) RegistryOption {
	return func(r *Registry) {
		if e != nil {
			r.emitter = e
		}
	}
}

// WithTracker sets the registry's statistics tracker.
func WithTracker(t *stats.Tracker) RegistryOption {
	return func(r *Registry) {
		if t != nil {
			r.tracker = t
		}
	}
}

// NewRegistry creates an empty action registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		hooks:   make(map[string][]*entry),
		byID:    make(map[string]*entry),
		tracker: stats.NewTracker(hook.KindAction),
		logger:  logging.Nop(),
		emitter: telemetry.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Tracker returns the registry's statistics tracker.
func (r *Registry) Tracker() *stats.Tracker {
	return r.tracker
}

// Register installs a callback for the given hook name and returns the
// registration's opaque id. It never fails; a nil callback is stored as a
// no-op so the id contract holds.
func (r *Registry) Register(name string, cb hook.Callback, owner string, opts ...hook.Option) string {
	if cb == nil {
		cb = hook.CallbackFunc(func(context.Context, []any) error { return nil })
	}

	reg := hook.NewRegistration(name, owner, opts...)

	r.mu.Lock()
	r.nextSeq++
	reg.SetSeq(r.nextSeq)
	e := &entry{reg: reg, cb: cb}
	r.hooks[name] = insertSorted(r.hooks[name], e)
	r.byID[reg.ID] = e
	r.mu.Unlock()

	r.tracker.RecordRegistration(owner)
	r.logger.Debug("action registered",
		"hook", name,
		"owner", owner,
		"id", reg.ID,
		"priority", reg.Priority,
	)
	r.emitter.Emit(telemetry.Event{
		Type:           telemetry.EventHookAdded,
		Kind:           hook.KindAction,
		Name:           name,
		RegistrationID: reg.ID,
		Owner:          owner,
		Priority:       reg.Priority,
	})

	return reg.ID
}

// RegisterFunc is a convenience wrapper for registering a function callback.
func (r *Registry) RegisterFunc(name string, fn hook.CallbackFunc, owner string, opts ...hook.Option) string {
	return r.Register(name, fn, owner, opts...)
}

// Unregister removes a registration by hook name and id. It returns false
// when no such registration exists.
func (r *Registry) Unregister(name, id string) bool {
	r.mu.Lock()
	e, ok := r.byID[id]
	if !ok || e.reg.Name != name {
		r.mu.Unlock()
		return false
	}
	r.removeLocked(e)
	r.mu.Unlock()

	r.finishRemoval(e)
	return true
}

// UnregisterOwner removes every registration across all hook names whose
// owner matches. It returns the number removed.
func (r *Registry) UnregisterOwner(owner string) int {
	r.mu.Lock()
	var removed []*entry
	for _, e := range r.byID {
		if e.reg.Owner == owner {
			removed = append(removed, e)
		}
	}
	for _, e := range removed {
		r.removeLocked(e)
	}
	r.mu.Unlock()

	for _, e := range removed {
		r.finishRemoval(e)
	}
	return len(removed)
}

// Invoke runs every eligible handler for the hook name in priority order
// with the given arguments. It returns when all handlers have been
// attempted. Handler failures are contained; an unknown hook name is a
// silent no-op.
func (r *Registry) Invoke(ctx context.Context, name string, args ...any) {
	snapshot := r.snapshot(name)
	if len(snapshot) == 0 {
		return
	}

	var consumed []*entry
	for _, e := range snapshot {
		select {
		case <-ctx.Done():
			r.removeConsumed(consumed)
			return
		default:
		}

		if e.reg.Condition != nil && !safeCondition(e.reg.Condition, args) {
			continue
		}

		res := r.execute(ctx, e, args)
		r.record(e, res)

		if e.reg.Once {
			consumed = append(consumed, e)
		}
	}

	r.removeConsumed(consumed)
}

// Has reports whether any handler is registered for the hook name.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.hooks[name]) > 0
}

// Count returns the total number of registrations.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

// CountHook returns the number of registrations for one hook name.
func (r *Registry) CountHook(name string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.hooks[name])
}

// Names returns all hook names with at least one registration.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.hooks))
	for name, entries := range r.hooks {
		if len(entries) > 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// OwnerHooks returns the hook names the owner has registrations on.
func (r *Registry) OwnerHooks(owner string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]bool)
	for _, e := range r.byID {
		if e.reg.Owner == owner {
			seen[e.reg.Name] = true
		}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clear removes all registrations and resets statistics.
func (r *Registry) Clear() {
	r.mu.Lock()
	r.hooks = make(map[string][]*entry)
	r.byID = make(map[string]*entry)
	r.mu.Unlock()

	r.tracker.Reset()
}

// snapshot copies the current ordered handler list for one hook name.
func (r *Registry) snapshot(name string) []*entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := r.hooks[name]
	if len(entries) == 0 {
		return nil
	}
	out := make([]*entry, len(entries))
	copy(out, entries)
	return out
}

// execute runs one handler attempt, routing failures through the
// registration's error handler.
func (r *Registry) execute(ctx context.Context, e *entry, args []any) hook.Result {
	res := hook.Run(ctx, e.reg.Timeout, func(ctx context.Context) (any, error) {
		return nil, e.cb.Invoke(ctx, args)
	})

	if res.Err != nil && e.reg.OnError != nil {
		safeOnError(e.reg.OnError, res.Err, args)
	}
	return res
}

// record accounts for one attempted execution and emits telemetry.
func (r *Registry) record(e *entry, res hook.Result) {
	rec := stats.Record{
		HookName:   e.reg.Name,
		Kind:       hook.KindAction,
		Owner:      e.reg.Owner,
		ExecutedAt: time.Now().Add(-res.Duration),
		Duration:   res.Duration,
		Success:    res.Success(),
	}
	if res.Err != nil {
		rec.Error = res.Err.Error()
	}
	r.tracker.RecordExecution(rec)

	ev := telemetry.Event{
		Type:           telemetry.EventHookExecuted,
		Kind:           hook.KindAction,
		Name:           e.reg.Name,
		RegistrationID: e.reg.ID,
		Owner:          e.reg.Owner,
		Duration:       res.Duration,
		Success:        res.Success(),
	}
	if res.Err != nil {
		ev.Type = telemetry.EventHookError
		ev.Error = res.Err.Error()
		r.logger.Error("action handler failed",
			"hook", e.reg.Name,
			"owner", e.reg.Owner,
			"id", e.reg.ID,
			"error", res.Err.Error(),
			"timed_out", res.TimedOut,
		)
	} else {
		r.logger.Debug("action handler executed",
			"hook", e.reg.Name,
			"owner", e.reg.Owner,
			"duration", res.Duration,
		)
	}
	r.emitter.Emit(ev)
}

// removeConsumed removes once-handlers attempted during a pass. Removal
// happens against the live table after iterating the snapshot.
func (r *Registry) removeConsumed(consumed []*entry) {
	if len(consumed) == 0 {
		return
	}

	r.mu.Lock()
	var removed []*entry
	for _, e := range consumed {
		if _, ok := r.byID[e.reg.ID]; ok {
			r.removeLocked(e)
			removed = append(removed, e)
		}
	}
	r.mu.Unlock()

	for _, e := range removed {
		r.finishRemoval(e)
	}
}

// removeLocked deletes an entry from both indexes. Caller holds mu.
func (r *Registry) removeLocked(e *entry) {
	delete(r.byID, e.reg.ID)

	entries := r.hooks[e.reg.Name]
	for i, cur := range entries {
		if cur == e {
			r.hooks[e.reg.Name] = append(entries[:i], entries[i+1:]...)
			break
		}
	}
	if len(r.hooks[e.reg.Name]) == 0 {
		delete(r.hooks, e.reg.Name)
	}
}

// finishRemoval performs the accounting that follows a removal.
func (r *Registry) finishRemoval(e *entry) {
	r.tracker.RecordRemoval(e.reg.Owner)
	r.logger.Debug("action unregistered",
		"hook", e.reg.Name,
		"owner", e.reg.Owner,
		"id", e.reg.ID,
	)
	r.emitter.Emit(telemetry.Event{
		Type:           telemetry.EventHookRemoved,
		Kind:           hook.KindAction,
		Name:           e.reg.Name,
		RegistrationID: e.reg.ID,
		Owner:          e.reg.Owner,
		Priority:       e.reg.Priority,
	})
}

// insertSorted inserts e keeping the slice sorted by priority with
// registration-order stability for ties.
func insertSorted(entries []*entry, e *entry) []*entry {
	idx := sort.Search(len(entries), func(i int) bool {
		if entries[i].reg.Priority != e.reg.Priority {
			return entries[i].reg.Priority > e.reg.Priority
		}
		return entries[i].reg.Seq() > e.reg.Seq()
	})
	entries = append(entries, nil)
	copy(entries[idx+1:], entries[idx:])
	entries[idx] = e
	return entries
}

// safeCondition evaluates a condition, treating a panic as false.
func safeCondition(c hook.Condition, args []any) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	return c(args)
}

// safeOnError calls a registration's error handler, swallowing any panic it
// raises itself.
func safeOnError(fn hook.ErrorCallback, err error, args []any) {
	defer func() {
		_ = recover()
	}()
	_ = fn(err, args)
}
