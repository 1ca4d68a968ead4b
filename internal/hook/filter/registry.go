package filter

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/coralcms/hookkit/internal/hook"
	"github.com/coralcms/hookkit/internal/hook/stats"
	"github.com/coralcms/hookkit/internal/logging"
	"github.com/coralcms/hookkit/internal/telemetry"
)

// summaryLimit bounds the rendered length of a stage's result summary.
const summaryLimit = 120

// entry pairs a registration with its filter callback.
type entry struct {
	reg *hook.Registration
	cb  hook.FilterCallback
}

// Registry stores filter handlers per filter name and threads values
// through them. It is safe for concurrent use; the handler list seen by one
// Apply call is a snapshot taken at call start.
type Registry struct {
	mu      sync.RWMutex
	filters map[string][]*entry
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

// NewRegistry creates an empty filter registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		filters: make(map[string][]*entry),
		byID:    make(map[string]*entry),
		tracker: stats.NewTracker(hook.KindFilter),
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

// Register installs a filter callback for the given name and returns the
// registration's opaque id. Once options are ignored: filters have no once
// semantics. It never fails; a nil callback is stored as pass-through.
func (r *Registry) Register(name string, cb hook.FilterCallback, owner string, opts ...hook.Option) string {
	if cb == nil {
		cb = hook.FilterCallbackFunc(func(context.Context, any, []any) (any, error) {
			return hook.Skip, nil
		})
	}

	reg := hook.NewRegistration(name, owner, opts...)
	reg.Once = false

	r.mu.Lock()
	r.nextSeq++
	reg.SetSeq(r.nextSeq)
	e := &entry{reg: reg, cb: cb}
	r.filters[name] = insertSorted(r.filters[name], e)
	r.byID[reg.ID] = e
	r.mu.Unlock()

	r.tracker.RecordRegistration(owner)
	r.logger.Debug("filter registered",
		"filter", name,
		"owner", owner,
		"id", reg.ID,
		"priority", reg.Priority,
	)
	r.emitter.Emit(telemetry.Event{
		Type:           telemetry.EventHookAdded,
		Kind:           hook.KindFilter,
		Name:           name,
		RegistrationID: reg.ID,
		Owner:          owner,
		Priority:       reg.Priority,
	})

	return reg.ID
}

// RegisterFunc is a convenience wrapper for registering a function callback.
func (r *Registry) RegisterFunc(name string, fn hook.FilterCallbackFunc, owner string, opts ...hook.Option) string {
	return r.Register(name, fn, owner, opts...)
}

// Unregister removes a registration by filter name and id.
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

// UnregisterOwner removes every registration across all filter names whose
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

// Apply threads value through every eligible handler for the filter name in
// priority order and returns the final value. With no handlers registered
// the value is returned unchanged. A handler returning hook.Skip leaves the
// current value untouched; a failing handler's stage carries the current
// value forward unchanged unless its error handler supplies a replacement.
func (r *Registry) Apply(ctx context.Context, name string, value any, args ...any) any {
	snapshot := r.snapshot(name)
	if len(snapshot) == 0 {
		return value
	}

	current := value
	for _, e := range snapshot {
		select {
		case <-ctx.Done():
			return current
		default:
		}

		if e.reg.Condition != nil && !safeCondition(e.reg.Condition, args) {
			continue
		}

		res := r.runStage(ctx, e, current, args)
		if res.Err == nil && !hook.IsSkip(res.Value) {
			current = res.Value
		} else if res.Err != nil && e.reg.OnError != nil {
			if repl := safeOnError(e.reg.OnError, res.Err, args); !hook.IsSkip(repl) {
				current = repl
			}
		}
		r.record(e, res, current)
	}

	return current
}

// StageTrace describes one handler stage of a TestChain run.
type StageTrace struct {
	// RegistrationID identifies the handler.
	RegistrationID string

	// Owner is the handler's owner.
	Owner string

	// Priority is the handler's priority.
	Priority int

	// Skipped is true when the handler's condition gated it out.
	Skipped bool

	// Input is the chain value entering the stage.
	Input any

	// Output is the chain value leaving the stage.
	Output any

	// Duration is the stage's execution time. Zero for skipped stages.
	Duration time.Duration

	// Success is false for errors, panics, and timeouts. True for
	// skipped stages, which do not attempt execution.
	Success bool

	// Error is the failure message, if any.
	Error string
}

// TestChain runs the Apply algorithm against a sample value and returns a
// per-handler trace without mutating telemetry state or emitting events.
// It is intended for debugging and test authoring.
func (r *Registry) TestChain(ctx context.Context, name string, sample any, args ...any) []StageTrace {
	snapshot := r.snapshot(name)
	if len(snapshot) == 0 {
		return nil
	}

	traces := make([]StageTrace, 0, len(snapshot))
	current := sample
	for _, e := range snapshot {
		trace := StageTrace{
			RegistrationID: e.reg.ID,
			Owner:          e.reg.Owner,
			Priority:       e.reg.Priority,
			Input:          current,
			Success:        true,
		}

		if e.reg.Condition != nil && !safeCondition(e.reg.Condition, args) {
			trace.Skipped = true
			trace.Output = current
			traces = append(traces, trace)
			continue
		}

		res := r.runStage(ctx, e, current, args)
		trace.Duration = res.Duration
		if res.Err != nil {
			trace.Success = false
			trace.Error = res.Err.Error()
			if e.reg.OnError != nil {
				if repl := safeOnError(e.reg.OnError, res.Err, args); !hook.IsSkip(repl) {
					current = repl
				}
			}
		} else if !hook.IsSkip(res.Value) {
			current = res.Value
		}
		trace.Output = current
		traces = append(traces, trace)
	}

	return traces
}

// Has reports whether any handler is registered for the filter name.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.filters[name]) > 0
}

// Count returns the total number of registrations.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

// CountHook returns the number of registrations for one filter name.
func (r *Registry) CountHook(name string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.filters[name])
}

// Names returns all filter names with at least one registration.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.filters))
	for name, entries := range r.filters {
		if len(entries) > 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// OwnerHooks returns the filter names the owner has registrations on.
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
	r.filters = make(map[string][]*entry)
	r.byID = make(map[string]*entry)
	r.mu.Unlock()

	r.tracker.Reset()
}

// snapshot copies the current ordered handler list for one filter name.
func (r *Registry) snapshot(name string) []*entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := r.filters[name]
	if len(entries) == 0 {
		return nil
	}
	out := make([]*entry, len(entries))
	copy(out, entries)
	return out
}

// runStage runs one handler attempt without any accounting.
func (r *Registry) runStage(ctx context.Context, e *entry, current any, args []any) hook.Result {
	return hook.Run(ctx, e.reg.Timeout, func(ctx context.Context) (any, error) {
		return e.cb.Apply(ctx, current, args)
	})
}

// record accounts for one attempted stage and emits telemetry.
func (r *Registry) record(e *entry, res hook.Result, current any) {
	rec := stats.Record{
		HookName:      e.reg.Name,
		Kind:          hook.KindFilter,
		Owner:         e.reg.Owner,
		ExecutedAt:    time.Now().Add(-res.Duration),
		Duration:      res.Duration,
		Success:       res.Success(),
		ResultSummary: summarize(current),
	}
	if res.Err != nil {
		rec.Error = res.Err.Error()
	}
	r.tracker.RecordExecution(rec)

	ev := telemetry.Event{
		Type:           telemetry.EventHookExecuted,
		Kind:           hook.KindFilter,
		Name:           e.reg.Name,
		RegistrationID: e.reg.ID,
		Owner:          e.reg.Owner,
		Duration:       res.Duration,
		Success:        res.Success(),
	}
	if res.Err != nil {
		ev.Type = telemetry.EventHookError
		ev.Error = res.Err.Error()
		r.logger.Error("filter handler failed",
			"filter", e.reg.Name,
			"owner", e.reg.Owner,
			"id", e.reg.ID,
			"error", res.Err.Error(),
			"timed_out", res.TimedOut,
		)
	} else {
		r.logger.Debug("filter handler executed",
			"filter", e.reg.Name,
			"owner", e.reg.Owner,
			"duration", res.Duration,
		)
	}
	r.emitter.Emit(ev)
}

// removeLocked deletes an entry from both indexes. Caller holds mu.
func (r *Registry) removeLocked(e *entry) {
	delete(r.byID, e.reg.ID)

	entries := r.filters[e.reg.Name]
	for i, cur := range entries {
		if cur == e {
			r.filters[e.reg.Name] = append(entries[:i], entries[i+1:]...)
			break
		}
	}
	if len(r.filters[e.reg.Name]) == 0 {
		delete(r.filters, e.reg.Name)
	}
}

// finishRemoval performs the accounting that follows a removal.
func (r *Registry) finishRemoval(e *entry) {
	r.tracker.RecordRemoval(e.reg.Owner)
	r.logger.Debug("filter unregistered",
		"filter", e.reg.Name,
		"owner", e.reg.Owner,
		"id", e.reg.ID,
	)
	r.emitter.Emit(telemetry.Event{
		Type:           telemetry.EventHookRemoved,
		Kind:           hook.KindFilter,
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

// summarize renders a chain value for the execution record, truncated to a
// fixed length.
func summarize(v any) string {
	s := fmt.Sprintf("%v", v)
	if len(s) > summaryLimit {
		s = s[:summaryLimit] + "..."
	}
	return s
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
// raises. Its return value, when not hook.Skip, replaces the chain's
// current value.
func safeOnError(fn hook.ErrorCallback, err error, args []any) (out any) {
	out = hook.Skip
	defer func() {
		if recover() != nil {
			out = hook.Skip
		}
	}()
	return fn(err, args)
}
