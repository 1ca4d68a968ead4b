package kernel

import (
	"context"
	"sync"
	"time"

	"github.com/coralcms/hookkit/internal/hook"
	"github.com/coralcms/hookkit/internal/hook/action"
	"github.com/coralcms/hookkit/internal/hook/filter"
	"github.com/coralcms/hookkit/internal/hook/stats"
	"github.com/coralcms/hookkit/internal/kernel/config"
	"github.com/coralcms/hookkit/internal/logging"
	"github.com/coralcms/hookkit/internal/telemetry"
)

// Kernel composes the action and filter registries.
type Kernel struct {
	actions *action.Registry
	filters *filter.Registry
	defs    *definitionTable

	cfgMu sync.RWMutex
	cfg   *config.Config

	logger  logging.Logger
	emitter telemetry.Emitter
}

// Option configures a Kernel.
type Option func(*Kernel)

// WithLogger sets the kernel's logging sink. It is shared with both
// registries.
func WithLogger(l logging.Logger) Option {
	return func(k *Kernel) {
		k.logger = logging.Protect(l)
	}
}

// WithEmitter sets the kernel's telemetry emitter. It is shared with both
// registries.
func WithEmitter(e telemetry.Emitter) Option {
	return func(k *Kernel) {
		if e != nil {
			k.emitter = e
		}
	}
}

// WithConfig sets the kernel configuration.
func WithConfig(cfg *config.Config) Option {
	return func(k *Kernel) {
		if cfg != nil {
			k.cfg = cfg
		}
	}
}

// New creates a Kernel with empty registries.
func New(opts ...Option) *Kernel {
	k := &Kernel{
		defs:    newDefinitionTable(),
		cfg:     config.Default(),
		logger:  logging.Nop(),
		emitter: telemetry.Nop(),
	}
	for _, opt := range opts {
		opt(k)
	}

	k.actions = action.NewRegistry(
		action.WithLogger(k.logger),
		action.WithEmitter(k.emitter),
		action.WithTracker(stats.NewTrackerWithHistory(
			hook.KindAction, k.cfg.HistoryLimit, k.cfg.HistoryCompact)),
	)
	k.filters = filter.NewRegistry(
		filter.WithLogger(k.logger),
		filter.WithEmitter(k.emitter),
		filter.WithTracker(stats.NewTrackerWithHistory(
			hook.KindFilter, k.cfg.HistoryLimit, k.cfg.HistoryCompact)),
	)
	return k
}

// Actions returns the underlying action registry.
func (k *Kernel) Actions() *action.Registry {
	return k.actions
}

// Filters returns the underlying filter registry.
func (k *Kernel) Filters() *filter.Registry {
	return k.filters
}

// Config returns a copy of the kernel configuration. Mutating the copy has
// no effect; use SetConfig to change the live configuration.
func (k *Kernel) Config() *config.Config {
	k.cfgMu.RLock()
	defer k.cfgMu.RUnlock()
	c := *k.cfg
	return &c
}

// SetConfig replaces the kernel configuration. Safe to call while the kernel
// serves registrations; the new default timeout applies to registrations
// made after the call. History bounds are fixed at construction.
func (k *Kernel) SetConfig(cfg *config.Config) {
	if cfg == nil {
		return
	}
	c := *cfg
	k.cfgMu.Lock()
	k.cfg = &c
	k.cfgMu.Unlock()
}

// AddAction registers an action handler. The kernel-wide default timeout
// applies unless the options set one.
func (k *Kernel) AddAction(name string, cb hook.Callback, owner string, opts ...hook.Option) string {
	return k.actions.Register(name, cb, owner, k.withDefaultTimeout(opts)...)
}

// AddActionFunc registers a function action handler.
func (k *Kernel) AddActionFunc(name string, fn hook.CallbackFunc, owner string, opts ...hook.Option) string {
	return k.AddAction(name, fn, owner, opts...)
}

// AddFilter registers a filter handler. The kernel-wide default timeout
// applies unless the options set one.
func (k *Kernel) AddFilter(name string, cb hook.FilterCallback, owner string, opts ...hook.Option) string {
	return k.filters.Register(name, cb, owner, k.withDefaultTimeout(opts)...)
}

// AddFilterFunc registers a function filter handler.
func (k *Kernel) AddFilterFunc(name string, fn hook.FilterCallbackFunc, owner string, opts ...hook.Option) string {
	return k.AddFilter(name, fn, owner, opts...)
}

// RemoveAction removes an action registration by name and id.
func (k *Kernel) RemoveAction(name, id string) bool {
	return k.actions.Unregister(name, id)
}

// RemoveFilter removes a filter registration by name and id.
func (k *Kernel) RemoveFilter(name, id string) bool {
	return k.filters.Unregister(name, id)
}

// OwnerRemoval reports how many registrations of each kind an owner-wide
// removal dropped.
type OwnerRemoval struct {
	Actions int
	Filters int
}

// RemoveOwnerHooks removes every registration, action and filter, belonging
// to the owner.
func (k *Kernel) RemoveOwnerHooks(owner string) OwnerRemoval {
	return OwnerRemoval{
		Actions: k.actions.UnregisterOwner(owner),
		Filters: k.filters.UnregisterOwner(owner),
	}
}

// DoAction invokes every eligible handler for the action name. It returns
// when all handlers have been attempted; an unknown name is a no-op.
func (k *Kernel) DoAction(ctx context.Context, name string, args ...any) {
	k.actions.Invoke(ctx, name, args...)
}

// ApplyFilters threads value through every eligible handler for the filter
// name and returns the final value. With no handlers the value comes back
// unchanged.
func (k *Kernel) ApplyFilters(ctx context.Context, name string, value any, args ...any) any {
	return k.filters.Apply(ctx, name, value, args...)
}

// Namespace returns a view bound to the owner: its registration and removal
// calls supply the owner implicitly.
func (k *Kernel) Namespace(owner string) *Namespace {
	return &Namespace{kernel: k, owner: owner}
}

// Shutdown clears both registries and the definition table. A running
// emitter or config watcher is owned by the caller and stopped separately.
func (k *Kernel) Shutdown() {
	k.actions.Clear()
	k.filters.Clear()
	k.defs.clear()
	k.logger.Info("kernel shut down")
}

// withDefaultTimeout prepends the configured default timeout so explicit
// per-registration options still win.
func (k *Kernel) withDefaultTimeout(opts []hook.Option) []hook.Option {
	k.cfgMu.RLock()
	d := k.cfg.DefaultTimeout
	k.cfgMu.RUnlock()
	if d <= 0 {
		return opts
	}
	merged := make([]hook.Option, 0, len(opts)+1)
	merged = append(merged, hook.WithTimeout(d))
	return append(merged, opts...)
}

// Stats merges both registries' aggregates.
type Stats struct {
	// Actions is the action registry's snapshot.
	Actions stats.Snapshot

	// Filters is the filter registry's snapshot.
	Filters stats.Snapshot

	// TotalRegistrations counts live registrations of both kinds.
	TotalRegistrations uint64

	// TotalExecutions counts attempted executions of both kinds.
	TotalExecutions uint64

	// TotalErrors counts failed attempts of both kinds.
	TotalErrors uint64

	// AvgDuration is the execution-count weighted average across both
	// registries.
	AvgDuration time.Duration
}

// Stats returns the merged statistics of both registries.
func (k *Kernel) Stats() Stats {
	a := k.actions.Tracker().Snapshot()
	f := k.filters.Tracker().Snapshot()

	s := Stats{
		Actions:            a,
		Filters:            f,
		TotalRegistrations: a.Registrations + f.Registrations,
		TotalExecutions:    a.Executions + f.Executions,
		TotalErrors:        a.Errors + f.Errors,
	}
	if s.TotalExecutions > 0 {
		weighted := a.AvgDuration*time.Duration(a.Executions) +
			f.AvgDuration*time.Duration(f.Executions)
		s.AvgDuration = weighted / time.Duration(s.TotalExecutions)
	}
	return s
}
