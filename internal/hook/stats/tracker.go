package stats

import (
	"sort"
	"sync"
	"time"

	"github.com/coralcms/hookkit/internal/hook"
)

// HookMetrics holds per-hook-name execution detail.
type HookMetrics struct {
	Name           string
	ExecutionCount uint64
	ErrorCount     uint64
	TotalDuration  time.Duration
	MinDuration    time.Duration
	MaxDuration    time.Duration
	LastExecutedAt time.Time
	LastSuccess    bool
}

// AvgDuration returns the running average execution duration for the hook.
func (m *HookMetrics) AvgDuration() time.Duration {
	if m.ExecutionCount == 0 {
		return 0
	}
	return m.TotalDuration / time.Duration(m.ExecutionCount)
}

// Snapshot is a point-in-time copy of a tracker's aggregates.
type Snapshot struct {
	// Registrations is the current number of live registrations.
	Registrations uint64

	// Executions is the total number of attempted handler executions.
	Executions uint64

	// Errors is the total number of failed attempts.
	Errors uint64

	// AvgDuration is the running average attempt duration.
	AvgDuration time.Duration

	// ByOwner maps owner name to live registration count.
	ByOwner map[string]uint64

	// ByHook maps hook name to execution count.
	ByHook map[string]uint64

	// Slowest ranks up to ten hook names by average duration, slowest
	// first.
	Slowest []HookMetrics
}

// slowestLimit bounds the Slowest ranking.
const slowestLimit = 10

// Tracker accumulates registration and execution accounting for one
// registry. It is safe for concurrent use.
type Tracker struct {
	mu sync.RWMutex

	kind hook.Kind

	registrations uint64
	executions    uint64
	errors        uint64
	totalDuration time.Duration

	byOwner map[string]uint64
	byHook  map[string]*HookMetrics

	history *History
}

// NewTracker creates a tracker for the given pipeline kind with default
// history bounds.
func NewTracker(kind hook.Kind) *Tracker {
	return NewTrackerWithHistory(kind, DefaultHistoryLimit, DefaultHistoryCompact)
}

// NewTrackerWithHistory creates a tracker with explicit history bounds.
func NewTrackerWithHistory(kind hook.Kind, limit, compact int) *Tracker {
	return &Tracker{
		kind:    kind,
		byOwner: make(map[string]uint64),
		byHook:  make(map[string]*HookMetrics),
		history: NewHistory(limit, compact),
	}
}

// Kind returns the pipeline kind the tracker accounts for.
func (t *Tracker) Kind() hook.Kind {
	return t.kind
}

// RecordRegistration accounts for a new registration by owner.
func (t *Tracker) RecordRegistration(owner string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.registrations++
	t.byOwner[owner]++
}

// RecordRemoval accounts for a removed registration. Counters never go
// negative.
func (t *Tracker) RecordRemoval(owner string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.registrations > 0 {
		t.registrations--
	}
	if n := t.byOwner[owner]; n > 1 {
		t.byOwner[owner] = n - 1
	} else {
		delete(t.byOwner, owner)
	}
}

// RecordExecution accounts for one attempted handler execution and appends
// an execution record.
func (t *Tracker) RecordExecution(rec Record) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.executions++
	t.totalDuration += rec.Duration
	if !rec.Success {
		t.errors++
	}

	m := t.byHook[rec.HookName]
	if m == nil {
		m = &HookMetrics{
			Name:        rec.HookName,
			MinDuration: rec.Duration,
			MaxDuration: rec.Duration,
		}
		t.byHook[rec.HookName] = m
	}

	m.ExecutionCount++
	m.TotalDuration += rec.Duration
	m.LastExecutedAt = rec.ExecutedAt
	m.LastSuccess = rec.Success
	if !rec.Success {
		m.ErrorCount++
	}
	if rec.Duration < m.MinDuration {
		m.MinDuration = rec.Duration
	}
	if rec.Duration > m.MaxDuration {
		m.MaxDuration = rec.Duration
	}

	t.history.Append(rec)
}

// Executions returns the total attempted execution count.
func (t *Tracker) Executions() uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.executions
}

// Errors returns the total failed attempt count.
func (t *Tracker) Errors() uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.errors
}

// Registrations returns the live registration count.
func (t *Tracker) Registrations() uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.registrations
}

// HookMetrics returns a copy of the metrics for one hook name, or false if
// the hook has never executed.
func (t *Tracker) HookMetrics(name string) (HookMetrics, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	m, ok := t.byHook[name]
	if !ok {
		return HookMetrics{}, false
	}
	return *m, true
}

// Recent returns up to n execution records, newest last.
func (t *Tracker) Recent(n int) []Record {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.history.Recent(n)
}

// Snapshot returns a point-in-time copy of all aggregates.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()

	snap := Snapshot{
		Registrations: t.registrations,
		Executions:    t.executions,
		Errors:        t.errors,
		ByOwner:       make(map[string]uint64, len(t.byOwner)),
		ByHook:        make(map[string]uint64, len(t.byHook)),
	}
	if t.executions > 0 {
		snap.AvgDuration = t.totalDuration / time.Duration(t.executions)
	}
	for owner, n := range t.byOwner {
		snap.ByOwner[owner] = n
	}

	ranked := make([]HookMetrics, 0, len(t.byHook))
	for name, m := range t.byHook {
		snap.ByHook[name] = m.ExecutionCount
		ranked = append(ranked, *m)
	}
	sort.Slice(ranked, func(i, j int) bool {
		ai, aj := ranked[i].AvgDuration(), ranked[j].AvgDuration()
		if ai != aj {
			return ai > aj
		}
		return ranked[i].Name < ranked[j].Name
	})
	if len(ranked) > slowestLimit {
		ranked = ranked[:slowestLimit]
	}
	snap.Slowest = ranked

	return snap
}

// Reset clears all aggregates and the execution history.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.registrations = 0
	t.executions = 0
	t.errors = 0
	t.totalDuration = 0
	t.byOwner = make(map[string]uint64)
	t.byHook = make(map[string]*HookMetrics)
	t.history.Clear()
}
