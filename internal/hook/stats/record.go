package stats

import (
	"time"

	"github.com/coralcms/hookkit/internal/hook"
)

// History bounds. On reaching the limit the history is compacted to the
// newest compact-size entries.
const (
	DefaultHistoryLimit   = 10_000
	DefaultHistoryCompact = 5_000
)

// Record describes one attempted handler execution.
type Record struct {
	// HookName is the extension point name.
	HookName string

	// Kind is action or filter.
	Kind hook.Kind

	// Owner is the registration's owner.
	Owner string

	// ExecutedAt is when the attempt started.
	ExecutedAt time.Time

	// Duration is how long the attempt took.
	Duration time.Duration

	// Success is false for errors, panics, and timeouts.
	Success bool

	// Error is the failure message, empty on success.
	Error string

	// ResultSummary is a short rendering of a filter stage's output.
	// Empty for actions.
	ResultSummary string
}

// History is an append-only, bounded execution record buffer. It is not
// safe for concurrent use on its own; the Tracker serializes access.
type History struct {
	records []Record
	limit   int
	compact int
}

// NewHistory creates a history with the given bounds. Non-positive or
// inconsistent bounds fall back to the defaults.
func NewHistory(limit, compact int) *History {
	if limit <= 0 || compact <= 0 || compact >= limit {
		limit = DefaultHistoryLimit
		compact = DefaultHistoryCompact
	}
	return &History{
		records: make([]Record, 0, compact),
		limit:   limit,
		compact: compact,
	}
}

// Append adds a record, compacting to the newest entries when the limit
// is reached.
func (h *History) Append(rec Record) {
	if len(h.records) >= h.limit {
		kept := h.records[len(h.records)-h.compact:]
		next := make([]Record, len(kept), h.limit)
		copy(next, kept)
		h.records = next
	}
	h.records = append(h.records, rec)
}

// Len returns the number of retained records.
func (h *History) Len() int {
	return len(h.records)
}

// Recent returns up to n records, newest last. A non-positive n returns all
// retained records. The returned slice is a copy.
func (h *History) Recent(n int) []Record {
	if n <= 0 || n > len(h.records) {
		n = len(h.records)
	}
	out := make([]Record, n)
	copy(out, h.records[len(h.records)-n:])
	return out
}

// Clear drops all retained records.
func (h *History) Clear() {
	h.records = h.records[:0]
}
