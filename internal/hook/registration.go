package hook

import (
	"time"

	"github.com/google/uuid"
)

// Standard priorities. Any integer is valid; these cover the common cases.
const (
	// PriorityFirst runs before everything else (validation, access checks).
	PriorityFirst = 0

	// PriorityEarly runs before the default band.
	PriorityEarly = 5

	// PriorityDefault is assigned when a registration sets no priority.
	PriorityDefault = 10

	// PriorityLate runs after the default band (formatting, decoration).
	PriorityLate = 20

	// PriorityLast runs after everything else (audit, metrics).
	PriorityLast = 100
)

// Registration describes one installed handler for a hook or filter name.
// The zero of the optional fields means "not set".
type Registration struct {
	// ID uniquely identifies the registration for the lifetime of the
	// hook name's list.
	ID string

	// Name is the hook or filter name the registration is attached to.
	Name string

	// Owner identifies the component that registered the handler.
	// Used for bulk cleanup.
	Owner string

	// Priority orders execution; lower values run earlier. Ties are
	// broken by registration order.
	Priority int

	// RegisteredAt is when the registration was created.
	RegisteredAt time.Time

	// Once auto-removes the registration after its first attempted
	// execution, successful or not. Actions only; a condition skip does
	// not count as an attempt.
	Once bool

	// Condition, when set, gates execution per invocation.
	Condition Condition

	// Timeout, when positive, bounds one execution attempt. The timeout
	// is best effort: a timer win records a failure but does not stop
	// the underlying callback.
	Timeout time.Duration

	// OnError, when set, is called with the handler's failure.
	OnError ErrorCallback

	// seq is the registration sequence within one registry, used to keep
	// priority ties stable.
	seq uint64
}

// Seq returns the registry-assigned registration sequence number.
func (r *Registration) Seq() uint64 {
	return r.seq
}

// SetSeq assigns the registration sequence number. Called once by the
// owning registry at registration time.
func (r *Registration) SetSeq(n uint64) {
	r.seq = n
}

// Option configures a Registration.
type Option func(*Registration)

// WithPriority sets the registration priority. Lower values run earlier.
func WithPriority(p int) Option {
	return func(r *Registration) {
		r.Priority = p
	}
}

// WithOnce marks the registration for removal after its first attempted
// execution. Ignored by the filter registry.
func WithOnce() Option {
	return func(r *Registration) {
		r.Once = true
	}
}

// WithCondition sets a predicate gating execution per invocation.
func WithCondition(c Condition) Option {
	return func(r *Registration) {
		r.Condition = c
	}
}

// WithTimeout bounds one execution attempt. Non-positive values clear any
// previously applied timeout.
func WithTimeout(d time.Duration) Option {
	return func(r *Registration) {
		if d < 0 {
			d = 0
		}
		r.Timeout = d
	}
}

// WithOnError sets a per-registration error handler.
func WithOnError(fn ErrorCallback) Option {
	return func(r *Registration) {
		r.OnError = fn
	}
}

// NewRegistration builds a Registration with defaults applied, then the
// options in order (later options win).
func NewRegistration(name, owner string, opts ...Option) *Registration {
	r := &Registration{
		ID:           NewID(),
		Name:         name,
		Owner:        owner,
		Priority:     PriorityDefault,
		RegisteredAt: time.Now(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewID returns an opaque unique registration identifier.
func NewID() string {
	return uuid.NewString()
}
