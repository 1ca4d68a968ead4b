package hook

import "context"

// Kind identifies which pipeline a registration or execution belongs to.
type Kind string

const (
	// KindAction is a broadcast, non-value-returning extension point.
	KindAction Kind = "action"

	// KindFilter is a value-transformation extension point.
	KindFilter Kind = "filter"
)

// Callback is the capability stored by the action registry.
// Implementations receive the invocation arguments unchanged.
type Callback interface {
	// Invoke runs the callback with the invocation arguments.
	Invoke(ctx context.Context, args []any) error
}

// CallbackFunc is a function adapter for Callback.
type CallbackFunc func(ctx context.Context, args []any) error

// Invoke implements the Callback interface.
func (f CallbackFunc) Invoke(ctx context.Context, args []any) error {
	return f(ctx, args)
}

// FilterCallback is the capability stored by the filter registry.
// It receives the chain's current value plus the invocation arguments and
// returns the next value. Returning Skip leaves the current value unchanged.
type FilterCallback interface {
	// Apply transforms the current chain value.
	Apply(ctx context.Context, value any, args []any) (any, error)
}

// FilterCallbackFunc is a function adapter for FilterCallback.
type FilterCallbackFunc func(ctx context.Context, value any, args []any) (any, error)

// Apply implements the FilterCallback interface.
func (f FilterCallbackFunc) Apply(ctx context.Context, value any, args []any) (any, error) {
	return f(ctx, value, args)
}

// Condition is a predicate evaluated against the invocation arguments before
// a handler executes. Returning false skips the handler without recording an
// execution and without consuming once semantics.
type Condition func(args []any) bool

// ErrorCallback is an optional per-registration error handler. For filters
// its return value, when not Skip, replaces the chain's current value.
// A panic inside an ErrorCallback is swallowed.
type ErrorCallback func(err error, args []any) any

// skip is the unexported type behind the Skip sentinel.
type skip struct{}

// Skip is the "no value" sentinel for filter callbacks. A filter callback
// that returns Skip passes the chain's current value through unchanged.
// Returning nil is a real value: filters may legitimately produce nil.
var Skip any = skip{}

// IsSkip reports whether v is the pass-through sentinel.
func IsSkip(v any) bool {
	_, ok := v.(skip)
	return ok
}
