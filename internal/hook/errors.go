package hook

import "errors"

// Sentinel errors for handler execution.
var (
	// ErrHandlerTimeout is recorded when a handler's timeout elapses
	// before the handler settles.
	ErrHandlerTimeout = errors.New("handler timeout exceeded")

	// ErrHandlerPanic is recorded when a handler panics.
	ErrHandlerPanic = errors.New("handler panicked")
)

// PanicError wraps a recovered panic value as an error.
type PanicError struct {
	// Value is the value passed to panic().
	Value any

	// Stack is the stack trace captured at recovery.
	Stack []byte
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return "handler panicked"
}

// Is allows errors.Is to match PanicError with ErrHandlerPanic.
func (e *PanicError) Is(target error) bool {
	return target == ErrHandlerPanic
}
