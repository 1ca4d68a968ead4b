// Package telemetry carries the kernel's outward event stream. The kernel
// emits an event on every registration, removal, execution, and error;
// delivery is asynchronous and best effort, and a failing or slow sink never
// affects kernel state.
package telemetry

import (
	"time"

	"github.com/coralcms/hookkit/internal/hook"
)

// EventType identifies one of the four emitted event kinds.
type EventType string

const (
	EventHookAdded    EventType = "hook:added"
	EventHookRemoved  EventType = "hook:removed"
	EventHookExecuted EventType = "hook:executed"
	EventHookError    EventType = "hook:error"
)

// Event is one outward telemetry event.
type Event struct {
	// Type is the event kind.
	Type EventType

	// Kind is the pipeline the event came from.
	Kind hook.Kind

	// Name is the hook or filter name.
	Name string

	// RegistrationID identifies the registration involved.
	RegistrationID string

	// Owner is the registration's owner.
	Owner string

	// Priority is set on added/removed events.
	Priority int

	// Duration is set on executed/error events.
	Duration time.Duration

	// Success is set on executed events.
	Success bool

	// Error is the failure message on error events.
	Error string
}

// Emitter is the outward event sink interface used by the registries.
type Emitter interface {
	// Emit delivers an event best effort. It must not block the caller
	// and must not panic into it.
	Emit(ev Event)
}

// nopEmitter discards all events.
type nopEmitter struct{}

func (nopEmitter) Emit(Event) {}

// Nop returns an emitter that discards all events.
func Nop() Emitter {
	return nopEmitter{}
}
