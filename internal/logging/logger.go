// Package logging defines the logging sink the kernel reports into.
//
// The kernel treats the logger as an external collaborator: failures inside
// a Logger implementation must never reach kernel state, so registries log
// through Protect.
package logging

// Logger is the interface for the kernel's logging sink. Context is passed
// as alternating key/value pairs.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// nopLogger discards everything.
type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// Nop returns a logger that discards all output.
func Nop() Logger {
	return nopLogger{}
}

// protected wraps a Logger so that a panic in the underlying sink is
// swallowed instead of propagating into the caller.
type protected struct {
	l Logger
}

// Protect returns a Logger whose methods never panic. A nil logger becomes
// a nop logger.
func Protect(l Logger) Logger {
	if l == nil {
		return Nop()
	}
	if _, ok := l.(protected); ok {
		return l
	}
	return protected{l: l}
}

func (p protected) Debug(msg string, kv ...any) { p.call(p.l.Debug, msg, kv) }
func (p protected) Info(msg string, kv ...any)  { p.call(p.l.Info, msg, kv) }
func (p protected) Warn(msg string, kv ...any)  { p.call(p.l.Warn, msg, kv) }
func (p protected) Error(msg string, kv ...any) { p.call(p.l.Error, msg, kv) }

func (protected) call(fn func(string, ...any), msg string, kv []any) {
	defer func() {
		_ = recover()
	}()
	fn(msg, kv...)
}
