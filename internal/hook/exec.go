package hook

import (
	"context"
	"runtime/debug"
	"time"
)

// Result describes one handler execution attempt.
type Result struct {
	// Value is the callback's return value (filters only).
	Value any

	// Err is the failure, if any. Panics and timeouts surface here as
	// PanicError and ErrHandlerTimeout respectively.
	Err error

	// Duration is how long the attempt took. For a timed-out attempt it
	// is the elapsed time until the timer fired.
	Duration time.Duration

	// TimedOut is true when the attempt failed because the timer won the
	// race. The underlying callback keeps running; its eventual result
	// is discarded.
	TimedOut bool
}

// Success reports whether the attempt completed without error.
func (r Result) Success() bool {
	return r.Err == nil
}

// runFunc is the type-erased body executed by Run. Action callbacks return
// (nil, err); filter callbacks return their next chain value.
type runFunc func(ctx context.Context) (any, error)

// inlineKey marks contexts whose handlers must execute on the calling
// goroutine.
type inlineKey struct{}

// WithInline marks ctx so Run executes handlers on the calling goroutine
// instead of racing them against a timer. A registration timeout still
// reaches the handler as a context deadline, so cooperative handlers stop on
// time; a non-cooperative handler runs to completion. Dispatchers whose
// handlers share goroutine-bound state (a plugin re-entering its own
// interpreter) use this to keep execution single-threaded.
func WithInline(ctx context.Context) context.Context {
	return context.WithValue(ctx, inlineKey{}, true)
}

// IsInline reports whether ctx carries the inline execution marker.
func IsInline(ctx context.Context) bool {
	return ctx.Value(inlineKey{}) != nil
}

// Run executes fn with panic recovery and, when timeout is positive, races
// it against a timer. A timer win records ErrHandlerTimeout and returns
// immediately; the callback is not forcibly stopped. The context passed to
// fn carries the timeout so cooperative callbacks can stop early. For inline
// contexts the timer race is skipped and only the deadline applies.
func Run(ctx context.Context, timeout time.Duration, fn runFunc) Result {
	if timeout <= 0 {
		return execute(ctx, fn)
	}

	if IsInline(ctx) {
		cctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return execute(cctx, fn)
	}

	cctx, cancel := context.WithTimeout(ctx, timeout)

	start := time.Now()
	done := make(chan Result, 1)
	go func() {
		defer cancel()
		done <- execute(cctx, fn)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case res := <-done:
		return res
	case <-timer.C:
		return Result{
			Err:      ErrHandlerTimeout,
			Duration: time.Since(start),
			TimedOut: true,
		}
	}
}

// execute runs fn in the calling goroutine with panic recovery and timing.
func execute(ctx context.Context, fn runFunc) (res Result) {
	start := time.Now()

	defer func() {
		res.Duration = time.Since(start)
		if r := recover(); r != nil {
			res.Value = nil
			res.Err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()

	res.Value, res.Err = fn(ctx)
	return res
}
