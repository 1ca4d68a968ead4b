package telemetry

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// Sentinel errors for the channel emitter.
var (
	// ErrEmitterNotRunning is returned when Stop is called before Start.
	ErrEmitterNotRunning = errors.New("telemetry emitter is not running")

	// ErrEmitterAlreadyRunning is returned when Start is called twice.
	ErrEmitterAlreadyRunning = errors.New("telemetry emitter is already running")
)

// Sink receives delivered events, typically bridging into the host's
// event-bus/broadcast subsystem. A Sink may fail or panic; the emitter
// contains both.
type Sink interface {
	Publish(ev Event) error
}

// SinkFunc is a function adapter for Sink.
type SinkFunc func(ev Event) error

// Publish implements the Sink interface.
func (f SinkFunc) Publish(ev Event) error {
	return f(ev)
}

// ChannelEmitter delivers events to a Sink through a bounded queue serviced
// by worker goroutines. Events are dropped, not queued, when the queue is
// full, and a sink failure or panic is counted and discarded.
type ChannelEmitter struct {
	sink        Sink
	queueSize   int
	workerCount int

	mu      sync.Mutex
	queue   chan Event
	running atomic.Bool
	wg      sync.WaitGroup

	emitted   atomic.Uint64
	delivered atomic.Uint64
	dropped   atomic.Uint64
	failed    atomic.Uint64
}

// EmitterOption configures a ChannelEmitter.
type EmitterOption func(*ChannelEmitter)

// WithQueueSize sets the event queue size.
func WithQueueSize(size int) EmitterOption {
	return func(e *ChannelEmitter) {
		if size > 0 {
			e.queueSize = size
		}
	}
}

// WithWorkerCount sets the number of delivery goroutines.
func WithWorkerCount(count int) EmitterOption {
	return func(e *ChannelEmitter) {
		if count > 0 {
			e.workerCount = count
		}
	}
}

// NewChannelEmitter creates an emitter delivering to sink.
func NewChannelEmitter(sink Sink, opts ...EmitterOption) *ChannelEmitter {
	e := &ChannelEmitter{
		sink:        sink,
		queueSize:   1024,
		workerCount: 1,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start starts the delivery workers.
func (e *ChannelEmitter) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.running.Load() {
		return ErrEmitterAlreadyRunning
	}

	e.queue = make(chan Event, e.queueSize)
	e.running.Store(true)

	for i := 0; i < e.workerCount; i++ {
		e.wg.Add(1)
		go e.worker()
	}
	return nil
}

// Stop drains the queue and stops the workers. It returns early if the
// context is cancelled first.
func (e *ChannelEmitter) Stop(ctx context.Context) error {
	e.mu.Lock()
	if !e.running.Load() {
		e.mu.Unlock()
		return ErrEmitterNotRunning
	}
	e.running.Store(false)
	close(e.queue)
	e.mu.Unlock()

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Emit implements the Emitter interface. It never blocks: when the queue is
// full or the emitter is stopped the event is dropped.
func (e *ChannelEmitter) Emit(ev Event) {
	// Stop can close the queue between the running check and the send;
	// the recover turns that into a drop.
	defer func() {
		if recover() != nil {
			e.dropped.Add(1)
		}
	}()

	if !e.running.Load() {
		e.dropped.Add(1)
		return
	}

	e.emitted.Add(1)
	select {
	case e.queue <- ev:
	default:
		e.dropped.Add(1)
	}
}

// Stats reports delivery counters: emitted, delivered, dropped, failed.
func (e *ChannelEmitter) Stats() (emitted, delivered, dropped, failed uint64) {
	return e.emitted.Load(), e.delivered.Load(), e.dropped.Load(), e.failed.Load()
}

// worker drains the queue until it is closed.
func (e *ChannelEmitter) worker() {
	defer e.wg.Done()

	for ev := range e.queue {
		if err := e.publish(ev); err != nil {
			e.failed.Add(1)
			continue
		}
		e.delivered.Add(1)
	}
}

// publish calls the sink with panic containment.
func (e *ChannelEmitter) publish(ev Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.New("telemetry sink panicked")
		}
	}()
	return e.sink.Publish(ev)
}
