// File: reactor/reactor.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Completion reactor: a FIFO of pending operations drained by workers.

package reactor

import (
	"runtime"
	"sync"

	"github.com/eapache/queue"
	"github.com/rs/zerolog"
	"github.com/someonegg/gox/syncx"

	"github.com/momentics/vee/api"
	"github.com/momentics/vee/control"
)

// Operation is one outstanding asynchronous request. The reactor calls exactly
// one of its methods, exactly once.
type Operation interface {
	// Execute performs the work and delivers the completion.
	Execute()
	// Abort delivers a failed completion without performing the work.
	Abort(err error)
}

// Config sizes a reactor.
type Config struct {
	Workers int // 0 = runtime.NumCPU()
}

// Option customizes a reactor.
type Option func(*Reactor)

// WithLogger sets the reactor's logger.
func WithLogger(log zerolog.Logger) Option {
	return func(r *Reactor) {
		r.log = log.With().Str("component", "reactor").Logger()
	}
}

// WithMetrics attaches a metrics registry.
func WithMetrics(m *control.Metrics) Option {
	return func(r *Reactor) {
		r.metrics = m
	}
}

// Reactor executes posted operations on worker goroutines.
type Reactor struct {
	mu      sync.Mutex
	cond    *sync.Cond
	pending *queue.Queue
	closed  bool
	active  int

	workers int
	wg      sync.WaitGroup
	stopD   syncx.DoneChan

	log     zerolog.Logger
	metrics *control.Metrics
}

// New starts a reactor with cfg.Workers workers.
func New(cfg Config, opts ...Option) *Reactor {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	r := &Reactor{
		pending: queue.New(),
		workers: cfg.Workers,
		stopD:   syncx.NewDoneChan(),
		log:     zerolog.Nop(),
	}
	r.cond = sync.NewCond(&r.mu)
	for _, opt := range opts {
		opt(r)
	}
	r.metrics.RegisterProbe("reactor.pending", func() any { return r.Pending() })
	r.metrics.RegisterProbe("reactor.workers", func() any { return r.workers })

	r.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go r.worker(i)
	}
	r.log.Debug().Int("workers", cfg.Workers).Msg("reactor started")
	return r
}

var (
	defaultOnce    sync.Once
	defaultReactor *Reactor
)

// Default returns the process-wide reactor, starting it on first use.
func Default() *Reactor {
	defaultOnce.Do(func() {
		defaultReactor = New(Config{})
	})
	return defaultReactor
}

// Post queues op. After Close, op is aborted immediately with
// api.ErrReactorClosed on the calling goroutine.
func (r *Reactor) Post(op Operation) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		r.abort(op, api.ErrReactorClosed)
		return
	}
	r.pending.Add(op)
	r.mu.Unlock()
	r.metrics.OpPosted()
	r.cond.Signal()
}

// Go posts a function pair as an operation.
func (r *Reactor) Go(execute func(), abort func(error)) {
	r.Post(funcOp{execute: execute, abort: abort})
}

// Pending returns the number of queued, not yet started operations.
func (r *Reactor) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pending.Length()
}

// Active returns the number of operations currently executing.
func (r *Reactor) Active() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// Done is signalled once Close has finished.
func (r *Reactor) Done() syncx.DoneChanR {
	return r.stopD.R()
}

// Close stops accepting work, waits for executing operations to return and
// aborts every queued one with api.ErrReactorClosed. A second call waits for
// the first to finish.
func (r *Reactor) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		<-r.stopD
		return nil
	}
	r.closed = true
	r.mu.Unlock()
	r.cond.Broadcast()
	r.wg.Wait()

	r.mu.Lock()
	var leftovers []Operation
	for r.pending.Length() > 0 {
		leftovers = append(leftovers, r.pending.Remove().(Operation))
	}
	r.mu.Unlock()
	for _, op := range leftovers {
		r.abort(op, api.ErrReactorClosed)
	}
	r.log.Debug().Int("aborted", len(leftovers)).Msg("reactor stopped")
	r.stopD.SetDone()
	return nil
}

func (r *Reactor) worker(id int) {
	defer r.wg.Done()
	for {
		r.mu.Lock()
		for r.pending.Length() == 0 && !r.closed {
			r.cond.Wait()
		}
		if r.closed {
			r.mu.Unlock()
			return
		}
		op := r.pending.Remove().(Operation)
		r.active++
		r.mu.Unlock()

		r.execute(id, op)

		r.mu.Lock()
		r.active--
		r.mu.Unlock()
	}
}

// execute keeps the worker alive across a panicking completion target.
func (r *Reactor) execute(id int, op Operation) {
	defer func() {
		if p := recover(); p != nil {
			r.metrics.OpPanicked()
			r.log.Error().Int("worker", id).Interface("panic", p).Msg("operation panicked")
		}
	}()
	op.Execute()
	r.metrics.OpCompleted()
}

func (r *Reactor) abort(op Operation, err error) {
	defer func() {
		if p := recover(); p != nil {
			r.metrics.OpPanicked()
			r.log.Error().Interface("panic", p).Msg("abort panicked")
		}
	}()
	op.Abort(err)
	r.metrics.OpAborted()
}

type funcOp struct {
	execute func()
	abort   func(error)
}

func (f funcOp) Execute() { f.execute() }

func (f funcOp) Abort(err error) {
	if f.abort != nil {
		f.abort(err)
	}
}
