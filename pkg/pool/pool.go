package pool

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/fluxorio/beehive/pkg/logger"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// Pool is a fixed set of bees consuming a bounded FIFO queue.
// All methods are safe for concurrent use.
type Pool struct {
	name string
	bees int
	ctx  context.Context

	// mu guards queue, running and active. notEmpty and notFull are bound to it.
	mu       sync.Mutex
	notEmpty *sync.Cond
	notFull  *sync.Cond
	queue    *ring
	running  bool
	active   int

	wg   sync.WaitGroup
	done chan struct{}

	submitted atomic.Int64
	rejected  atomic.Int64
	completed atomic.Int64
	discarded atomic.Int64

	logger   logger.Logger
	tracer   trace.Tracer
	observer Observer
}

// New creates a pool of cfg.Bees bees and a queue of
// max(cfg.QueueCapacity, cfg.Bees) slots. The bees are started before New
// returns and the pool accepts submissions immediately.
func New(cfg Config, opts ...Option) (*Pool, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	p := &Pool{
		name:     o.name,
		bees:     cfg.Bees,
		ctx:      o.ctx,
		queue:    newRing(max(cfg.QueueCapacity, cfg.Bees)),
		running:  true,
		done:     make(chan struct{}),
		logger:   o.logger,
		tracer:   o.tracer,
		observer: o.observer,
	}
	p.notEmpty = sync.NewCond(&p.mu)
	p.notFull = sync.NewCond(&p.mu)

	p.startBees()

	return p, nil
}

// Submit queues task for execution.
//
// On a full queue, Wait blocks until a bee frees a slot and NoWait returns
// ErrQueueFull. Once Shutdown has started every call returns ErrPoolClosed,
// including Wait calls that were already blocked.
func (p *Pool) Submit(task Task, mode SubmitMode) error {
	if task == nil {
		return ErrNilTask
	}
	if mode != Wait && mode != NoWait {
		return fmt.Errorf("%w: %v", ErrInvalidMode, mode)
	}

	id := uuid.NewString()

	p.mu.Lock()
	for p.running && p.queue.full() {
		if mode == NoWait {
			p.mu.Unlock()
			p.rejected.Add(1)
			p.observer.TaskRejected()
			return ErrQueueFull
		}
		p.notFull.Wait()
	}
	if !p.running {
		p.mu.Unlock()
		return ErrPoolClosed
	}

	p.queue.push(entry{task: task, id: id})
	p.observer.QueueDepth(p.queue.len)
	p.notEmpty.Signal()
	p.mu.Unlock()

	p.submitted.Add(1)
	p.observer.TaskSubmitted()
	return nil
}

// SubmitFunc is shorthand for Submit(NewNamedTask(name, fn), mode).
func (p *Pool) SubmitFunc(name string, fn TaskFunc, mode SubmitMode) error {
	if fn == nil {
		return ErrNilTask
	}
	return p.Submit(NewNamedTask(name, fn), mode)
}

// Shutdown stops the pool. It must be called exactly once; later calls
// return ErrAlreadyShutdown.
//
// Complete executes every queued task on the calling goroutine before
// joining the bees. Discard drops queued tasks. Either way a bee that is
// running a task finishes it first. ctx bounds only the wait for bees to
// exit; the drain itself cannot be aborted.
func (p *Pool) Shutdown(ctx context.Context, mode ShutdownMode) error {
	if mode != Complete && mode != Discard {
		return fmt.Errorf("%w: %v", ErrInvalidMode, mode)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return ErrAlreadyShutdown
	}
	p.running = false
	p.notEmpty.Broadcast()
	p.notFull.Broadcast()

	drained, discarded := 0, 0
	switch mode {
	case Complete:
		for !p.queue.empty() {
			e := p.dequeueLocked()
			p.mu.Unlock()
			p.run(-1, e)
			drained++
			p.mu.Lock()
		}
	case Discard:
		discarded = p.queue.reset()
		p.observer.QueueDepth(0)
	}
	p.mu.Unlock()

	if discarded > 0 {
		p.discarded.Add(int64(discarded))
		p.observer.TasksDiscarded(discarded)
	}
	p.logger.Infof("%s: shutdown (%s) drained=%d discarded=%d, waiting for %d bees", p.name, mode, drained, discarded, p.bees)

	select {
	case <-p.done:
		p.logger.Infof("%s: all bees stopped", p.name)
		return nil
	case <-ctx.Done():
		return fmt.Errorf("shutdown timeout: %w", ctx.Err())
	}
}

// Done is closed once every bee has exited.
func (p *Pool) Done() <-chan struct{} {
	return p.done
}

// Name returns the pool name
func (p *Pool) Name() string {
	return p.name
}

// Bees returns the number of bee goroutines
func (p *Pool) Bees() int {
	return p.bees
}

// Capacity returns the effective queue capacity
func (p *Pool) Capacity() int {
	return p.queue.capacity()
}

// IsRunning reports whether the pool still accepts submissions
func (p *Pool) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}
