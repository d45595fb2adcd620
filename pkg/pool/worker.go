package pool

import (
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// startBees starts the bee goroutines and closes done once all have exited.
func (p *Pool) startBees() {
	p.wg.Add(p.bees)
	for i := 0; i < p.bees; i++ {
		go p.bee(i)
	}
	go func() {
		p.wg.Wait()
		close(p.done)
	}()
}

// bee runs queued tasks until the pool stops running.
func (p *Pool) bee(id int) {
	defer p.wg.Done()
	p.logger.Debugf("%s: bee %d started", p.name, id)

	for {
		e, ok := p.next()
		if !ok {
			p.logger.Debugf("%s: bee %d stopped", p.name, id)
			return
		}
		p.run(id, e)
	}
}

// next blocks until a task is available or the pool stops. A stopped pool
// returns false even if tasks remain; Shutdown owns those.
func (p *Pool) next() (entry, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for p.queue.empty() && p.running {
		p.notEmpty.Wait()
	}
	if !p.running {
		return entry{}, false
	}
	return p.dequeueLocked(), true
}

// dequeueLocked pops the head and wakes blocked submitters if the queue
// was full. p.mu must be held.
func (p *Pool) dequeueLocked() entry {
	wasFull := p.queue.full()
	e := p.queue.pop()
	p.active++
	p.observer.QueueDepth(p.queue.len)
	if wasFull {
		p.notFull.Broadcast()
	}
	return e
}

// run executes one task outside the mutex. beeID is -1 when the task is
// drained by Shutdown on the caller's goroutine.
func (p *Pool) run(beeID int, e entry) {
	ctx, span := p.tracer.Start(withTaskID(p.ctx, e.id), "bee.task",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("pool.name", p.name),
			attribute.String("task.name", e.task.Name()),
			attribute.String("task.id", e.id),
			attribute.Int("bee.id", beeID),
		),
	)
	p.observer.TaskStarted()
	start := time.Now()

	e.task.Execute(ctx)

	elapsed := time.Since(start)
	span.End()

	p.mu.Lock()
	p.active--
	p.mu.Unlock()
	p.completed.Add(1)
	p.observer.TaskFinished(elapsed)
}
