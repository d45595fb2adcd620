package pool

import "time"

// Observer is notified of pool events. QueueDepth is called with the pool
// mutex held, so implementations must be cheap and must not call back into
// the pool.
type Observer interface {
	TaskSubmitted()
	TaskRejected()
	TaskStarted()
	TaskFinished(elapsed time.Duration)
	TasksDiscarded(n int)
	QueueDepth(n int)
}

// NopObserver ignores every event.
type NopObserver struct{}

func (NopObserver) TaskSubmitted() {}
func (NopObserver) TaskRejected() {}
func (NopObserver) TaskStarted() {}
func (NopObserver) TaskFinished(time.Duration) {}
func (NopObserver) TasksDiscarded(int) {}
func (NopObserver) QueueDepth(int) {}
