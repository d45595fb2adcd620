package pool

import "errors"

var (
	// ErrInvalidConfig is returned by New when the bee count or queue
	// capacity is out of range. No pool is created.
	ErrInvalidConfig = errors.New("invalid pool configuration")

	// ErrInvalidMode is returned for an unknown SubmitMode or ShutdownMode.
	ErrInvalidMode = errors.New("invalid mode")

	// ErrNilTask is returned when submitting a nil task
	ErrNilTask = errors.New("task cannot be nil")

	// ErrQueueFull is returned by a NoWait submission on a full queue (backpressure)
	ErrQueueFull = errors.New("queue is full")

	// ErrPoolClosed is returned when submitting after shutdown has started
	ErrPoolClosed = errors.New("pool is shut down")

	// ErrAlreadyShutdown is returned by every Shutdown call after the first
	ErrAlreadyShutdown = errors.New("shutdown already called")
)
