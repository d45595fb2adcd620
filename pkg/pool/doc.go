// Package pool implements a fixed-size pool of worker goroutines ("bees")
// fed by a bounded circular task queue.
//
// A Pool is created with New and destroyed by exactly one call to Shutdown.
// Tasks are submitted with Submit in one of two modes:
//
//   - Wait blocks the caller while the queue is full.
//   - NoWait returns ErrQueueFull immediately instead of blocking.
//
// Shutdown either drains the queue on the calling goroutine (Complete) or
// drops every task that has not been dequeued yet (Discard). In both modes
// bees finish the task they are running, exit, and are joined before
// Shutdown returns. Submissions made after Shutdown has started, including
// Wait submissions that were blocked at that moment, fail with ErrPoolClosed.
//
// A single mutex guards the queue and the running flag. Bees wait on a
// "not empty" condition and blocked submitters on a "not full" condition;
// tasks always execute outside the mutex.
package pool
