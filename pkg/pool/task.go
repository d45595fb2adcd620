package pool

import (
	"context"
)

// Task represents a unit of work executed by a bee.
// The pool never inspects what a task captures and never observes how it
// fails; reporting errors is the task's own business.
type Task interface {
	// Execute performs the task work
	Execute(ctx context.Context)

	// Name returns a human-readable name for the task (for logging/tracing)
	Name() string
}

// TaskFunc is a function type that implements Task
type TaskFunc func(ctx context.Context)

// Execute implements Task interface for TaskFunc
func (f TaskFunc) Execute(ctx context.Context) {
	f(ctx)
}

// Name returns a default name for TaskFunc
func (f TaskFunc) Name() string {
	return "TaskFunc"
}

// NamedTask wraps a TaskFunc with a custom name
type NamedTask struct {
	name string
	fn   TaskFunc
}

// NewNamedTask creates a new NamedTask
func NewNamedTask(name string, fn TaskFunc) *NamedTask {
	return &NamedTask{
		name: name,
		fn:   fn,
	}
}

// Execute implements Task interface
func (nt *NamedTask) Execute(ctx context.Context) {
	nt.fn(ctx)
}

// Name returns the task name
func (nt *NamedTask) Name() string {
	return nt.name
}

// Bind turns an entry point and its argument into a Task. The argument is
// captured when Bind is called; its lifetime is owned by the closure.
func Bind[T any](name string, fn func(ctx context.Context, arg T), arg T) Task {
	return NewNamedTask(name, func(ctx context.Context) {
		fn(ctx, arg)
	})
}

type taskIDKey struct{}

func withTaskID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, taskIDKey{}, id)
}

// TaskID returns the ID the pool assigned to the running task, or "" when
// ctx was not handed out by a pool.
func TaskID(ctx context.Context) string {
	if id, ok := ctx.Value(taskIDKey{}).(string); ok {
		return id
	}
	return ""
}
