package jobs

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/fluxorio/beehive/pkg/logger"
	"github.com/fluxorio/beehive/pkg/pool"
)

// ErrUnknownJob is returned when no handler is registered for a kind
var ErrUnknownJob = errors.New("unknown job kind")

// Handler runs one job. payload is the raw request body; an empty payload
// is valid and means "use defaults".
type Handler func(ctx context.Context, payload []byte) error

// Registry maps job kinds to handlers and turns requests into pool tasks.
// Transports (admin HTTP, NATS intake) share one registry.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
	logger   logger.Logger
}

// NewRegistry creates an empty registry. Handler failures are logged to l.
func NewRegistry(l logger.Logger) *Registry {
	if l == nil {
		l = logger.NewDefaultLogger()
	}
	return &Registry{
		handlers: make(map[string]Handler),
		logger:   l,
	}
}

// Register adds a handler for kind.
func (r *Registry) Register(kind string, h Handler) error {
	if kind == "" {
		return fmt.Errorf("job kind cannot be empty")
	}
	if h == nil {
		return fmt.Errorf("job %s: handler cannot be nil", kind)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.handlers[kind]; exists {
		return fmt.Errorf("job %s: already registered", kind)
	}
	r.handlers[kind] = h
	return nil
}

// Kinds returns the registered kinds in sorted order.
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]string, 0, len(r.handlers))
	for k := range r.handlers {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// Task builds a pool task that runs the handler for kind with payload.
// The payload is copied, so callers may reuse their buffer (fasthttp does).
func (r *Registry) Task(kind string, payload []byte) (pool.Task, error) {
	r.mu.RLock()
	h, ok := r.handlers[kind]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownJob, kind)
	}

	body := append([]byte(nil), payload...)
	return pool.Bind("job."+kind, func(ctx context.Context, body []byte) {
		if err := h(ctx, body); err != nil {
			r.logger.Errorf("job %s (task %s) failed: %v", kind, pool.TaskID(ctx), err)
		}
	}, body), nil
}
