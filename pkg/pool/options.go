package pool

import (
	"context"
	"fmt"

	"github.com/fluxorio/beehive/pkg/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const (
	// MaxBees is the largest bee count New accepts.
	MaxBees = 20
	// MaxQueueCapacity is the largest queue capacity New accepts.
	MaxQueueCapacity = 200

	instrumentationName = "github.com/fluxorio/beehive/pkg/pool"
)

// Config configures a Pool
type Config struct {
	Bees          int `yaml:"bees" json:"bees"`                     // Number of bee goroutines
	QueueCapacity int `yaml:"queue_capacity" json:"queue_capacity"` // Requested queue capacity, raised to Bees if smaller
}

// DefaultConfig returns default pool configuration
func DefaultConfig() Config {
	return Config{
		Bees:          4,
		QueueCapacity: 16,
	}
}

func (c Config) validate() error {
	if c.Bees < 1 || c.Bees > MaxBees {
		return fmt.Errorf("%w: bees %d not in [1, %d]", ErrInvalidConfig, c.Bees, MaxBees)
	}
	if c.QueueCapacity < 0 || c.QueueCapacity > MaxQueueCapacity {
		return fmt.Errorf("%w: queue capacity %d not in [0, %d]", ErrInvalidConfig, c.QueueCapacity, MaxQueueCapacity)
	}
	return nil
}

// Option customizes a Pool at construction.
type Option func(*options)

type options struct {
	name     string
	ctx      context.Context
	logger   logger.Logger
	tracer   trace.Tracer
	observer Observer
}

func defaultOptions() options {
	return options{
		name:     "pool",
		ctx:      context.Background(),
		logger:   logger.NewDefaultLogger(),
		tracer:   otel.Tracer(instrumentationName),
		observer: NopObserver{},
	}
}

// WithName sets the name used in log lines and span attributes.
func WithName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.name = name
		}
	}
}

// WithContext sets the base context handed to every task.
func WithContext(ctx context.Context) Option {
	return func(o *options) {
		if ctx != nil {
			o.ctx = ctx
		}
	}
}

// WithLogger sets the pool logger.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithTracer sets the tracer used to wrap each task in a span.
// Defaults to the global OpenTelemetry provider.
func WithTracer(t trace.Tracer) Option {
	return func(o *options) {
		if t != nil {
			o.tracer = t
		}
	}
}

// WithObserver sets the observer notified of queue and task events.
func WithObserver(obs Observer) Option {
	return func(o *options) {
		if obs != nil {
			o.observer = obs
		}
	}
}
