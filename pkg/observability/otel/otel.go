// Package otel configures OpenTelemetry tracing for beehive. The pool
// creates one span per task through the global tracer provider, so
// Initialize must run before pools are created for their spans to be
// exported.
package otel

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/exporters/zipkin"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// Exporter names accepted in Config.Exporter.
const (
	ExporterStdout = "stdout"
	ExporterZipkin = "zipkin"
	ExporterJaeger = "jaeger"
)

// Config configures tracing
type Config struct {
	Enabled        bool    `yaml:"enabled" json:"enabled"`
	ServiceName    string  `yaml:"service_name" json:"service_name"`
	ServiceVersion string  `yaml:"service_version" json:"service_version"`
	Environment    string  `yaml:"environment" json:"environment"`
	Exporter       string  `yaml:"exporter" json:"exporter"` // stdout, zipkin or jaeger
	Endpoint       string  `yaml:"endpoint" json:"endpoint"` // collector URL for zipkin and jaeger
	SampleRate     float64 `yaml:"sample_rate" json:"sample_rate"`
}

// DefaultConfig returns tracing disabled with stdout export at full sampling
func DefaultConfig() Config {
	return Config{
		ServiceName:    "beehive",
		ServiceVersion: "dev",
		Environment:    "development",
		Exporter:       ExporterStdout,
		SampleRate:     1.0,
	}
}

// Validate checks the exporter settings
func (c Config) Validate() error {
	if c.SampleRate < 0 || c.SampleRate > 1 {
		return fmt.Errorf("sample_rate %v not in [0, 1]", c.SampleRate)
	}
	switch c.Exporter {
	case ExporterStdout:
	case ExporterZipkin, ExporterJaeger:
		if c.Endpoint == "" {
			return fmt.Errorf("exporter %s requires an endpoint", c.Exporter)
		}
	default:
		return fmt.Errorf("unknown exporter %q", c.Exporter)
	}
	return nil
}

var (
	mu       sync.Mutex
	provider *sdktrace.TracerProvider

	// stdoutWriter receives spans from the stdout exporter
	stdoutWriter io.Writer = os.Stdout
)

// Initialize builds a tracer provider from cfg and installs it as the global
// provider together with W3C trace-context propagation. It returns nil and
// leaves the global no-op provider in place when cfg.Enabled is false.
func Initialize(ctx context.Context, cfg Config) (*sdktrace.TracerProvider, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("otel: %w", err)
	}

	exp, err := newExporter(cfg)
	if err != nil {
		return nil, fmt.Errorf("otel: create %s exporter: %w", cfg.Exporter, err)
	}

	res, err := resource.Merge(resource.Default(), resource.NewSchemaless(
		attribute.String("service.name", cfg.ServiceName),
		attribute.String("service.version", cfg.ServiceVersion),
		attribute.String("deployment.environment", cfg.Environment),
	))
	if err != nil {
		return nil, fmt.Errorf("otel: build resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRate))),
	)

	mu.Lock()
	old := provider
	provider = tp
	mu.Unlock()
	if old != nil {
		_ = old.Shutdown(ctx)
	}

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	return tp, nil
}

func newExporter(cfg Config) (sdktrace.SpanExporter, error) {
	switch cfg.Exporter {
	case ExporterStdout:
		return stdouttrace.New(stdouttrace.WithWriter(stdoutWriter))
	case ExporterZipkin:
		return zipkin.New(cfg.Endpoint)
	case ExporterJaeger:
		return jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(cfg.Endpoint)))
	}
	return nil, fmt.Errorf("unknown exporter %q", cfg.Exporter)
}

// IsInitialized reports whether Initialize installed a provider
func IsInitialized() bool {
	mu.Lock()
	defer mu.Unlock()
	return provider != nil
}

// Shutdown flushes and stops the provider installed by Initialize
func Shutdown(ctx context.Context) error {
	mu.Lock()
	tp := provider
	provider = nil
	mu.Unlock()

	if tp == nil {
		return nil
	}
	return tp.Shutdown(ctx)
}

// Tracer returns a tracer from the global provider
func Tracer(name string) trace.Tracer {
	return otel.Tracer(name)
}
