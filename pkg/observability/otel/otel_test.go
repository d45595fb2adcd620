package otel

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fluxorio/beehive/pkg/logger"
	"github.com/fluxorio/beehive/pkg/pool"
)

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"default", func(c *Config) {}, false},
		{"zipkin with endpoint", func(c *Config) { c.Exporter = ExporterZipkin; c.Endpoint = "http://localhost:9411/api/v2/spans" }, false},
		{"jaeger without endpoint", func(c *Config) { c.Exporter = ExporterJaeger }, true},
		{"unknown exporter", func(c *Config) { c.Exporter = "otlp" }, true},
		{"negative sample rate", func(c *Config) { c.SampleRate = -0.1 }, true},
		{"sample rate above one", func(c *Config) { c.SampleRate = 1.5 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestInitialize_Disabled(t *testing.T) {
	tp, err := Initialize(context.Background(), DefaultConfig())
	if err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if tp != nil {
		t.Error("Initialize() should return a nil provider when disabled")
	}
	if IsInitialized() {
		t.Error("IsInitialized() should be false when disabled")
	}
}

func TestInitialize_InvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = true
	cfg.Exporter = "otlp"

	if _, err := Initialize(context.Background(), cfg); err == nil {
		t.Error("Initialize() should fail for an unknown exporter")
	}
}

func TestInitialize_CollectorExporters(t *testing.T) {
	for _, exp := range []string{ExporterZipkin, ExporterJaeger} {
		t.Run(exp, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Enabled = true
			cfg.Exporter = exp
			cfg.Endpoint = "http://127.0.0.1:1/collect"

			tp, err := Initialize(context.Background(), cfg)
			if err != nil {
				t.Fatalf("Initialize() error = %v", err)
			}
			if tp == nil || !IsInitialized() {
				t.Fatal("Initialize() should install a provider")
			}

			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			Shutdown(ctx) // nothing listens on the endpoint; an export error is expected
			if IsInitialized() {
				t.Error("IsInitialized() should be false after Shutdown")
			}
		})
	}
}

func TestInitialize_StdoutExportsTaskSpans(t *testing.T) {
	out := &lockedBuffer{}
	prev := stdoutWriter
	stdoutWriter = out
	defer func() { stdoutWriter = prev }()

	cfg := DefaultConfig()
	cfg.Enabled = true
	cfg.ServiceName = "beehive-test"

	if _, err := Initialize(context.Background(), cfg); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}

	p, err := pool.New(pool.Config{Bees: 2, QueueCapacity: 4},
		pool.WithName("traced"),
		pool.WithLogger(logger.Nop()),
	)
	if err != nil {
		t.Fatalf("pool.New() error = %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := p.SubmitFunc("traced-task", func(ctx context.Context) {}, pool.Wait); err != nil {
			t.Fatalf("Submit() error = %v", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.Shutdown(ctx, pool.Complete); err != nil {
		t.Fatalf("pool Shutdown() error = %v", err)
	}
	if err := Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}

	got := out.String()
	if n := strings.Count(got, `"Name":"bee.task"`); n != 3 {
		t.Errorf("exported %d bee.task spans, want 3\n%s", n, got)
	}
	if !strings.Contains(got, "beehive-test") {
		t.Error("exported spans should carry the service name resource")
	}
	if !strings.Contains(got, "traced-task") {
		t.Error("exported spans should carry the task name attribute")
	}
}

func TestShutdown_NotInitialized(t *testing.T) {
	if err := Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() error = %v, want nil", err)
	}
}
