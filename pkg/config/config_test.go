package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fluxorio/beehive/pkg/pool"
)

func TestDefault_Valid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() error = %v", err)
	}

	pc := cfg.PoolConfig()
	if pc != pool.DefaultConfig() {
		t.Errorf("PoolConfig() = %+v, want %+v", pc, pool.DefaultConfig())
	}
	if m, err := cfg.SubmitMode(); err != nil || m != pool.Wait {
		t.Errorf("SubmitMode() = %v, %v, want wait", m, err)
	}
	if m, err := cfg.ShutdownMode(); err != nil || m != pool.Complete {
		t.Errorf("ShutdownMode() = %v, %v, want complete", m, err)
	}
	if cfg.Admin.Addr != "127.0.0.1:8080" {
		t.Errorf("Admin.Addr = %q, want loopback", cfg.Admin.Addr)
	}
}

func TestLoad_YAML(t *testing.T) {
	path := createTempFile(t, "beehive.yaml", `
log:
  level: debug
pool:
  name: images
  bees: 8
  queue_capacity: 64
  submit_mode: nowait
  shutdown_mode: discard
  shutdown_timeout: 1m30s
admin:
  addr: "127.0.0.1:9090"
  jwt_secret: "s3cret"
intake:
  enabled: true
  url: "nats://nats:4222"
  subject: "images.jobs"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Pool.Name != "images" {
		t.Errorf("Pool.Name = %v, want images", cfg.Pool.Name)
	}
	if cfg.Pool.Bees != 8 || cfg.Pool.QueueCapacity != 64 {
		t.Errorf("Pool = %d bees / %d slots, want 8 / 64", cfg.Pool.Bees, cfg.Pool.QueueCapacity)
	}
	if cfg.Pool.ShutdownTimeout.Std() != 90*time.Second {
		t.Errorf("Pool.ShutdownTimeout = %v, want 1m30s", cfg.Pool.ShutdownTimeout.Std())
	}
	if m, _ := cfg.SubmitMode(); m != pool.NoWait {
		t.Errorf("SubmitMode() = %v, want nowait", m)
	}
	if m, _ := cfg.ShutdownMode(); m != pool.Discard {
		t.Errorf("ShutdownMode() = %v, want discard", m)
	}
	if cfg.Admin.JWTSecret != "s3cret" {
		t.Errorf("Admin.JWTSecret = %v, want s3cret", cfg.Admin.JWTSecret)
	}
	// Unset keys keep their defaults
	if cfg.Intake.QueueGroup != "beehive" {
		t.Errorf("Intake.QueueGroup = %v, want beehive", cfg.Intake.QueueGroup)
	}
	if !cfg.Admin.Enabled {
		t.Error("Admin.Enabled should keep its default")
	}
}

func TestLoad_JSON(t *testing.T) {
	path := createTempFile(t, "beehive.json", `{
  "pool": {
    "bees": 2,
    "queue_capacity": 0,
    "shutdown_timeout": "250ms"
  },
  "tracing": {
    "enabled": true,
    "exporter": "zipkin",
    "endpoint": "http://zipkin:9411/api/v2/spans",
    "sample_rate": 0.5
  }
}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Pool.Bees != 2 || cfg.Pool.QueueCapacity != 0 {
		t.Errorf("Pool = %d bees / %d slots, want 2 / 0", cfg.Pool.Bees, cfg.Pool.QueueCapacity)
	}
	if cfg.Pool.ShutdownTimeout.Std() != 250*time.Millisecond {
		t.Errorf("Pool.ShutdownTimeout = %v, want 250ms", cfg.Pool.ShutdownTimeout.Std())
	}
	if cfg.Tracing.Exporter != "zipkin" || cfg.Tracing.SampleRate != 0.5 {
		t.Errorf("Tracing = %+v", cfg.Tracing)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := createTempFile(t, "beehive.yaml", `
pool:
  bees: 3
  queue_capacity: 10
admin:
  addr: ":8080"
`)

	t.Setenv("BEEHIVE_POOL_BEES", "12")
	t.Setenv("BEEHIVE_POOL_SHUTDOWN_TIMEOUT", "5s")
	t.Setenv("BEEHIVE_ADMIN_JWT_SECRET", "from-env")
	t.Setenv("BEEHIVE_TRACING_SAMPLE_RATE", "0.25")
	t.Setenv("BEEHIVE_INTAKE_ENABLED", "true")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	// Environment variables override file values
	if cfg.Pool.Bees != 12 {
		t.Errorf("Pool.Bees = %v, want 12", cfg.Pool.Bees)
	}
	if cfg.Pool.ShutdownTimeout.Std() != 5*time.Second {
		t.Errorf("Pool.ShutdownTimeout = %v, want 5s", cfg.Pool.ShutdownTimeout.Std())
	}
	if cfg.Admin.JWTSecret != "from-env" {
		t.Errorf("Admin.JWTSecret = %v, want from-env", cfg.Admin.JWTSecret)
	}
	if cfg.Tracing.SampleRate != 0.25 {
		t.Errorf("Tracing.SampleRate = %v, want 0.25", cfg.Tracing.SampleRate)
	}
	if !cfg.Intake.Enabled {
		t.Error("Intake.Enabled should be true")
	}
	// No override for this field
	if cfg.Pool.QueueCapacity != 10 {
		t.Errorf("Pool.QueueCapacity = %v, want 10", cfg.Pool.QueueCapacity)
	}
}

func TestLoad_BadEnvValue(t *testing.T) {
	t.Setenv("BEEHIVE_POOL_BEES", "many")

	if _, err := Load(""); err == nil {
		t.Error("Load() should fail on a non-numeric bee count")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Load() should fail for a missing file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"too many bees", func(c *Config) { c.Pool.Bees = pool.MaxBees + 1 }, "Pool.Bees"},
		{"no bees", func(c *Config) { c.Pool.Bees = 0 }, "Pool.Bees"},
		{"queue too large", func(c *Config) { c.Pool.QueueCapacity = pool.MaxQueueCapacity + 1 }, "Pool.QueueCapacity"},
		{"negative timeout", func(c *Config) { c.Pool.ShutdownTimeout = Duration(-time.Second) }, "Pool.ShutdownTimeout"},
		{"bad submit mode", func(c *Config) { c.Pool.SubmitMode = "maybe" }, "submit mode"},
		{"bad shutdown mode", func(c *Config) { c.Pool.ShutdownMode = "later" }, "shutdown mode"},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }, "Log.Level"},
		{"admin without addr", func(c *Config) { c.Admin.Addr = "" }, "Admin.Addr"},
		{"intake without url", func(c *Config) { c.Intake.Enabled = true; c.Intake.URL = "" }, "Intake.URL"},
		{"tracing bad exporter", func(c *Config) { c.Tracing.Enabled = true; c.Tracing.Exporter = "otlp" }, "otlp"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() should fail")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_DisabledSectionsSkipped(t *testing.T) {
	cfg := Default()
	cfg.Admin.Enabled = false
	cfg.Admin.Addr = ""
	cfg.Intake.URL = ""
	cfg.Tracing.Exporter = "otlp"

	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v, want nil for disabled sections", err)
	}
}

func TestSave_RoundTrip(t *testing.T) {
	for _, name := range []string{"out.yaml", "out.json"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			want := Default()
			want.Pool.ShutdownTimeout = Duration(2 * time.Minute)

			if err := Save(path, want); err != nil {
				t.Fatalf("Save() error = %v", err)
			}
			info, err := os.Stat(path)
			if err != nil {
				t.Fatalf("Stat() error = %v", err)
			}
			if perm := info.Mode().Perm(); perm != 0600 {
				t.Errorf("file mode = %o, want 600", perm)
			}

			got, err := Load(path)
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if *got != *want {
				t.Errorf("Load(Save(cfg)) = %+v, want %+v", got, want)
			}
		})
	}
}

func TestRequiredFields(t *testing.T) {
	cfg := Default()
	cfg.Intake.Subject = ""

	validator := RequiredFields("Intake.URL", "Intake.Subject")
	err := validator.Validate(cfg)
	if err == nil {
		t.Fatal("RequiredFields should fail for empty Intake.Subject")
	}
	if strings.Contains(err.Error(), "Intake.URL") {
		t.Errorf("error %q should only name the missing field", err)
	}

	if err := RequiredFields("Intake.Nope").Validate(cfg); err == nil {
		t.Error("RequiredFields should fail for an unknown field")
	}
}

func TestRangeValidator(t *testing.T) {
	cfg := Default()
	cfg.Tracing.SampleRate = 0.5

	if err := RangeValidator("Tracing.SampleRate", 0, 0.4).Validate(cfg); err == nil {
		t.Error("RangeValidator should fail for value above maximum")
	}
	if err := RangeValidator("Tracing.SampleRate", 0, 1).Validate(cfg); err != nil {
		t.Errorf("RangeValidator should pass for value in range: %v", err)
	}
	if err := RangeValidator("Pool.Name", 0, 1).Validate(cfg); err == nil {
		t.Error("RangeValidator should fail for a non-numeric field")
	}
}

func TestApplyEnvOverrides_RequiresStructPointer(t *testing.T) {
	var cfg Config
	if err := ApplyEnvOverrides(EnvPrefix, cfg); err == nil {
		t.Error("ApplyEnvOverrides should reject a non-pointer target")
	}
}

func createTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	return path
}
