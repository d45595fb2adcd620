// Package config loads beehive configuration from YAML or JSON files with
// BEEHIVE_* environment overrides.
package config

import (
	"fmt"
	"math"
	"time"

	"github.com/fluxorio/beehive/pkg/logger"
	"github.com/fluxorio/beehive/pkg/observability/otel"
	"github.com/fluxorio/beehive/pkg/pool"
)

// EnvPrefix prefixes every environment override, e.g. BEEHIVE_POOL_BEES.
const EnvPrefix = "BEEHIVE"

// Config is the beehive process configuration
type Config struct {
	Log     LogSettings    `yaml:"log" json:"log"`
	Pool    PoolSettings   `yaml:"pool" json:"pool"`
	Admin   AdminSettings  `yaml:"admin" json:"admin"`
	Intake  IntakeSettings `yaml:"intake" json:"intake"`
	Tracing otel.Config    `yaml:"tracing" json:"tracing"`
}

type LogSettings struct {
	Level string `yaml:"level" json:"level"`
}

type PoolSettings struct {
	Name            string   `yaml:"name" json:"name"`
	Bees            int      `yaml:"bees" json:"bees"`
	QueueCapacity   int      `yaml:"queue_capacity" json:"queue_capacity"`
	SubmitMode      string   `yaml:"submit_mode" json:"submit_mode"`     // wait or nowait
	ShutdownMode    string   `yaml:"shutdown_mode" json:"shutdown_mode"` // complete or discard
	ShutdownTimeout Duration `yaml:"shutdown_timeout" json:"shutdown_timeout"`
}

// AdminSettings configures the HTTP admin server. An empty JWTSecret
// leaves job submission unauthenticated.
type AdminSettings struct {
	Enabled   bool   `yaml:"enabled" json:"enabled"`
	Addr      string `yaml:"addr" json:"addr"`
	JWTSecret string `yaml:"jwt_secret" json:"jwt_secret"`
	JWTIssuer string `yaml:"jwt_issuer" json:"jwt_issuer"`
}

// IntakeSettings configures the NATS job subscriber
type IntakeSettings struct {
	Enabled    bool   `yaml:"enabled" json:"enabled"`
	URL        string `yaml:"url" json:"url"`
	Subject    string `yaml:"subject" json:"subject"`
	QueueGroup string `yaml:"queue_group" json:"queue_group"`
}

// Default returns the configuration used when no file is given
func Default() *Config {
	pc := pool.DefaultConfig()
	return &Config{
		Log: LogSettings{Level: "info"},
		Pool: PoolSettings{
			Name:            "beehive",
			Bees:            pc.Bees,
			QueueCapacity:   pc.QueueCapacity,
			SubmitMode:      pool.Wait.String(),
			ShutdownMode:    pool.Complete.String(),
			ShutdownTimeout: Duration(30 * time.Second),
		},
		Admin: AdminSettings{
			Enabled:   true,
			Addr:      "127.0.0.1:8080",
			JWTIssuer: "beehive",
		},
		Intake: IntakeSettings{
			URL:        "nats://127.0.0.1:4222",
			Subject:    "beehive.jobs",
			QueueGroup: "beehive",
		},
		Tracing: otel.DefaultConfig(),
	}
}

// Load builds a Config from the defaults, the file at path (skipped when
// path is empty) and BEEHIVE_* environment overrides, then validates it.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := LoadFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}
	if err := ApplyEnvOverrides(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to apply env overrides: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every section
func (c *Config) Validate() error {
	return Validate(c,
		OneOfValidator("Log.Level", "", "debug", "info", "warn", "warning", "error"),
		RangeValidator("Pool.Bees", 1, pool.MaxBees),
		RangeValidator("Pool.QueueCapacity", 0, pool.MaxQueueCapacity),
		RangeValidator("Pool.ShutdownTimeout", 0, math.MaxInt64),
		ValidatorFunc(func(any) error {
			_, err := pool.ParseSubmitMode(c.Pool.SubmitMode)
			return err
		}),
		ValidatorFunc(func(any) error {
			_, err := pool.ParseShutdownMode(c.Pool.ShutdownMode)
			return err
		}),
		When(c.Admin.Enabled, RequiredFields("Admin.Addr")),
		When(c.Intake.Enabled, RequiredFields("Intake.URL", "Intake.Subject")),
		When(c.Tracing.Enabled, ValidatorFunc(func(any) error {
			return c.Tracing.Validate()
		})),
	)
}

// PoolConfig returns the pool.New configuration
func (c *Config) PoolConfig() pool.Config {
	return pool.Config{
		Bees:          c.Pool.Bees,
		QueueCapacity: c.Pool.QueueCapacity,
	}
}

func (c *Config) SubmitMode() (pool.SubmitMode, error) {
	return pool.ParseSubmitMode(c.Pool.SubmitMode)
}

func (c *Config) ShutdownMode() (pool.ShutdownMode, error) {
	return pool.ParseShutdownMode(c.Pool.ShutdownMode)
}

func (c *Config) LogLevel() (logger.Level, error) {
	return logger.ParseLevel(c.Log.Level)
}

// Duration is a time.Duration read and written as "1m30s" style text
type Duration time.Duration

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}
