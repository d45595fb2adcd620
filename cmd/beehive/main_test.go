package main

import (
	"bytes"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/fluxorio/beehive/pkg/config"
	"github.com/fluxorio/beehive/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func demoConfig() *config.Config {
	cfg := config.Default()
	cfg.Admin.Enabled = false
	cfg.Pool.Name = "demo"
	cfg.Pool.Bees = 2
	cfg.Pool.QueueCapacity = 4
	return cfg
}

func TestRun_Demo(t *testing.T) {
	reg := prometheus.NewRegistry()
	if err := run(demoConfig(), logger.Nop(), 6, reg); err != nil {
		t.Fatalf("run() error = %v", err)
	}

	n, err := testutil.GatherAndCount(reg, "beehive_tasks_completed_total")
	if err != nil {
		t.Fatalf("GatherAndCount() error = %v", err)
	}
	if n != 1 {
		t.Errorf("beehive_tasks_completed_total series = %d, want 1", n)
	}
}

func TestRun_Twice(t *testing.T) {
	for i := 0; i < 2; i++ {
		if err := run(demoConfig(), logger.Nop(), 2, prometheus.NewRegistry()); err != nil {
			t.Fatalf("run() #%d error = %v", i+1, err)
		}
	}
}

func freeAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()
	return addr
}

func TestRun_IntakeFailureStopsAdmin(t *testing.T) {
	cfg := demoConfig()
	cfg.Admin.Enabled = true
	cfg.Admin.Addr = freeAddr(t)
	cfg.Intake.Enabled = true
	cfg.Intake.URL = "nats://127.0.0.1:1"

	var buf bytes.Buffer
	err := run(cfg, logger.New(&buf, logger.LevelDebug), 1, prometheus.NewRegistry())
	if err == nil {
		t.Fatal("run() should fail when NATS is unreachable")
	}
	if !strings.Contains(err.Error(), "intake") {
		t.Errorf("run() error = %v, want an intake error", err)
	}

	if conn, err := net.DialTimeout("tcp", cfg.Admin.Addr, time.Second); err == nil {
		conn.Close()
		t.Errorf("admin server still accepting on %s", cfg.Admin.Addr)
	}
	if !strings.Contains(buf.String(), "unauthenticated") {
		t.Errorf("missing warning about an empty jwt_secret in log:\n%s", buf.String())
	}
}

func TestRun_AdminListenFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer ln.Close()

	cfg := demoConfig()
	cfg.Admin.Enabled = true
	cfg.Admin.Addr = ln.Addr().String()
	cfg.Admin.JWTSecret = "s3cret"

	var buf bytes.Buffer
	if err := run(cfg, logger.New(&buf, logger.LevelDebug), 1, prometheus.NewRegistry()); err == nil {
		t.Fatal("run() should fail when the admin address is taken")
	}
	if strings.Contains(buf.String(), "unauthenticated") {
		t.Errorf("unexpected jwt_secret warning with a secret set:\n%s", buf.String())
	}
}

func TestPrintToken_RequiresSecret(t *testing.T) {
	if err := printToken(config.Default(), 0); err == nil {
		t.Error("printToken() should fail without a secret")
	}
}
