// Command beehive runs a worker pool behind an HTTP admin API and an
// optional NATS job intake.
//
//	beehive -config beehive.yaml
//	beehive -demo 50                        submit 50 sleep jobs, then drain and exit
//	beehive -write-config beehive.yaml      write the default configuration
//	beehive -config beehive.yaml -issue-token 24h
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fluxorio/beehive/pkg/admin"
	"github.com/fluxorio/beehive/pkg/config"
	"github.com/fluxorio/beehive/pkg/intake"
	"github.com/fluxorio/beehive/pkg/jobs"
	"github.com/fluxorio/beehive/pkg/logger"
	"github.com/fluxorio/beehive/pkg/observability/otel"
	beeprom "github.com/fluxorio/beehive/pkg/observability/prometheus"
	"github.com/fluxorio/beehive/pkg/pool"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	var (
		configPath  = flag.String("config", "", "path to a YAML or JSON config file")
		logLevel    = flag.String("log-level", "", "override log.level (debug, info, warn, error)")
		demo        = flag.Int("demo", 0, "submit N sleep jobs, then shut down")
		writeConfig = flag.String("write-config", "", "write the default config to this path and exit")
		issueToken  = flag.Duration("issue-token", 0, "print an admin JWT valid for this long and exit")
	)
	flag.Parse()

	if *writeConfig != "" {
		if err := config.Save(*writeConfig, config.Default()); err != nil {
			log.Fatalf("beehive: %v", err)
		}
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("beehive: %v", err)
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	level, err := cfg.LogLevel()
	if err != nil {
		log.Fatalf("beehive: %v", err)
	}
	l := logger.New(os.Stdout, level)

	if *issueToken > 0 {
		if err := printToken(cfg, *issueToken); err != nil {
			log.Fatalf("beehive: %v", err)
		}
		return
	}

	if err := run(cfg, l, *demo, beeprom.DefaultRegistry); err != nil {
		l.Errorf("beehive: %v", err)
		os.Exit(1)
	}
}

// run serves until a signal arrives, or submits demo jobs when demo > 0,
// then shuts everything down. Metrics are registered on reg.
func run(cfg *config.Config, l logger.Logger, demo int, reg *prometheus.Registry) error {
	submitMode, err := cfg.SubmitMode()
	if err != nil {
		return err
	}
	shutdownMode, err := cfg.ShutdownMode()
	if err != nil {
		return err
	}

	// 1. Tracing
	if _, err := otel.Initialize(context.Background(), cfg.Tracing); err != nil {
		l.Warnf("tracing disabled: %v", err)
	} else if otel.IsInitialized() {
		l.Infof("tracing enabled (%s)", cfg.Tracing.Exporter)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otel.Shutdown(ctx); err != nil {
			l.Warnf("tracing shutdown: %v", err)
		}
	}()

	// 2. Metrics
	registerer := prometheus.WrapRegistererWith(prometheus.Labels{"service": "beehive"}, reg)
	if err := beeprom.RegisterRuntimeCollectors(reg); err != nil {
		l.Warnf("runtime collectors: %v", err)
	}
	poolMetrics := beeprom.NewPoolMetrics(registerer, cfg.Pool.Name)

	// 3. Pool and jobs
	p, err := pool.New(cfg.PoolConfig(),
		pool.WithName(cfg.Pool.Name),
		pool.WithLogger(l),
		pool.WithObserver(poolMetrics),
	)
	if err != nil {
		return err
	}
	poolMetrics.SetShape(p.Bees(), p.Capacity())
	l.Infof("pool %s: %d bees, %d slots", p.Name(), p.Bees(), p.Capacity())

	registry := jobs.NewRegistry(l)
	if err := jobs.RegisterBuiltins(registry, l); err != nil {
		return err
	}

	// 4. Admin API
	serveErr := make(chan error, 1)
	var adm *adminServer
	if cfg.Admin.Enabled {
		if cfg.Admin.JWTSecret == "" {
			l.Warnf("admin: jwt_secret is empty, job submission on %s is unauthenticated", cfg.Admin.Addr)
		}
		ln, err := net.Listen("tcp", cfg.Admin.Addr)
		if err != nil {
			if serr := p.Shutdown(context.Background(), pool.Discard); serr != nil {
				l.Warnf("pool shutdown: %v", serr)
			}
			return fmt.Errorf("admin: listen %s: %w", cfg.Admin.Addr, err)
		}
		adm = &adminServer{
			ln: ln,
			srv: admin.NewServer(admin.Config{
				Addr: cfg.Admin.Addr,
				JWT:  admin.JWTConfig{Secret: cfg.Admin.JWTSecret, Issuer: cfg.Admin.JWTIssuer},
			}, p, registry,
				admin.WithLogger(l),
				admin.WithGatherer(reg),
				admin.WithHTTPMetrics(beeprom.NewHTTPMetrics(registerer)),
			),
		}
		l.Infof("admin: listening on %s", ln.Addr())
		go func() {
			serveErr <- adm.srv.Serve(ln)
		}()
	}

	// 5. NATS intake
	var in *intake.Intake
	if cfg.Intake.Enabled {
		in, err = intake.Start(intake.Config{
			URL:        cfg.Intake.URL,
			Subject:    cfg.Intake.Subject,
			QueueGroup: cfg.Intake.QueueGroup,
			Name:       "beehive-" + cfg.Pool.Name,
			Mode:       submitMode,
		}, p, registry, intake.WithLogger(l))
		if err != nil {
			if serr := p.Shutdown(context.Background(), pool.Discard); serr != nil {
				l.Warnf("pool shutdown: %v", serr)
			}
			adm.stop(l)
			return err
		}
	}

	if demo > 0 {
		submitDemo(p, registry, l, demo, submitMode)
	} else {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		select {
		case s := <-sig:
			l.Infof("received %s, shutting down", s)
		case err := <-serveErr:
			l.Errorf("admin server stopped: %v", err)
		}
	}

	// Stop intake first so nothing new arrives while the pool drains.
	if in != nil {
		if err := in.Close(); err != nil {
			l.Warnf("%v", err)
		}
		st := in.Stats()
		l.Infof("intake: received=%d accepted=%d dropped=%d", st.Received, st.Accepted, st.Dropped)
	}

	ctx := context.Background()
	if timeout := cfg.Pool.ShutdownTimeout.Std(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	shutdownErr := p.Shutdown(ctx, shutdownMode)
	st := p.Stats()
	l.Infof("pool %s: submitted=%d completed=%d rejected=%d discarded=%d",
		st.Name, st.Submitted, st.Completed, st.Rejected, st.Discarded)

	adm.stop(l)
	return shutdownErr
}

type adminServer struct {
	srv *admin.Server
	ln  net.Listener
}

// stop shuts the admin server down. Closing the listener as well covers a
// Serve goroutine that has not registered it with the server yet.
func (a *adminServer) stop(l logger.Logger) {
	if a == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.srv.Shutdown(ctx); err != nil {
		l.Warnf("admin shutdown: %v", err)
	}
	_ = a.ln.Close()
}

func submitDemo(p *pool.Pool, registry *jobs.Registry, l logger.Logger, n int, mode pool.SubmitMode) {
	payload, _ := json.Marshal(jobs.SleepRequest{DurationMS: 50})

	for i := 0; i < n; i++ {
		task, err := registry.Task("sleep", payload)
		if err != nil {
			l.Errorf("demo: %v", err)
			return
		}
		switch err := p.Submit(task, mode); {
		case err == nil:
		case errors.Is(err, pool.ErrQueueFull):
			l.Warnf("demo: job %d rejected, queue full", i)
		default:
			l.Errorf("demo: job %d: %v", i, err)
			return
		}
	}
	l.Infof("demo: submitted %d sleep jobs", n)
}

func printToken(cfg *config.Config, ttl time.Duration) error {
	if cfg.Admin.JWTSecret == "" {
		return fmt.Errorf("admin.jwt_secret is not set")
	}
	token, err := admin.NewTokenGenerator(cfg.Admin.JWTSecret, cfg.Admin.JWTIssuer).Generate("cli", ttl)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}
