// Package intake feeds jobs from NATS into a pool. A message on
// <subject>.<kind> becomes one job of that kind with the message data as
// payload. Request messages get a JSON reply; plain publishes are
// fire-and-forget.
package intake

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/fluxorio/beehive/pkg/jobs"
	"github.com/fluxorio/beehive/pkg/logger"
	"github.com/fluxorio/beehive/pkg/pool"
	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const requestIDHeader = "X-Request-ID"

// Config configures the NATS subscription
type Config struct {
	URL        string
	Subject    string // jobs arrive on Subject.<kind>
	QueueGroup string // intakes sharing a group split the messages
	Name       string // NATS connection name

	// Mode is the submit mode. Wait blocks the subscription until a slot
	// frees, which pushes back on NATS; NoWait drops jobs on a full queue.
	Mode pool.SubmitMode
}

// Stats counts messages seen by an Intake
type Stats struct {
	Received int64 `json:"received"`
	Accepted int64 `json:"accepted"`
	Dropped  int64 `json:"dropped"`
}

// Intake is a running NATS subscription
type Intake struct {
	cfg      Config
	nc       *nats.Conn
	sub      *nats.Subscription
	pool     *pool.Pool
	registry *jobs.Registry

	logger     logger.Logger
	tracer     trace.Tracer
	propagator propagation.TextMapPropagator

	received atomic.Int64
	accepted atomic.Int64
	dropped  atomic.Int64
}

// Option customizes an Intake
type Option func(*Intake)

func WithLogger(l logger.Logger) Option {
	return func(in *Intake) {
		if l != nil {
			in.logger = l
		}
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(in *Intake) {
		if t != nil {
			in.tracer = t
		}
	}
}

// WithPropagator sets how trace context is read from message headers.
// Defaults to the global propagator.
func WithPropagator(p propagation.TextMapPropagator) Option {
	return func(in *Intake) {
		if p != nil {
			in.propagator = p
		}
	}
}

// Start connects to NATS and subscribes to cfg.Subject.>
func Start(cfg Config, p *pool.Pool, registry *jobs.Registry, opts ...Option) (*Intake, error) {
	if cfg.Subject == "" {
		return nil, fmt.Errorf("intake: subject cannot be empty")
	}
	url := cfg.URL
	if url == "" {
		url = nats.DefaultURL
	}

	in := &Intake{
		cfg:        cfg,
		pool:       p,
		registry:   registry,
		logger:     logger.NewDefaultLogger(),
		tracer:     otel.Tracer("github.com/fluxorio/beehive/pkg/intake"),
		propagator: otel.GetTextMapPropagator(),
	}
	for _, opt := range opts {
		opt(in)
	}

	nc, err := nats.Connect(url, func(o *nats.Options) error {
		if cfg.Name != "" {
			o.Name = cfg.Name
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("intake: connect %s: %w", url, err)
	}

	in.nc = nc

	subject := cfg.Subject + ".>"
	if cfg.QueueGroup != "" {
		in.sub, err = nc.QueueSubscribe(subject, cfg.QueueGroup, in.onMsg)
	} else {
		in.sub, err = nc.Subscribe(subject, in.onMsg)
	}
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("intake: subscribe %s: %w", subject, err)
	}
	// Make sure the server has registered interest before returning.
	if err := nc.Flush(); err != nil {
		nc.Close()
		return nil, fmt.Errorf("intake: flush: %w", err)
	}

	in.logger.Infof("intake: subscribed to %s (queue group %q, mode %s)", subject, cfg.QueueGroup, cfg.Mode)
	return in, nil
}

// Close drains the subscription and the connection. Messages already
// delivered are still submitted.
func (in *Intake) Close() error {
	if err := in.nc.Drain(); err != nil {
		return fmt.Errorf("intake: drain: %w", err)
	}
	return nil
}

// Stats returns message counters
func (in *Intake) Stats() Stats {
	return Stats{
		Received: in.received.Load(),
		Accepted: in.accepted.Load(),
		Dropped:  in.dropped.Load(),
	}
}

func (in *Intake) onMsg(msg *nats.Msg) {
	in.received.Add(1)

	kind := msg.Subject[strings.LastIndex(msg.Subject, ".")+1:]
	ctx := context.Background()
	if msg.Header != nil {
		ctx = in.propagator.Extract(ctx, HeaderCarrier(msg.Header))
	}
	ctx, span := in.tracer.Start(ctx, "intake.receive",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("messaging.system", "nats"),
			attribute.String("messaging.destination.name", msg.Subject),
			attribute.String("job.kind", kind),
		),
	)
	defer span.End()

	err := in.submit(kind, msg.Data)
	if err != nil {
		in.dropped.Add(1)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		in.logger.Warnf("intake: dropped %s job from %s%s: %v", kind, msg.Subject, requestIDSuffix(msg), err)
	} else {
		in.accepted.Add(1)
	}

	if msg.Reply != "" {
		in.reply(msg, kind, err)
	}
}

func (in *Intake) submit(kind string, payload []byte) error {
	task, err := in.registry.Task(kind, payload)
	if err != nil {
		return err
	}
	return in.pool.Submit(task, in.cfg.Mode)
}

func (in *Intake) reply(msg *nats.Msg, kind string, err error) {
	resp := map[string]string{"kind": kind}
	switch {
	case err == nil:
		resp["status"] = "accepted"
	case errors.Is(err, jobs.ErrUnknownJob):
		resp["error"] = "unknown_job"
	case errors.Is(err, pool.ErrQueueFull):
		resp["error"] = "queue_full"
	case errors.Is(err, pool.ErrPoolClosed):
		resp["error"] = "pool_closed"
	default:
		resp["error"] = "internal_error"
	}

	data, _ := json.Marshal(resp)
	out := &nats.Msg{Subject: msg.Reply, Data: data, Header: nats.Header{}}
	if rid := headerValue(msg.Header, requestIDHeader); rid != "" {
		out.Header.Set(requestIDHeader, rid)
	}
	if perr := in.nc.PublishMsg(out); perr != nil {
		in.logger.Warnf("intake: reply to %s: %v", msg.Reply, perr)
	}
}

func requestIDSuffix(msg *nats.Msg) string {
	if rid := headerValue(msg.Header, requestIDHeader); rid != "" {
		return " (request " + rid + ")"
	}
	return ""
}
