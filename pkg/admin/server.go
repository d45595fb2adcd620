// Package admin serves the beehive HTTP admin API on fasthttp:
//
//	GET  /healthz      liveness, 503 once the pool is shutting down
//	GET  /stats        pool.Stats as JSON
//	GET  /metrics      Prometheus exposition
//	GET  /jobs         registered job kinds
//	POST /jobs/{kind}  submit a job; the body is the job payload
//
// Submission uses NoWait unless the request carries ?mode=wait, so a full
// queue answers 503 instead of tying up a server goroutine.
package admin

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/fluxorio/beehive/pkg/jobs"
	"github.com/fluxorio/beehive/pkg/logger"
	beeprom "github.com/fluxorio/beehive/pkg/observability/prometheus"
	"github.com/fluxorio/beehive/pkg/pool"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/valyala/fasthttp"
)

const (
	jobsPrefix      = "/jobs/"
	requestIDHeader = "X-Request-ID"
	subjectKey      = "jwt.subject"
)

// Config configures the admin server
type Config struct {
	Addr string
	JWT  JWTConfig
}

// Server is the admin HTTP server for one pool
type Server struct {
	addr     string
	pool     *pool.Pool
	registry *jobs.Registry
	logger   logger.Logger
	server   *fasthttp.Server

	metrics fasthttp.RequestHandler
	submit  fasthttp.RequestHandler
	httpm   *beeprom.HTTPMetrics
}

// Option customizes a Server
type Option func(*Server)

// WithLogger sets the server logger
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithGatherer sets the registry exposed on /metrics
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.metrics = beeprom.FastHTTPHandler(g)
	}
}

// WithHTTPMetrics records request counts and latency per route
func WithHTTPMetrics(m *beeprom.HTTPMetrics) Option {
	return func(s *Server) {
		s.httpm = m
	}
}

// NewServer creates an admin server for p. Jobs are looked up in registry.
func NewServer(cfg Config, p *pool.Pool, registry *jobs.Registry, opts ...Option) *Server {
	s := &Server{
		addr:     cfg.Addr,
		pool:     p,
		registry: registry,
		logger:   logger.NewDefaultLogger(),
		metrics:  beeprom.FastHTTPHandler(nil),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.submit = s.handleSubmit
	if cfg.JWT.Secret != "" {
		s.submit = requireJWT(cfg.JWT, s.submit)
	}

	s.server = &fasthttp.Server{
		Handler:               s.recoverPanics(s.route),
		Name:                  "beehive-admin",
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		IdleTimeout:           60 * time.Second,
		MaxRequestBodySize:    1 << 20,
		NoDefaultServerHeader: true,
	}
	return s
}

// ListenAndServe serves on the configured address until Shutdown
func (s *Server) ListenAndServe() error {
	s.logger.Infof("admin: listening on %s", s.addr)
	return s.server.ListenAndServe(s.addr)
}

// Serve serves on ln until Shutdown
func (s *Server) Serve(ln net.Listener) error {
	return s.server.Serve(ln)
}

// Shutdown stops accepting connections and waits for in-flight requests
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.ShutdownWithContext(ctx)
}

// Handler returns the routing handler, for embedding in another server
func (s *Server) Handler() fasthttp.RequestHandler {
	return s.server.Handler
}

func (s *Server) route(ctx *fasthttp.RequestCtx) {
	path := string(ctx.Path())

	switch {
	case path == "/healthz":
		s.handle(ctx, "/healthz", fasthttp.MethodGet, s.handleHealth)
	case path == "/stats":
		s.handle(ctx, "/stats", fasthttp.MethodGet, s.handleStats)
	case path == "/metrics":
		s.handle(ctx, "/metrics", fasthttp.MethodGet, s.metrics)
	case path == "/jobs":
		s.handle(ctx, "/jobs", fasthttp.MethodGet, s.handleKinds)
	case strings.HasPrefix(path, jobsPrefix):
		s.handle(ctx, "/jobs/{kind}", fasthttp.MethodPost, s.submit)
	default:
		writeError(ctx, fasthttp.StatusNotFound, "not_found", "no such route")
	}
}

func (s *Server) handle(ctx *fasthttp.RequestCtx, route, method string, h fasthttp.RequestHandler) {
	if string(ctx.Method()) != method {
		h = methodNotAllowed(method)
	}
	if s.httpm != nil {
		h = s.httpm.Middleware(route, h)
	}
	h(ctx)
}

func methodNotAllowed(allow string) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		ctx.Response.Header.Set("Allow", allow)
		writeError(ctx, fasthttp.StatusMethodNotAllowed, "method_not_allowed", allow+" only")
	}
}

func (s *Server) handleHealth(ctx *fasthttp.RequestCtx) {
	if !s.pool.IsRunning() {
		writeJSONString(ctx, fasthttp.StatusServiceUnavailable, `{"status":"shutting_down"}`)
		return
	}
	writeJSONString(ctx, fasthttp.StatusOK, `{"status":"ok"}`)
}

func (s *Server) handleStats(ctx *fasthttp.RequestCtx) {
	writeJSON(ctx, fasthttp.StatusOK, s.pool.Stats())
}

func (s *Server) handleKinds(ctx *fasthttp.RequestCtx) {
	writeJSON(ctx, fasthttp.StatusOK, map[string][]string{"kinds": s.registry.Kinds()})
}

func (s *Server) handleSubmit(ctx *fasthttp.RequestCtx) {
	kind := strings.TrimPrefix(string(ctx.Path()), jobsPrefix)
	if kind == "" || strings.Contains(kind, "/") {
		writeError(ctx, fasthttp.StatusNotFound, "unknown_job", "job kind missing")
		return
	}

	mode := pool.NoWait
	if m := ctx.QueryArgs().Peek("mode"); len(m) > 0 {
		parsed, err := pool.ParseSubmitMode(string(m))
		if err != nil {
			writeError(ctx, fasthttp.StatusBadRequest, "bad_mode", err.Error())
			return
		}
		mode = parsed
	}

	task, err := s.registry.Task(kind, ctx.PostBody())
	if err != nil {
		writeError(ctx, fasthttp.StatusNotFound, "unknown_job", err.Error())
		return
	}

	requestID := string(ctx.Request.Header.Peek(requestIDHeader))
	if requestID == "" {
		requestID = uuid.NewString()
	}
	ctx.Response.Header.Set(requestIDHeader, requestID)

	switch err := s.pool.Submit(task, mode); {
	case err == nil:
		if sub, ok := ctx.UserValue(subjectKey).(string); ok {
			s.logger.Debugf("admin: job %s accepted from %s (request %s)", kind, sub, requestID)
		}
		writeJSON(ctx, fasthttp.StatusAccepted, map[string]string{
			"status":     "accepted",
			"kind":       kind,
			"request_id": requestID,
		})
	case errors.Is(err, pool.ErrQueueFull):
		writeJSONString(ctx, fasthttp.StatusServiceUnavailable, `{"error":"queue_full","message":"Server overloaded - backpressure applied","code":"BACKPRESSURE"}`)
	case errors.Is(err, pool.ErrPoolClosed):
		writeError(ctx, fasthttp.StatusGone, "pool_closed", "pool is shutting down")
	default:
		s.logger.Errorf("admin: submit %s: %v", kind, err)
		writeError(ctx, fasthttp.StatusInternalServerError, "internal_server_error", "submit failed")
	}
}

func (s *Server) recoverPanics(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Errorf("admin: panic recovered on %s %s: %v", ctx.Method(), ctx.Path(), r)
				ctx.ResetBody()
				writeError(ctx, fasthttp.StatusInternalServerError, "internal_server_error", "Internal Server Error")
			}
		}()
		next(ctx)
	}
}

func writeJSON(ctx *fasthttp.RequestCtx, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		writeError(ctx, fasthttp.StatusInternalServerError, "internal_server_error", "encode failed")
		return
	}
	ctx.SetContentType("application/json")
	ctx.SetStatusCode(status)
	ctx.SetBody(data)
}

func writeJSONString(ctx *fasthttp.RequestCtx, status int, body string) {
	ctx.SetContentType("application/json")
	ctx.SetStatusCode(status)
	ctx.SetBodyString(body)
}

func writeError(ctx *fasthttp.RequestCtx, status int, code, message string) {
	body, _ := json.Marshal(map[string]string{"error": code, "message": message})
	ctx.SetContentType("application/json")
	ctx.SetStatusCode(status)
	ctx.SetBody(body)
}
