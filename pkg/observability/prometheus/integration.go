package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

// HTTPMetrics records admin API traffic.
type HTTPMetrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// NewHTTPMetrics registers the HTTP request metrics with registerer.
func NewHTTPMetrics(registerer prometheus.Registerer) *HTTPMetrics {
	if registerer == nil {
		registerer = DefaultRegisterer
	}
	return &HTTPMetrics{
		RequestsTotal: promauto.With(registerer).NewCounterVec(
			prometheus.CounterOpts{
				Name: "beehive_http_requests_total",
				Help: "Total number of admin HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: promauto.With(registerer).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "beehive_http_request_duration_seconds",
				Help:    "Admin HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}
}

// Middleware wraps next and records one sample per request. route is the
// label value, so callers pass the route pattern rather than the raw path.
func (m *HTTPMetrics) Middleware(route string, next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		start := time.Now()
		method := string(ctx.Method())

		next(ctx)

		status := statusCodeString(ctx.Response.StatusCode())
		m.RequestsTotal.WithLabelValues(method, route, status).Inc()
		m.RequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}

// FastHTTPHandler serves the metrics in gatherer in the Prometheus text
// format. A nil gatherer uses DefaultRegistry.
func FastHTTPHandler(gatherer prometheus.Gatherer) fasthttp.RequestHandler {
	if gatherer == nil {
		gatherer = DefaultRegistry
	}
	return fasthttpadaptor.NewFastHTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
}

// statusCodeString converts status code to string
func statusCodeString(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500:
		return "5xx"
	default:
		return "unknown"
	}
}
