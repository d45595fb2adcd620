package prometheus

import (
	"time"

	"github.com/fluxorio/beehive/pkg/pool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DefaultRegistry is the default Prometheus registry
	DefaultRegistry = prometheus.NewRegistry()

	// DefaultRegisterer is the default Prometheus registerer
	DefaultRegisterer = prometheus.WrapRegistererWith(prometheus.Labels{"service": "beehive"}, DefaultRegistry)
)

// PoolMetrics exports pool events as Prometheus metrics. It implements
// pool.Observer; pass it to pool.New with pool.WithObserver.
type PoolMetrics struct {
	// Task lifecycle
	SubmittedTotal prometheus.Counter
	RejectedTotal  prometheus.Counter
	CompletedTotal prometheus.Counter
	DiscardedTotal prometheus.Counter
	TaskDuration   prometheus.Histogram

	// Pool state
	ActiveTasks   prometheus.Gauge
	QueueLength   prometheus.Gauge
	QueueCapacity prometheus.Gauge
	BeeCount      prometheus.Gauge
}

var _ pool.Observer = (*PoolMetrics)(nil)

// NewPoolMetrics registers the pool metrics with registerer, labelled with
// the pool name. A nil registerer uses DefaultRegisterer.
func NewPoolMetrics(registerer prometheus.Registerer, poolName string) *PoolMetrics {
	if registerer == nil {
		registerer = DefaultRegisterer
	}
	factory := promauto.With(prometheus.WrapRegistererWith(prometheus.Labels{"pool": poolName}, registerer))

	return &PoolMetrics{
		SubmittedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "beehive_tasks_submitted_total",
			Help: "Total number of tasks accepted into the queue",
		}),
		RejectedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "beehive_tasks_rejected_total",
			Help: "Total number of NoWait submissions rejected on a full queue",
		}),
		CompletedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "beehive_tasks_completed_total",
			Help: "Total number of tasks executed",
		}),
		DiscardedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "beehive_tasks_discarded_total",
			Help: "Total number of queued tasks dropped by a discarding shutdown",
		}),
		TaskDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "beehive_task_duration_seconds",
			Help:    "Task execution time in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0005, 4, 10), // 0.5ms to ~2m
		}),
		ActiveTasks: factory.NewGauge(prometheus.GaugeOpts{
			Name: "beehive_tasks_active",
			Help: "Number of tasks currently executing",
		}),
		QueueLength: factory.NewGauge(prometheus.GaugeOpts{
			Name: "beehive_queue_depth",
			Help: "Number of tasks waiting in the queue",
		}),
		QueueCapacity: factory.NewGauge(prometheus.GaugeOpts{
			Name: "beehive_queue_capacity",
			Help: "Effective queue capacity",
		}),
		BeeCount: factory.NewGauge(prometheus.GaugeOpts{
			Name: "beehive_bees",
			Help: "Number of bee goroutines",
		}),
	}
}

// SetShape records the fixed dimensions of the pool.
func (m *PoolMetrics) SetShape(bees, capacity int) {
	m.BeeCount.Set(float64(bees))
	m.QueueCapacity.Set(float64(capacity))
}

func (m *PoolMetrics) TaskSubmitted() {
	m.SubmittedTotal.Inc()
}

func (m *PoolMetrics) TaskRejected() {
	m.RejectedTotal.Inc()
}

func (m *PoolMetrics) TaskStarted() {
	m.ActiveTasks.Inc()
}

func (m *PoolMetrics) TaskFinished(elapsed time.Duration) {
	m.ActiveTasks.Dec()
	m.CompletedTotal.Inc()
	m.TaskDuration.Observe(elapsed.Seconds())
}

func (m *PoolMetrics) TasksDiscarded(n int) {
	m.DiscardedTotal.Add(float64(n))
}

func (m *PoolMetrics) QueueDepth(n int) {
	m.QueueLength.Set(float64(n))
}

// RegisterRuntimeCollectors adds the Go runtime and process collectors.
func RegisterRuntimeCollectors(registerer prometheus.Registerer) error {
	if registerer == nil {
		registerer = DefaultRegistry
	}
	if err := registerer.Register(collectors.NewGoCollector()); err != nil {
		return err
	}
	return registerer.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
}
