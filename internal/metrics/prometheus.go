package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/drmirror/workers/types"
)

// PrometheusCollector implements types.MetricsCollector backed by
// Prometheus. Metric objects are created lazily on first use so
// constructing a collector never registers metrics for a worker that
// ends up unused (e.g. in tests).
type PrometheusCollector struct {
	reg       prometheus.Registerer
	namespace string
	once      sync.Once

	leaseWait        prometheus.Histogram
	stuckLockCleared prometheus.Counter
	unitsPicked      *prometheus.CounterVec
	unitDuration     *prometheus.HistogramVec
	docsProcessed    prometheus.Counter
	fired            prometheus.Counter
	heartbeats       *prometheus.CounterVec
}

// Compile-time assertion that PrometheusCollector implements MetricsCollector.
var _ types.MetricsCollector = (*PrometheusCollector)(nil)

// NewPrometheus creates a Prometheus-backed metrics collector. reg
// defaults to prometheus.DefaultRegisterer and namespace to "workers"
// when zero-valued.
func NewPrometheus(reg prometheus.Registerer, namespace string) *PrometheusCollector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = "workers"
	}

	return &PrometheusCollector{reg: reg, namespace: namespace}
}

func (p *PrometheusCollector) ensureRegistered() {
	p.once.Do(func() {
		p.leaseWait = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "lease",
			Name:      "wait_seconds",
			Help:      "Time spent waiting to acquire the work table lease.",
			Buckets:   prometheus.DefBuckets,
		})
		p.stuckLockCleared = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "lease",
			Name:      "stuck_cleared_total",
			Help:      "Total stuck work table locks cleared by this worker.",
		})
		p.unitsPicked = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "unit",
			Name:      "picked_total",
			Help:      "Total units claimed, labeled by whether it was a cleanup pass.",
		}, []string{"cleanup"})
		p.unitDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "unit",
			Name:      "duration_seconds",
			Help:      "Time spent holding a unit before marking it complete.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
		}, []string{"cleanup"})
		p.docsProcessed = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "unit",
			Name:      "documents_processed_total",
			Help:      "Total documents passed to the Process hook.",
		})
		p.fired = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "worker",
			Name:      "fired_total",
			Help:      "Total times this worker lost its unit to a peer.",
		})
		p.heartbeats = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "worker",
			Name:      "heartbeats_total",
			Help:      "Total heartbeat writes, labeled by outcome.",
		}, []string{"result"})

		p.reg.MustRegister(
			p.leaseWait,
			p.stuckLockCleared,
			p.unitsPicked,
			p.unitDuration,
			p.docsProcessed,
			p.fired,
			p.heartbeats,
		)
	})
}

func (p *PrometheusCollector) RecordLeaseWait(d time.Duration) {
	p.ensureRegistered()
	p.leaseWait.Observe(d.Seconds())
}

func (p *PrometheusCollector) RecordStuckLockCleared() {
	p.ensureRegistered()
	p.stuckLockCleared.Inc()
}

func (p *PrometheusCollector) RecordUnitPicked(cleanup bool) {
	p.ensureRegistered()
	p.unitsPicked.WithLabelValues(boolLabel(cleanup)).Inc()
}

func (p *PrometheusCollector) RecordUnitCompleted(cleanup bool, d time.Duration) {
	p.ensureRegistered()
	p.unitDuration.WithLabelValues(boolLabel(cleanup)).Observe(d.Seconds())
}

func (p *PrometheusCollector) RecordDocumentProcessed() {
	p.ensureRegistered()
	p.docsProcessed.Inc()
}

func (p *PrometheusCollector) RecordFired() {
	p.ensureRegistered()
	p.fired.Inc()
}

func (p *PrometheusCollector) RecordHeartbeat(success bool) {
	p.ensureRegistered()
	result := "success"
	if !success {
		result = "failure"
	}
	p.heartbeats.WithLabelValues(result).Inc()
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}

	return "false"
}
