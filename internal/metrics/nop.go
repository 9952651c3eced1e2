// Package metrics provides MetricsCollector implementations: a no-op
// default and a Prometheus-backed collector.
package metrics

import (
	"time"

	"github.com/drmirror/workers/types"
)

// NopMetrics discards every recorded metric. It is the default used when
// no collector is configured, so the worker loop never needs nil checks.
type NopMetrics struct{}

// Compile-time assertion that NopMetrics implements MetricsCollector.
var _ types.MetricsCollector = (*NopMetrics)(nil)

// NewNop creates a new no-op metrics collector.
func NewNop() *NopMetrics {
	return &NopMetrics{}
}

// RecordLeaseWait discards the lease wait duration metric.
func (n *NopMetrics) RecordLeaseWait(_ time.Duration) {}

// RecordStuckLockCleared discards the stuck-lock recovery counter.
func (n *NopMetrics) RecordStuckLockCleared() {}

// RecordUnitPicked discards the unit-picked counter.
func (n *NopMetrics) RecordUnitPicked(_ bool) {}

// RecordUnitCompleted discards the unit-completed duration metric.
func (n *NopMetrics) RecordUnitCompleted(_ bool, _ time.Duration) {}

// RecordDocumentProcessed discards the documents-processed counter.
func (n *NopMetrics) RecordDocumentProcessed() {}

// RecordFired discards the fired-worker counter.
func (n *NopMetrics) RecordFired() {}

// RecordHeartbeat discards the heartbeat outcome counter.
func (n *NopMetrics) RecordHeartbeat(_ bool) {}
