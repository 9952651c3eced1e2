package metrics_test

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/drmirror/workers/internal/metrics"
)

func TestPrometheusCollectorRegistersOnFirstUse(t *testing.T) {
	reg := prometheus.NewRegistry()
	pc := metrics.NewPrometheus(reg, "test")

	pc.RecordUnitPicked(false)
	pc.RecordHeartbeat(true)
	pc.RecordLeaseWait(10 * time.Millisecond)

	families, err := reg.Gather()
	require.NoError(t, err)
	require.NotEmpty(t, families)

	var sawPicked bool
	for _, f := range families {
		if f.GetName() == "test_unit_picked_total" {
			sawPicked = true
		}
	}
	require.True(t, sawPicked)
}

func TestPrometheusCollectorDefaultsNamespace(t *testing.T) {
	reg := prometheus.NewRegistry()
	pc := metrics.NewPrometheus(reg, "")
	pc.RecordFired()

	families, err := reg.Gather()
	require.NoError(t, err)

	var names []string
	for _, f := range families {
		names = append(names, f.GetName())
	}
	require.Contains(t, names, "workers_worker_fired_total")
}
