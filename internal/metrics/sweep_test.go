package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordRun(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewSweepMetricsWithRegistry(reg)

	m.RecordRun("ok", 100, 13, 87, 2, 0, 250*time.Millisecond)
	m.RecordRun("error", 100, 13, 0, 2, 3, 100*time.Millisecond)

	if got := testutil.ToFloat64(m.RunsTotal.WithLabelValues("ok")); got != 1 {
		t.Errorf("runs_total{ok} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.RunsTotal.WithLabelValues("error")); got != 1 {
		t.Errorf("runs_total{error} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.DeletedTotal); got != 87 {
		t.Errorf("deleted_total = %v, want 87", got)
	}
	if got := testutil.ToFloat64(m.DeleteErrorsTotal); got != 3 {
		t.Errorf("delete_errors_total = %v, want 3", got)
	}
	if got := testutil.ToFloat64(m.Kept); got != 13 {
		t.Errorf("kept = %v, want 13", got)
	}
	if got := testutil.ToFloat64(m.Skipped); got != 2 {
		t.Errorf("skipped = %v, want 2", got)
	}
}

func TestRegistersWithoutConflict(t *testing.T) {
	// Two metric sets on separate registries must not collide.
	NewSweepMetricsWithRegistry(prometheus.NewRegistry())
	NewSweepMetricsWithRegistry(prometheus.NewRegistry())
}
