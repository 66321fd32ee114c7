package metrics

import (
	"testing"

	"github.com/VanDung-dev/txsim-engine/experiment"
)

func TestSinkNilMetricsIsNoop(t *testing.T) {
	s := NewSink(nil)

	// Must not panic.
	s.OnTick(experiment.Snapshot{PendingCount: 10})
}

func TestSinkUpdatesPendingGauge(t *testing.T) {
	m := New("txsim_test_sink")
	s := NewSink(m)

	s.OnTick(experiment.Snapshot{PendingCount: 17})

	if v := counterValue(t, m.PendingCount); v != 17 {
		t.Errorf("PendingCount = %f, want 17", v)
	}
}
