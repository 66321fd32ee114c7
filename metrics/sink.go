package metrics

import (
	"time"

	"github.com/VanDung-dev/txsim-engine/experiment"
)

// Sink adapts Metrics to experiment.ProgressSink so a Driver can update
// Prometheus counters, histograms and gauges between ticks without the
// core knowing metrics exist. It keeps just enough state (the previous
// snapshot's cumulative counters and a wall-clock timestamp) to turn
// Snapshot's running totals into the per-tick deltas Metrics.Record*
// expects; one Sink is owned by exactly one Driver, so this state is
// never shared across concurrent experiments in a Sweep.
type Sink struct {
	m *Metrics

	lastTick      time.Time
	lastPublished int64
	lastForced    int64
	lastInjected  int64
}

// NewSink wraps m as a ProgressSink. A nil m is safe: OnTick becomes a
// no-op via Metrics' nil-receiver methods.
func NewSink(m *Metrics) *Sink {
	return &Sink{m: m}
}

// OnTick derives this tick's injection/publish deltas from the running
// totals in snap and records them, then updates the pending/in-flight
// gauges and the wall-clock tick-duration histogram.
func (s *Sink) OnTick(snap experiment.Snapshot) {
	if s.m == nil {
		return
	}

	if injected := snap.TotalInjected - s.lastInjected; injected > 0 {
		s.m.RecordInjection(int(injected))
	}
	published := snap.TotalPublished - s.lastPublished
	forced := snap.ForcedPublishCount > s.lastForced
	if published > 0 || forced {
		s.m.RecordPublish(int(published), forced)
	}

	var elapsed time.Duration
	if !s.lastTick.IsZero() {
		elapsed = time.Since(s.lastTick)
	}
	s.m.RecordTick(elapsed, snap.PendingCount, snap.InFlightCount)

	s.lastTick = time.Now()
	s.lastPublished = snap.TotalPublished
	s.lastForced = snap.ForcedPublishCount
	s.lastInjected = snap.TotalInjected
}
