package experiment

import "log"

// LogSink is the logging ProgressSink: one log.Printf line per tick on
// the standard logger (stderr unless redirected with log.SetOutput),
// naming the experiment's label so a sweep's interleaved output stays
// readable.
type LogSink struct{}

// NewLogSink builds a LogSink. It carries no state; every call returns an
// equivalent value.
func NewLogSink() LogSink { return LogSink{} }

// OnTick logs one line summarizing the snapshot.
func (LogSink) OnTick(snap Snapshot) {
	log.Printf("experiment %s: sim_time=%dms official_sim_time=%dms published=%d pending=%d forced_publishes=%d",
		snap.Label, snap.SimTimeMs, snap.OfficialSimTimeMs, snap.TotalPublished, snap.PendingCount, snap.ForcedPublishCount)
}
