package experiment

import (
	"testing"

	"github.com/VanDung-dev/txsim-engine/config"
	"github.com/VanDung-dev/txsim-engine/rng"
)

func smallConfig() config.Config {
	cfg := config.Default()
	cfg.NumPeers = 6
	cfg.FullMesh = true
	cfg.NumValidators = 3
	cfg.TxSizeMin = 1
	cfg.TxSizeMax = 2
	cfg.TotalSimulationMs = 2000
	cfg.InjectionCount = 1
	cfg.SimulationStepMs = 100
	cfg.PublishThreshold = 100.0
	cfg.BlocktimeMs = 500
	cfg.BandwidthKBPerMs = 1000.0
	cfg.MaxTransactions = 100
	cfg.MaxBlockSizeKB = 10000
	cfg.KnownRows = 1000
	cfg.KnownCols = 20
	cfg.Seed = 123
	return cfg
}

func TestRunFullMeshPublishesTransactions(t *testing.T) {
	cfg := smallConfig()
	d := New(cfg, rng.New(cfg.Seed), nil)

	res := d.Run()

	if res.TotalPublishedGlobal == 0 {
		t.Fatal("expected at least one published transaction in a full-mesh run")
	}
	if res.FinalPendingCount < 0 {
		t.Fatalf("FinalPendingCount = %d, must not be negative", res.FinalPendingCount)
	}
}

// TestRunIsBitForBitReproducibleWithSameSeed runs the identical config and
// seed through two independently constructed Drivers and requires an
// identical Result. Bandwidth is scarce enough that several in-flight
// transactions share a sender and contend for its per-step budget every
// tick (propagation.Engine.Broadcast), and enough transactions stay
// pending at once that PrepareRequest's pre-shuffle candidate ordering
// matters — exactly the two paths whose outcome must depend only on the
// seed, never on Go's randomized map-iteration order.
func TestRunIsBitForBitReproducibleWithSameSeed(t *testing.T) {
	cfg := smallConfig()
	cfg.NumPeers = 20
	cfg.NumValidators = 5
	cfg.InjectionCount = 5
	cfg.BandwidthKBPerMs = 0.01
	cfg.TotalSimulationMs = 3000

	a := New(cfg, rng.New(cfg.Seed), nil)
	resA := a.Run()

	b := New(cfg, rng.New(cfg.Seed), nil)
	resB := b.Run()

	if resA != resB {
		t.Fatalf("same config+seed produced different results:\nfirst:  %+v\nsecond: %+v", resA, resB)
	}
}

func TestRunConservesTransactionCount(t *testing.T) {
	cfg := smallConfig()
	cfg.InjectionCount = 3
	d := New(cfg, rng.New(cfg.Seed), nil)

	res := d.Run()

	if res.TotalPublishedGlobal+int64(res.FinalPendingCount) != d.totalInjected {
		t.Fatalf("published(%d) + pending(%d) != injected(%d)",
			res.TotalPublishedGlobal, res.FinalPendingCount, d.totalInjected)
	}
}

func TestRunForcedPublishAddsSimTimeOnly(t *testing.T) {
	cfg := smallConfig()
	cfg.NumPeers = 20
	cfg.FullMesh = false
	cfg.MinConn = 1
	cfg.MaxConn = 2 // sparse, slow propagation
	cfg.NumValidators = 5
	cfg.PublishThreshold = 100.0
	cfg.BlocktimeMs = 100
	cfg.BandwidthKBPerMs = 0.001 // near-zero bandwidth forces the watchdog
	cfg.TotalSimulationMs = 1000
	cfg.InjectionCount = 5

	d := New(cfg, rng.New(cfg.Seed), nil)
	d.Run()

	if d.forcedPublishCnt == 0 {
		t.Skip("no forced publish occurred with this seed/topology; not a hard requirement")
	}
	if d.simTimeMs <= d.officialSimTimeMs {
		t.Fatalf("simTimeMs(%d) should exceed officialSimTimeMs(%d) once a forced publish has occurred",
			d.simTimeMs, d.officialSimTimeMs)
	}
}

// TestRunContinuesInjectingAfterForcedPublish pins edge delay above the
// entire run length so coverage can never reach the threshold: every
// publish attempt is guaranteed forced, deterministically, regardless of
// rng draws. With block_cycle_time correctly reset on a forced publish
// (ResetCycleOnForce's default), the inner loop's bound collapses back to
// exactly one step per cycle and keeps running; if the reset were skipped,
// the very next bound computation would no longer exceed the stale
// block_cycle_time and injection would starve for the rest of the run.
func TestRunContinuesInjectingAfterForcedPublish(t *testing.T) {
	cfg := smallConfig()
	cfg.NumPeers = 6
	cfg.NumValidators = 3
	cfg.DelayMin = 1000
	cfg.DelayMax = 1000 // no edge can ever deliver within the run
	cfg.TotalSimulationMs = 500
	cfg.BlocktimeMs = 100
	cfg.SimulationStepMs = 100
	cfg.PublishThreshold = 100.0
	cfg.InjectionCount = 5

	d := New(cfg, rng.New(cfg.Seed), nil)
	d.Run()

	if d.forcedPublishCnt < 2 {
		t.Fatalf("forcedPublishCnt = %d, want at least 2 forced publishes in this fixed-delay scenario", d.forcedPublishCnt)
	}
	if d.totalInjected <= int64(cfg.InjectionCount) {
		t.Fatalf("totalInjected = %d, want more than one inner-loop tick's worth (%d): "+
			"injection should continue past the first forced publish, not stall",
			d.totalInjected, cfg.InjectionCount)
	}
}

func TestRunWithNoSeedsIsHarmless(t *testing.T) {
	cfg := smallConfig()
	cfg.NumValidators = cfg.NumPeers // every peer is a validator: no seed peers exist

	d := New(cfg, rng.New(cfg.Seed), nil)
	res := d.Run() // must not panic despite injection having nowhere to originate from

	if res.TotalPublishedGlobal != 0 {
		t.Fatalf("TotalPublishedGlobal = %d, want 0 when nothing can ever be injected", res.TotalPublishedGlobal)
	}
}

type recordingSink struct {
	ticks []Snapshot
}

func (r *recordingSink) OnTick(snap Snapshot) {
	r.ticks = append(r.ticks, snap)
}

func TestRunReportsProgressToSink(t *testing.T) {
	cfg := smallConfig()
	sink := &recordingSink{}
	d := New(cfg, rng.New(cfg.Seed), sink)

	d.Run()

	if len(sink.ticks) == 0 {
		t.Fatal("expected at least one progress snapshot")
	}
}
