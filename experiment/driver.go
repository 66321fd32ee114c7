// Package experiment implements the Experiment Driver: the
// outer tick loop that interleaves injection, propagation and publishing
// while maintaining dual simulated-time accounting.
//
// The orchestration shape — accumulate work, flush a batch on size or
// timeout, repeat — is adapted from hierachain-engine/core/ordering.go's
// OrderingService, but made synchronous: requires a single-threaded
// cooperative tick loop with no interleaving between an experiment's four
// tick phases, so this Driver has no channels, no goroutines and no
// locks. Concurrency, where it exists at all, lives one level up in
// Sweep, across independent Drivers that share no state.
package experiment

import (
	"github.com/VanDung-dev/txsim-engine/config"
	"github.com/VanDung-dev/txsim-engine/engine"
	"github.com/VanDung-dev/txsim-engine/knownset"
	"github.com/VanDung-dev/txsim-engine/propagation"
	"github.com/VanDung-dev/txsim-engine/publish"
	"github.com/VanDung-dev/txsim-engine/rng"
	"github.com/VanDung-dev/txsim-engine/topology"
)

// Snapshot is the state a ProgressSink observes between tick phases. It is
// never handed out mid-tick.
type Snapshot struct {
	Label               string
	SimTimeMs           int64
	OfficialSimTimeMs   int64
	TotalPublished      int64
	PublishedKB         int64
	PendingCount        int
	ForcedPublishCount  int64
	TotalInjected       int64
	InFlightCount       int
}

// ProgressSink observes driver progress between ticks. Any
// human-readable progress printer stays out of the core's scope,
// specified only as an interface; this is that interface. A nil sink
// receives nothing.
type ProgressSink interface {
	OnTick(Snapshot)
}

// Result is the output record produced by every experiment run.
type Result struct {
	Label                string
	TotalSimulatedTimeMs int64
	TotalPublishedGlobal int64
	TPS                  float64
	PublishedMB          float64
	MBPerSec             float64
	ForcedPublishCount   int64
	FinalPendingCount    int
}

// Driver owns one experiment's dual time accounting and orchestrates its
// Topology, Pool, Known-Set Store, Propagation Engine and Publisher.
type Driver struct {
	cfg   config.Config
	rng   rng.Source
	sink  ProgressSink
	graph *topology.Graph
	known *knownset.Store
	pool  *engine.Pool
	flow  *propagation.Engine
	pub   *publish.Publisher

	nextTxID int

	simTimeMs         int64
	officialSimTimeMs int64
	blockCycleTimeMs  int
	forcedPublishCnt  int64
	totalInjected     int64
}

// New builds a fully independent experiment: its own topology, pool,
// known-set store, propagation engine and publisher, sharing nothing with
// any other Driver.
func New(cfg config.Config, source rng.Source, sink ProgressSink) *Driver {
	var graph *topology.Graph
	if cfg.FullMesh {
		graph = topology.FullMesh(cfg.NumPeers, cfg.DelayMin, cfg.DelayMax, cfg.DelayMultiplier, source)
	} else {
		graph = topology.Random(cfg.NumPeers, cfg.MinConn, cfg.MaxConn, cfg.DelayMin, cfg.DelayMax, cfg.DelayMultiplier, source)
	}
	graph.SelectValidators(cfg.NumValidators, source)

	known := knownset.New(cfg.KnownRows, cfg.KnownCols)
	pool := engine.NewPool()
	flow := propagation.New(graph, known, pool)
	pub := publish.New(graph, known, pool, flow)

	return &Driver{
		cfg:   cfg,
		rng:   source,
		sink:  sink,
		graph: graph,
		known: known,
		pool:  pool,
		flow:  flow,
		pub:   pub,
	}
}

// Graph exposes the generated topology, mainly for tests that need to
// assert on connectivity/validator placement.
func (d *Driver) Graph() *topology.Graph { return d.graph }

// inject creates count new transactions, each assigned to a uniformly
// chosen seed peer. A no-op if there are no seeds (no eligible actor).
func (d *Driver) inject(count int) {
	seeds := d.graph.Seeds()
	if len(seeds) == 0 {
		return
	}
	for i := 0; i < count; i++ {
		sizeKB := d.rng.IntRange(d.cfg.TxSizeMin, d.cfg.TxSizeMax)
		id := d.nextTxID
		d.nextTxID++

		_ = d.pool.Add(engine.Tx{ID: id, SizeKB: sizeKB}) // ids are monotonic, never collide
		d.totalInjected++

		seed := seeds[d.rng.IntRange(0, len(seeds)-1)]
		d.flow.Inject(id, seed)
	}
}

// pendingCount returns the pool's live pending-id count, which by
// construction always equals total_injected - total_published_global.
func (d *Driver) pendingCount() int {
	return d.pool.PendingCount()
}

// Run executes the full outer loop and returns the result record for
// this experiment.
func (d *Driver) Run() Result {
	for d.simTimeMs < int64(d.cfg.TotalSimulationMs) {
		// Inner block-cycle loop: in the bound `blocktime + publish_attempt_counter`
		// the counter is only ever nonzero right after a deferred publish attempt;
		// once a publish (forced or not) resets the counter to 0, the bound
		// collapses back to plain blocktime_ms for the next cycle, so the
		// forced-publish penalty (already charged directly to sim_time) is
		// never double-counted through this bound.
		bound := d.cfg.BlocktimeMs + d.pub.PublishAttemptCounter()
		for d.blockCycleTimeMs < bound && d.simTimeMs < int64(d.cfg.TotalSimulationMs) {
			remaining := bound - d.blockCycleTimeMs
			step := d.cfg.SimulationStepMs
			if remaining < step {
				step = remaining
			}

			d.inject(d.cfg.InjectionCount)
			d.flow.Broadcast(step, d.cfg.BandwidthKBPerMs)

			d.blockCycleTimeMs += step
			d.simTimeMs += int64(step)
			d.officialSimTimeMs += int64(step)

			d.report()

			bound = d.cfg.BlocktimeMs + d.pub.PublishAttemptCounter()
		}

		if !d.pub.HasProposedBlock() {
			d.pub.PrepareRequest(d.cfg.MaxTransactions, d.cfg.MaxBlockSizeKB, d.rng)
		}

		result := d.pub.PublishProposed(d.cfg.PublishThreshold, d.cfg.BlocktimeMs, d.cfg.SimulationStepMs)
		if result.Forced {
			d.forcedPublishCnt++
			d.simTimeMs += int64(result.SimTimeAddMs)
			if d.cfg.ResetCycleOnForce {
				d.blockCycleTimeMs = 0
			}
		} else if result.Published > 0 {
			d.blockCycleTimeMs = 0
		}

		d.report()
	}

	return d.finalResult()
}

func (d *Driver) report() {
	if d.sink == nil {
		return
	}
	d.sink.OnTick(Snapshot{
		Label:              d.cfg.Label,
		SimTimeMs:          d.simTimeMs,
		OfficialSimTimeMs:  d.officialSimTimeMs,
		TotalPublished:     d.pub.TotalPublishedGlobal,
		PublishedKB:        d.pub.TotalPublishedKB,
		PendingCount:       d.pendingCount(),
		ForcedPublishCount: d.forcedPublishCnt,
		TotalInjected:      d.totalInjected,
		InFlightCount:      d.flow.Count(),
	})
}

func (d *Driver) finalResult() Result {
	seconds := float64(d.simTimeMs) / 1000.0
	var tps, mbPerSec float64
	if seconds > 0 {
		tps = float64(d.pub.TotalPublishedGlobal) / seconds
	}
	publishedMB := float64(d.pub.TotalPublishedKB) / 1024.0
	if seconds > 0 {
		mbPerSec = publishedMB / seconds
	}

	return Result{
		Label:                d.cfg.Label,
		TotalSimulatedTimeMs: d.simTimeMs,
		TotalPublishedGlobal: d.pub.TotalPublishedGlobal,
		TPS:                  tps,
		PublishedMB:          publishedMB,
		MBPerSec:             mbPerSec,
		ForcedPublishCount:   d.forcedPublishCnt,
		FinalPendingCount:    d.pendingCount(),
	}
}
