package publish

import (
	"testing"

	"github.com/VanDung-dev/txsim-engine/engine"
	"github.com/VanDung-dev/txsim-engine/knownset"
	"github.com/VanDung-dev/txsim-engine/propagation"
	"github.com/VanDung-dev/txsim-engine/rng"
	"github.com/VanDung-dev/txsim-engine/topology"
)

func newHarness(numPeers, numValidators int) (*topology.Graph, *knownset.Store, *engine.Pool, *Publisher) {
	source := rng.New(11)
	g := topology.FullMesh(numPeers, 10, 100, 1, source)
	g.SelectValidators(numValidators, source)
	known := knownset.New(1000, 20)
	pool := engine.NewPool()
	flow := propagation.New(g, known, pool)
	pub := New(g, known, pool, flow)
	return g, known, pool, pub
}

func TestPrepareRequestNoValidatorsIsNoop(t *testing.T) {
	g := topology.FullMesh(3, 10, 100, 1, rng.New(1))
	g.SelectValidators(0, rng.New(1))
	known := knownset.New(1000, 20)
	pool := engine.NewPool()
	flow := propagation.New(g, known, pool)
	pub := New(g, known, pool, flow)

	pub.PrepareRequest(10, 1000, rng.New(1))

	if pub.HasProposedBlock() {
		t.Fatal("expected no proposed block when there are no validators")
	}
}

func TestPrepareRequestOnlyKnownByProposer(t *testing.T) {
	g, known, pool, pub := newHarness(5, 1)
	validators := g.Validators()
	proposer := validators[0]

	_ = pool.Add(engine.Tx{ID: 1, SizeKB: 5})
	_ = pool.Add(engine.Tx{ID: 2, SizeKB: 5})
	known.Mark(proposer, 1) // proposer only knows tx 1

	pub.PrepareRequest(10, 1000, rng.New(2))

	if !pub.HasProposedBlock() {
		t.Fatal("expected a proposed block")
	}
	if len(pub.proposed.Txs) != 1 || pub.proposed.Txs[0].ID != 1 {
		t.Fatalf("proposed block = %+v, want only tx 1", pub.proposed.Txs)
	}
}

func TestPrepareRequestExcludesPublished(t *testing.T) {
	g, known, pool, pub := newHarness(5, 1)
	proposer := g.Validators()[0]

	_ = pool.Add(engine.Tx{ID: 1, SizeKB: 5})
	known.Mark(proposer, 1)
	known.MarkPublished(1)

	pub.PrepareRequest(10, 1000, rng.New(2))

	if len(pub.proposed.Txs) != 0 {
		t.Fatalf("proposed block includes already-published tx: %+v", pub.proposed.Txs)
	}
}

func TestPrepareRequestRespectsMaxBlockSize(t *testing.T) {
	g, known, pool, pub := newHarness(5, 1)
	proposer := g.Validators()[0]

	for i := 1; i <= 5; i++ {
		_ = pool.Add(engine.Tx{ID: i, SizeKB: 10})
		known.Mark(proposer, i)
	}

	pub.PrepareRequest(100, 25, rng.New(2)) // room for at most 2 of the 10KB txs

	if pub.proposed.SizeKB > 25 {
		t.Fatalf("SizeKB = %d, exceeds cap 25", pub.proposed.SizeKB)
	}
	if len(pub.proposed.Txs) > 2 {
		t.Fatalf("selected %d txs, expected at most 2 under a 25KB cap", len(pub.proposed.Txs))
	}
}

func TestPublishProposedQuorumMet(t *testing.T) {
	g, known, pool, pub := newHarness(10, 4)
	proposer := g.Validators()[0]

	_ = pool.Add(engine.Tx{ID: 1, SizeKB: 5})
	for _, v := range g.Validators() {
		known.Mark(v, 1)
	}
	known.Mark(proposer, 1)

	pub.PrepareRequest(10, 1000, rng.New(2))
	res := pub.PublishProposed(95.0, 3000, 100)

	if res.Forced {
		t.Fatal("expected a normal (non-forced) publish when quorum coverage is met")
	}
	if res.Published != 1 {
		t.Fatalf("Published = %d, want 1", res.Published)
	}
	if !known.IsPublished(1) {
		t.Fatal("committed tx not marked published")
	}
	if _, ok := pool.Get(1); ok {
		t.Fatal("committed tx still in pool")
	}
	if pub.HasProposedBlock() {
		t.Fatal("proposed block not cleared after publish")
	}
}

func TestPublishProposedForcesAfterBlocktime(t *testing.T) {
	g, known, pool, pub := newHarness(10, 4)
	proposer := g.Validators()[0]

	_ = pool.Add(engine.Tx{ID: 1, SizeKB: 5})
	known.Mark(proposer, 1) // only one of the 4 validators knows it: quorum (3) is unreachable

	pub.PrepareRequest(10, 1000, rng.New(2))

	blocktimeMs := 300
	stepMs := 100

	// The drawn proposer may not be validators[0], in which case the block
	// is empty and the forced publish commits zero transactions; stop on
	// the first forced or non-empty publish either way.
	var last PublishResult
	for elapsed := 0; elapsed < blocktimeMs+stepMs; elapsed += stepMs {
		last = pub.PublishProposed(95.0, blocktimeMs, stepMs)
		if last.Forced || last.Published > 0 {
			break
		}
	}

	if !last.Forced {
		t.Fatal("expected a forced publish once the blocktime watchdog fires")
	}
	if last.SimTimeAddMs != ForcedPublishPenaltyMultiplier*blocktimeMs {
		t.Fatalf("SimTimeAddMs = %d, want %d", last.SimTimeAddMs, ForcedPublishPenaltyMultiplier*blocktimeMs)
	}
	if pub.PublishAttemptCounter() != 0 {
		t.Fatalf("PublishAttemptCounter() = %d, want 0 after a forced publish", pub.PublishAttemptCounter())
	}
}

func TestPublishProposedWithoutBlockIsNoop(t *testing.T) {
	_, _, _, pub := newHarness(5, 2)

	res := pub.PublishProposed(95.0, 3000, 100)

	if res.Published != 0 || res.Forced {
		t.Fatalf("PublishProposed on nil proposed block = %+v, want zero value", res)
	}
}
