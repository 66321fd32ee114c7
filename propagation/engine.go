// Package propagation implements the Propagation Engine: it
// advances every in-flight transaction one tick at a time, enforcing
// per-sender bandwidth and preventing re-delivery.
//
// It is adapted from hierachain-engine/network/propagation.go's gossip
// dedup/fan-out shape. Where that Propagator hashed a message and
// checked a sync.Map "seen" cache with a hop-count cutoff, this engine
// checks the shared knownset.Store and replaces the hop cutoff with a
// per-link timer racing the topology's edge delay under a bandwidth
// budget — the two mechanisms that actually govern propagation speed in
// this domain.
package propagation

import (
	"fmt"
	"sort"

	"github.com/VanDung-dev/txsim-engine/engine"
	"github.com/VanDung-dev/txsim-engine/knownset"
	"github.com/VanDung-dev/txsim-engine/topology"
)

// attempt is one outstanding delivery attempt from sender to receiver.
// Invariant: sender and receiver are adjacent in the topology.
type attempt struct {
	sender   int
	receiver int
	timerMs  int
}

// inFlight is a propagating transaction and its outstanding attempts.
// Invariant: every attempt shares txID; no two attempts created in the
// same tick share a (sender, receiver) pair.
type inFlight struct {
	txID     int
	origin   int
	attempts []attempt
}

// Engine owns the in-flight set and every attempt's timer exclusively;
// nothing outside this package mutates them.
type Engine struct {
	graph *topology.Graph
	known *knownset.Store
	pool  *engine.Pool

	flight map[int]*inFlight
}

// New builds a Propagation Engine bound to a topology, known-set store and
// transaction pool. All three are shared with the rest of the experiment;
// the engine only ever reads the topology and only ever writes bits
// through the known-set store.
func New(graph *topology.Graph, known *knownset.Store, pool *engine.Pool) *Engine {
	return &Engine{
		graph:  graph,
		known:  known,
		pool:   pool,
		flight: make(map[int]*inFlight),
	}
}

// Inject starts a transaction propagating from origin: marks origin's
// known bit and creates one attempt per neighbor of origin.
func (e *Engine) Inject(txID, origin int) {
	e.known.Mark(origin, txID)

	nbrs := e.graph.Neighbors(origin)
	attempts := make([]attempt, 0, len(nbrs))
	for _, n := range nbrs {
		attempts = append(attempts, attempt{sender: origin, receiver: n, timerMs: 0})
	}

	e.flight[txID] = &inFlight{txID: txID, origin: origin, attempts: attempts}
}

// Count returns the number of transactions currently in flight.
func (e *Engine) Count() int {
	return len(e.flight)
}

// Drop removes all in-flight state for id without notice, matching
// publication's own no-notification failure semantics.
func (e *Engine) Drop(id int) {
	delete(e.flight, id)
}

// Broadcast advances every in-flight transaction by stepMs, delivering
// attempts whose timer has met the edge delay as long as the sender's
// per-step bandwidth budget allows, and fanning newly-delivered
// transactions out to the receiver's other neighbors. Runs the full
// advance/drop/deliver-or-defer/fan-out cycle once per call.
func (e *Engine) Broadcast(stepMs int, bandwidthKBPerMs float64) {
	if stepMs <= 0 {
		panic(fmt.Sprintf("propagation: step_ms must be positive, got %d", stepMs))
	}

	maxPerSender := bandwidthKBPerMs * float64(stepMs)
	transmitted := make(map[int]float64)

	// Iterated in ascending txID order rather than Go's randomized map
	// order: two attempts sharing a sender contend for maxPerSender, and
	// which one is processed first decides who wins the budget this tick.
	// That contention outcome must be a function of the run's seed and
	// config alone, never of unseeded map order.
	txIDs := make([]int, 0, len(e.flight))
	for txID := range e.flight {
		txIDs = append(txIDs, txID)
	}
	sort.Ints(txIDs)

	for _, txID := range txIDs {
		flight := e.flight[txID]
		tx, ok := e.pool.Get(txID)
		if !ok {
			// Published mid-tick by a publisher call outside this
			// engine's control; drop its state without notice.
			delete(e.flight, txID)
			continue
		}

		kept := make([]attempt, 0, len(flight.attempts))
		for _, a := range flight.attempts {
			if !e.graph.Adjacent(a.sender, a.receiver) {
				panic(fmt.Sprintf("propagation: attempt sender %d and receiver %d are not adjacent", a.sender, a.receiver))
			}

			a.timerMs += stepMs

			if e.known.Knows(a.receiver, txID) {
				continue // already known: drop the attempt
			}

			delay := e.graph.EdgeDelay(a.sender, a.receiver)
			if a.timerMs < delay {
				kept = append(kept, a)
				continue
			}

			if transmitted[a.sender]+float64(tx.SizeKB) > maxPerSender {
				kept = append(kept, a) // deferred, not dropped
				continue
			}

			transmitted[a.sender] += float64(tx.SizeKB)
			e.known.Mark(a.receiver, txID)

			for _, n := range e.graph.Neighbors(a.receiver) {
				if n == a.sender {
					continue // no back-echo to the immediate predecessor
				}
				if e.known.Knows(n, txID) {
					continue
				}
				kept = append(kept, attempt{sender: a.receiver, receiver: n, timerMs: 0})
			}
		}
		flight.attempts = kept

		if len(flight.attempts) == 0 {
			delete(e.flight, txID)
		}
	}
}
