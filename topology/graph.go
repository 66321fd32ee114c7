// Package topology models the weighted undirected peer graph the simulator
// propagates transactions over. Peers are dense integer ids in [1, N];
// edges carry an integer millisecond delay. Adjacency is an index-based
// per-peer neighbor map, following the arena-of-integers style
// hierachain-engine/network/zmq_transport.go uses for its peer table —
// no owning back-references, no pointer cycles.
package topology

import (
	"fmt"
	"sort"

	"github.com/VanDung-dev/txsim-engine/rng"
)

const maxDegreeAttempts = 1000

// Peer is a simulated network node.
type Peer struct {
	ID          int
	IsValidator bool
}

// Graph is an undirected weighted graph over peers 1..N plus the frozen
// validator set for a run.
type Graph struct {
	n         int
	neighbors map[int]map[int]int // peer -> neighbor -> delay_ms
	degree    map[int]int
	validator map[int]bool

	validatorIDs []int
	quorum       int
}

// newEmpty allocates a graph with n peers, no edges, no validators.
func newEmpty(n int) *Graph {
	g := &Graph{
		n:         n,
		neighbors: make(map[int]map[int]int, n),
		degree:    make(map[int]int, n),
		validator: make(map[int]bool, n),
	}
	for i := 1; i <= n; i++ {
		g.neighbors[i] = make(map[int]int)
	}
	return g
}

// FullMesh builds a graph connecting every pair of peers.
func FullMesh(n, delayMin, delayMax, delayMultiplier int, r rng.Source) *Graph {
	g := newEmpty(n)
	for i := 1; i <= n; i++ {
		for j := i + 1; j <= n; j++ {
			delay := clampedDelay(r, delayMin, delayMax, delayMultiplier)
			g.addEdge(i, j, delay, n)
		}
	}
	return g
}

// Random builds a sparse graph: for each peer, in order, draw a target
// degree in [minConn, maxConn] and repeatedly sample candidates until that
// many edges are added or 1000 rejections are hit for that peer. Not
// necessarily regular; connectivity is not guaranteed.
func Random(n, minConn, maxConn, delayMin, delayMax, delayMultiplier int, r rng.Source) *Graph {
	g := newEmpty(n)
	for i := 1; i <= n; i++ {
		target := r.IntRange(minConn, maxConn)
		if target > maxConn {
			target = maxConn
		}
		connected := make(map[int]bool)
		attempts := 0
		for len(connected) < target && g.degree[i] < maxConn && attempts < maxDegreeAttempts {
			candidate := r.IntRange(1, n)
			if candidate == i || connected[candidate] {
				attempts++
				continue
			}
			if _, exists := g.neighbors[i][candidate]; exists {
				attempts++
				continue
			}
			if g.degree[candidate] >= maxConn {
				attempts++
				continue
			}
			delay := clampedDelay(r, delayMin, delayMax, delayMultiplier)
			if g.addEdge(i, candidate, delay, maxConn) {
				connected[candidate] = true
			}
		}
	}
	return g
}

func clampedDelay(r rng.Source, delayMin, delayMax, delayMultiplier int) int {
	raw := int(r.Normal(100.0, 50.0))
	if raw < delayMin {
		raw = delayMin
	}
	if raw > delayMax {
		raw = delayMax
	}
	return raw * delayMultiplier
}

// addEdge is idempotent and honors maxConn on both endpoints.
func (g *Graph) addEdge(a, b, delayMs, maxConn int) bool {
	if a == b {
		return false
	}
	if _, exists := g.neighbors[a][b]; exists {
		return false
	}
	if g.degree[a] >= maxConn || g.degree[b] >= maxConn {
		return false
	}
	g.neighbors[a][b] = delayMs
	g.neighbors[b][a] = delayMs
	g.degree[a]++
	g.degree[b]++
	return true
}

// SelectValidators marks k distinct peers, chosen uniformly without
// replacement, as validators and freezes the set + quorum threshold M.
func (g *Graph) SelectValidators(k int, r rng.Source) {
	all := make([]int, g.n)
	for i := range all {
		all[i] = i + 1
	}
	r.Shuffle(len(all), func(i, j int) { all[i], all[j] = all[j], all[i] })

	if k > len(all) {
		k = len(all)
	}
	g.validatorIDs = make([]int, 0, k)
	for i := 0; i < k; i++ {
		g.validator[all[i]] = true
		g.validatorIDs = append(g.validatorIDs, all[i])
	}

	f := (len(g.validatorIDs) - 1) / 3
	m := 2*f + 1
	if m < 1 {
		m = 1
	}
	g.quorum = m
}

// N returns the number of peers.
func (g *Graph) N() int { return g.n }

// IsValidator reports whether peer p is a validator.
func (g *Graph) IsValidator(p int) bool { return g.validator[p] }

// Validators returns the frozen validator set for this run.
func (g *Graph) Validators() []int {
	out := make([]int, len(g.validatorIDs))
	copy(out, g.validatorIDs)
	return out
}

// Seeds returns every non-validator peer.
func (g *Graph) Seeds() []int {
	seeds := make([]int, 0, g.n-len(g.validatorIDs))
	for i := 1; i <= g.n; i++ {
		if !g.validator[i] {
			seeds = append(seeds, i)
		}
	}
	return seeds
}

// Quorum returns M, the number of validators required to meet coverage
// threshold before a block may publish normally.
func (g *Graph) Quorum() int { return g.quorum }

// Neighbors returns peer p's neighbor ids in ascending order. The returned
// slice is a fresh copy safe for the caller to mutate. Sorted rather than
// left in Go's randomized map-iteration order: callers (Broadcast's
// fan-out, Inject's initial attempt list) fold this order into
// bandwidth-contention outcomes, which must be reproducible bit-for-bit
// for a fixed seed.
func (g *Graph) Neighbors(p int) []int {
	nbrs := g.neighbors[p]
	out := make([]int, 0, len(nbrs))
	for n := range nbrs {
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}

// EdgeDelay returns the delay in ms between adjacent peers a and b.
// Panics if a and b are not adjacent; callers must only invoke this on
// pairs already known to be edges (an invariant violation otherwise).
func (g *Graph) EdgeDelay(a, b int) int {
	delay, ok := g.neighbors[a][b]
	if !ok {
		panic(fmt.Sprintf("topology: peers %d and %d are not adjacent", a, b))
	}
	return delay
}

// Adjacent reports whether a and b share an edge.
func (g *Graph) Adjacent(a, b int) bool {
	_, ok := g.neighbors[a][b]
	return ok
}
