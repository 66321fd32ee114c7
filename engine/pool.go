// Package engine implements the Transaction Pool: the mapping from a live
// transaction id to its metadata and the index of currently-pending ids.
// It is adapted from a map-backed Mempool (engine/mempool.go in the
// reference corpus), stripped of the priority heap: block-candidate
// ordering in this simulator is a Fisher-Yates shuffle over the pending
// set, not a priority queue, so the heap machinery used there for
// priority delivery has no job here.
package engine

import (
	"errors"
	"sort"
)

// ErrTxAlreadyExists is returned by Add when the id is already tracked.
var ErrTxAlreadyExists = errors.New("engine: transaction already exists")

// Tx is a transaction's pool metadata: its size in kilobytes. Ids are
// assigned by the caller (a monotonically increasing counter starting at
// 0) and never reused within a run.
type Tx struct {
	ID     int
	SizeKB int
}

// Pool owns transaction metadata and the pending-id index. Ownership is
// exclusive: the Propagation Engine and Publisher read Pool state but only
// Pool (via Add/Remove) mutates it.
type Pool struct {
	byID    map[int]Tx
	pending map[int]struct{}
}

// NewPool creates an empty pool.
func NewPool() *Pool {
	return &Pool{
		byID:    make(map[int]Tx),
		pending: make(map[int]struct{}),
	}
}

// Add inserts a new transaction into the pool and its pending index.
func (p *Pool) Add(tx Tx) error {
	if _, exists := p.byID[tx.ID]; exists {
		return ErrTxAlreadyExists
	}
	p.byID[tx.ID] = tx
	p.pending[tx.ID] = struct{}{}
	return nil
}

// Get returns a transaction's metadata and whether it is tracked.
func (p *Pool) Get(id int) (Tx, bool) {
	tx, ok := p.byID[id]
	return tx, ok
}

// Remove deletes id from both the lookup table and the pending index.
// A no-op if id is not tracked.
func (p *Pool) Remove(id int) {
	delete(p.byID, id)
	delete(p.pending, id)
}

// PendingIDs returns a snapshot of currently-pending transaction ids in
// ascending order. Sorted rather than left in map-iteration order: the
// proposer's candidate list is built by walking this slice before a
// Fisher-Yates shuffle, and Fisher-Yates permutes positions, not values,
// so an unseeded starting order would leak into the shuffled result even
// under a fixed rng seed.
func (p *Pool) PendingIDs() []int {
	ids := make([]int, 0, len(p.pending))
	for id := range p.pending {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// PendingCount returns the number of currently-pending transactions.
func (p *Pool) PendingCount() int {
	return len(p.pending)
}
