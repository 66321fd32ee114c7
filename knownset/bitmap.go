// Package knownset implements the per-peer "known transaction" membership
// test and the global published-transaction flag, both backed by dense
// row/col-tiled bitmaps. Dense integer transaction ids
// let every peer replace a hash set with an O(1) bit test; row/col tiling
// keeps individual rows small and cache-friendly, with cols configurable
// to trade memory granularity for lookup locality (Design Notes).
package knownset

import "fmt"

// Store owns every peer's KnownBitmap and the global PublishedBitmap.
// The Propagation Engine and Publisher read and write bits through this
// interface but never construct bitmaps of their own — Store is the sole
// mutator.
type Store struct {
	cols int
	rows int

	known     map[int][]uint64 // peer -> packed bitmap of `rows*cols` bits
	published []uint64
}

const wordBits = 64

// New creates a Store sized for ids in [0, rows*cols). cols defaults to 20
// if <= 0.
func New(rows, cols int) *Store {
	if cols <= 0 {
		cols = 20
	}
	total := rows * cols
	words := (total + wordBits - 1) / wordBits
	return &Store{
		cols:      cols,
		rows:      rows,
		known:     make(map[int][]uint64),
		published: make([]uint64, words),
	}
}

// coord maps a transaction id to its (row, col), then flattens to
// a bit index. Out-of-range ids are a fatal configuration error.
func (s *Store) coord(id int) int {
	row := id / s.cols
	col := id % s.cols
	if row >= s.rows || row < 0 || col < 0 {
		panic(fmt.Sprintf("knownset: id %d maps to out-of-range position (row=%d, col=%d, rows=%d, cols=%d)", id, row, col, s.rows, s.cols))
	}
	return row*s.cols + col
}

func (s *Store) ensurePeer(peer int) []uint64 {
	bits, ok := s.known[peer]
	if !ok {
		words := (s.rows*s.cols + wordBits - 1) / wordBits
		bits = make([]uint64, words)
		s.known[peer] = bits
	}
	return bits
}

func getBit(bits []uint64, idx int) bool {
	return bits[idx/wordBits]&(1<<uint(idx%wordBits)) != 0
}

func setBit(bits []uint64, idx int) {
	bits[idx/wordBits] |= 1 << uint(idx%wordBits)
}

// Mark records that peer now knows transaction id.
func (s *Store) Mark(peer, id int) {
	bits := s.ensurePeer(peer)
	setBit(bits, s.coord(id))
}

// Knows reports whether peer knows transaction id.
func (s *Store) Knows(peer, id int) bool {
	bits, ok := s.known[peer]
	if !ok {
		return false
	}
	return getBit(bits, s.coord(id))
}

// MarkPublished records that id has been published, globally and finally.
func (s *Store) MarkPublished(id int) {
	setBit(s.published, s.coord(id))
}

// IsPublished reports whether id has ever been published.
func (s *Store) IsPublished(id int) bool {
	return getBit(s.published, s.coord(id))
}

// ClearAll resets every peer's known bitmap and the global published
// bitmap, e.g. between independent runs sharing one Store.
func (s *Store) ClearAll() {
	for peer := range s.known {
		for i := range s.known[peer] {
			s.known[peer][i] = 0
		}
	}
	for i := range s.published {
		s.published[i] = 0
	}
}
