package subset

import (
	"math/bits"

	"github.com/2x3systems/densitytwins/libtwins/graph"
)

// VertexSubset is a subset of the vertices of an n-vertex universe, bit i denoting vertex i.
type VertexSubset = graph.VtxSet

// Count returns 2^n, the number of subsets of an n-element universe.
func Count(n int) int {
	return 1 << n
}

// Size returns the number of vertices in S.
func Size(S VertexSubset) int {
	return bits.OnesCount16(S)
}

// Full returns the set of all n vertices.
func Full(n int) VertexSubset {
	return graph.AllVtx(n)
}

// FromRank returns the subset visited at the given 1-based rank of the enumeration order.
//
// Rank 1 is the empty set and rank 2^n is the full set; rank r visits the bitmask r-1.
func FromRank(n, rank int) VertexSubset {
	return VertexSubset(rank-1) & Full(n)
}

// Sweep calls visit with every subset whose rank is a multiple of stride, in enumeration order.
// The sweep stops early if visit returns false, in which case Sweep returns false.
func Sweep(n, stride int, visit func(S VertexSubset) bool) bool {
	if stride < 1 {
		stride = 1
	}
	total := Count(n)
	for rank := stride; rank <= total; rank += stride {
		if !visit(FromRank(n, rank)) {
			return false
		}
	}
	return true
}

// Enumerator is a restartable generator over all 2^n subsets in enumeration order.
type Enumerator struct {
	n    int
	rank int
}

func NewEnumerator(n int) *Enumerator {
	return &Enumerator{n: n}
}

// Next advances to the next subset, returning false once all 2^n subsets have been visited.
func (e *Enumerator) Next() (VertexSubset, bool) {
	if e.rank >= Count(e.n) {
		return 0, false
	}
	e.rank++
	return FromRank(e.n, e.rank), true
}

// Rank returns the 1-based rank of the subset last returned by Next (0 before the first call).
func (e *Enumerator) Rank() int {
	return e.rank
}

// Seek positions the enumerator so that the following Next returns the subset at the given rank.
func (e *Enumerator) Seek(rank int) {
	if rank < 1 {
		rank = 1
	}
	e.rank = rank - 1
}

// Reset restarts the enumeration.
func (e *Enumerator) Reset() {
	e.rank = 0
}
