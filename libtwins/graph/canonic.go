package graph

import (
	"math/bits"
	"sort"

	"github.com/2x3systems/densitytwins/dtwins"
)

// CanonicCode is an isomorphism-invariant encoding of a graph's adjacency.
//
// For the canonical labeling, bit (L-1-k) holds the k-th pair (q,p), q < p, in the order
// (0,1), (0,2), (1,2), (0,3), ... where L = Nv(Nv-1)/2.  Two graphs of the same order are
// isomorphic iff their codes are equal.
type CanonicCode uint64

// NumPairs returns Nv(Nv-1)/2
func NumPairs(Nv int) int {
	return Nv * (Nv - 1) / 2
}

// Canonize returns the canonic code of X.
//
// Vertices are first partitioned by colour refinement (degree, then the multiset of neighbour colours
// until stable).  The canonical labeling is the one maximizing the code among all labelings that keep
// each colour cell in its block.
func (X *Graph) Canonize() CanonicCode {
	var cz canonizer
	cz.init(X)
	cz.search(0, 0)
	return cz.best
}

// GraphFromCode rebuilds the canonical form of a graph from its code.
func GraphFromCode(Nv int, code CanonicCode) *Graph {
	X := &Graph{Nv: Nv}
	k := NumPairs(Nv) - 1
	for p := 1; p < Nv; p++ {
		for q := 0; q < p; q++ {
			if code>>k&1 != 0 {
				X.SetEdge(q, p, true)
			}
			k--
		}
	}
	return X
}

type canonizer struct {
	X        *Graph
	Nv       int
	L        int
	cellOf   [dtwins.MaxOrder]int // position -> colour cell
	colour   [dtwins.MaxOrder]int // vertex -> colour
	labeling [dtwins.MaxOrder]int // position -> vertex
	used     VtxSet               // vertices already placed
	best     CanonicCode
	found    bool
}

func (cz *canonizer) init(X *Graph) {
	cz.X = X
	cz.Nv = X.Nv
	cz.L = NumPairs(X.Nv)
	cz.refine()

	// Cells occupy contiguous position blocks in colour order
	pos := 0
	for c := 0; pos < cz.Nv; c++ {
		for v := 0; v < cz.Nv; v++ {
			if cz.colour[v] == c {
				cz.cellOf[pos] = c
				pos++
			}
		}
	}
}

// refine assigns each vertex a colour that depends only on the isomorphism class of (X, v).
func (cz *canonizer) refine() {
	Nv := cz.Nv
	for v := 0; v < Nv; v++ {
		cz.colour[v] = cz.X.Degree(v)
	}
	numColours := cz.renumber(func(v int) []int {
		return []int{cz.colour[v]}
	})

	for {
		prev := cz.colour
		n := cz.renumber(func(v int) []int {
			sig := []int{prev[v]}
			nbrs := make([]int, 0, Nv)
			row := cz.X.adj[v]
			for row != 0 {
				u := bits.TrailingZeros16(row)
				row &= row - 1
				nbrs = append(nbrs, prev[u])
			}
			sort.Ints(nbrs)
			return append(sig, nbrs...)
		})
		if n == numColours {
			return
		}
		numColours = n
	}
}

// renumber replaces each vertex colour with the rank of its signature among all distinct signatures.
func (cz *canonizer) renumber(signature func(v int) []int) int {
	Nv := cz.Nv
	sigs := make([][]int, Nv)
	for v := 0; v < Nv; v++ {
		sigs[v] = signature(v)
	}

	order := make([]int, Nv)
	for v := range order {
		order[v] = v
	}
	sort.SliceStable(order, func(a, b int) bool {
		return compareInts(sigs[order[a]], sigs[order[b]]) < 0
	})

	numColours := 0
	for k, v := range order {
		if k > 0 && compareInts(sigs[order[k-1]], sigs[v]) != 0 {
			numColours++
		}
		cz.colour[v] = numColours
	}
	if Nv > 0 {
		numColours++
	}
	return numColours
}

func compareInts(a, b []int) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return len(a) - len(b)
}

// search places a vertex at position p given the code prefix for positions 0..p-1.
func (cz *canonizer) search(p int, prefix CanonicCode) {
	if p == cz.Nv {
		if !cz.found || prefix > cz.best {
			cz.best = prefix
			cz.found = true
		}
		return
	}

	// Bits contributed once positions 0..p are placed
	known := (p + 1) * p / 2

	for v := 0; v < cz.Nv; v++ {
		if cz.used>>v&1 != 0 || cz.colour[v] != cz.cellOf[p] {
			continue
		}

		next := prefix
		for q := 0; q < p; q++ {
			next = next<<1 | CanonicCode(cz.X.Edge(cz.labeling[q], v))
		}

		// Drop branches that can no longer reach the best code
		if cz.found && next < cz.best>>(cz.L-known) {
			continue
		}

		cz.labeling[p] = v
		cz.used |= 1 << v
		cz.search(p+1, next)
		cz.used &^= 1 << v
	}
}
