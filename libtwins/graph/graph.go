package graph

import (
	"fmt"
	"io"
	"math/bits"
	"strings"

	"github.com/2x3systems/densitytwins/dtwins"
	"github.com/pkg/errors"
)

// VtxSet is a bitmask of vertex indices (bit i set denotes vertex i).
type VtxSet = uint16

// Graph is a simple undirected graph on Nv <= dtwins.MaxOrder vertices.
//
// Row i of the adjacency matrix is held as the bitmask adj[i], so adj[i]>>j & 1 == adj(i,j).
// The matrix is kept symmetric with a zero diagonal.
type Graph struct {
	Nv  int
	adj [dtwins.MaxOrder]VtxSet
}

// NewGraph returns an edgeless graph on Nv vertices.
func NewGraph(Nv int) (*Graph, error) {
	if Nv < 0 || Nv > dtwins.MaxOrder {
		return nil, errors.Wrapf(dtwins.ErrOrderRange, "order %d", Nv)
	}
	return &Graph{Nv: Nv}, nil
}

// Complete returns K_Nv.
func Complete(Nv int) *Graph {
	X := &Graph{Nv: Nv}
	all := AllVtx(Nv)
	for i := 0; i < Nv; i++ {
		X.adj[i] = all &^ (1 << i)
	}
	return X
}

// Cycle returns C_Nv (Nv >= 3).
func Cycle(Nv int) *Graph {
	X := &Graph{Nv: Nv}
	for i := 0; i < Nv; i++ {
		X.SetEdge(i, (i+1)%Nv, true)
	}
	return X
}

// AllVtx returns the set of all Nv vertices.
func AllVtx(Nv int) VtxSet {
	return VtxSet(1<<Nv) - 1
}

func (X *Graph) Order() int {
	return X.Nv
}

// Adj returns true if vertices i and j are adjacent.
func (X *Graph) Adj(i, j int) bool {
	return X.adj[i]>>j&1 != 0
}

// Edge returns adj(i,j) as 0 or 1.
func (X *Graph) Edge(i, j int) VtxSet {
	return X.adj[i] >> j & 1
}

// Row returns the neighbour set of vertex i.
func (X *Graph) Row(i int) VtxSet {
	return X.adj[i]
}

func (X *Graph) Degree(i int) int {
	return bits.OnesCount16(X.adj[i])
}

// SetEdge adds or removes edge i-j.  Loops are ignored.
func (X *Graph) SetEdge(i, j int, on bool) {
	if i == j {
		return
	}
	if on {
		X.adj[i] |= 1 << j
		X.adj[j] |= 1 << i
	} else {
		X.adj[i] &^= 1 << j
		X.adj[j] &^= 1 << i
	}
}

func (X *Graph) NumEdges() int {
	total := 0
	for i := 0; i < X.Nv; i++ {
		total += bits.OnesCount16(X.adj[i])
	}
	return total / 2
}

// WithVertex returns a copy of X plus vertex Nv adjacent to the vertices in nbrs.
func (X *Graph) WithVertex(nbrs VtxSet) (*Graph, error) {
	Nv := X.Nv
	if Nv >= dtwins.MaxOrder {
		return nil, errors.Wrapf(dtwins.ErrOrderRange, "order %d", Nv+1)
	}
	Y := &Graph{Nv: Nv + 1, adj: X.adj}
	nbrs &= AllVtx(Nv)
	Y.adj[Nv] = nbrs
	for i := 0; i < Nv; i++ {
		Y.adj[i] |= (nbrs >> i & 1) << Nv
	}
	return Y, nil
}

// Complement returns the graph with every non-loop adjacency flipped.
func (X *Graph) Complement() *Graph {
	Xc := &Graph{Nv: X.Nv}
	all := AllVtx(X.Nv)
	for i := 0; i < X.Nv; i++ {
		Xc.adj[i] = all &^ X.adj[i] &^ (1 << i)
	}
	return Xc
}

// Permute returns the graph where vertex i of X is relabeled perm[i].
func (X *Graph) Permute(perm []int) *Graph {
	Xp := &Graph{Nv: X.Nv}
	for i := 0; i < X.Nv; i++ {
		row := X.adj[i]
		for row != 0 {
			j := bits.TrailingZeros16(row)
			row &= row - 1
			Xp.adj[perm[i]] |= 1 << perm[j]
		}
	}
	return Xp
}

func (X *Graph) Equal(Y *Graph) bool {
	return X.Nv == Y.Nv && X.adj == Y.adj
}

// InitFromMatrixRows assigns this graph from Nv rows of Nv '0'/'1' characters.
func (X *Graph) InitFromMatrixRows(rows []string) error {
	Nv := len(rows)
	if Nv > dtwins.MaxOrder {
		return errors.Wrapf(dtwins.ErrOrderRange, "order %d", Nv)
	}

	*X = Graph{Nv: Nv}
	for i, row := range rows {
		if len(row) != Nv {
			return errors.Wrapf(dtwins.ErrDatasetMalformed, "row %d has %d entries, expected %d", i, len(row), Nv)
		}
		for j := 0; j < Nv; j++ {
			switch row[j] {
			case '0':
			case '1':
				X.adj[i] |= 1 << j
			default:
				return errors.Wrapf(dtwins.ErrDatasetMalformed, "row %d col %d: bad adjacency char %q", i, j, row[j])
			}
		}
	}

	for i := 0; i < Nv; i++ {
		if X.adj[i]>>i&1 != 0 {
			return errors.Wrapf(dtwins.ErrDatasetMalformed, "vertex %d has a loop", i)
		}
		for j := i + 1; j < Nv; j++ {
			if X.Edge(i, j) != X.Edge(j, i) {
				return errors.Wrapf(dtwins.ErrDatasetMalformed, "matrix is not symmetric at (%d,%d)", i, j)
			}
		}
	}
	return nil
}

// AppendMatrixRow appends row i as '0'/'1' characters.
func (X *Graph) AppendMatrixRow(buf []byte, i int) []byte {
	for j := 0; j < X.Nv; j++ {
		buf = append(buf, '0'+byte(X.Edge(i, j)))
	}
	return buf
}

// WriteAsMatrixStr writes the adjacency matrix, one newline-terminated row per vertex.
func (X *Graph) WriteAsMatrixStr(out io.Writer) {
	var buf [dtwins.MaxOrder + 1]byte
	for i := 0; i < X.Nv; i++ {
		row := X.AppendMatrixRow(buf[:0], i)
		row = append(row, '\n')
		out.Write(row)
	}
}

// WriteAsEdgeExpr writes the edges as "i-j" terms separated by commas, e.g. "0-1,0-2,1-2".
func (X *Graph) WriteAsEdgeExpr(out io.Writer) {
	first := true
	for i := 0; i < X.Nv; i++ {
		for j := i + 1; j < X.Nv; j++ {
			if !X.Adj(i, j) {
				continue
			}
			if !first {
				io.WriteString(out, ",")
			}
			fmt.Fprintf(out, "%d-%d", i, j)
			first = false
		}
	}
}

func (X *Graph) String() string {
	b := strings.Builder{}
	fmt.Fprintf(&b, "v=%d,\"", X.Nv)
	X.WriteAsEdgeExpr(&b)
	b.WriteByte('"')
	return b.String()
}
