package invariants

import (
	"fmt"

	"github.com/2x3systems/densitytwins/dtwins"
	"github.com/2x3systems/densitytwins/libtwins/graph"
	"github.com/2x3systems/densitytwins/libtwins/subset"
	"github.com/pkg/errors"
)

// Record holds the invariants two graphs must share before their compatibility is tested.
type Record struct {
	Independence   uint8 // independence number
	Clique         uint8 // clique number
	EmptyTwins     uint8 // twin pairs that are not adjacent
	ConnectedTwins uint8 // twin pairs that are adjacent
}

func (rec Record) String() string {
	return fmt.Sprintf("(%d,%d,%d,%d)", rec.Independence, rec.Clique, rec.EmptyTwins, rec.ConnectedTwins)
}

// IsDensityAtomic returns true if the graph lacks empty twins or connected twins.
// Such a graph has no density twin and is excluded from pairing.
func (rec Record) IsDensityAtomic() bool {
	return rec.EmptyTwins == 0 || rec.ConnectedTwins == 0
}

// Compare orders records field by field.
func Compare(A, B Record) int {
	switch {
	case A.Independence != B.Independence:
		return int(A.Independence) - int(B.Independence)
	case A.Clique != B.Clique:
		return int(A.Clique) - int(B.Clique)
	case A.EmptyTwins != B.EmptyTwins:
		return int(A.EmptyTwins) - int(B.EmptyTwins)
	default:
		return int(A.ConnectedTwins) - int(B.ConnectedTwins)
	}
}

// AppendTo appends the 4 byte encoding of this record.
func (rec Record) AppendTo(buf []byte) []byte {
	return append(buf, rec.Independence, rec.Clique, rec.EmptyTwins, rec.ConnectedTwins)
}

// RecordFromBytes is the inverse of AppendTo.
func RecordFromBytes(buf []byte) Record {
	return Record{buf[0], buf[1], buf[2], buf[3]}
}

// Compute returns the invariants of X.
func Compute(X *graph.Graph) Record {
	emptyTwins, connTwins := CountTwins(X)
	return Record{
		Independence:   uint8(MaxHomogeneous(X, 0)),
		Clique:         uint8(MaxHomogeneous(X, 1)),
		EmptyTwins:     uint8(emptyTwins),
		ConnectedTwins: uint8(connTwins),
	}
}

// ComputeAll returns the invariant table for all graphs of a corpus, indexed by graph id.
func ComputeAll(graphs []graph.Graph) []Record {
	recs := make([]Record, len(graphs))
	for r := range graphs {
		recs[r] = Compute(&graphs[r])
	}
	return recs
}

// MaxHomogeneous returns the size of the largest vertex set whose pairs all have adjacency edge:
// the independence number for edge == 0 and the clique number for edge == 1.
//
// Every one of the 2^n vertex subsets is examined.
func MaxHomogeneous(X *graph.Graph, edge graph.VtxSet) int {
	best := 0
	e := subset.NewEnumerator(X.Order())
	for S, ok := e.Next(); ok; S, ok = e.Next() {
		size := subset.Size(S)
		if size > best && isHomogeneous(X, S, edge) {
			best = size
		}
	}
	return best
}

func isHomogeneous(X *graph.Graph, S subset.VertexSubset, edge graph.VtxSet) bool {
	Nv := X.Order()
	for i := 0; i < Nv; i++ {
		if S>>i&1 == 0 {
			continue
		}
		for j := i + 1; j < Nv; j++ {
			if S>>j&1 != 0 && X.Edge(i, j) != edge {
				return false
			}
		}
	}
	return true
}

// AreTwins returns true if i and j have the same adjacency to every other vertex.
func AreTwins(X *graph.Graph, i, j int) bool {
	ij := graph.VtxSet(1<<i | 1<<j)
	return X.Row(i)&^ij == X.Row(j)&^ij
}

// CountTwins counts the twin pairs of X by kind.
func CountTwins(X *graph.Graph) (emptyTwins, connTwins int) {
	Nv := X.Order()
	for i := 0; i < Nv; i++ {
		for j := i + 1; j < Nv; j++ {
			if !AreTwins(X, i, j) {
				continue
			}
			if X.Adj(i, j) {
				connTwins++
			} else {
				emptyTwins++
			}
		}
	}
	return
}

// Table is an invariant table validated against the corpus it was computed for.
type Table struct {
	Order       int
	Fingerprint uint64 // fingerprint of the corpus the records were computed from
	Recs        []Record
}

// CheckAligned returns ErrCatalogMismatch unless the table covers exactly numGraphs graphs of the given order.
func (tbl *Table) CheckAligned(order, numGraphs int) error {
	if tbl.Order != order || len(tbl.Recs) != numGraphs {
		return errors.Wrapf(dtwins.ErrCatalogMismatch, "invariant table has %d records for order %d, corpus has %d graphs of order %d",
			len(tbl.Recs), tbl.Order, numGraphs, order)
	}
	return nil
}
