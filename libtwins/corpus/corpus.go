package corpus

import (
	"io"

	"github.com/2x3systems/densitytwins/dtwins"
	"github.com/2x3systems/densitytwins/libtwins/graph"
	"github.com/cespare/xxhash/v2"
)

// Corpus is the indexed set of graphs of one vertex order.
// The graph id is the index into Graphs.
type Corpus struct {
	order  int
	Graphs []graph.Graph
}

// New wraps the given graphs, which must all have the given order.
func New(order int, graphs []graph.Graph) *Corpus {
	return &Corpus{
		order:  order,
		Graphs: graphs,
	}
}

var _ dtwins.Corpus = (*Corpus)(nil)

func (C *Corpus) Order() int {
	return C.order
}

func (C *Corpus) NumGraphs() int {
	return len(C.Graphs)
}

// Graph returns graph r, which is not to be modified.
func (C *Corpus) Graph(r int) *graph.Graph {
	return &C.Graphs[r]
}

func (C *Corpus) WriteMatrix(out io.Writer, r int) {
	C.Graphs[r].WriteAsMatrixStr(out)
}

// IsComplete returns true if the corpus holds every graph of its order.
func (C *Corpus) IsComplete() bool {
	return C.order >= 0 && C.order <= dtwins.MaxOrder && len(C.Graphs) == dtwins.NumGraphs[C.order]
}

// Fingerprint hashes the order and every adjacency row, so corpora with the same graphs in a different
// id order have different fingerprints.
func (C *Corpus) Fingerprint() uint64 {
	h := xxhash.New()
	buf := make([]byte, 0, 2*dtwins.MaxOrder+1)
	buf = append(buf, byte(C.order))
	h.Write(buf)
	for r := range C.Graphs {
		X := &C.Graphs[r]
		buf = buf[:0]
		for i := 0; i < X.Order(); i++ {
			row := X.Row(i)
			buf = append(buf, byte(row), byte(row>>8))
		}
		h.Write(buf)
	}
	return h.Sum64()
}
