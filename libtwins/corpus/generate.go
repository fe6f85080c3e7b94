package corpus

import (
	"sort"

	"github.com/2x3systems/densitytwins/dtwins"
	"github.com/2x3systems/densitytwins/libtwins/graph"
	"github.com/pkg/errors"
	"github.com/plan-systems/klog"
)

// Generate enumerates every graph of order n up to isomorphism.
//
// Each graph of order k is grown from each graph of order k-1 by adding a vertex adjacent to every
// possible neighbour set, and isomorphic results are dropped.  The returned graphs are in canonical
// form, ordered by edge count and then by canonic code, so ids are deterministic but differ from
// those of published datasets.
func Generate(n int) (*Corpus, error) {
	if err := dtwins.CheckOrder(n); err != nil {
		return nil, err
	}

	set := NewCanonicSet()
	defer set.Close()

	X0, _ := graph.NewGraph(1)
	level := []graph.Graph{*X0}

	for k := 2; k <= n; k++ {
		next := make([]graph.Graph, 0, dtwins.NumGraphs[k])
		codes := make([]graph.CanonicCode, 0, dtwins.NumGraphs[k])

		for pi := range level {
			parent := &level[pi]
			for nbrs := graph.VtxSet(0); nbrs <= graph.AllVtx(k-1); nbrs++ {
				Y, err := parent.WithVertex(nbrs)
				if err != nil {
					return nil, err
				}
				added, code, err := set.TryAdd(Y)
				if err != nil {
					return nil, err
				}
				if added {
					next = append(next, *graph.GraphFromCode(k, code))
					codes = append(codes, code)
				}
			}
		}

		if len(next) != dtwins.NumGraphs[k] {
			return nil, errors.Errorf("generated %d graphs of order %d, expected %d", len(next), k, dtwins.NumGraphs[k])
		}
		sortByEdgesThenCode(next, codes)
		klog.V(2).Infof("generated %d graphs of order %d", len(next), k)
		level = next
	}

	return New(n, level), nil
}

type byEdgesThenCode struct {
	graphs []graph.Graph
	codes  []graph.CanonicCode
	edges  []int
}

func sortByEdgesThenCode(graphs []graph.Graph, codes []graph.CanonicCode) {
	s := byEdgesThenCode{
		graphs: graphs,
		codes:  codes,
		edges:  make([]int, len(graphs)),
	}
	for i := range graphs {
		s.edges[i] = graphs[i].NumEdges()
	}
	sort.Sort(&s)
}

func (s *byEdgesThenCode) Len() int {
	return len(s.graphs)
}

func (s *byEdgesThenCode) Less(i, j int) bool {
	if s.edges[i] != s.edges[j] {
		return s.edges[i] < s.edges[j]
	}
	return s.codes[i] < s.codes[j]
}

func (s *byEdgesThenCode) Swap(i, j int) {
	s.graphs[i], s.graphs[j] = s.graphs[j], s.graphs[i]
	s.codes[i], s.codes[j] = s.codes[j], s.codes[i]
	s.edges[i], s.edges[j] = s.edges[j], s.edges[i]
}
