package graph

import (
	"github.com/2x3systems/densitytwins/dtwins"
	"github.com/alecthomas/participle/v2"
	"github.com/pkg/errors"
)

// EdgeExpr is a comma separated list of vertex paths, e.g. "0-1-2-0, 3-4, 5".
// A path of a single vertex adds no edges.
type EdgeExpr struct {
	Paths []*VtxPath `parser:"(@@ (\",\" @@)*)?"`
}

type VtxPath struct {
	Vtx []int `parser:"@Int (\"-\" @Int)*"`
}

var parseEdgeExpr = participle.MustBuild[EdgeExpr]()

// ParseEdgeExpr returns the graph on Nv vertices having the edges of the given expression.
func ParseEdgeExpr(Nv int, expr string) (*Graph, error) {
	X, err := NewGraph(Nv)
	if err != nil {
		return nil, err
	}
	if err = X.InitFromString(expr); err != nil {
		return nil, err
	}
	return X, nil
}

// InitFromString adds the edges of the given edge expression to this graph.
func (X *Graph) InitFromString(expr string) error {
	Xexpr, err := parseEdgeExpr.ParseString("", expr)
	if err != nil {
		return errors.Wrap(dtwins.ErrBadEdgeExpr, err.Error())
	}

	for _, path := range Xexpr.Paths {
		for k, vi := range path.Vtx {
			if vi < 0 || vi >= X.Nv {
				return errors.Wrapf(dtwins.ErrBadVtxID, "vertex %d not in 0..%d", vi, X.Nv-1)
			}
			if k == 0 {
				continue
			}
			prev := path.Vtx[k-1]
			if prev == vi {
				return errors.Wrapf(dtwins.ErrBadEdgeExpr, "loop at vertex %d", vi)
			}
			X.SetEdge(prev, vi, true)
		}
	}
	return nil
}
