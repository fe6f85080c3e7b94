package graph_test

import (
	"strings"
	"testing"

	"github.com/2x3systems/densitytwins/dtwins"
	"github.com/2x3systems/densitytwins/libtwins/graph"
	"github.com/stretchr/testify/require"
)

func TestParseEdgeExpr(t *testing.T) {
	require := require.New(t)

	X, err := graph.ParseEdgeExpr(5, "0-1-2-3-4-0")
	require.NoError(err)
	require.True(X.Equal(graph.Cycle(5)))
	require.Equal(5, X.NumEdges())

	X, err = graph.ParseEdgeExpr(4, "0-1, 2, 3-2")
	require.NoError(err)
	require.True(X.Adj(0, 1) && X.Adj(1, 0))
	require.True(X.Adj(2, 3))
	require.False(X.Adj(0, 2))
	require.Equal(2, X.NumEdges())

	X, err = graph.ParseEdgeExpr(3, "")
	require.NoError(err)
	require.Equal(0, X.NumEdges())

	_, err = graph.ParseEdgeExpr(3, "0-3")
	require.ErrorIs(err, dtwins.ErrBadVtxID)

	_, err = graph.ParseEdgeExpr(3, "0-0")
	require.ErrorIs(err, dtwins.ErrBadEdgeExpr)

	_, err = graph.ParseEdgeExpr(3, "0--1")
	require.ErrorIs(err, dtwins.ErrBadEdgeExpr)

	_, err = graph.ParseEdgeExpr(10, "0-1")
	require.ErrorIs(err, dtwins.ErrOrderRange)
}

func TestMatrixRows(t *testing.T) {
	require := require.New(t)

	X := graph.Cycle(4)
	b := strings.Builder{}
	X.WriteAsMatrixStr(&b)
	require.Equal("0101\n1010\n0101\n1010\n", b.String())

	var Y graph.Graph
	require.NoError(Y.InitFromMatrixRows(strings.Fields(b.String())))
	require.True(X.Equal(&Y))

	require.ErrorIs(Y.InitFromMatrixRows([]string{"01", "12"}), dtwins.ErrDatasetMalformed)
	require.ErrorIs(Y.InitFromMatrixRows([]string{"01", "00"}), dtwins.ErrDatasetMalformed)
	require.ErrorIs(Y.InitFromMatrixRows([]string{"11", "10"}), dtwins.ErrDatasetMalformed)
	require.ErrorIs(Y.InitFromMatrixRows([]string{"010", "10"}), dtwins.ErrDatasetMalformed)
}

func TestComplement(t *testing.T) {
	require := require.New(t)

	for Nv := 1; Nv <= dtwins.MaxOrder; Nv++ {
		K := graph.Complete(Nv)
		require.Equal(Nv*(Nv-1)/2, K.NumEdges())

		E := K.Complement()
		require.Equal(0, E.NumEdges())
		require.True(E.Complement().Equal(K))
	}

	C5 := graph.Cycle(5)
	require.Equal(5, C5.Complement().NumEdges())
	require.Equal(C5.Canonize(), C5.Complement().Canonize(), "C5 is self-complementary")
}

func TestCanonize(t *testing.T) {
	require := require.New(t)

	X, err := graph.ParseEdgeExpr(7, "0-1-2-3-0,2-4,4-5,6-0")
	require.NoError(err)
	code := X.Canonize()

	perms := [][]int{
		{6, 5, 4, 3, 2, 1, 0},
		{1, 2, 3, 4, 5, 6, 0},
		{3, 0, 6, 1, 5, 2, 4},
	}
	for _, perm := range perms {
		Xp := X.Permute(perm)
		require.Equal(X.NumEdges(), Xp.NumEdges())
		require.Equal(code, Xp.Canonize(), "perm %v", perm)
	}

	Xc := graph.GraphFromCode(7, code)
	require.Equal(code, Xc.Canonize())
	require.Equal(X.NumEdges(), Xc.NumEdges())

	// Both 2-regular on 6 vertices; colour refinement can't tell them apart
	C6 := graph.Cycle(6)
	triangles, err := graph.ParseEdgeExpr(6, "0-1-2-0,3-4-5-3")
	require.NoError(err)
	require.NotEqual(C6.Canonize(), triangles.Canonize())
}
