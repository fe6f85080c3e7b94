package subset_test

import (
	"testing"

	"github.com/2x3systems/densitytwins/libtwins/subset"
	"github.com/stretchr/testify/require"
)

func TestEnumeratorVisitsAll(t *testing.T) {
	require := require.New(t)

	for n := 0; n <= 9; n++ {
		seen := make(map[subset.VertexSubset]bool)
		e := subset.NewEnumerator(n)
		for S, ok := e.Next(); ok; S, ok = e.Next() {
			require.False(seen[S], "n=%d subset %b visited twice", n, S)
			require.Zero(S&^subset.Full(n))
			seen[S] = true
		}
		require.Len(seen, subset.Count(n))
		require.Equal(subset.Count(n), e.Rank())

		_, ok := e.Next()
		require.False(ok)

		e.Reset()
		first, ok := e.Next()
		require.True(ok)
		require.Zero(first, "the empty set comes first")
	}
}

func TestFromRank(t *testing.T) {
	require := require.New(t)

	require.Equal(subset.VertexSubset(0), subset.FromRank(4, 1))
	require.Equal(subset.Full(4), subset.FromRank(4, 16))
	require.Equal(subset.VertexSubset(0b101), subset.FromRank(4, 6))

	e := subset.NewEnumerator(5)
	for rank := 1; rank <= subset.Count(5); rank++ {
		S, ok := e.Next()
		require.True(ok)
		require.Equal(subset.FromRank(5, rank), S)
		require.Equal(rank, e.Rank())
	}

	e.Seek(7)
	S, _ := e.Next()
	require.Equal(subset.FromRank(5, 7), S)
}

func TestSweepStride(t *testing.T) {
	require := require.New(t)

	var ranks []int
	n := 6
	complete := subset.Sweep(n, 9, func(S subset.VertexSubset) bool {
		ranks = append(ranks, int(S)+1)
		return true
	})
	require.True(complete)
	require.Equal([]int{9, 18, 27, 36, 45, 54, 63}, ranks)

	// Independent of what the visitor does
	var again []int
	subset.Sweep(n, 9, func(S subset.VertexSubset) bool {
		again = append(again, int(S)+1)
		return len(again) < 3
	})
	require.Equal(ranks[:3], again)

	count := 0
	subset.Sweep(n, 1, func(S subset.VertexSubset) bool {
		count++
		return true
	})
	require.Equal(subset.Count(n), count)

	// A stride beyond 2^n samples nothing
	require.True(subset.Sweep(3, 81, func(S subset.VertexSubset) bool {
		t.Fatal("unexpected visit")
		return false
	}))
}
