package homomorph

import (
	"context"

	"github.com/2x3systems/densitytwins/dtwins"
	"github.com/2x3systems/densitytwins/libtwins/graph"
	"github.com/2x3systems/densitytwins/libtwins/subset"
)

// pollInterval is how many candidate mappings are tried between cancellation checks.
const pollInterval = 1 << 16

// mapping assigns each source vertex i the target vertex f[i].
type mapping [dtwins.MaxOrder]uint8

// Exists reports whether some f: V(X1) -> V(X2) satisfies, for every source pair i < j:
//
//	f(i) != f(j)  =>  adj1(i,j) == adj2(f(i),f(j))
//	f(i) == f(j)  =>  adj1(i,j) == [f(i) in loops]
//
// i.e. whether X1 maps onto X2 when the target vertices in loops carry a self-loop.
//
// All |V2|^|V1| mappings are tried as a counter whose least significant digit is f(0), starting with
// the constant mapping f = 0.  Each candidate after the first must pass a check of the rows
// i = 0, 2, 4, .. before it is verified against every pair.  The search stops at the first
// mapping that satisfies all pairs.
//
// Only a cancelled ctx produces an error.
func Exists(ctx context.Context, X1, X2 *graph.Graph, loops subset.VertexSubset) (bool, error) {
	var f mapping

	Nv1 := X1.Order()
	Nv2 := X2.Order()
	if Nv1 > 0 && Nv2 == 0 {
		return false, nil
	}

	if satisfies(X1, X2, loops, &f, 1) {
		return true, nil
	}

	top := uint8(Nv2 - 1)
	for polls := 1; ; polls++ {
		if polls == pollInterval {
			polls = 0
			if err := ctx.Err(); err != nil {
				return false, err
			}
		}

		// Advance the counter
		j := 0
		for j < Nv1 && f[j] == top {
			f[j] = 0
			j++
		}
		if j == Nv1 {
			return false, nil
		}
		f[j]++

		if satisfies(X1, X2, loops, &f, 2) && satisfies(X1, X2, loops, &f, 1) {
			return true, nil
		}
	}
}

// satisfies checks the constraints of every pair (i,j), i < j, for rows i = 0, step, 2*step, ..
func satisfies(X1, X2 *graph.Graph, loops subset.VertexSubset, f *mapping, step int) bool {
	Nv := X1.Order()
	for i := 0; i < Nv; i += step {
		fi := f[i]
		row1 := X1.Row(i)
		row2 := X2.Row(int(fi))
		for j := i + 1; j < Nv; j++ {
			fj := f[j]
			var got graph.VtxSet
			if fi != fj {
				got = row2 >> fj & 1
			} else {
				got = loops >> fi & 1
			}
			if got != row1>>j&1 {
				return false
			}
		}
	}
	return true
}

// IsHomomorphism reports whether the given mapping satisfies every pair constraint.
func IsHomomorphism(X1, X2 *graph.Graph, loops subset.VertexSubset, f []int) bool {
	var m mapping
	for i, fi := range f {
		m[i] = uint8(fi)
	}
	return satisfies(X1, X2, loops, &m, 1)
}
