package scan

import (
	"fmt"
	"strings"
)

// Stats counts the work done by a scan.
type Stats struct {
	RowsScanned int   // r1 rows completed in this run
	PairsTested int   // pairs with matching invariants given to the checker
	PairsFound  int   // compatible pairs, including those replayed from a checkpoint
	OracleCalls int   // oracle calls made by the checker
	RejectedAt  []int // incompatible pairs by deciding checker stage
}

// add accumulates the counts of a single row.
func (st *Stats) add(row *rowResult) {
	st.RowsScanned++
	st.PairsTested += row.tested
	st.PairsFound += len(row.pairs)
	st.OracleCalls += row.oracleCalls
	for i, n := range row.rejectedAt {
		st.RejectedAt[i] += n
	}
}

// Summary renders the counts along with the given stage names.
func (st *Stats) Summary(stageNames []string) string {
	b := strings.Builder{}
	fmt.Fprintf(&b, "%d rows, %d pairs tested, %d compatible, %d oracle calls",
		st.RowsScanned, st.PairsTested, st.PairsFound, st.OracleCalls)
	for i, n := range st.RejectedAt {
		if n == 0 || i >= len(stageNames) {
			continue
		}
		fmt.Fprintf(&b, "\n  rejected at %-16s %d", stageNames[i]+":", n)
	}
	return b.String()
}

// rowResult is the outcome of scanning every r2 > r1 for one r1.
type rowResult struct {
	r1          int
	pairs       []int // r2 values, ascending
	tested      int
	oracleCalls int
	rejectedAt  []int
}
