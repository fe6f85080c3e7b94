package homomorph

import (
	"context"
	"fmt"

	"github.com/2x3systems/densitytwins/dtwins"
	"github.com/2x3systems/densitytwins/libtwins/graph"
	"github.com/2x3systems/densitytwins/libtwins/subset"
	"github.com/pkg/errors"
	"github.com/plan-systems/klog"
)

// Direction selects which graph of a pair is the source of the homomorphism.
type Direction int8

const (
	Forward  Direction = 0 // X1 -> X2
	Backward Direction = 1 // X2 -> X1
)

func (dir Direction) String() string {
	if dir == Forward {
		return "X1->X2"
	}
	return "X2->X1"
}

// Verdict is the outcome of a compatibility check.
type Verdict struct {
	Compatible  bool
	Stage       int                 // index of the deciding stage (len(Stages()) if compatible)
	StageName   string              // name of the deciding stage
	Direction   Direction           // direction of the failing oracle call
	Witness     subset.VertexSubset // loop set of the failing oracle call
	OracleCalls int                 // number of oracle calls made
}

func (v Verdict) String() string {
	if v.Compatible {
		return fmt.Sprintf("compatible after %d oracle calls", v.OracleCalls)
	}
	return fmt.Sprintf("incompatible at stage %q: %v fails for loop set %b", v.StageName, v.Direction, v.Witness)
}

// Checker decides compatibility of graph pairs by running a pipeline of stages, cheapest first.
// The first failing stage decides the pair is incompatible.
//
// The stages are: loop set = ∅, loop set = V, one sampled sweep per Schedule entry, then the
// exhaustive sweep over all loop sets.  Only the exhaustive sweep is needed for a compatible
// verdict to be sound; every earlier stage only tests loop sets the exhaustive sweep also tests.
//
// A Checker is stateless between calls and may be shared across goroutines.
type Checker struct {
	Schedule dtwins.Schedule
	stages   []stage
}

type stage struct {
	name string
	run  func(pc *pairCheck) (bool, error)
}

// pairCheck is the per-call state of a compatibility check.
type pairCheck struct {
	ctx     context.Context
	X       [2]*graph.Graph
	Nv      int
	verdict Verdict
}

// NewChecker returns a Checker running the given sampled stages before the exhaustive one.
// A nil schedule runs the exhaustive sweep right after the two fixed loop sets.
func NewChecker(sched dtwins.Schedule) (*Checker, error) {
	if err := sched.Validate(); err != nil {
		return nil, err
	}

	c := &Checker{
		Schedule: sched,
	}
	c.stages = append(c.stages,
		stage{
			name: "empty loop set",
			run: func(pc *pairCheck) (bool, error) {
				return pc.bothHold(0)
			},
		},
		stage{
			name: "full loop set",
			run: func(pc *pairCheck) (bool, error) {
				return pc.bothHold(subset.Full(pc.Nv))
			},
		},
	)

	for _, st := range sched.WithExhaustive() {
		st := st
		c.stages = append(c.stages, stage{
			name: "stride " + st.String(),
			run: func(pc *pairCheck) (bool, error) {
				ok, err := pc.sweep(Forward, st.Forward)
				if !ok || err != nil {
					return ok, err
				}
				return pc.sweep(Backward, st.Backward)
			},
		})
	}

	return c, nil
}

// DefaultChecker runs dtwins.DefaultSchedule.
func DefaultChecker() *Checker {
	c, err := NewChecker(dtwins.DefaultSchedule)
	if err != nil {
		panic(err)
	}
	return c
}

// Stages returns the names of the stages in the order they run.
func (c *Checker) Stages() []string {
	names := make([]string, len(c.stages))
	for i, st := range c.stages {
		names[i] = st.name
	}
	return names
}

// Check decides if X1 and X2 are compatible.
// X1 and X2 are assumed to have the same order and matching invariants.
func (c *Checker) Check(ctx context.Context, X1, X2 *graph.Graph) (Verdict, error) {
	if X1 == nil || X2 == nil {
		return Verdict{}, dtwins.ErrNilGraph
	}
	if X1.Order() != X2.Order() {
		return Verdict{}, errors.Wrapf(dtwins.ErrOrderRange, "graphs have orders %d and %d", X1.Order(), X2.Order())
	}

	pc := pairCheck{
		ctx: ctx,
		X:   [2]*graph.Graph{X1, X2},
		Nv:  X1.Order(),
	}

	for i, st := range c.stages {
		ok, err := st.run(&pc)
		if err != nil {
			return pc.verdict, err
		}
		if !ok {
			pc.verdict.Stage = i
			pc.verdict.StageName = st.name
			klog.V(3).Infof("%v vs %v: %v", X1, X2, pc.verdict)
			return pc.verdict, nil
		}
	}

	pc.verdict.Compatible = true
	pc.verdict.Stage = len(c.stages)
	pc.verdict.StageName = "compatible"
	return pc.verdict, nil
}

// holds runs the oracle in the given direction, recording the loop set if it fails.
func (pc *pairCheck) holds(dir Direction, loops subset.VertexSubset) (bool, error) {
	pc.verdict.OracleCalls++
	ok, err := Exists(pc.ctx, pc.X[dir], pc.X[1-dir], loops)
	if err == nil && !ok {
		pc.verdict.Direction = dir
		pc.verdict.Witness = loops
	}
	return ok, err
}

func (pc *pairCheck) bothHold(loops subset.VertexSubset) (bool, error) {
	ok, err := pc.holds(Forward, loops)
	if !ok || err != nil {
		return ok, err
	}
	return pc.holds(Backward, loops)
}

// sweep runs the oracle on every stride-th loop set in enumeration order.
func (pc *pairCheck) sweep(dir Direction, stride int) (bool, error) {
	var err error
	passed := subset.Sweep(pc.Nv, stride, func(loops subset.VertexSubset) bool {
		var ok bool
		ok, err = pc.holds(dir, loops)
		return ok && err == nil
	})
	if err != nil {
		return false, err
	}
	return passed, nil
}
