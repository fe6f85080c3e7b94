package dtwins

import (
	"github.com/pkg/errors"
)

// CheckOrder returns ErrOrderRange if n is not a supported vertex order.
func CheckOrder(n int) error {
	if n < MinOrder || n > MaxOrder {
		return errors.Wrapf(ErrOrderRange, "order %d not in %d..%d", n, MinOrder, MaxOrder)
	}
	return nil
}

// NumGraphsForOrder returns the number of non-isomorphic graphs on n vertices.
func NumGraphsForOrder(n int) (int, error) {
	if err := CheckOrder(n); err != nil {
		return 0, err
	}
	return NumGraphs[n], nil
}

// Validate checks that every stride is positive.
func (sched Schedule) Validate() error {
	for i, st := range sched {
		if st.Forward < 1 || st.Backward < 1 {
			return errors.Wrapf(ErrBadSchedule, "stage %d has stride %v", i+1, st)
		}
	}
	return nil
}

// WithExhaustive returns the schedule followed by ExhaustiveStage.
func (sched Schedule) WithExhaustive() Schedule {
	full := make(Schedule, 0, len(sched)+1)
	full = append(full, sched...)
	return append(full, ExhaustiveStage)
}

// ApplyDefaults fills in zero values.
func (opts *ScanOpts) ApplyDefaults() {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.ProgressEvery <= 0 {
		opts.ProgressEvery = DefaultProgressEvery
	}
	if opts.Schedule == nil {
		opts.Schedule = DefaultSchedule
	}
}

// Validate checks the order and schedule.
func (opts *ScanOpts) Validate() error {
	if err := CheckOrder(opts.Order); err != nil {
		return err
	}
	return opts.Schedule.Validate()
}

// NopReporter discards everything.
type NopReporter struct{}

func (NopReporter) OnCompatiblePairFound(r1, r2 int) {}
func (NopReporter) OnProgress(r1 int)                {}

// PairCollector is a Reporter that accumulates pairs in arrival order.
type PairCollector struct {
	Pairs []Pair
}

func (pc *PairCollector) OnCompatiblePairFound(r1, r2 int) {
	pc.Pairs = append(pc.Pairs, Pair{r1, r2})
}

func (pc *PairCollector) OnProgress(r1 int) {}
