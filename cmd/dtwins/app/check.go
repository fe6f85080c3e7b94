package app

import (
	"fmt"
	"strconv"

	"github.com/2x3systems/densitytwins/dtwins"
	"github.com/2x3systems/densitytwins/libtwins/corpus"
	"github.com/2x3systems/densitytwins/libtwins/graph"
	"github.com/2x3systems/densitytwins/libtwins/homomorph"
	"github.com/2x3systems/densitytwins/libtwins/invariants"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

type Check struct {
	cmd *cobra.Command

	mainopts *Options
	byID     bool
}

func NewCheck(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <graph1> <graph2> <options>",
		Short: "check two graphs for compatibility",
		Long: `
Graphs are given as edge expressions on vertices 0..n-1, e.g. "0-1-2-0,2-3",
or with --ids as graph ids of the corpus of order n.
`,
		Args: cobra.ExactArgs(2),
	}
	c := &Check{
		cmd:      cmd,
		mainopts: opts,
	}
	c.cmd.RunE = func(cmd *cobra.Command, args []string) error { return c.Run(args) }
	cmd.Flags().BoolVar(&c.byID, "ids", false, "arguments are corpus graph ids")
	return cmd
}

func (c *Check) Run(args []string) error {
	opts, err := c.mainopts.ScanOpts(c.cmd)
	if err != nil {
		return err
	}

	var X [2]*graph.Graph
	if c.byID {
		X, err = c.graphsByID(opts, args)
	} else {
		for i, expr := range args {
			if X[i], err = graph.ParseEdgeExpr(opts.Order, expr); err != nil {
				return err
			}
		}
	}
	if err != nil {
		return err
	}

	checker, err := homomorph.NewChecker(opts.Schedule)
	if err != nil {
		return err
	}

	out := c.cmd.OutOrStdout()
	var rec [2]invariants.Record
	for i := range X {
		rec[i] = invariants.Compute(X[i])
		fmt.Fprintf(out, "X%d: %v  invariants %v\n", i+1, X[i], rec[i])
	}
	if rec[0] != rec[1] {
		fmt.Fprintln(out, "invariants differ: not compatible")
		return nil
	}
	if rec[0].IsDensityAtomic() {
		fmt.Fprintln(out, "density atomic: excluded from pairing")
	}

	v, err := checker.Check(c.cmd.Context(), X[0], X[1])
	if err != nil {
		return err
	}
	fmt.Fprintln(out, v)
	return nil
}

func (c *Check) graphsByID(opts dtwins.ScanOpts, args []string) ([2]*graph.Graph, error) {
	var X [2]*graph.Graph

	var C *corpus.Corpus
	var err error
	if opts.DataDir != "" {
		C, err = corpus.Load(c.mainopts.fs, opts.DataDir, opts.Order)
	} else {
		C, err = corpus.Generate(opts.Order)
	}
	if err != nil {
		return X, err
	}

	for i, arg := range args {
		r, err := strconv.Atoi(arg)
		if err != nil || r < 0 || r >= C.NumGraphs() {
			return X, errors.Errorf("graph id %q not in 0..%d", arg, C.NumGraphs()-1)
		}
		X[i] = C.Graph(r)
	}
	return X, nil
}
