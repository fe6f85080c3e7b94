package app

import (
	"fmt"

	"github.com/2x3systems/densitytwins/dtwins"
	"github.com/2x3systems/densitytwins/libtwins/scan"
	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/plan-systems/klog"
	"github.com/spf13/cobra"
)

type Scan struct {
	cmd *cobra.Command

	mainopts *Options
	noMatrix bool
	stats    bool
	progress bool
	graphID  int
}

func NewScan(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan <options>",
		Short: "print every compatible pair of graphs of the given order",
	}
	c := &Scan{
		cmd:      cmd,
		mainopts: opts,
	}
	c.cmd.RunE = func(cmd *cobra.Command, args []string) error { return c.Run(args) }
	flags := cmd.Flags()
	flags.BoolVar(&c.noMatrix, "no-matrix", false, "print pair ids only")
	flags.BoolVar(&c.stats, "stats", false, "print checker statistics when done")
	flags.BoolVar(&c.progress, "progress", false, "print progress markers to stderr")
	flags.IntVarP(&c.graphID, "graph", "g", -1, "print only the pairs containing this graph id")
	return cmd
}

func (c *Scan) Run(args []string) error {
	opts, err := c.mainopts.ScanOpts(c.cmd)
	if err != nil {
		return err
	}

	ctx := c.cmd.Context()
	sc, err := scan.Open(ctx, c.mainopts.fs, opts)
	if err != nil {
		return err
	}
	defer sc.Close()

	klog.V(1).Infof("run %s: %d graphs of order %d, %d candidate pairs", sc.RunID, sc.Corpus().NumGraphs(), opts.Order, sc.NumCandidatePairs())

	out := c.cmd.OutOrStdout()
	printOpts := dtwins.DefaultPrintOpts
	printOpts.Matrix = !c.noMatrix

	N := sc.Corpus().NumGraphs()
	if c.graphID >= N {
		return errors.Errorf("graph id %d not in 0..%d", c.graphID, N-1)
	}

	stream, errc := sc.Stream(ctx, c.progress)

	progressDone := make(chan struct{})
	go func() {
		defer close(progressDone)
		if stream.Progress == nil {
			return
		}
		errOut := c.cmd.ErrOrStderr()
		for r1 := range stream.Progress {
			fmt.Fprintf(errOut, "scanning row %s of %s\n", humanize.Comma(int64(r1)), humanize.Comma(int64(N)))
		}
	}()

	pairs := stream
	if c.graphID >= 0 {
		pairs = stream.Filter(func(p dtwins.Pair) bool {
			return p.R1 == c.graphID || p.R2 == c.graphID
		})
	}
	found := pairs.Print(nopWriteCloser{out}, sc.Corpus(), printOpts).PullAll()
	<-progressDone
	if err = <-errc; err != nil {
		return err
	}

	fmt.Fprintf(out, "%d compatible pairs on %d vertices\n", len(found), opts.Order)
	if c.stats {
		fmt.Fprintln(out, sc.Stats.Summary(sc.Checker().Stages()))
	}
	return nil
}
