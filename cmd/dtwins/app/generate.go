package app

import (
	"github.com/2x3systems/densitytwins/libtwins/corpus"
	"github.com/plan-systems/klog"
	"github.com/spf13/cobra"
)

type Generate struct {
	cmd *cobra.Command

	mainopts *Options
}

func NewGenerate(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate <options>",
		Short: "write all graphs of the given order in dataset format",
		Long: `
Writes <data-dir>/graphs<n>.txt, or to stdout if no data dir is given.
Graph ids are ordered by edge count and then by canonical form.
`,
	}
	c := &Generate{
		cmd:      cmd,
		mainopts: opts,
	}
	c.cmd.RunE = func(cmd *cobra.Command, args []string) error { return c.Run(args) }
	return cmd
}

func (c *Generate) Run(args []string) error {
	opts, err := c.mainopts.ScanOpts(c.cmd)
	if err != nil {
		return err
	}

	C, err := corpus.Generate(opts.Order)
	if err != nil {
		return err
	}

	if opts.DataDir == "" {
		return corpus.Write(c.cmd.OutOrStdout(), C)
	}
	if err = corpus.WriteFile(c.mainopts.fs, opts.DataDir, C); err != nil {
		return err
	}
	klog.Infof("wrote %d graphs to %s", C.NumGraphs(), opts.DataDir)
	return nil
}
