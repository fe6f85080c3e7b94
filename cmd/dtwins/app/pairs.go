package app

import (
	"fmt"
	"time"

	"github.com/2x3systems/densitytwins/dtwins"
	"github.com/2x3systems/densitytwins/libtwins/catalog"
	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/plan-systems/klog"
	"github.com/spf13/cobra"
)

type Pairs struct {
	cmd *cobra.Command

	mainopts *Options
}

func NewPairs(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pairs --catalog <dir> <options>",
		Short: "list the pairs and checkpoint recorded in a catalog",
	}
	c := &Pairs{
		cmd:      cmd,
		mainopts: opts,
	}
	c.cmd.RunE = func(cmd *cobra.Command, args []string) error { return c.Run(args) }
	return cmd
}

func (c *Pairs) Run(args []string) error {
	opts, err := c.mainopts.ScanOpts(c.cmd)
	if err != nil {
		return err
	}
	if opts.CatalogPath == "" {
		return errors.Wrap(dtwins.ErrBadCatalogParam, "--catalog is required")
	}

	cat, err := catalog.Open(catalog.Opts{
		DbPathName: opts.CatalogPath,
		ReadOnly:   true,
	})
	if err != nil {
		return err
	}
	defer cat.Close()
	st := cat.State()
	klog.V(1).Infof("catalog %s: format %d.%d, created %s", opts.CatalogPath,
		st.MajorVers, st.MinorVers, humanize.Time(time.Unix(st.Created, 0)))

	out := c.cmd.OutOrStdout()
	cp, err := cat.Checkpoint(opts.Order)
	if err != nil {
		return err
	}
	if cp == nil {
		fmt.Fprintf(out, "no scan of order %d recorded\n", opts.Order)
		return nil
	}

	status := "complete"
	if !cp.IsDone() {
		status = fmt.Sprintf("stopped at row %d of %d", cp.NextR1, cp.NumGraphs)
	}
	fmt.Fprintf(out, "run %s of order %d: %s, updated %s\n",
		cp.RunID, cp.Order, status, humanize.Time(time.Unix(cp.Updated, 0)))

	err = cat.SelectPairs(opts.Order, func(p dtwins.Pair) bool {
		fmt.Fprintln(out, p)
		return true
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%d compatible pairs\n", cp.NumPairs)
	return nil
}
