package app

import (
	"bufio"
	"fmt"

	"github.com/2x3systems/densitytwins/libtwins/scan"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

type Invariants struct {
	cmd *cobra.Command

	mainopts *Options
	classes  bool
}

func NewInvariants(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "invariants <options>",
		Short: "print the invariant table of the graphs of the given order",
		Long: `
Prints one line per graph: id, (independence, clique, empty twins, connected twins),
and the edges.  With --classes, prints the graphs sharing each record that is not
density atomic, which are the pairs a scan checks.
`,
	}
	c := &Invariants{
		cmd:      cmd,
		mainopts: opts,
	}
	c.cmd.RunE = func(cmd *cobra.Command, args []string) error { return c.Run(args) }
	cmd.Flags().BoolVar(&c.classes, "classes", false, "group graphs by invariant record")
	return cmd
}

func (c *Invariants) Run(args []string) error {
	opts, err := c.mainopts.ScanOpts(c.cmd)
	if err != nil {
		return err
	}

	sc, err := scan.Open(c.cmd.Context(), c.mainopts.fs, opts)
	if err != nil {
		return err
	}
	defer sc.Close()

	out := bufio.NewWriter(c.cmd.OutOrStdout())
	defer out.Flush()

	C := sc.Corpus()
	if !c.classes {
		for r, rec := range sc.Invariants() {
			fmt.Fprintf(out, "%6d %v %v\n", r, rec, C.Graph(r))
		}
		return nil
	}

	classes := sc.Classes()
	for _, cl := range classes {
		fmt.Fprintf(out, "%v: %d graphs %v\n", cl.Record, len(cl.IDs), cl.IDs)
	}
	fmt.Fprintf(out, "%d classes, %s candidate pairs among %s graphs\n",
		len(classes), humanize.Comma(int64(sc.NumCandidatePairs())), humanize.Comma(int64(C.NumGraphs())))
	return nil
}
