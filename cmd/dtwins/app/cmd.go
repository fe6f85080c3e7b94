package app

import (
	"io"
	"strconv"
	"strings"

	"github.com/2x3systems/densitytwins/dtwins"
	"github.com/mandelsoft/vfs/pkg/osfs"
	"github.com/mandelsoft/vfs/pkg/vfs"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Options are the flags shared by all commands.
type Options struct {
	fs            vfs.FileSystem
	config        string
	order         int
	dataDir       string
	catalog       string
	workers       int
	progressEvery int
	resume        bool
	schedule      []string
}

// New returns the dtwins root command.  The optional file system is used for datasets and config files.
func New(fss ...vfs.FileSystem) *cobra.Command {
	opts := &Options{
		fs: osfs.New(),
	}
	if len(fss) > 0 && fss[0] != nil {
		opts.fs = fss[0]
	}

	maincmd := &cobra.Command{
		Use:   "dtwins <cmd> <options>",
		Short: "search for density twins",
		Long: `
Finds all pairs of compatible graphs ("density twins") of a given order:
graphs with equal independence number, clique number, and empty and connected
twin counts that map onto each other for every choice of looped vertices.

Graphs are read from <data-dir>/graphs<n>.txt or, without a data dir, generated.
`,
		SilenceUsage:     true,
		TraverseChildren: true,
	}

	opts.AddFlags(maincmd.PersistentFlags())

	maincmd.AddCommand(NewScan(opts))
	maincmd.AddCommand(NewCheck(opts))
	maincmd.AddCommand(NewInvariants(opts))
	maincmd.AddCommand(NewGenerate(opts))
	maincmd.AddCommand(NewPairs(opts))
	return maincmd
}

// AddFlags registers the shared flags.
func (o *Options) AddFlags(flags *pflag.FlagSet) {
	def := dtwins.DefaultScanOpts
	flags.StringVar(&o.config, "config", "", "YAML scan config; explicit flags override its values")
	flags.IntVarP(&o.order, "order", "n", def.Order, "vertex order")
	flags.StringVarP(&o.dataDir, "data-dir", "d", "", "dir holding graphs<n>.txt (omit to generate the graphs)")
	flags.StringVarP(&o.catalog, "catalog", "c", "", "catalog db dir (omit for an in-memory catalog)")
	flags.IntVarP(&o.workers, "workers", "w", def.Workers, "number of rows scanned concurrently")
	flags.IntVar(&o.progressEvery, "progress-every", def.ProgressEvery, "rows between progress markers and checkpoints")
	flags.BoolVar(&o.resume, "resume", false, "continue from the catalog's checkpoint")
	flags.StringSliceVar(&o.schedule, "schedule", nil, "sampled stages as forward/backward strides, e.g. 81/79,9/7 (\"\" runs only the exhaustive stage)")
}

// ScanOpts merges the config file, if any, with explicitly set flags.
func (o *Options) ScanOpts(cmd *cobra.Command) (dtwins.ScanOpts, error) {
	var err error
	opts := dtwins.DefaultScanOpts
	if o.config != "" {
		if opts, err = dtwins.LoadScanOpts(o.fs, o.config); err != nil {
			return opts, err
		}
	}

	flags := cmd.Flags()
	useFlag := func(name string) bool {
		return o.config == "" || flags.Changed(name)
	}
	if useFlag("order") {
		opts.Order = o.order
	}
	if useFlag("data-dir") {
		opts.DataDir = o.dataDir
	}
	if useFlag("catalog") {
		opts.CatalogPath = o.catalog
	}
	if useFlag("workers") {
		opts.Workers = o.workers
	}
	if useFlag("progress-every") {
		opts.ProgressEvery = o.progressEvery
	}
	if useFlag("resume") {
		opts.Resume = o.resume
	}
	if flags.Changed("schedule") {
		if opts.Schedule, err = ParseSchedule(o.schedule); err != nil {
			return opts, err
		}
	}

	opts.ApplyDefaults()
	return opts, opts.Validate()
}

// ParseSchedule parses stages given as "forward/backward" or as a single stride used for both directions.
func ParseSchedule(items []string) (dtwins.Schedule, error) {
	sched := dtwins.Schedule{}
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		fwd, bwd, found := strings.Cut(item, "/")
		if !found {
			bwd = fwd
		}
		var st dtwins.Stage
		var err1, err2 error
		st.Forward, err1 = strconv.Atoi(fwd)
		st.Backward, err2 = strconv.Atoi(bwd)
		if err1 != nil || err2 != nil {
			return nil, errors.Wrapf(dtwins.ErrBadSchedule, "stage %q", item)
		}
		sched = append(sched, st)
	}
	return sched, sched.Validate()
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
