package scan

import (
	"context"
	"sort"

	"github.com/2x3systems/densitytwins/dtwins"
	"github.com/2x3systems/densitytwins/libtwins/catalog"
	"github.com/2x3systems/densitytwins/libtwins/corpus"
	"github.com/2x3systems/densitytwins/libtwins/homomorph"
	"github.com/2x3systems/densitytwins/libtwins/invariants"
	"github.com/dustin/go-humanize"
	"github.com/emirpasic/gods/trees/redblacktree"
	"github.com/google/uuid"
	"github.com/mandelsoft/vfs/pkg/vfs"
	"github.com/pkg/errors"
	"github.com/plan-systems/klog"
	"golang.org/x/sync/errgroup"
)

// Scanner finds every compatible pair (r1, r2), r1 < r2, of a corpus.
//
// Only pairs whose invariant records are equal and not density atomic are given to the checker.
// Rows r1 are scanned concurrently but reported in ascending order.
type Scanner struct {
	Opts    dtwins.ScanOpts
	RunID   string
	Stats   Stats
	corpus  *corpus.Corpus
	recs    []invariants.Record
	classes *redblacktree.Tree // invariants.Record => []int of ascending ids
	checker *homomorph.Checker
	cat     *catalog.Catalog
	ownsCat bool
}

// Open loads or generates the corpus named by opts and opens its catalog.
// Close() must be called when done.
func Open(ctx context.Context, fs vfs.FileSystem, opts dtwins.ScanOpts) (*Scanner, error) {
	opts.ApplyDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	var C *corpus.Corpus
	var err error
	if opts.DataDir != "" {
		C, err = corpus.Load(fs, opts.DataDir, opts.Order)
	} else {
		klog.Infof("no data dir given, generating all graphs of order %d", opts.Order)
		C, err = corpus.Generate(opts.Order)
	}
	if err != nil {
		return nil, err
	}

	cat, err := catalog.Open(catalog.Opts{
		DbPathName: opts.CatalogPath,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "opening catalog %q", opts.CatalogPath)
	}

	sc, err := New(ctx, C, cat, opts)
	if err != nil {
		cat.Close()
		return nil, err
	}
	sc.ownsCat = true
	return sc, nil
}

// New prepares a scan of C.  If cat is nil, nothing is persisted and Opts.Resume has no effect.
func New(ctx context.Context, C *corpus.Corpus, cat *catalog.Catalog, opts dtwins.ScanOpts) (*Scanner, error) {
	if opts.Order == 0 {
		opts.Order = C.Order()
	}
	opts.ApplyDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if opts.Order != C.Order() {
		return nil, errors.Wrapf(dtwins.ErrOrderRange, "scan of order %d given a corpus of order %d", opts.Order, C.Order())
	}

	checker, err := homomorph.NewChecker(opts.Schedule)
	if err != nil {
		return nil, err
	}

	sc := &Scanner{
		Opts:    opts,
		RunID:   uuid.NewString(),
		corpus:  C,
		checker: checker,
		cat:     cat,
	}
	sc.Stats.RejectedAt = make([]int, len(checker.Stages()))

	if err = sc.loadInvariants(ctx); err != nil {
		return nil, err
	}
	sc.buildClasses()
	return sc, nil
}

func (sc *Scanner) Close() error {
	var err error
	if sc.ownsCat && sc.cat != nil {
		err = sc.cat.Close()
	}
	sc.cat = nil
	return err
}

func (sc *Scanner) Corpus() *corpus.Corpus {
	return sc.corpus
}

func (sc *Scanner) Checker() *homomorph.Checker {
	return sc.checker
}

// Invariants returns the invariant table, indexed by graph id.
func (sc *Scanner) Invariants() []invariants.Record {
	return sc.recs
}

// loadInvariants reuses the catalog's invariant table if it was computed for this corpus.
func (sc *Scanner) loadInvariants(ctx context.Context) error {
	C := sc.corpus
	fp := C.Fingerprint()

	if sc.cat != nil {
		tbl, err := sc.cat.Invariants(C.Order())
		if err != nil {
			return err
		}
		if len(tbl.Recs) > 0 && tbl.Fingerprint == fp {
			if err = tbl.CheckAligned(C.Order(), C.NumGraphs()); err != nil {
				return err
			}
			klog.V(2).Infof("using %d stored invariant records for order %d", len(tbl.Recs), C.Order())
			sc.recs = tbl.Recs
			return nil
		}
		if len(tbl.Recs) > 0 {
			klog.Warningf("stored invariant table of order %d was computed for another corpus, recomputing", C.Order())
		}
	}

	recs, err := ComputeInvariants(ctx, C, sc.Opts.Workers)
	if err != nil {
		return err
	}
	sc.recs = recs

	if sc.cat != nil && !sc.cat.IsReadOnly() {
		return sc.cat.PutInvariants(&invariants.Table{
			Order:       C.Order(),
			Fingerprint: fp,
			Recs:        recs,
		})
	}
	return nil
}

// ComputeInvariants computes the invariant table of C, splitting the corpus over the given number of workers.
func ComputeInvariants(ctx context.Context, C *corpus.Corpus, workers int) ([]invariants.Record, error) {
	const chunkSize = 1024

	recs := make([]invariants.Record, C.NumGraphs())

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(workers, 1))
	for lo := 0; lo < len(recs); lo += chunkSize {
		lo, hi := lo, min(lo+chunkSize, len(recs))
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			for r := lo; r < hi; r++ {
				recs[r] = invariants.Compute(C.Graph(r))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return recs, nil
}

func (sc *Scanner) buildClasses() {
	sc.classes = redblacktree.NewWith(func(A, B interface{}) int {
		return invariants.Compare(A.(invariants.Record), B.(invariants.Record))
	})

	for r, rec := range sc.recs {
		if rec.IsDensityAtomic() {
			continue
		}
		var ids []int
		if val, found := sc.classes.Get(rec); found {
			ids = val.([]int)
		}
		sc.classes.Put(rec, append(ids, r))
	}
}

// Class is a set of graphs sharing an invariant record.
type Class struct {
	Record invariants.Record
	IDs    []int
}

// Classes returns the invariant classes that are not density atomic, ordered by record.
func (sc *Scanner) Classes() []Class {
	classes := make([]Class, 0, sc.classes.Size())
	itr := sc.classes.Iterator()
	for itr.Next() {
		classes = append(classes, Class{
			Record: itr.Key().(invariants.Record),
			IDs:    itr.Value().([]int),
		})
	}
	return classes
}

// NumCandidatePairs returns the number of pairs the checker will be given by a full scan.
func (sc *Scanner) NumCandidatePairs() int {
	total := 0
	for _, cl := range sc.Classes() {
		k := len(cl.IDs)
		total += k * (k - 1) / 2
	}
	return total
}

// scanRow checks r1 against every r2 > r1 in its class.
func (sc *Scanner) scanRow(ctx context.Context, r1 int) (rowResult, error) {
	row := rowResult{
		r1:         r1,
		rejectedAt: make([]int, len(sc.Stats.RejectedAt)),
	}

	rec := sc.recs[r1]
	if rec.IsDensityAtomic() {
		return row, nil
	}
	val, _ := sc.classes.Get(rec)
	ids := val.([]int)

	X1 := sc.corpus.Graph(r1)
	for _, r2 := range ids[sort.SearchInts(ids, r1+1):] {
		v, err := sc.checker.Check(ctx, X1, sc.corpus.Graph(r2))
		if err != nil {
			return row, err
		}
		row.tested++
		row.oracleCalls += v.OracleCalls
		if v.Compatible {
			row.pairs = append(row.pairs, r2)
		} else {
			row.rejectedAt[v.Stage]++
		}
	}
	return row, nil
}

// Scan reports every compatible pair to rep in ascending (r1, r2) order.
//
// With Opts.Resume set and a checkpoint in the catalog, pairs found by the earlier run are reported
// first and scanning continues from the checkpoint.  Otherwise any stored scan of this order is discarded.
// Progress is committed to the catalog every Opts.ProgressEvery rows and when Scan returns, including on
// cancellation.
func (sc *Scanner) Scan(ctx context.Context, rep dtwins.Reporter) error {
	if rep == nil {
		rep = dtwins.NopReporter{}
	}

	cp, err := sc.startCheckpoint(rep)
	if err != nil {
		return err
	}

	N := sc.corpus.NumGraphs()
	start := int(cp.NextR1)
	if start >= N {
		klog.V(2).Infof("scan of order %d already complete", sc.Opts.Order)
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan rowResult, sc.Opts.Workers)
	scanErr := make(chan error, 1)

	go func() {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(sc.Opts.Workers)
		r1 := start
		for ; r1 < N && gctx.Err() == nil; r1++ {
			r1 := r1
			g.Go(func() error {
				row, err := sc.scanRow(gctx, r1)
				if err != nil {
					return err
				}
				select {
				case results <- row:
					return nil
				case <-gctx.Done():
					return gctx.Err()
				}
			})
		}
		err := g.Wait()
		if err == nil && r1 < N {
			err = ctx.Err()
		}
		scanErr <- err
		close(results)
	}()

	var (
		pending  = make(map[int]rowResult)
		next     = start
		newPairs []dtwins.Pair
		emitErr  error
	)

	for row := range results {
		if emitErr != nil {
			continue // drain
		}
		pending[row.r1] = row

		for {
			row, ok := pending[next]
			if !ok {
				break
			}
			delete(pending, next)

			if next%sc.Opts.ProgressEvery == 0 {
				klog.Infof("order %d: row %s of %s, %d pairs so far", sc.Opts.Order,
					humanize.Comma(int64(next)), humanize.Comma(int64(N)), sc.Stats.PairsFound)
				rep.OnProgress(next)
			}

			sc.Stats.add(&row)
			for _, r2 := range row.pairs {
				p := dtwins.Pair{R1: next, R2: r2}
				newPairs = append(newPairs, p)
				rep.OnCompatiblePairFound(p.R1, p.R2)
			}
			next++

			if next%sc.Opts.ProgressEvery == 0 {
				if emitErr = sc.commit(cp, next, newPairs); emitErr != nil {
					cancel()
					break
				}
				newPairs = newPairs[:0]
			}
		}
	}

	err = <-scanErr
	if emitErr != nil {
		return emitErr
	}

	// Rows completed before a failure or cancellation are kept
	if emitErr = sc.commit(cp, next, newPairs); emitErr != nil {
		return emitErr
	}
	if err != nil {
		return err
	}

	klog.V(2).Infof("order %d scan complete: %s", sc.Opts.Order, sc.Stats.Summary(sc.checker.Stages()))
	return nil
}

// startCheckpoint returns the checkpoint to continue from, replaying its pairs to rep.
func (sc *Scanner) startCheckpoint(rep dtwins.Reporter) (*catalog.Checkpoint, error) {
	C := sc.corpus
	cp := &catalog.Checkpoint{
		Order:       uint32(C.Order()),
		NumGraphs:   uint32(C.NumGraphs()),
		RunID:       sc.RunID,
		Fingerprint: C.Fingerprint(),
	}
	if sc.cat == nil {
		return cp, nil
	}

	if sc.Opts.Resume {
		prev, err := sc.cat.Checkpoint(C.Order())
		if err != nil {
			return nil, err
		}
		if prev != nil {
			if prev.NumGraphs != cp.NumGraphs || prev.Fingerprint != cp.Fingerprint {
				return nil, errors.Wrapf(dtwins.ErrCatalogMismatch, "checkpoint of run %s was made for a different corpus", prev.RunID)
			}
			klog.Infof("resuming run %s of order %d at row %d", prev.RunID, C.Order(), prev.NextR1)

			err = sc.cat.SelectPairs(C.Order(), func(p dtwins.Pair) bool {
				sc.Stats.PairsFound++
				rep.OnCompatiblePairFound(p.R1, p.R2)
				return true
			})
			if err != nil {
				return nil, err
			}
			prev.RunID = sc.RunID
			return prev, nil
		}
	}

	if sc.cat.IsReadOnly() {
		return cp, nil
	}
	return cp, sc.cat.ResetScan(C.Order())
}

func (sc *Scanner) commit(cp *catalog.Checkpoint, nextR1 int, pairs []dtwins.Pair) error {
	if sc.cat == nil || sc.cat.IsReadOnly() {
		return nil
	}
	cp.NextR1 = uint32(nextR1)
	if err := sc.cat.Commit(cp, pairs); err != nil {
		return errors.Wrap(err, "committing scan checkpoint")
	}
	return nil
}

// Stream runs Scan in a new goroutine, sending pairs to the returned stream.
// If withProgress is set, the stream's Progress channel carries the progress markers and must be
// drained along with Outlet.
//
// The stream closes when the scan ends, after which the scan's error can be read from the returned channel.
// Once ctx is cancelled the scan stops waiting on the consumer and the error is ctx.Err(), since pairs may
// have been dropped.
func (sc *Scanner) Stream(ctx context.Context, withProgress bool) (*dtwins.PairStream, <-chan error) {
	stream := dtwins.NewPairStream()
	stream.Done = ctx.Done()
	if withProgress {
		stream.Progress = make(chan int, 1)
	}
	errc := make(chan error, 1)

	go func() {
		err := sc.Scan(ctx, stream)
		if err == nil {
			err = ctx.Err()
		}
		errc <- err
		stream.Close()
	}()

	return stream, errc
}

// Scan scans the given corpus without a catalog.
func Scan(ctx context.Context, C *corpus.Corpus, opts dtwins.ScanOpts, rep dtwins.Reporter) error {
	sc, err := New(ctx, C, nil, opts)
	if err != nil {
		return err
	}
	return sc.Scan(ctx, rep)
}
