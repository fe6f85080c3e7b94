package scan_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/2x3systems/densitytwins/dtwins"
	"github.com/2x3systems/densitytwins/libtwins/catalog"
	"github.com/2x3systems/densitytwins/libtwins/corpus"
	"github.com/2x3systems/densitytwins/libtwins/graph"
	"github.com/2x3systems/densitytwins/libtwins/invariants"
	"github.com/2x3systems/densitytwins/libtwins/scan"
	"github.com/mandelsoft/vfs/pkg/memoryfs"
	"github.com/stretchr/testify/require"
)

func scanPairs(t *testing.T, C *corpus.Corpus, workers int) []dtwins.Pair {
	opts := dtwins.ScanOpts{
		Order:   C.Order(),
		Workers: workers,
	}
	var pc dtwins.PairCollector
	require.NoError(t, scan.Scan(context.Background(), C, opts, &pc))
	return pc.Pairs
}

// twinCorpus returns an order 5 corpus holding three relabelings of one graph that has both twin kinds.
// Isomorphic graphs are always compatible, so its pairs are (0,2), (0,4) and (2,4).
func twinCorpus(t *testing.T) *corpus.Corpus {
	X, err := graph.ParseEdgeExpr(5, "0-1,0-4,1-4,2-4,3-4")
	require.NoError(t, err)
	rec := invariants.Compute(X)
	require.False(t, rec.IsDensityAtomic(), "%v", rec)

	return corpus.New(5, []graph.Graph{
		*X,
		*graph.Complete(5).Complement(),
		*X.Permute([]int{4, 3, 2, 1, 0}),
		*graph.Complete(5),
		*X.Permute([]int{2, 0, 4, 1, 3}),
	})
}

var twinPairs = []dtwins.Pair{{R1: 0, R2: 2}, {R1: 0, R2: 4}, {R1: 2, R2: 4}}

func TestNoPairsBelowOrder7(t *testing.T) {
	for n := dtwins.MinOrder; n <= 6; n++ {
		C, err := corpus.Generate(n)
		require.NoError(t, err)
		require.Empty(t, scanPairs(t, C, 2), "order %d", n)
	}
}

func TestIsomorphicCopies(t *testing.T) {
	C := twinCorpus(t)
	for _, workers := range []int{1, 2, 5} {
		require.Equal(t, twinPairs, scanPairs(t, C, workers), "%d workers", workers)
	}
}

func TestOrder7(t *testing.T) {
	if testing.Short() {
		t.Skip("order 7 scan skipped in short mode")
	}
	require := require.New(t)

	C, err := corpus.Generate(7)
	require.NoError(err)

	pairs := scanPairs(t, C, 4)
	require.Len(pairs, 1)
	require.Equal(pairs, scanPairs(t, C, 1))

	p := pairs[0]
	X1, X2 := C.Graph(p.R1), C.Graph(p.R2)
	require.Less(p.R1, p.R2)
	require.NotEqual(X1.Canonize(), X2.Canonize())

	rec := invariants.Compute(X1)
	require.Equal(rec, invariants.Compute(X2))
	require.False(rec.IsDensityAtomic())
}

func TestOrder8(t *testing.T) {
	if os.Getenv("DTWINS_LONG") == "" {
		t.Skip("set DTWINS_LONG=1 to scan order 8")
	}
	C, err := corpus.Generate(8)
	require.NoError(t, err)
	require.Len(t, scanPairs(t, C, 8), 4)
}

func TestClasses(t *testing.T) {
	require := require.New(t)

	C := twinCorpus(t)
	sc, err := scan.New(context.Background(), C, nil, dtwins.ScanOpts{})
	require.NoError(err)
	require.Equal(5, sc.Opts.Order)
	require.Equal(dtwins.DefaultSchedule, sc.Opts.Schedule)

	classes := sc.Classes()
	require.Len(classes, 1)
	require.Equal([]int{0, 2, 4}, classes[0].IDs)
	require.Equal(3, sc.NumCandidatePairs())

	_, err = scan.New(context.Background(), C, nil, dtwins.ScanOpts{Order: 6})
	require.ErrorIs(err, dtwins.ErrOrderRange)

	_, err = scan.New(context.Background(), C, nil, dtwins.ScanOpts{Schedule: dtwins.Schedule{{Forward: 0, Backward: 3}}})
	require.ErrorIs(err, dtwins.ErrBadSchedule)
}

func TestStream(t *testing.T) {
	require := require.New(t)

	sc, err := scan.New(context.Background(), twinCorpus(t), nil, dtwins.ScanOpts{Workers: 2})
	require.NoError(err)

	stream, errc := sc.Stream(context.Background(), false)
	require.Nil(stream.Progress)
	require.Equal(twinPairs, stream.PullAll())
	require.NoError(<-errc)
	require.Equal(3, sc.Stats.PairsFound)
	require.Equal(3, sc.Stats.PairsTested)
	require.Equal(5, sc.Stats.RowsScanned)
}

func TestStreamProgress(t *testing.T) {
	require := require.New(t)

	sc, err := scan.New(context.Background(), twinCorpus(t), nil, dtwins.ScanOpts{ProgressEvery: 2})
	require.NoError(err)

	stream, errc := sc.Stream(context.Background(), true)
	rowsc := make(chan []int)
	go func() {
		var rows []int
		for r1 := range stream.Progress {
			rows = append(rows, r1)
		}
		rowsc <- rows
	}()

	require.Equal(twinPairs, stream.PullAll())
	require.NoError(<-errc)
	require.Equal([]int{0, 2, 4}, <-rowsc)
}

// A consumer that stops reading must not strand the scan once the context is cancelled.
func TestStreamAbandoned(t *testing.T) {
	require := require.New(t)

	X, err := graph.ParseEdgeExpr(5, "0-1,0-4,1-4,2-4,3-4")
	require.NoError(err)
	graphs := make([]graph.Graph, 8)
	for i := range graphs {
		graphs[i] = *X.Permute([]int{(i + 1) % 5, (i + 2) % 5, (i + 3) % 5, (i + 4) % 5, i % 5})
	}

	sc, err := scan.New(context.Background(), corpus.New(5, graphs), nil, dtwins.ScanOpts{Workers: 2})
	require.NoError(err)
	require.Equal(28, sc.NumCandidatePairs())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stream, errc := sc.Stream(ctx, false)

	require.Equal(dtwins.Pair{R1: 0, R2: 1}, <-stream.Outlet)
	cancel()

	select {
	case err = <-errc:
		require.ErrorIs(err, context.Canceled)
	case <-time.After(30 * time.Second):
		require.Fail("scan still blocked on the stream after cancel")
	}
}

type progressLog struct {
	dtwins.PairCollector
	rows []int
}

func (pl *progressLog) OnProgress(r1 int) {
	pl.rows = append(pl.rows, r1)
}

func TestCatalogResume(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	C := twinCorpus(t)

	cat, err := catalog.Open(catalog.Opts{})
	require.NoError(err)
	defer cat.Close()

	opts := dtwins.ScanOpts{ProgressEvery: 2}

	sc, err := scan.New(ctx, C, cat, opts)
	require.NoError(err)

	var pl progressLog
	require.NoError(sc.Scan(ctx, &pl))
	require.Equal(twinPairs, pl.Pairs)
	require.Equal([]int{0, 2, 4}, pl.rows)

	tbl, err := cat.Invariants(5)
	require.NoError(err)
	require.Equal(C.Fingerprint(), tbl.Fingerprint)
	require.Equal(sc.Invariants(), tbl.Recs)

	cp, err := cat.Checkpoint(5)
	require.NoError(err)
	require.True(cp.IsDone())
	require.Equal(uint32(3), cp.NumPairs)
	require.Equal(sc.RunID, cp.RunID)

	// Rewind the checkpoint to just after row 0
	require.NoError(cat.ResetScan(5))
	partial := &catalog.Checkpoint{
		Order:       5,
		NumGraphs:   5,
		NextR1:      1,
		RunID:       "earlier",
		Fingerprint: C.Fingerprint(),
	}
	require.NoError(cat.Commit(partial, twinPairs[:2]))

	opts.Resume = true
	sc, err = scan.New(ctx, C, cat, opts)
	require.NoError(err)

	var resumed dtwins.PairCollector
	require.NoError(sc.Scan(ctx, &resumed))
	require.Equal(twinPairs, resumed.Pairs)
	require.Equal(4, sc.Stats.RowsScanned)

	stored, err := cat.Pairs(5)
	require.NoError(err)
	require.Equal(twinPairs, stored)

	// A completed scan resumes to a replay
	sc, err = scan.New(ctx, C, cat, opts)
	require.NoError(err)
	var replay dtwins.PairCollector
	require.NoError(sc.Scan(ctx, &replay))
	require.Equal(twinPairs, replay.Pairs)
	require.Zero(sc.Stats.RowsScanned)

	// Without Resume, the stored scan is discarded and redone
	opts.Resume = false
	sc, err = scan.New(ctx, C, cat, opts)
	require.NoError(err)
	var redo dtwins.PairCollector
	require.NoError(sc.Scan(ctx, &redo))
	require.Equal(twinPairs, redo.Pairs)
	require.Equal(5, sc.Stats.RowsScanned)
}

func TestResumeMismatch(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	cat, err := catalog.Open(catalog.Opts{})
	require.NoError(err)
	defer cat.Close()

	require.NoError(cat.Commit(&catalog.Checkpoint{Order: 5, NumGraphs: 5, NextR1: 2, Fingerprint: 1}, nil))

	sc, err := scan.New(ctx, twinCorpus(t), cat, dtwins.ScanOpts{Resume: true})
	require.NoError(err)
	require.ErrorIs(sc.Scan(ctx, nil), dtwins.ErrCatalogMismatch)
}

func TestCancel(t *testing.T) {
	C, err := corpus.Generate(6)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = scan.Scan(ctx, C, dtwins.ScanOpts{Workers: 2}, nil)
	require.ErrorIs(t, err, context.Canceled)
}

func TestOpen(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	fs := memoryfs.New()

	C, err := corpus.Generate(5)
	require.NoError(err)
	require.NoError(corpus.WriteFile(fs, "/data", C))

	sc, err := scan.Open(ctx, fs, dtwins.ScanOpts{Order: 5, DataDir: "/data"})
	require.NoError(err)
	require.Equal(C.Fingerprint(), sc.Corpus().Fingerprint())
	require.NoError(sc.Scan(ctx, nil))
	require.Zero(sc.Stats.PairsFound)
	require.NoError(sc.Close())

	_, err = scan.Open(ctx, fs, dtwins.ScanOpts{Order: 6, DataDir: "/data"})
	require.ErrorIs(err, dtwins.ErrDatasetMissing)

	_, err = scan.Open(ctx, fs, dtwins.ScanOpts{Order: 11})
	require.ErrorIs(err, dtwins.ErrOrderRange)
}
