package dtwins_test

import (
	"bytes"
	"fmt"
	"io"
	"testing"

	"github.com/2x3systems/densitytwins/dtwins"
	"github.com/mandelsoft/vfs/pkg/memoryfs"
	"github.com/mandelsoft/vfs/pkg/vfs"
	"github.com/stretchr/testify/require"
)

// diagCorpus holds order 2 graphs where graph r is an edge iff r is odd.
type diagCorpus struct{}

func (diagCorpus) Order() int     { return 2 }
func (diagCorpus) NumGraphs() int { return 4 }
func (diagCorpus) WriteMatrix(out io.Writer, r int) {
	fmt.Fprintf(out, "0%d\n%d0\n", r&1, r&1)
}

type bufCloser struct {
	bytes.Buffer
	closed bool
}

func (b *bufCloser) Close() error {
	b.closed = true
	return nil
}

func TestPairStreamPrint(t *testing.T) {
	require := require.New(t)

	stream := dtwins.NewPairStream()
	go func() {
		stream.OnCompatiblePairFound(0, 2)
		stream.OnProgress(1)
		stream.OnCompatiblePairFound(1, 3)
		stream.Close()
	}()

	out := &bufCloser{}
	pairs := stream.
		Filter(func(p dtwins.Pair) bool { return p.R1 == 1 }).
		Print(out, diagCorpus{}, dtwins.DefaultPrintOpts).
		PullAll()

	require.Equal([]dtwins.Pair{{R1: 1, R2: 3}}, pairs)
	require.True(out.closed)
	require.Equal(`Graph 1 and graph 3 on 2 vertices are compatible

Printing graph #1 on 2 vertices
01
10

Printing graph #3 on 2 vertices
01
10

`, out.String())

	buf := bytes.Buffer{}
	dtwins.WritePair(&buf, diagCorpus{}, dtwins.Pair{R1: 0, R2: 2}, dtwins.PrintOpts{})
	require.Equal("Graph 0 and graph 2 on 2 vertices are compatible\n", buf.String())
}

func TestSchedule(t *testing.T) {
	require := require.New(t)

	require.NoError(dtwins.DefaultSchedule.Validate())
	require.Equal("81/79", dtwins.DefaultSchedule[0].String())

	full := dtwins.DefaultSchedule.WithExhaustive()
	require.Len(full, len(dtwins.DefaultSchedule)+1)
	require.True(full[len(full)-1].IsExhaustive())
	require.Len(dtwins.DefaultSchedule, 4)

	err := dtwins.Schedule{{Forward: 3, Backward: -1}}.Validate()
	require.ErrorIs(err, dtwins.ErrBadSchedule)
}

func TestOrders(t *testing.T) {
	require := require.New(t)

	n, err := dtwins.NumGraphsForOrder(7)
	require.NoError(err)
	require.Equal(1044, n)

	for _, bad := range []int{-1, 0, 1, 10} {
		_, err = dtwins.NumGraphsForOrder(bad)
		require.ErrorIs(err, dtwins.ErrOrderRange)
		require.False(dtwins.IsDatasetError(err))
	}
}

func TestLoadScanOpts(t *testing.T) {
	require := require.New(t)
	fs := memoryfs.New()

	cfg := `
order: 8
catalog: /var/dtwins/cat8
resume: true
schedule:
  - {forward: 27, backward: 25}
  - {forward: 3, backward: 3}
`
	require.NoError(vfs.WriteFile(fs, "/scan.yaml", []byte(cfg), 0o644))

	opts, err := dtwins.LoadScanOpts(fs, "/scan.yaml")
	require.NoError(err)
	require.Equal(dtwins.ScanOpts{
		Order:         8,
		CatalogPath:   "/var/dtwins/cat8",
		Workers:       1,
		ProgressEvery: dtwins.DefaultProgressEvery,
		Resume:        true,
		Schedule:      dtwins.Schedule{{Forward: 27, Backward: 25}, {Forward: 3, Backward: 3}},
	}, opts)

	// Omitted schedule is the default
	require.NoError(vfs.WriteFile(fs, "/short.yaml", []byte("order: 6\nworkers: 4\n"), 0o644))
	opts, err = dtwins.LoadScanOpts(fs, "/short.yaml")
	require.NoError(err)
	require.Equal(6, opts.Order)
	require.Equal(4, opts.Workers)
	require.Equal(dtwins.DefaultSchedule, opts.Schedule)

	require.NoError(vfs.WriteFile(fs, "/bad.yaml", []byte("order: 12\n"), 0o644))
	_, err = dtwins.LoadScanOpts(fs, "/bad.yaml")
	require.ErrorIs(err, dtwins.ErrOrderRange)

	require.NoError(vfs.WriteFile(fs, "/stride.yaml", []byte("schedule:\n  - {forward: 0, backward: 1}\n"), 0o644))
	_, err = dtwins.LoadScanOpts(fs, "/stride.yaml")
	require.ErrorIs(err, dtwins.ErrBadSchedule)

	_, err = dtwins.LoadScanOpts(fs, "/none.yaml")
	require.Error(err)
}

func TestPairStreamDone(t *testing.T) {
	require := require.New(t)

	done := make(chan struct{})
	stream := dtwins.NewPairStream()
	stream.Progress = make(chan int)
	stream.Done = done
	close(done)

	// Nothing drains the stream, so sends past the buffer are dropped instead of blocking
	for r1 := 0; r1 < 10; r1++ {
		stream.OnProgress(r1)
		stream.OnCompatiblePairFound(r1, r1+1)
	}
	stream.Close()
	require.LessOrEqual(len(stream.PullAll()), 4)
}
