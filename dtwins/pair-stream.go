package dtwins

import (
	"fmt"
	"io"
	"strings"
)

// PairStream carries compatible pairs between pipeline stages.
// Closing the Outlet signals the end of the stream.
//
// A consumer must drain Outlet, and Progress if attached, until they close.  A producer feeding
// the stream as a Reporter stops blocking once Done closes, dropping what it could not send.
type PairStream struct {
	Outlet   chan Pair
	Progress chan int        // optional progress markers (r1 rows)
	Done     <-chan struct{} // optional, typically ctx.Done() of the producer
}

func NewPairStream() *PairStream {
	stream := &PairStream{
		Outlet: make(chan Pair, 4),
	}
	return stream
}

// OnCompatiblePairFound pushes the pair into the stream so that a PairStream can serve as a Reporter.
func (stream *PairStream) OnCompatiblePairFound(r1, r2 int) {
	select {
	case stream.Outlet <- Pair{r1, r2}:
	case <-stream.Done:
	}
}

// OnProgress forwards progress markers if a Progress channel was attached.
func (stream *PairStream) OnProgress(r1 int) {
	if stream.Progress == nil {
		return
	}
	select {
	case stream.Progress <- r1:
	case <-stream.Done:
	}
}

func (stream *PairStream) Close() {
	if stream.Outlet != nil {
		close(stream.Outlet)
	}
	if stream.Progress != nil {
		close(stream.Progress)
	}
}

func (stream *PairStream) PullAll() []Pair {
	var pairs []Pair
	for p := range stream.Outlet {
		pairs = append(pairs, p)
	}
	return pairs
}

// WritePair renders a compatible pair followed by the matrices of both graphs.
func WritePair(out io.Writer, corpus Corpus, p Pair, opts PrintOpts) {
	Nv := corpus.Order()
	fmt.Fprintf(out, "Graph %d and graph %d on %d vertices are compatible\n", p.R1, p.R2, Nv)
	if opts.Matrix {
		for _, r := range [2]int{p.R1, p.R2} {
			fmt.Fprintf(out, "\nPrinting graph #%d on %d vertices\n", r, Nv)
			corpus.WriteMatrix(out, r)
		}
	}
}

// Print renders each pair to out and passes it along to the returned stream.
func (stream *PairStream) Print(
	out io.WriteCloser,
	corpus Corpus,
	opts PrintOpts) *PairStream {

	next := &PairStream{
		Outlet: make(chan Pair, 1),
	}

	go func() {
		buf := strings.Builder{}
		buf.Grow(256)

		for p := range stream.Outlet {
			WritePair(&buf, corpus, p, opts)
			buf.WriteByte('\n')
			out.Write([]byte(buf.String()))
			buf.Reset()
			next.Outlet <- p
		}
		out.Close()
		next.Close()
	}()

	return next
}

// Filter passes along only the pairs for which keep returns true.
func (stream *PairStream) Filter(keep func(p Pair) bool) *PairStream {
	next := &PairStream{
		Outlet: make(chan Pair, 1),
	}

	go func() {
		for p := range stream.Outlet {
			if keep(p) {
				next.Outlet <- p
			}
		}
		next.Close()
	}()

	return next
}
