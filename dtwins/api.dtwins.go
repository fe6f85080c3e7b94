package dtwins

import (
	"fmt"
	"io"
)

const (

	// MaxOrder is the largest vertex order with a known graph count.
	MaxOrder = 9

	// MinOrder is the smallest vertex order a scan accepts.
	MinOrder = 2

	// DefaultProgressEvery is how many r1 rows pass between progress markers.
	DefaultProgressEvery = 100
)

// NumGraphs is the number of non-isomorphic simple graphs on n vertices for n = 0..MaxOrder.
var NumGraphs = [MaxOrder + 1]int{1, 1, 2, 4, 11, 34, 156, 1044, 12346, 274668}

// Pair identifies two graphs of the same corpus by id, with R1 < R2.
type Pair struct {
	R1 int
	R2 int
}

func (p Pair) String() string {
	return fmt.Sprintf("(%d,%d)", p.R1, p.R2)
}

// Corpus is read-only access to the indexed graphs of a single vertex order.
type Corpus interface {

	// Order returns the vertex count shared by all graphs.
	Order() int

	// NumGraphs returns the number of graphs; graph ids are 0..NumGraphs()-1.
	NumGraphs() int

	// WriteMatrix writes the adjacency matrix of graph r as n rows of '0'/'1' characters.
	WriteMatrix(out io.Writer, r int)
}

// Reporter receives the results of a pair scan.
//
// Calls arrive from a single goroutine in ascending (r1, r2) order.
type Reporter interface {

	// OnCompatiblePairFound is called for each compatible pair.
	OnCompatiblePairFound(r1, r2 int)

	// OnProgress is called every ScanOpts.ProgressEvery r1 rows with the row about to be scanned.
	OnProgress(r1 int)
}

// Stage is one sampled sweep of the compatibility check.
// Forward applies to the X1 -> X2 direction and Backward to X2 -> X1.
type Stage struct {
	Forward  int `yaml:"forward"`
	Backward int `yaml:"backward"`
}

func (st Stage) String() string {
	return fmt.Sprintf("%d/%d", st.Forward, st.Backward)
}

// IsExhaustive returns true if this stage visits every loop set in both directions.
func (st Stage) IsExhaustive() bool {
	return st.Forward == 1 && st.Backward == 1
}

// Schedule is the sequence of sampled sweeps run before the exhaustive sweep.
// The exhaustive (1,1) stage is always run last and need not be listed.
type Schedule []Stage

// DefaultSchedule samples sparsely first so that most incompatible pairs are rejected cheaply.
var DefaultSchedule = Schedule{
	{81, 79},
	{27, 25},
	{9, 7},
	{3, 3},
}

// ExhaustiveStage is the final stage of every compatibility check.
var ExhaustiveStage = Stage{1, 1}

// ScanOpts specifies params for a pair scan.
type ScanOpts struct {
	Order         int      `yaml:"order"`          // vertex order n
	DataDir       string   `yaml:"data_dir"`       // dir holding graphs<n>.txt; omit to generate the corpus
	CatalogPath   string   `yaml:"catalog"`        // omit for an in-memory catalog
	Workers       int      `yaml:"workers"`        // 0 denotes 1
	ProgressEvery int      `yaml:"progress_every"` // 0 denotes DefaultProgressEvery
	Resume        bool     `yaml:"resume"`         // continue from the catalog's checkpoint
	Schedule      Schedule `yaml:"schedule"`       // nil denotes DefaultSchedule
}

// DefaultScanOpts scans order 7 with the default schedule.
var DefaultScanOpts = ScanOpts{
	Order:         7,
	Workers:       1,
	ProgressEvery: DefaultProgressEvery,
}

// PrintOpts specifies what is printed for a compatible pair
type PrintOpts struct {
	Matrix bool // if set, prints the adjacency matrix of both graphs
}

// DefaultPrintOpts prints matrices, as the dataset files carry them.
var DefaultPrintOpts = PrintOpts{
	Matrix: true,
}
