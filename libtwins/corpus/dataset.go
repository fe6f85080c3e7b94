package corpus

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/2x3systems/densitytwins/dtwins"
	"github.com/2x3systems/densitytwins/libtwins/graph"
	"github.com/mandelsoft/vfs/pkg/vfs"
	"github.com/pkg/errors"
	"github.com/plan-systems/klog"
)

// FileName returns the dataset file name for graphs of order n, e.g. "graphs7.txt".
func FileName(n int) string {
	return fmt.Sprintf("graphs%d.txt", n)
}

// Load reads all graphs of order n from dataDir/graphs<n>.txt.
//
// Each graph is two header lines followed by n rows of n '0'/'1' characters.
// Exactly dtwins.NumGraphs[n] graphs must be present; trailing blank lines are ignored but any
// other trailing data means the graph count is wrong.
func Load(fs vfs.FileSystem, dataDir string, n int) (*Corpus, error) {
	if err := dtwins.CheckOrder(n); err != nil {
		return nil, err
	}

	pathname := filepath.Join(dataDir, FileName(n))
	data, err := vfs.ReadFile(fs, pathname)
	if err != nil {
		return nil, errors.Wrapf(dtwins.ErrDatasetMissing, "%v", err)
	}

	C, err := Parse(bytes.NewReader(data), n, dtwins.NumGraphs[n])
	if err != nil {
		return nil, errors.WithMessagef(err, "%s", pathname)
	}
	klog.V(2).Infof("loaded %d graphs of order %d from %s", C.NumGraphs(), n, pathname)
	return C, nil
}

// Parse reads numGraphs graphs of order n in dataset format.
func Parse(in io.Reader, n, numGraphs int) (*Corpus, error) {
	scanner := bufio.NewScanner(in)
	lineNum := 0
	nextLine := func() (string, bool) {
		if !scanner.Scan() {
			return "", false
		}
		lineNum++
		return strings.TrimRight(scanner.Text(), "\r"), true
	}

	C := &Corpus{
		order:  n,
		Graphs: make([]graph.Graph, numGraphs),
	}

	rows := make([]string, n)
	for r := range C.Graphs {
		for hdr := 0; hdr < 2; hdr++ {
			if _, ok := nextLine(); !ok {
				return nil, errors.Wrapf(dtwins.ErrDatasetTruncated, "graph %d of %d: missing header", r, numGraphs)
			}
		}
		for i := range rows {
			var ok bool
			if rows[i], ok = nextLine(); !ok {
				return nil, errors.Wrapf(dtwins.ErrDatasetTruncated, "graph %d of %d: missing row %d", r, numGraphs, i)
			}
		}
		if err := C.Graphs[r].InitFromMatrixRows(rows); err != nil {
			return nil, errors.WithMessagef(err, "graph %d (line %d)", r, lineNum)
		}
	}

	for {
		line, ok := nextLine()
		if !ok {
			break
		}
		if strings.TrimSpace(line) != "" {
			return nil, errors.Wrapf(dtwins.ErrDatasetMalformed, "data after graph %d at line %d: expected exactly %d graphs", numGraphs-1, lineNum, numGraphs)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(dtwins.ErrDatasetMalformed, err.Error())
	}

	return C, nil
}

// Write writes the corpus in the format Load reads.
func Write(out io.Writer, C *Corpus) error {
	w := bufio.NewWriter(out)
	for r := range C.Graphs {
		fmt.Fprintf(w, "\nGraph %d, order %d.\n", r+1, C.order)
		C.Graphs[r].WriteAsMatrixStr(w)
	}
	return w.Flush()
}

// WriteFile writes the corpus to dataDir/graphs<n>.txt.
func WriteFile(fs vfs.FileSystem, dataDir string, C *Corpus) error {
	buf := bytes.Buffer{}
	if err := Write(&buf, C); err != nil {
		return err
	}
	if err := fs.MkdirAll(dataDir, 0o755); err != nil {
		return err
	}
	return vfs.WriteFile(fs, filepath.Join(dataDir, FileName(C.order)), buf.Bytes(), 0o644)
}
