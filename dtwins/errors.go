package dtwins

import "github.com/pkg/errors"

// Errors
var (
	ErrDatasetMissing   = errors.New("graph dataset missing")
	ErrDatasetTruncated = errors.New("graph dataset truncated")
	ErrDatasetMalformed = errors.New("graph dataset malformed")
	ErrOrderRange       = errors.New("vertex order outside supported range")
	ErrBadSchedule      = errors.New("bad stride schedule")
	ErrBadEdgeExpr      = errors.New("bad graph edge expression")
	ErrBadVtxID         = errors.New("bad graph vertex ID")
	ErrCatalogMismatch  = errors.New("catalog does not match corpus")
	ErrBadCatalogParam  = errors.New("bad catalog parameter")
	ErrNilGraph         = errors.New("nil graph")
)

// IsDatasetError reports whether err stems from a missing or corrupt graph dataset.
func IsDatasetError(err error) bool {
	return errors.Is(err, ErrDatasetMissing) ||
		errors.Is(err, ErrDatasetTruncated) ||
		errors.Is(err, ErrDatasetMalformed)
}
