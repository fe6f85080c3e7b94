package dtwins

import (
	"github.com/mandelsoft/vfs/pkg/vfs"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// LoadScanOpts reads a YAML scan config, starting from DefaultScanOpts.
//
//	order: 8
//	data_dir: ./data
//	catalog: ./catalog8
//	workers: 4
//	schedule:
//	  - {forward: 81, backward: 79}
//	  - {forward: 9, backward: 7}
func LoadScanOpts(fs vfs.FileSystem, pathname string) (ScanOpts, error) {
	opts := DefaultScanOpts

	data, err := vfs.ReadFile(fs, pathname)
	if err != nil {
		return opts, errors.Wrapf(err, "reading scan config %q", pathname)
	}
	if err = yaml.Unmarshal(data, &opts); err != nil {
		return opts, errors.Wrapf(err, "parsing scan config %q", pathname)
	}

	opts.ApplyDefaults()
	if err = opts.Validate(); err != nil {
		return opts, err
	}
	return opts, nil
}
