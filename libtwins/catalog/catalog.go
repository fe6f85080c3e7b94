package catalog

import (
	"encoding/binary"
	"runtime"
	"time"

	"github.com/2x3systems/densitytwins/dtwins"
	"github.com/2x3systems/densitytwins/libtwins/invariants"
	"github.com/dgraph-io/badger/v3"
	"github.com/gogo/protobuf/proto"
	"github.com/pkg/errors"
)

/***

Catalog database format:

	gStateKey                              => State

	kTableInfo, order                      => corpus fingerprint (uint64)
	kInvariants, order, id (uint32)        => Record (4 bytes)
	...

	kCheckpoint, order                     => Checkpoint

	kPair, order, r1 (uint32), r2 (uint32) => nil
	...

Big-endian ids make a prefix walk return records in id order and pairs in ascending (r1, r2) order.

***/

const (
	kInvariants byte = 0x01
	kCheckpoint byte = 0x02
	kPair       byte = 0x03
	kTableInfo  byte = 0x04

	majorVers = 2024
	minorVers = 1
)

var (
	gStateKey = []byte{0x00, 0x00, 0x01}
)

// Opts specifies how a catalog is opened.
type Opts struct {
	DbPathName string // omit for an in-memory catalog
	ReadOnly   bool
}

// Catalog is a db wrapper holding invariant tables, scan checkpoints, and compatible pairs.
type Catalog struct {
	readOnly   bool
	stateDirty bool
	state      State
	db         *badger.DB
}

func Open(opts Opts) (*Catalog, error) {
	cat := &Catalog{
		readOnly: opts.ReadOnly,
	}

	dbOpts := badger.DefaultOptions(opts.DbPathName)
	dbOpts.ReadOnly = opts.ReadOnly
	dbOpts.DetectConflicts = false
	dbOpts.Logger = nil
	dbOpts.MetricsEnabled = false

	// Badger for windows currently does not support read-only mode
	if runtime.GOOS == "windows" {
		dbOpts.ReadOnly = false
	}

	if len(opts.DbPathName) == 0 {
		if opts.ReadOnly {
			return nil, errors.Wrap(dtwins.ErrBadCatalogParam, "DbPathName must be specified for a read-only catalog")
		}
		dbOpts.InMemory = true
	}

	var err error
	cat.db, err = badger.Open(dbOpts)
	if err != nil {
		return nil, err
	}

	err = cat.loadState()
	if err == badger.ErrKeyNotFound {
		err = nil
		cat.stateDirty = !cat.readOnly
		cat.state = State{
			MajorVers: majorVers,
			MinorVers: minorVers,
			Created:   time.Now().Unix(),
		}
	}
	if err == nil && (cat.state.MajorVers != majorVers || cat.state.MinorVers != minorVers) {
		err = errors.Errorf("catalog version %d.%d is incompatible", cat.state.MajorVers, cat.state.MinorVers)
	}
	if err == nil {
		err = cat.flushState()
	}

	if err != nil {
		cat.db.Close()
		return nil, err
	}
	return cat, nil
}

func (cat *Catalog) loadState() error {
	return cat.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(gStateKey)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return proto.Unmarshal(val, &cat.state)
		})
	})
}

func (cat *Catalog) flushState() error {
	if !cat.stateDirty {
		return nil
	}
	err := cat.db.Update(func(txn *badger.Txn) error {
		stateBuf, err := proto.Marshal(&cat.state)
		if err != nil {
			return err
		}
		return txn.Set(gStateKey, stateBuf)
	})
	if err == nil {
		cat.stateDirty = false
	}
	return err
}

func (cat *Catalog) Close() error {
	if cat.db == nil {
		return nil
	}
	err := cat.flushState()
	if closeErr := cat.db.Close(); err == nil {
		err = closeErr
	}
	cat.db = nil
	return err
}

func (cat *Catalog) State() State {
	return cat.state
}

func (cat *Catalog) IsReadOnly() bool {
	return cat.readOnly
}

func appendUint32(key []byte, v int) []byte {
	return binary.BigEndian.AppendUint32(key, uint32(v))
}

func invariantsKey(key []byte, order, id int) []byte {
	return appendUint32(append(key, kInvariants, byte(order)), id)
}

func pairKey(key []byte, order int, p dtwins.Pair) []byte {
	key = append(key, kPair, byte(order))
	key = appendUint32(key, p.R1)
	return appendUint32(key, p.R2)
}

// deletePrefix removes every entry whose key starts with prefix.
func (cat *Catalog) deletePrefix(prefix []byte) error {
	var keys [][]byte
	err := cat.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{
			Prefix: prefix,
		})
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		return nil
	})
	if err != nil || len(keys) == 0 {
		return err
	}

	wb := cat.db.NewWriteBatch()
	defer wb.Cancel()
	for _, key := range keys {
		if err = wb.Delete(key); err != nil {
			return err
		}
	}
	return wb.Flush()
}

// PutInvariants replaces the invariant table stored for tbl.Order.
func (cat *Catalog) PutInvariants(tbl *invariants.Table) error {
	order := tbl.Order
	if err := cat.deletePrefix([]byte{kInvariants, byte(order)}); err != nil {
		return err
	}

	wb := cat.db.NewWriteBatch()
	defer wb.Cancel()

	for id, rec := range tbl.Recs {
		key := invariantsKey(make([]byte, 0, 6), order, id)
		if err := wb.Set(key, rec.AppendTo(make([]byte, 0, 4))); err != nil {
			return err
		}
	}
	info := binary.BigEndian.AppendUint64(make([]byte, 0, 8), tbl.Fingerprint)
	if err := wb.Set([]byte{kTableInfo, byte(order)}, info); err != nil {
		return err
	}
	return wb.Flush()
}

// Invariants returns the invariant table stored for the given order.
// If none is stored, the returned table has no records and a zero Fingerprint.
func (cat *Catalog) Invariants(order int) (*invariants.Table, error) {
	tbl := &invariants.Table{
		Order: order,
	}

	err := cat.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte{kTableInfo, byte(order)})
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		err = item.Value(func(val []byte) error {
			if len(val) != 8 {
				return errors.Wrapf(dtwins.ErrCatalogMismatch, "invariant table info for order %d has %d bytes", order, len(val))
			}
			tbl.Fingerprint = binary.BigEndian.Uint64(val)
			return nil
		})
		if err != nil {
			return err
		}

		it := txn.NewIterator(badger.IteratorOptions{
			PrefetchValues: true,
			PrefetchSize:   300,
			Prefix:         []byte{kInvariants, byte(order)},
		})
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			key := item.Key()
			if len(key) != 6 || int(binary.BigEndian.Uint32(key[2:])) != len(tbl.Recs) {
				return errors.Wrapf(dtwins.ErrCatalogMismatch, "invariant table for order %d has a gap at id %d", order, len(tbl.Recs))
			}
			err := item.Value(func(val []byte) error {
				if len(val) != 4 {
					return errors.Wrapf(dtwins.ErrCatalogMismatch, "invariant record %d has %d bytes", len(tbl.Recs), len(val))
				}
				tbl.Recs = append(tbl.Recs, invariants.RecordFromBytes(val))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tbl, nil
}

// Checkpoint returns the scan checkpoint stored for the given order, or nil if there is none.
func (cat *Catalog) Checkpoint(order int) (*Checkpoint, error) {
	var cp *Checkpoint
	err := cat.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte{kCheckpoint, byte(order)})
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			cp = &Checkpoint{}
			return proto.Unmarshal(val, cp)
		})
	})
	if err == badger.ErrKeyNotFound {
		return nil, nil
	}
	return cp, err
}

// Commit atomically stores the given pairs and advances the checkpoint.
// cp.NumPairs is increased by len(pairs).
func (cat *Catalog) Commit(cp *Checkpoint, pairs []dtwins.Pair) error {
	cp.NumPairs += uint32(len(pairs))
	cp.Updated = time.Now().Unix()

	return cat.db.Update(func(txn *badger.Txn) error {
		order := int(cp.Order)
		for _, p := range pairs {
			if err := txn.Set(pairKey(nil, order, p), nil); err != nil {
				return err
			}
		}
		buf, err := proto.Marshal(cp)
		if err != nil {
			return err
		}
		return txn.Set([]byte{kCheckpoint, byte(order)}, buf)
	})
}

// ResetScan removes the checkpoint and all pairs stored for the given order.
func (cat *Catalog) ResetScan(order int) error {
	if err := cat.deletePrefix([]byte{kPair, byte(order)}); err != nil {
		return err
	}
	return cat.deletePrefix([]byte{kCheckpoint, byte(order)})
}

// SelectPairs calls onHit with each stored pair of the given order in ascending (r1, r2) order.
//
// Enumeration stops when there are no more pairs or if onHit() returns false.
func (cat *Catalog) SelectPairs(order int, onHit func(p dtwins.Pair) bool) error {
	return cat.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{
			Prefix: []byte{kPair, byte(order)},
		})
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			key := it.Item().Key()
			if len(key) != 10 {
				return errors.Wrapf(dtwins.ErrCatalogMismatch, "bad pair key %x", key)
			}
			p := dtwins.Pair{
				R1: int(binary.BigEndian.Uint32(key[2:])),
				R2: int(binary.BigEndian.Uint32(key[6:])),
			}
			if !onHit(p) {
				break
			}
		}
		return nil
	})
}

// Pairs returns all stored pairs of the given order.
func (cat *Catalog) Pairs(order int) ([]dtwins.Pair, error) {
	var pairs []dtwins.Pair
	err := cat.SelectPairs(order, func(p dtwins.Pair) bool {
		pairs = append(pairs, p)
		return true
	})
	return pairs, err
}
