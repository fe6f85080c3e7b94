package corpus

import (
	"encoding/binary"

	"github.com/2x3systems/densitytwins/libtwins/graph"
	"github.com/dgraph-io/badger/v3"
)

// CanonicSet allows adding canonical codes of graphs and returning if an isomorphic graph has already been added.
type CanonicSet interface {

	// TryAdd adds the given graph if no isomorphic graph is present.
	//
	// If the canonic code of X is already in this CanonicSet, this call has no effect and TryAdd() returns false.
	// Otherwise X's code is added and TryAdd() returns true along with the code.
	//
	// After one or more calls to TryAdd(), call Close() for cleanup.
	TryAdd(X *graph.Graph) (bool, graph.CanonicCode, error)

	// Close removes all previously added items from this set.
	Close()
}

func NewCanonicSet() CanonicSet {
	return &canonicSet{}
}

type canonicSet struct {
	db *badger.DB
}

func (set *canonicSet) autoOpen() error {
	if set.db != nil {
		return nil
	}
	dbOpts := badger.DefaultOptions("").WithInMemory(true)
	dbOpts.Logger = nil
	dbOpts.MetricsEnabled = false

	var err error
	set.db, err = badger.Open(dbOpts)
	return err
}

func (set *canonicSet) TryAdd(X *graph.Graph) (bool, graph.CanonicCode, error) {
	code := X.Canonize()

	var key [9]byte
	key[0] = byte(X.Order())
	binary.BigEndian.PutUint64(key[1:], uint64(code))

	added, err := set.tryAdd(key[:])
	return added, code, err
}

func (set *canonicSet) tryAdd(key []byte) (bool, error) {
	if err := set.autoOpen(); err != nil {
		return false, err
	}

	added := false
	err := set.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		if err == badger.ErrKeyNotFound {
			added = true
			return txn.Set(key, nil)
		}
		return err
	})
	return added, err
}

func (set *canonicSet) Close() {
	if set.db != nil {
		set.db.Close()
		set.db = nil
	}
}
