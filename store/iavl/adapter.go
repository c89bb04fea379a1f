package iavl

import (
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/store"
	"github.com/tendermint/iavl"
	dbm "github.com/tendermint/tendermint/libs/db"
)

const cacheSize = 10000

// CommitStore manages an iavl committed state
type CommitStore struct {
	tree *iavl.MutableTree
}

var _ store.CommitKVStore = CommitStore{}

// NewCommitStore creates a new store with leveldb backing
func NewCommitStore(path, name string) (CommitStore, error) {
	db, err := dbm.NewGoLevelDB(name, path)
	if err != nil {
		return CommitStore{}, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	tree := iavl.NewMutableTree(db, cacheSize)
	return CommitStore{tree}, nil
}

// MockCommitStore creates a new in-memory store for testing
func MockCommitStore() CommitStore {
	tree := iavl.NewMutableTree(dbm.NewMemDB(), cacheSize)
	return CommitStore{tree}
}

// Get returns the value at last committed state
// returns nil iff key doesn't exist. Panics on nil key.
func (s CommitStore) Get(key []byte) ([]byte, error) {
	_, val := s.tree.GetVersioned(key, s.tree.Version())
	return val, nil
}

// Commit the next version to disk, and returns info
func (s CommitStore) Commit() (store.CommitID, error) {
	hash, version, err := s.tree.SaveVersion()
	if err != nil {
		return store.CommitID{}, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return store.CommitID{
		Version: version,
		Hash:    hash,
	}, nil
}

// LoadLatestVersion loads the latest persisted version.
// If there was a crash during the last commit, it is guaranteed
// to return a stable state, even if older.
func (s CommitStore) LoadLatestVersion() error {
	if _, err := s.tree.Load(); err != nil {
		return errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return nil
}

// LatestVersion returns info on the latest version saved to disk
func (s CommitStore) LatestVersion() (store.CommitID, error) {
	return store.CommitID{
		Version: s.tree.Version(),
		Hash:    s.tree.Hash(),
	}, nil
}

// CacheWrap wraps the working tree in a btree cache. Nothing is
// written to the tree until Write is called on the returned wrap.
func (s CommitStore) CacheWrap() store.KVCacheWrap {
	w := adapter{s.tree}
	return store.NewBTreeCacheWrap(w, w.NewBatch(), nil)
}

// adapter exposes the working (uncommitted) state of the tree
// as a KVStore.
type adapter struct {
	tree *iavl.MutableTree
}

var _ store.KVStore = adapter{}

// Get returns nil iff key doesn't exist. Panics on nil key.
func (a adapter) Get(key []byte) ([]byte, error) {
	_, val := a.tree.Get(key)
	return val, nil
}

// Has checks if a key exists. Panics on nil key.
func (a adapter) Has(key []byte) (bool, error) {
	return a.tree.Has(key), nil
}

// Set adds a new value
func (a adapter) Set(key, value []byte) error {
	a.tree.Set(key, value)
	return nil
}

// Delete removes from the tree
func (a adapter) Delete(key []byte) error {
	a.tree.Remove(key)
	return nil
}

// NewBatch returns a batch that writes to the working tree
func (a adapter) NewBatch() store.Batch {
	return store.NewNonAtomicBatch(a)
}

// Iterator over a domain of keys in ascending order. End is exclusive.
func (a adapter) Iterator(start, end []byte) (store.Iterator, error) {
	return a.collect(start, end, true), nil
}

// ReverseIterator over a domain of keys in descending order. End is exclusive.
func (a adapter) ReverseIterator(start, end []byte) (store.Iterator, error) {
	return a.collect(start, end, false), nil
}

func (a adapter) collect(start, end []byte, ascending bool) store.Iterator {
	var res []store.Model
	a.tree.IterateRange(start, end, ascending, func(key []byte, value []byte) bool {
		res = append(res, store.Pair(key, value))
		// continue iteration
		return false
	})
	return store.NewSliceIterator(res)
}
