package store

import (
	"bytes"
	"crypto/rand"
	"sort"
	"testing"

	"github.com/iov-one/custody/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSuite runs generic KVStore checks against any CacheableKVStore.
// It keeps btree_test.go and iavl/adapter_test.go free of duplication.
type TestSuite struct {
	makeBase TestStoreConstructor
}

// TestStoreConstructor returns a fresh store and a function releasing it.
type TestStoreConstructor func() (base CacheableKVStore, cleanup func())

func NewTestSuite(constructor TestStoreConstructor) *TestSuite {
	return &TestSuite{
		makeBase: constructor,
	}
}

// GetSet does basic sanity checks on our cache
func (s *TestSuite) GetSet(t *testing.T) {
	base, cleanup := s.makeBase()
	defer cleanup()

	k, v := []byte("french"), []byte("fry")
	s.AssertGetHas(t, base, k, nil, false)
	require.NoError(t, base.Set(k, v))
	s.AssertGetHas(t, base, k, v, true)

	// now layer another btree on top and make sure that we get
	// base data
	cache := base.CacheWrap()
	s.AssertGetHas(t, cache, k, v, true)

	// writing more data is only visible in the cache
	k2, v2 := []byte("LA"), []byte("Dodgers")
	s.AssertGetHas(t, cache, k2, nil, false)
	require.NoError(t, cache.Set(k2, v2))
	s.AssertGetHas(t, cache, k2, v2, true)
	s.AssertGetHas(t, base, k2, nil, false)

	require.NoError(t, cache.Write())
	s.AssertGetHas(t, base, k, v, true)
	s.AssertGetHas(t, base, k2, v2, true)

	// we can discard one
	k3, v3 := []byte("Bayern"), []byte("Munich")
	c2 := base.CacheWrap()
	require.NoError(t, c2.Set(k3, v3))
	c2.Discard()
	s.AssertGetHas(t, base, k3, nil, false)

	// and commit another
	c3 := base.CacheWrap()
	require.NoError(t, c3.Delete(k))
	require.NoError(t, c3.Write())

	s.AssertGetHas(t, base, k, nil, false)
	s.AssertGetHas(t, base, k2, v2, true)
	s.AssertGetHas(t, base, k3, nil, false)
}

// CacheConflicts checks that we can handle
// overwriting values and deleting underlying values
func (s *TestSuite) CacheConflicts(t *testing.T) {
	ks := randKeys(10, 16)
	vs := randKeys(20, 40)

	cases := map[string]struct {
		parentOps     []Op
		childOps      []Op
		parentQueries []Model // Key is what we query, Value is what we expect
		childQueries  []Model
	}{
		"overwrite one, delete another, add a third": {
			parentOps:     []Op{SetOp(ks[1], vs[1]), SetOp(ks[2], vs[2])},
			childOps:      []Op{SetOp(ks[1], vs[11]), SetOp(ks[3], vs[7]), DelOp(ks[2])},
			parentQueries: []Model{Pair(ks[1], vs[1]), Pair(ks[2], vs[2]), Pair(ks[3], nil)},
			childQueries:  []Model{Pair(ks[1], vs[11]), Pair(ks[2], nil), Pair(ks[3], vs[7])},
		},
		"delete then set again": {
			parentOps:     []Op{SetOp(ks[4], vs[4])},
			childOps:      []Op{DelOp(ks[4]), SetOp(ks[4], vs[14])},
			parentQueries: []Model{Pair(ks[4], vs[4])},
			childQueries:  []Model{Pair(ks[4], vs[14])},
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			parent, cleanup := s.makeBase()
			defer cleanup()

			for _, op := range tc.parentOps {
				require.NoError(t, op.Apply(parent))
			}
			child := parent.CacheWrap()
			for _, op := range tc.childOps {
				require.NoError(t, op.Apply(child))
			}

			for _, q := range tc.parentQueries {
				s.AssertGetHas(t, parent, q.Key, q.Value, q.Value != nil)
			}
			for _, q := range tc.childQueries {
				s.AssertGetHas(t, child, q.Key, q.Value, q.Value != nil)
			}

			// write child to parent and make sure it also shows proper data
			require.NoError(t, child.Write())
			for _, q := range tc.childQueries {
				s.AssertGetHas(t, parent, q.Key, q.Value, q.Value != nil)
			}
		})
	}
}

// IteratorWithConflicts makes sure the merged view over a cache and
// its parent skips deleted entries and prefers the cached values.
func (s *TestSuite) IteratorWithConflicts(t *testing.T) {
	base, cleanup := s.makeBase()
	defer cleanup()

	ks := randKeys(6, 8)
	sort.Slice(ks, func(i, j int) bool { return bytes.Compare(ks[i], ks[j]) < 0 })

	for _, k := range ks[:4] {
		require.NoError(t, base.Set(k, []byte("parent")))
	}

	cache := base.CacheWrap()
	require.NoError(t, cache.Delete(ks[1]))
	require.NoError(t, cache.Set(ks[2], []byte("child")))
	require.NoError(t, cache.Set(ks[5], []byte("child")))

	expected := []Model{
		Pair(ks[0], []byte("parent")),
		Pair(ks[2], []byte("child")),
		Pair(ks[3], []byte("parent")),
		Pair(ks[5], []byte("child")),
	}

	iter, err := cache.Iterator(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, expected, s.consume(t, iter))

	reversed := make([]Model, len(expected))
	for i, m := range expected {
		reversed[len(expected)-1-i] = m
	}
	iter, err = cache.ReverseIterator(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, reversed, s.consume(t, iter))

	// bounded range, end is exclusive
	iter, err = cache.Iterator(ks[1], ks[5])
	require.NoError(t, err)
	assert.Equal(t, expected[1:3], s.consume(t, iter))
}

func (s *TestSuite) consume(t testing.TB, iter Iterator) []Model {
	t.Helper()
	defer iter.Release()

	var res []Model
	for {
		k, v, err := iter.Next()
		if errors.ErrIteratorDone.Is(err) {
			return res
		}
		require.NoError(t, err)
		res = append(res, Pair(k, v))
	}
}

// AssertGetHas checks both Get and Has for the given key.
func (s *TestSuite) AssertGetHas(t testing.TB, kv ReadOnlyKVStore, key, val []byte, has bool) {
	t.Helper()
	got, err := kv.Get(key)
	require.NoError(t, err)
	assert.Equal(t, val, got)
	exists, err := kv.Has(key)
	require.NoError(t, err)
	assert.Equal(t, has, exists)
}

func randBytes(length int) []byte {
	res := make([]byte, length)
	if _, err := rand.Read(res); err != nil {
		panic(err)
	}
	return res
}

func randKeys(count, length int) [][]byte {
	res := make([][]byte, count)
	for i := 0; i < count; i++ {
		res[i] = randBytes(length)
	}
	return res
}
