package store

import (
	"bytes"

	"github.com/google/btree"
	"github.com/iov-one/custody/errors"
)

// collectRange copies all cached items within [start, end) out of the
// btree. The snapshot makes the iterator independent from later writes
// to the cache.
func collectRange(bt *btree.BTree, start, end []byte, reverse bool) []btree.Item {
	var items []btree.Item
	collect := func(item btree.Item) bool {
		items = append(items, item)
		return true
	}

	if start == nil && end == nil {
		bt.Ascend(collect)
	} else if start == nil { // end != nil
		bt.AscendLessThan(bkey{end}, collect)
	} else if end == nil { // start != nil
		bt.AscendGreaterOrEqual(bkey{start}, collect)
	} else { // both != nil
		bt.AscendRange(bkey{start}, bkey{end}, collect)
	}

	if reverse {
		for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
			items[i], items[j] = items[j], items[i]
		}
	}
	return items
}

// itemIter merges the cached items with the parent iterator.
// Cached values shadow the parent and deleted items hide the parent key.
type itemIter struct {
	items   []btree.Item
	reverse bool

	// if we are iterating in a cache-wrap (and who isn't),
	// we need to combine this iterator with the parent
	parent    Iterator
	parentKey []byte
	parentVal []byte
	parentOK  bool
}

var _ Iterator = (*itemIter)(nil)

func newItemIter(items []btree.Item, parent Iterator, reverse bool) *itemIter {
	return &itemIter{
		items:   items,
		parent:  parent,
		reverse: reverse,
	}
}

// peekParent makes sure the next parent element is buffered.
func (i *itemIter) peekParent() error {
	if i.parentOK || i.parent == nil {
		return nil
	}
	k, v, err := i.parent.Next()
	switch {
	case err == nil:
		i.parentKey, i.parentVal, i.parentOK = k, v, true
		return nil
	case errors.ErrIteratorDone.Is(err):
		i.parent.Release()
		i.parent = nil
		return nil
	default:
		return err
	}
}

// Next returns the next visible key-value pair.
func (i *itemIter) Next() (key, value []byte, err error) {
	for {
		if err := i.peekParent(); err != nil {
			return nil, nil, err
		}

		hasOwn := len(i.items) > 0
		if !hasOwn && !i.parentOK {
			return nil, nil, errors.ErrIteratorDone
		}

		// only the parent has data left, or the parent comes first
		if !hasOwn || (i.parentOK && i.before(i.parentKey, i.items[0].(keyer).Key())) {
			i.parentOK = false
			return i.parentKey, i.parentVal, nil
		}

		item := i.items[0]
		i.items = i.items[1:]
		// same key in both, our version wins
		if i.parentOK && bytes.Equal(i.parentKey, item.(keyer).Key()) {
			i.parentOK = false
		}
		switch t := item.(type) {
		case setItem:
			return t.key, t.value, nil
		case deletedItem:
			continue
		default:
			return nil, nil, errors.Wrapf(errors.ErrDatabase, "unknown item in btree: %#v", item)
		}
	}
}

// before returns true if a is visited before b in this iteration order.
func (i *itemIter) before(a, b []byte) bool {
	cmp := bytes.Compare(a, b)
	if i.reverse {
		return cmp > 0
	}
	return cmp < 0
}

// Release releases the Iterator.
func (i *itemIter) Release() {
	if i.parent != nil {
		i.parent.Release()
		i.parent = nil
	}
	i.items = nil
	i.parentOK = false
}
