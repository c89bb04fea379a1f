package orm

import (
	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
)

// ConsumeIterator will read all remaining data into an
// array and release the iterator
func ConsumeIterator(itr custody.Iterator) ([]custody.Model, error) {
	defer itr.Release()

	var res []custody.Model
	for {
		k, v, err := itr.Next()
		if errors.ErrIteratorDone.Is(err) {
			return res, nil
		}
		if err != nil {
			return nil, err
		}
		res = append(res, custody.Pair(k, v))
	}
}

// PrefixRange turns a prefix into (start, end) to create
// and iterator over all keys sharing it.
func PrefixRange(prefix []byte) ([]byte, []byte) {
	if prefix == nil {
		return nil, nil
	}
	start := append([]byte(nil), prefix...)
	end := append([]byte(nil), prefix...)

	// increment the last byte, carrying over 0xff
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] != 0xff {
			end[i]++
			return start, end[:i+1]
		}
	}
	// all 0xff, no upper bound
	return start, nil
}

// RegisterQuery will register a root query (literal keys)
// under "/"
func RegisterQuery(qr custody.QueryRouter) {
	qr.Register("/", rawQuery{})
}

// rawQuery gives access to the store without any bucket prefix.
type rawQuery struct{}

func (rawQuery) Query(db custody.ReadOnlyKVStore, mod string, data []byte) ([]custody.Model, error) {
	switch mod {
	case custody.KeyQueryMod:
		value, err := db.Get(data)
		if err != nil {
			return nil, errors.Wrap(errors.ErrDatabase, err.Error())
		}
		if value == nil {
			return nil, nil
		}
		return []custody.Model{custody.Pair(data, value)}, nil
	case custody.PrefixQueryMod:
		start, end := PrefixRange(data)
		iter, err := db.Iterator(start, end)
		if err != nil {
			return nil, errors.Wrap(errors.ErrDatabase, err.Error())
		}
		return ConsumeIterator(iter)
	default:
		return nil, errors.Wrapf(errors.ErrInput, "unknown mod: %s", mod)
	}
}
