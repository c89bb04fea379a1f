package app

import (
	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/orm"
)

// ResultSet is the serialized form of a list of keys or values
// returned by a query.
type ResultSet struct {
	Results [][]byte
}

var _ custody.Persistent = (*ResultSet)(nil)

func (r *ResultSet) Marshal() ([]byte, error) {
	return orm.NewEncoder().RepeatedBytes(1, r.Results).Result()
}

var resultSetSchema = orm.Schema{
	1: orm.WireBytes,
}

func (r *ResultSet) Unmarshal(raw []byte) error {
	fields, err := orm.Decode(raw, resultSetSchema)
	if err != nil {
		return err
	}
	r.Results = make([][]byte, 0, len(fields))
	for _, f := range fields {
		if f.Tag != 1 {
			return errors.Wrapf(errors.ErrModel, "unexpected field %d", f.Tag)
		}
		r.Results = append(r.Results, f.Bytes)
	}
	return nil
}

// ResultsFromKeys returns a ResultSet of all keys
// given a set of models
func ResultsFromKeys(models []custody.Model) *ResultSet {
	res := make([][]byte, len(models))
	for i, m := range models {
		res[i] = m.Key
	}
	return &ResultSet{Results: res}
}

// ResultsFromValues returns a ResultSet of all values
// given a set of models
func ResultsFromValues(models []custody.Model) *ResultSet {
	res := make([][]byte, len(models))
	for i, m := range models {
		res[i] = m.Value
	}
	return &ResultSet{Results: res}
}
