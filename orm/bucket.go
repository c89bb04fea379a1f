package orm

import (
	"fmt"
	"reflect"
	"regexp"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
)

var (
	isBucketName = regexp.MustCompile(`^[a-z_]{3,10}$`).MatchString
)

// Model is implemented by any entity that can be stored using ModelBucket.
type Model interface {
	Marshal() ([]byte, error)
	Unmarshal([]byte) error
	Validate() error
}

// ModelBucket is a prefixed subspace of the DB that holds models of a
// single type.
type ModelBucket interface {
	custody.QueryHandler

	// One query the database for a single model instance. Lookup is done
	// by the primary index key. Result is loaded into given destination
	// model.
	// This method returns ErrNotFound if the entity does not exist in the
	// database.
	// If given model type cannot be used to contain stored entity, ErrType
	// is returned.
	One(db custody.ReadOnlyKVStore, key []byte, dest Model) error

	// Has returns nil if an entity with given primary key exists and
	// ErrNotFound otherwise.
	Has(db custody.ReadOnlyKVStore, key []byte) error

	// Put saves given model in the database.
	Put(db custody.KVStore, key []byte, m Model) error

	// Delete removes an entity with given primary key from the database.
	// It returns ErrNotFound if an entity with given key does not exist.
	Delete(db custody.KVStore, key []byte) error

	// Register registers this bucket for queries under the given path.
	// An empty name defaults to the bucket name.
	Register(name string, r custody.QueryRouter)
}

// NewModelBucket returns a ModelBucket that stores models of the same
// type as the given instance.
func NewModelBucket(name string, m Model) ModelBucket {
	if !isBucketName(name) {
		panic(fmt.Sprintf("illegal bucket: %s", name))
	}
	t := reflect.TypeOf(m)
	if t.Kind() != reflect.Ptr {
		panic(fmt.Sprintf("model must be a pointer, got %T", m))
	}
	return &modelBucket{
		name:   name,
		prefix: append([]byte(name), ':'),
		model:  t,
	}
}

type modelBucket struct {
	name   string
	prefix []byte
	model  reflect.Type
}

var _ ModelBucket = (*modelBucket)(nil)

// DBKey is the full key used in the KVStore.
func (mb *modelBucket) DBKey(key []byte) []byte {
	return append(append([]byte(nil), mb.prefix...), key...)
}

func (mb *modelBucket) One(db custody.ReadOnlyKVStore, key []byte, dest Model) error {
	if reflect.TypeOf(dest) != mb.model {
		return errors.Wrapf(errors.ErrType, "%s cannot be represented as %T", mb.model, dest)
	}
	raw, err := db.Get(mb.DBKey(key))
	if err != nil {
		return errors.Wrap(errors.ErrDatabase, err.Error())
	}
	if raw == nil {
		return errors.Wrapf(errors.ErrNotFound, "%T not in the store", dest)
	}
	if err := dest.Unmarshal(raw); err != nil {
		return errors.Wrapf(err, "cannot unmarshal %T", dest)
	}
	return nil
}

func (mb *modelBucket) Has(db custody.ReadOnlyKVStore, key []byte) error {
	ok, err := db.Has(mb.DBKey(key))
	if err != nil {
		return errors.Wrap(errors.ErrDatabase, err.Error())
	}
	if !ok {
		return errors.Wrapf(errors.ErrNotFound, "%s not in the store", mb.model)
	}
	return nil
}

func (mb *modelBucket) Put(db custody.KVStore, key []byte, m Model) error {
	if reflect.TypeOf(m) != mb.model {
		return errors.Wrapf(errors.ErrType, "cannot store %T in %q bucket", m, mb.name)
	}
	if len(key) == 0 {
		return errors.Wrap(errors.ErrEmpty, "key")
	}
	if err := m.Validate(); err != nil {
		return errors.Wrap(err, "invalid model")
	}
	raw, err := m.Marshal()
	if err != nil {
		return errors.Wrap(err, "cannot marshal")
	}
	if err := db.Set(mb.DBKey(key), raw); err != nil {
		return errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return nil
}

func (mb *modelBucket) Delete(db custody.KVStore, key []byte) error {
	if err := mb.Has(db, key); err != nil {
		return err
	}
	if err := db.Delete(mb.DBKey(key)); err != nil {
		return errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return nil
}

func (mb *modelBucket) Register(name string, r custody.QueryRouter) {
	if name == "" {
		name = mb.name
	}
	r.Register("/"+name, mb)
}

// Query handles queries from the QueryRouter. Keys in the result
// carry the bucket prefix.
func (mb *modelBucket) Query(db custody.ReadOnlyKVStore, mod string, data []byte) ([]custody.Model, error) {
	switch mod {
	case custody.KeyQueryMod:
		key := mb.DBKey(data)
		value, err := db.Get(key)
		if err != nil {
			return nil, errors.Wrap(errors.ErrDatabase, err.Error())
		}
		if value == nil {
			return nil, nil
		}
		return []custody.Model{custody.Pair(key, value)}, nil
	case custody.PrefixQueryMod:
		start, end := PrefixRange(mb.DBKey(data))
		iter, err := db.Iterator(start, end)
		if err != nil {
			return nil, errors.Wrap(errors.ErrDatabase, err.Error())
		}
		return ConsumeIterator(iter)
	default:
		return nil, errors.Wrapf(errors.ErrInput, "unknown mod: %s", mod)
	}
}
