package orm

import (
	"testing"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counter struct {
	Count uint64
	Label []byte
}

func (c *counter) Marshal() ([]byte, error) {
	return NewEncoder().Varint(1, c.Count).Bytes(2, c.Label).Result()
}

func (c *counter) Unmarshal(raw []byte) error {
	fields, err := Decode(raw, Schema{1: WireVarint, 2: WireBytes})
	if err != nil {
		return err
	}
	*c = counter{}
	for _, f := range fields {
		switch f.Tag {
		case 1:
			c.Count = f.Value
		case 2:
			c.Label = f.Bytes
		}
	}
	return nil
}

func (c *counter) Validate() error {
	if len(c.Label) == 0 {
		return errors.Wrap(errors.ErrEmpty, "label")
	}
	return nil
}

type other struct{ counter }

func TestModelBucket(t *testing.T) {
	db := store.MemStore()
	b := NewModelBucket("cnt", &counter{})

	var c counter
	err := b.One(db, []byte("a"), &c)
	assert.True(t, errors.ErrNotFound.Is(err))
	assert.True(t, errors.ErrNotFound.Is(b.Has(db, []byte("a"))))

	require.NoError(t, b.Put(db, []byte("a"), &counter{Count: 5, Label: []byte("five")}))
	require.NoError(t, b.One(db, []byte("a"), &c))
	assert.Equal(t, counter{Count: 5, Label: []byte("five")}, c)
	assert.NoError(t, b.Has(db, []byte("a")))

	// data lives under the bucket prefix
	raw, err := db.Get([]byte("cnt:a"))
	require.NoError(t, err)
	assert.NotNil(t, raw)

	err = b.Put(db, []byte("b"), &counter{Count: 1})
	assert.True(t, errors.ErrEmpty.Is(err))

	err = b.One(db, []byte("a"), &other{})
	assert.True(t, errors.ErrType.Is(err))

	require.NoError(t, b.Delete(db, []byte("a")))
	assert.True(t, errors.ErrNotFound.Is(b.Delete(db, []byte("a"))))
}

func TestModelBucketQuery(t *testing.T) {
	db := store.MemStore()
	b := NewModelBucket("cnt", &counter{})
	require.NoError(t, b.Put(db, []byte("aa"), &counter{Count: 1, Label: []byte("x")}))
	require.NoError(t, b.Put(db, []byte("ab"), &counter{Count: 2, Label: []byte("y")}))
	require.NoError(t, b.Put(db, []byte("b"), &counter{Count: 3, Label: []byte("z")}))

	qr := custody.NewQueryRouter()
	b.Register("counters", qr)
	h := qr.Handler("/counters")
	require.NotNil(t, h)

	res, err := h.Query(db, custody.KeyQueryMod, []byte("ab"))
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, []byte("cnt:ab"), res[0].Key)

	res, err = h.Query(db, custody.PrefixQueryMod, []byte("a"))
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, []byte("cnt:aa"), res[0].Key)
	assert.Equal(t, []byte("cnt:ab"), res[1].Key)

	res, err = h.Query(db, custody.KeyQueryMod, []byte("missing"))
	require.NoError(t, err)
	assert.Empty(t, res)

	_, err = h.Query(db, "weird", nil)
	assert.True(t, errors.ErrInput.Is(err))
}

func TestRawQuery(t *testing.T) {
	db := store.MemStore()
	b := NewModelBucket("cnt", &counter{})
	require.NoError(t, b.Put(db, []byte("aa"), &counter{Count: 1, Label: []byte("one")}))
	require.NoError(t, db.Set([]byte("other"), []byte("value")))

	qr := custody.NewQueryRouter()
	RegisterQuery(qr)
	h := qr.Handler("/")
	require.NotNil(t, h)

	res, err := h.Query(db, custody.KeyQueryMod, []byte("other"))
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, []byte("value"), res[0].Value)

	res, err = h.Query(db, custody.PrefixQueryMod, nil)
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, []byte("cnt:aa"), res[0].Key)
	assert.Equal(t, []byte("other"), res[1].Key)
}
