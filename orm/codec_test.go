package orm

import (
	"testing"

	"github.com/iov-one/custody/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeFields(t *testing.T) {
	raw, err := NewEncoder().
		Fixed64(1, 7).
		Bytes(2, []byte("owner")).
		Bytes(3, nil).
		Varint(4, 300).
		Result()
	require.NoError(t, err)

	fields, err := Decode(raw, Schema{1: WireFixed64, 2: WireBytes, 4: WireVarint})
	require.NoError(t, err)
	assert.Equal(t, []Field{
		{Tag: 1, Wire: 1, Value: 7},
		{Tag: 2, Wire: 2, Bytes: []byte("owner")},
		{Tag: 4, Wire: 0, Value: 300},
	}, fields)
}

func TestDecodeInvalid(t *testing.T) {
	cases := map[string][]byte{
		"short fixed64":  {1<<3 | 1, 0x01, 0x02},
		"length overrun": {2<<3 | 2, 0x05, 'a'},
		"group wire":     {3<<3 | 3},
		"broken varint":  {4 << 3, 0xff},
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(raw, nil)
			assert.True(t, errors.ErrModel.Is(err), "%+v", err)
		})
	}
}

func TestDecodeRejectsWireMismatch(t *testing.T) {
	schema := Schema{1: WireFixed64, 2: WireBytes, 3: WireVarint}
	cases := map[string]*Encoder{
		"varint for fixed64": NewEncoder().Varint(1, 7),
		"bytes for fixed64":  NewEncoder().Bytes(1, []byte("abcdefgh")),
		"varint for bytes":   NewEncoder().Varint(2, 5),
		"fixed64 for varint": NewEncoder().Fixed64(3, 5),
	}
	for name, enc := range cases {
		t.Run(name, func(t *testing.T) {
			raw, err := enc.Result()
			require.NoError(t, err)
			_, err = Decode(raw, schema)
			assert.True(t, errors.ErrModel.Is(err), "%+v", err)
		})
	}

	// tags outside the schema are left to the caller
	raw, err := NewEncoder().Varint(9, 1).Result()
	require.NoError(t, err)
	fields, err := Decode(raw, schema)
	require.NoError(t, err)
	assert.Len(t, fields, 1)
}

func TestPrefixRange(t *testing.T) {
	start, end := PrefixRange([]byte("ab"))
	assert.Equal(t, []byte("ab"), start)
	assert.Equal(t, []byte("ac"), end)

	start, end = PrefixRange([]byte{0x01, 0xff})
	assert.Equal(t, []byte{0x01, 0xff}, start)
	assert.Equal(t, []byte{0x02}, end)

	_, end = PrefixRange([]byte{0xff, 0xff})
	assert.Nil(t, end)
}

func TestRepeatedBytesKeepsEmptyElements(t *testing.T) {
	raw, err := NewEncoder().
		RepeatedBytes(1, [][]byte{[]byte("a"), nil, []byte("c")}).
		Result()
	require.NoError(t, err)

	fields, err := Decode(raw, Schema{1: WireBytes})
	require.NoError(t, err)
	require.Len(t, fields, 3)
	assert.Equal(t, []byte("a"), fields[0].Bytes)
	assert.Empty(t, fields[1].Bytes)
	assert.Equal(t, []byte("c"), fields[2].Bytes)
}
