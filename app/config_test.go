package app

import (
	"bytes"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/iov-one/custody/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(&buf, "error")
	require.NoError(t, err)

	logger.Info("hidden")
	assert.Empty(t, buf.String())
	logger.Error("shown", "escrow", "abc")
	assert.Contains(t, buf.String(), "shown")
	assert.Contains(t, buf.String(), "escrow=abc")

	_, err = NewLogger(&buf, "loud")
	assert.True(t, errors.ErrInput.Is(err))
}

func TestCommitKVStorePersists(t *testing.T) {
	dir, err := ioutil.TempDir("", "custody")
	require.NoError(t, err)
	defer os.RemoveAll(dir)
	path := filepath.Join(dir, "state.db")

	kv, err := CommitKVStore(path)
	require.NoError(t, err)
	require.NoError(t, kv.LoadLatestVersion())
	cache := kv.CacheWrap()
	require.NoError(t, cache.Set([]byte("k"), []byte("v")))
	require.NoError(t, cache.Write())
	id, err := kv.Commit()
	require.NoError(t, err)
	assert.Equal(t, int64(1), id.Version)

	mem, err := CommitKVStore("")
	require.NoError(t, err)
	v, err := mem.Get([]byte("k"))
	require.NoError(t, err)
	assert.Nil(t, v)
}
