package app

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/store/iavl"
	"github.com/tendermint/tendermint/libs/log"
)

// Config holds everything needed to construct an application.
type Config struct {
	// Name is returned by abci.Info.
	Name string
	// DBPath is the location of the persistent state. Empty selects an
	// in memory tree.
	DBPath string
	// LogLevel is a tendermint level filter, eg. "info" or "*:error".
	LogLevel string
	// Debug exposes full error stacks in ABCI responses.
	Debug bool
	// Genesis is an optional path to a genesis file the chain is
	// checked against.
	Genesis string
}

// DefaultConfig returns an in memory configuration logging at info
// level.
func DefaultConfig() Config {
	return Config{
		Name:     "custody",
		LogLevel: "info",
	}
}

// NewLogger returns a tendermint logger writing to w, filtered by
// given level.
func NewLogger(w io.Writer, level string) (log.Logger, error) {
	logger := log.NewTMLogger(log.NewSyncWriter(w))
	if level == "" {
		return logger, nil
	}
	opt, err := log.AllowLevel(level)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInput, err.Error())
	}
	return log.NewFilter(logger, opt), nil
}

// CommitKVStore returns an initialized KVStore that persists
// the data to the named path.
func CommitKVStore(dbPath string) (custody.CommitKVStore, error) {
	// memory backed case, just for testing
	if dbPath == "" {
		return iavl.MockCommitStore(), nil
	}

	path, err := filepath.Abs(dbPath)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInput, "invalid database name: %s", dbPath)
	}

	// Some external calls accidently add a ".db", which is now removed
	path = strings.TrimSuffix(path, filepath.Ext(path))

	// Split the database name into it's components (dir, name)
	dir := filepath.Dir(path)
	name := filepath.Base(path)
	kv, err := iavl.NewCommitStore(dir, name)
	if err != nil {
		return nil, err
	}
	return kv, nil
}
