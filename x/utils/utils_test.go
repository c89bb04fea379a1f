package utils

import (
	"bytes"
	"context"
	"testing"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/custodytest"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	abci "github.com/tendermint/tendermint/abci/types"
	"github.com/tendermint/tendermint/libs/log"
)

func TestSavepoint(t *testing.T) {
	// always write ok, ov before calling functions
	ok, ov := []byte("demo"), []byte("data")
	// some key, value to try to write
	nk, nv := []byte{1, 2, 3}, []byte{4, 5, 6}

	cases := map[string]struct {
		save    Savepoint
		fail    bool
		check   bool
		written [][]byte
		missing [][]byte
	}{
		"savepoint disabled, error keeps writes": {
			save:    NewSavepoint(),
			fail:    true,
			check:   true,
			written: [][]byte{ok, nk},
		},
		"check savepoint rolls back on error": {
			save:    NewSavepoint().OnCheck(),
			fail:    true,
			check:   true,
			written: [][]byte{ok},
			missing: [][]byte{nk},
		},
		"deliver savepoint rolls back on error": {
			save:    NewSavepoint().OnDeliver(),
			fail:    true,
			written: [][]byte{ok},
			missing: [][]byte{nk},
		},
		"check savepoint does not affect deliver": {
			save:    NewSavepoint().OnCheck(),
			fail:    true,
			written: [][]byte{ok, nk},
		},
		"success is written": {
			save:    NewSavepoint().OnCheck().OnDeliver(),
			written: [][]byte{ok, nk},
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			db := store.MemStore()
			require.NoError(t, db.Set(ok, ov))

			h := &custodytest.Handler{Key: nk, Value: nv}
			if tc.fail {
				h.CheckErr = errors.ErrMsg
				h.DeliverErr = errors.ErrMsg
			}
			stack := custodytest.Decorate(h, tc.save)

			var err error
			if tc.check {
				_, err = stack.Check(context.Background(), db, &custodytest.Tx{})
			} else {
				_, err = stack.Deliver(context.Background(), db, &custodytest.Tx{})
			}
			assert.Equal(t, tc.fail, err != nil)

			for _, k := range tc.written {
				has, err := db.Has(k)
				require.NoError(t, err)
				assert.True(t, has, "%X", k)
			}
			for _, k := range tc.missing {
				has, err := db.Has(k)
				require.NoError(t, err)
				assert.False(t, has, "%X", k)
			}
		})
	}
}

type panicHandler struct{}

func (panicHandler) Check(custody.Context, custody.KVStore, custody.Tx) (*custody.CheckResult, error) {
	panic("check")
}

func (panicHandler) Deliver(custody.Context, custody.KVStore, custody.Tx) (*custody.DeliverResult, error) {
	panic("deliver")
}

func TestRecovery(t *testing.T) {
	var buf bytes.Buffer
	ctx := custody.WithLogger(context.Background(), log.NewTMLogger(log.NewSyncWriter(&buf)))
	tx := &custodytest.Tx{Msg: &custodytest.Msg{RoutePath: "escrow/pullback"}}
	stack := custodytest.Decorate(panicHandler{}, NewRecovery())

	_, err := stack.Check(ctx, store.MemStore(), tx)
	assert.True(t, errors.ErrPanic.Is(err))
	assert.Contains(t, buf.String(), "phase=check")
	assert.Contains(t, buf.String(), "path=escrow/pullback")

	buf.Reset()
	_, err = stack.Deliver(ctx, store.MemStore(), &custodytest.Tx{})
	assert.True(t, errors.ErrPanic.Is(err))
	assert.Contains(t, buf.String(), "phase=deliver")
	assert.Contains(t, buf.String(), "path=(missing)")

	// errors returned without a panic are left to the logging decorator
	buf.Reset()
	h := &custodytest.Handler{CheckErr: errors.ErrAmount}
	_, err = custodytest.Decorate(h, NewRecovery()).Check(ctx, store.MemStore(), tx)
	assert.True(t, errors.ErrAmount.Is(err))
	assert.Empty(t, buf.String())
}

func TestLogging(t *testing.T) {
	var buf bytes.Buffer
	ctx := custody.WithLogger(context.Background(), log.NewTMLogger(log.NewSyncWriter(&buf)))
	tx := &custodytest.Tx{Msg: &custodytest.Msg{RoutePath: "escrow/complete"}}

	h := &custodytest.Handler{DeliverResult: custody.DeliverResult{Log: "all good"}}
	_, err := custodytest.Decorate(h, NewLogging()).Deliver(ctx, store.MemStore(), tx)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "all good")
	assert.Contains(t, buf.String(), "path=escrow/complete")
	assert.NotContains(t, buf.String(), "height=")

	buf.Reset()
	blockCtx := custody.WithHeader(ctx, abci.Header{Height: 12})
	_, err = custodytest.Decorate(h, NewLogging()).Deliver(blockCtx, store.MemStore(), tx)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "height=12")

	buf.Reset()
	h.DeliverErr = errors.ErrUnauthorized
	_, err = custodytest.Decorate(h, NewLogging()).Deliver(ctx, store.MemStore(), tx)
	require.Error(t, err)
	assert.Contains(t, buf.String(), "unauthorized")
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	require.NoError(t, err)

	tx := &custodytest.Tx{Msg: &custodytest.Msg{RoutePath: "escrow/pullback"}}
	h := &custodytest.Handler{}
	stack := custodytest.Decorate(h, m)

	_, err = stack.Deliver(context.Background(), store.MemStore(), tx)
	require.NoError(t, err)
	h.DeliverErr = errors.ErrUnauthorized
	_, _ = stack.Deliver(context.Background(), store.MemStore(), tx)
	_, _ = stack.Deliver(context.Background(), store.MemStore(), tx)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.processed.WithLabelValues("deliver", "escrow/pullback", "0")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.processed.WithLabelValues("deliver", "escrow/pullback", "2")))

	// registering twice on the same registry is rejected
	_, err = NewMetrics(reg)
	assert.True(t, errors.ErrHuman.Is(err))
}
