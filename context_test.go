package custody_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/iov-one/custody"
	"github.com/stretchr/testify/assert"
	abci "github.com/tendermint/tendermint/abci/types"
	"github.com/tendermint/tendermint/libs/log"
)

func TestContextHeader(t *testing.T) {
	bg := context.Background()
	_, ok := custody.GetHeader(bg)
	assert.False(t, ok)

	now := time.Date(2019, 4, 1, 12, 0, 0, 0, time.UTC)
	ctx := custody.WithHeader(bg, abci.Header{Height: 7, Time: now, ChainID: "test-chain"})

	h, ok := custody.GetHeight(ctx)
	assert.True(t, ok)
	assert.Equal(t, int64(7), h)

	header, ok := custody.GetHeader(ctx)
	assert.True(t, ok)
	assert.Equal(t, now, header.Time)

	assert.Panics(t, func() { custody.WithHeader(ctx, abci.Header{Height: 8}) })
}

func TestContextChainID(t *testing.T) {
	bg := context.Background()
	assert.Panics(t, func() { custody.GetChainID(bg) })
	assert.Panics(t, func() { custody.WithChainID(bg, "no") })

	ctx := custody.WithChainID(bg, "my-chain")
	assert.Equal(t, "my-chain", custody.GetChainID(ctx))
	assert.Panics(t, func() { custody.WithChainID(ctx, "other-chain") })
}

func TestContextLogger(t *testing.T) {
	bg := context.Background()
	assert.Equal(t, custody.DefaultLogger, custody.GetLogger(bg))

	var buf bytes.Buffer
	ctx := custody.WithLogger(bg, log.NewTMLogger(&buf))
	ctx = custody.WithLogInfo(ctx, "mod", "escrow")
	custody.GetLogger(ctx).Info("hello")

	assert.Contains(t, buf.String(), "hello")
	assert.Contains(t, buf.String(), "mod=escrow")
}
