package custodytest

import (
	"context"
	"testing"

	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandlerWithError(t *testing.T) {
	h := Handler{
		CheckErr:   errors.ErrUnauthorized,
		DeliverErr: errors.ErrNotFound,
	}

	_, err := h.Check(nil, nil, nil)
	assert.True(t, errors.ErrUnauthorized.Is(err))
	_, err = h.Deliver(nil, nil, nil)
	assert.True(t, errors.ErrNotFound.Is(err))
	assert.Equal(t, 2, h.CallCount())
}

func TestDecoratorCallsHandler(t *testing.T) {
	db := store.MemStore()
	h := &Handler{Key: []byte("k"), Value: []byte("v")}
	d := &Decorator{DeliverErr: errors.ErrMsg}
	stack := Decorate(h, d)

	_, err := stack.Check(context.Background(), db, &Tx{})
	require.NoError(t, err)
	assert.Equal(t, 1, h.CheckCallCount())
	v, err := db.Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), v)

	_, err = stack.Deliver(context.Background(), db, &Tx{})
	assert.True(t, errors.ErrMsg.Is(err))
	assert.Equal(t, 0, h.DeliverCallCount())
	assert.Equal(t, 2, d.CallCount())
}

func TestCtxAuth(t *testing.T) {
	a := &CtxAuth{Key: "auth"}
	c := NewCondition()
	ctx := a.SetConditions(context.Background(), c)

	assert.Equal(t, 1, len(a.GetConditions(ctx)))
	assert.True(t, a.HasAddress(ctx, c.Address()))
	assert.False(t, a.HasAddress(ctx, NewAddress()))
	assert.Nil(t, a.GetConditions(context.Background()))
}
