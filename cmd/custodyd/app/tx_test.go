package app

import (
	"testing"

	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/orm"
	"github.com/iov-one/custody/x/escrow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTxDecoder(t *testing.T) {
	sender := newUser(t)
	msg := &escrow.CompleteGrantMsg{
		Sender:   sender.addr,
		Receiver: newUser(t).addr,
		Mint:     newUser(t).addr,
		Index:    9,
	}
	tx := &Tx{Msg: msg}
	unsigned, err := tx.GetSignBytes()
	require.NoError(t, err)
	require.NoError(t, tx.Sign(sender.key, chainID, 4))

	// signatures are not part of the signed bytes
	signBytes, err := tx.GetSignBytes()
	require.NoError(t, err)
	assert.Equal(t, unsigned, signBytes)

	raw, err := tx.Marshal()
	require.NoError(t, err)
	decoded, err := TxDecoder(raw)
	require.NoError(t, err)

	got := decoded.(*Tx)
	assert.Equal(t, msg, got.Msg)
	require.Len(t, got.Signatures, 1)
	assert.Equal(t, uint64(4), got.Signatures[0].Sequence)
	assert.NoError(t, got.Signatures[0].Validate())
}

func TestTxDecoderErrors(t *testing.T) {
	unknown, err := orm.NewEncoder().Bytes(1, []byte("cash/send")).Result()
	require.NoError(t, err)
	_, err = TxDecoder(unknown)
	assert.True(t, errors.ErrMsg.Is(err), "got %+v", err)

	extra, err := orm.NewEncoder().Bytes(9, []byte("x")).Result()
	require.NoError(t, err)
	_, err = TxDecoder(extra)
	assert.True(t, errors.ErrMsg.Is(err), "got %+v", err)

	badPath, err := orm.NewEncoder().Varint(1, 3).Result()
	require.NoError(t, err)
	_, err = TxDecoder(badPath)
	assert.True(t, errors.ErrModel.Is(err), "got %+v", err)

	// the message body is checked with the message schema
	body, err := orm.NewEncoder().Bytes(5, []byte{9}).Result()
	require.NoError(t, err)
	badMsg, err := orm.NewEncoder().Bytes(1, []byte("escrow/complete")).Bytes(2, body).Result()
	require.NoError(t, err)
	_, err = TxDecoder(badMsg)
	assert.True(t, errors.ErrModel.Is(err), "got %+v", err)

	_, err = (&Tx{}).Marshal()
	assert.True(t, errors.ErrMsg.Is(err), "got %+v", err)

	_, err = (&Tx{}).GetMsg()
	assert.True(t, errors.ErrMsg.Is(err), "got %+v", err)
}

func TestRegisterMsgsRejectsDuplicates(t *testing.T) {
	assert.Panics(t, func() {
		registerMsgs(&escrow.PullBackMsg{}, &escrow.PullBackMsg{})
	})
	build := msgs["escrow/initialize"]
	require.NotNil(t, build)
	a, b := build(), build()
	assert.IsType(t, &escrow.InitializeGrantMsg{}, a)
	assert.False(t, a == b, "constructor must return fresh messages")
}
