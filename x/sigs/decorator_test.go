package sigs

import (
	"context"
	"crypto/rand"
	"testing"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/orm"
	"github.com/iov-one/custody/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ed25519"
)

func TestDecorator(t *testing.T) {
	kv := store.MemStore()
	checkKv := kv.CacheWrap()
	signers := new(sigCheckHandler)
	d := NewDecorator()
	chainID := "deco-rate"
	ctx := custody.WithChainID(context.Background(), chainID)

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	perms := []custody.Condition{Condition(pub)}

	tx := &stdTx{payload: []byte("art")}
	sig, err := SignTx(priv, tx, chainID, 0)
	require.NoError(t, err)
	sig1, err := SignTx(priv, tx, chainID, 1)
	require.NoError(t, err)

	deliver := func(dec custody.Decorator, my custody.Tx) error {
		_, err := dec.Deliver(ctx, kv, my, signers)
		return err
	}
	check := func(dec custody.Decorator, my custody.Tx) error {
		_, err := dec.Check(ctx, checkKv, my, signers)
		return err
	}

	for i, fn := range []func(custody.Decorator, custody.Tx) error{check, deliver} {
		tx.sigs = nil
		err := fn(d, tx)
		assert.True(t, errors.ErrUnauthorized.Is(err), "%d: %+v", i, err)

		tx.sigs = []*StdSignature{sig}
		assert.NoError(t, fn(d, tx), "%d", i)
		assert.Equal(t, perms, signers.signers)

		// replay
		err = fn(d, tx)
		assert.True(t, ErrInvalidSequence.Is(err), "%d: %+v", i, err)

		ad := d.AllowMissingSigs()
		tx.sigs = nil
		assert.NoError(t, fn(ad, tx), "%d", i)
		assert.Empty(t, signers.signers)

		tx.sigs = []*StdSignature{sig1}
		assert.NoError(t, fn(ad, tx), "%d", i)
		assert.Equal(t, perms, signers.signers)
	}
}

func TestVerifySignatureRejectsForgery(t *testing.T) {
	db := store.MemStore()
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	tx := &stdTx{payload: []byte("grant")}
	sig, err := SignTx(priv, tx, "test-chain", 0)
	require.NoError(t, err)

	_, err = VerifySignature(db, sig, []byte("other"), "test-chain")
	assert.True(t, errors.ErrUnauthorized.Is(err), "got %+v", err)

	_, err = VerifySignature(db, sig, tx.payload, "another-chain")
	assert.True(t, errors.ErrUnauthorized.Is(err), "got %+v", err)

	// nothing was stored for failed attempts
	user, err := NewBucket().GetOrCreate(db, sig.Pubkey)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), user.Sequence)

	cond, err := VerifySignature(db, sig, tx.payload, "test-chain")
	require.NoError(t, err)
	assert.Equal(t, Condition(sig.Pubkey), cond)

	user, err = NewBucket().GetOrCreate(db, sig.Pubkey)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), user.Sequence)
}

func TestBuildSignBytes(t *testing.T) {
	a, err := BuildSignBytes([]byte("foo"), "chain-one", 1)
	require.NoError(t, err)
	b, err := BuildSignBytes([]byte("foo"), "chain-one", 2)
	require.NoError(t, err)
	c, err := BuildSignBytes([]byte("foo"), "chain-two", 1)
	require.NoError(t, err)
	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
	assert.NotEqual(t, a, c)

	_, err = BuildSignBytes([]byte("foo"), "x", 1)
	assert.True(t, errors.ErrInput.Is(err))
}

func TestCheckAndIncrementSequence(t *testing.T) {
	u := UserData{Sequence: 5}
	assert.True(t, ErrInvalidSequence.Is(u.CheckAndIncrementSequence(4)))
	assert.NoError(t, u.CheckAndIncrementSequence(5))
	assert.Equal(t, uint64(6), u.Sequence)

	u.Sequence = maxSequenceValue
	assert.True(t, errors.ErrOverflow.Is(u.CheckAndIncrementSequence(maxSequenceValue)))
}

func TestDecodeRejectsWireMismatch(t *testing.T) {
	raw, err := orm.NewEncoder().Fixed64(2, 5).Result()
	require.NoError(t, err)
	var u UserData
	assert.True(t, errors.ErrModel.Is(u.Unmarshal(raw)))

	raw, err = orm.NewEncoder().Varint(1, 1).Result()
	require.NoError(t, err)
	var sig StdSignature
	assert.True(t, errors.ErrModel.Is(sig.Unmarshal(raw)))

	raw, err = orm.NewEncoder().Bytes(3, []byte{5}).Result()
	require.NoError(t, err)
	assert.True(t, errors.ErrModel.Is(sig.Unmarshal(raw)))
}

//---------------- helpers --------

type stdTx struct {
	payload []byte
	sigs    []*StdSignature
}

var _ SignedTx = (*stdTx)(nil)

func (tx *stdTx) GetMsg() (custody.Msg, error)   { return nil, nil }
func (tx *stdTx) GetSignBytes() ([]byte, error)  { return tx.payload, nil }
func (tx *stdTx) GetSignatures() []*StdSignature { return tx.sigs }

// sigCheckHandler stores the seen signers on each call
type sigCheckHandler struct {
	signers []custody.Condition
}

var _ custody.Handler = (*sigCheckHandler)(nil)

func (s *sigCheckHandler) Check(ctx custody.Context, store custody.KVStore, tx custody.Tx) (*custody.CheckResult, error) {
	s.signers = Authenticate{}.GetConditions(ctx)
	return &custody.CheckResult{}, nil
}

func (s *sigCheckHandler) Deliver(ctx custody.Context, store custody.KVStore, tx custody.Tx) (*custody.DeliverResult, error) {
	s.signers = Authenticate{}.GetConditions(ctx)
	return &custody.DeliverResult{}, nil
}
