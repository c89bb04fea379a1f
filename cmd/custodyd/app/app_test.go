package app

import (
	"crypto/rand"
	"encoding/json"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/app"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/x/cash"
	"github.com/iov-one/custody/x/escrow"
	"github.com/iov-one/custody/x/sigs"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	abci "github.com/tendermint/tendermint/abci/types"
	"github.com/tendermint/tendermint/libs/log"
	"golang.org/x/crypto/ed25519"
)

const chainID = "custody-test"

type user struct {
	key  ed25519.PrivateKey
	addr custody.Address
	seq  uint64
}

func newUser(t testing.TB) *user {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	return &user{key: priv, addr: sigs.Condition(pub).Address()}
}

// runner drives the application through blocks like tendermint does.
type runner struct {
	t      testing.TB
	app    app.BaseApp
	height int64
}

func newRunner(t testing.TB, genesis interface{}, reg prometheus.Registerer) *runner {
	t.Helper()
	cfg := app.DefaultConfig()
	application, err := Application(cfg, log.TestingLogger(), reg)
	require.NoError(t, err)

	raw, err := json.Marshal(genesis)
	require.NoError(t, err)
	r := &runner{t: t, app: application}
	r.app.InitChain(abci.RequestInitChain{ChainId: chainID, AppStateBytes: raw})
	r.app.Commit()
	return r
}

// sign serializes msg signed by all given users, using and
// incrementing their sequences.
func (r *runner) sign(msg Msg, signers ...*user) []byte {
	r.t.Helper()
	tx := &Tx{Msg: msg}
	for _, u := range signers {
		require.NoError(r.t, tx.Sign(u.key, chainID, u.seq))
		u.seq++
	}
	raw, err := tx.Marshal()
	require.NoError(r.t, err)
	return raw
}

// block delivers all transactions in a new block and commits it.
func (r *runner) block(txs ...[]byte) []abci.ResponseDeliverTx {
	r.t.Helper()
	r.height++
	r.app.BeginBlock(abci.RequestBeginBlock{
		Header: abci.Header{ChainID: chainID, Height: r.height},
	})
	res := make([]abci.ResponseDeliverTx, len(txs))
	for i, tx := range txs {
		res[i] = r.app.DeliverTx(tx)
	}
	r.app.EndBlock(abci.RequestEndBlock{Height: r.height})
	r.app.Commit()
	return res
}

func (r *runner) query(path string, key []byte, dest custody.Persistent) bool {
	r.t.Helper()
	res := r.app.Query(abci.RequestQuery{Path: path, Data: key})
	require.Equal(r.t, uint32(0), res.Code, res.Log)
	var values app.ResultSet
	require.NoError(r.t, values.Unmarshal(res.Value))
	if len(values.Results) == 0 {
		return false
	}
	require.NoError(r.t, dest.Unmarshal(values.Results[0]))
	return true
}

func (r *runner) balance(addr custody.Address) uint64 {
	r.t.Helper()
	var acc cash.Account
	if !r.query("/accounts", addr, &acc) {
		return 0
	}
	return acc.Amount
}

type scenario struct {
	sender, receiver *user
	mint             custody.Address
	source           custody.Address
}

func newScenario(t testing.TB, reg prometheus.Registerer) (*runner, *scenario) {
	s := &scenario{
		sender:   newUser(t),
		receiver: newUser(t),
		mint:     sigs.Condition(make([]byte, ed25519.PublicKeySize)).Address(),
	}
	s.source = cash.AssociatedAddress(s.sender.addr, s.mint)
	genesis := map[string]interface{}{
		"cash": []cash.GenesisAccount{{
			Address: s.source,
			Account: cash.Account{Owner: s.sender.addr, Mint: s.mint, Amount: 1000},
		}},
	}
	return newRunner(t, genesis, reg), s
}

func (s *scenario) seeds(index uint64) escrow.Seeds {
	return escrow.Seeds{Sender: s.sender.addr, Receiver: s.receiver.addr, Mint: s.mint, Index: index}
}

func (s *scenario) bumps(t testing.TB, index uint64) (custody.Address, custody.Address, uint8, uint8) {
	state, stateBump, err := escrow.FindAddress(escrow.StateLabel, s.seeds(index))
	require.NoError(t, err)
	wallet, walletBump, err := escrow.FindAddress(escrow.WalletLabel, s.seeds(index))
	require.NoError(t, err)
	return state, wallet, stateBump, walletBump
}

func TestEscrowCompletesThroughABCI(t *testing.T) {
	reg := prometheus.NewRegistry()
	r, s := newScenario(t, reg)
	assert.Equal(t, uint64(1000), r.balance(s.source))

	state, wallet, stateBump, walletBump := s.bumps(t, 7)
	init := &escrow.InitializeGrantMsg{
		Sender: s.sender.addr, Receiver: s.receiver.addr, Mint: s.mint,
		Source: s.source, Index: 7, StateBump: stateBump, WalletBump: walletBump,
		Amount: 100,
	}
	res := r.block(r.sign(init, s.sender))
	require.Equal(t, uint32(0), res[0].Code, res[0].Log)
	assert.Equal(t, []byte(state), res[0].Data)

	var e escrow.Escrow
	require.True(t, r.query("/escrows", state, &e))
	stage, err := e.CurrentStage()
	require.NoError(t, err)
	assert.Equal(t, escrow.FundsDeposited, stage)
	assert.Equal(t, wallet, e.Holding)
	assert.Equal(t, uint64(100), r.balance(wallet))
	assert.Equal(t, uint64(900), r.balance(s.source))

	complete := &escrow.CompleteGrantMsg{
		Sender: s.sender.addr, Receiver: s.receiver.addr, Mint: s.mint,
		Index: 7, StateBump: stateBump, WalletBump: walletBump,
	}
	completeTx := r.sign(complete, s.receiver)
	check := r.app.CheckTx(completeTx)
	require.Equal(t, uint32(0), check.Code, check.Log)

	res = r.block(completeTx)
	require.Equal(t, uint32(0), res[0].Code, res[0].Log)
	assert.Equal(t, "released 100 to receiver", res[0].Log)

	require.True(t, r.query("/escrows", state, &e))
	stage, err = e.CurrentStage()
	require.NoError(t, err)
	assert.Equal(t, escrow.EscrowComplete, stage)
	assert.Equal(t, uint64(100), r.balance(cash.AssociatedAddress(s.receiver.addr, s.mint)))
	var holding cash.Account
	assert.False(t, r.query("/accounts", wallet, &holding), "holding must be closed")

	// the finished escrow can no longer be pulled back
	pull := &escrow.PullBackMsg{
		Sender: s.sender.addr, Receiver: s.receiver.addr, Mint: s.mint,
		Refund: s.source, Index: 7, StateBump: stateBump, WalletBump: walletBump,
	}
	res = r.block(r.sign(pull, s.sender))
	assert.Equal(t, escrow.ErrStageInvalid.ABCICode(), res[0].Code, res[0].Log)

	assert.Equal(t, float64(1), counted(t, reg, "deliver", "escrow/complete", "0"))
	assert.Equal(t, float64(1), counted(t, reg, "deliver", "escrow/pullback", "1003"))
}

// counted returns the number of transactions processed with given labels.
func counted(t testing.TB, reg *prometheus.Registry, phase, path, code string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	want := map[string]string{"phase": phase, "path": path, "code": code}
	for _, f := range families {
		if f.GetName() != "custody_tx_processed_total" {
			continue
		}
	metrics:
		for _, m := range f.GetMetric() {
			for _, l := range m.GetLabel() {
				if want[l.GetName()] != l.GetValue() {
					continue metrics
				}
			}
			return m.GetCounter().GetValue()
		}
	}
	return 0
}

func TestEscrowPullBackIsAtomic(t *testing.T) {
	r, s := newScenario(t, nil)
	_, wallet, stateBump, walletBump := s.bumps(t, 3)

	init := &escrow.InitializeGrantMsg{
		Sender: s.sender.addr, Receiver: s.receiver.addr, Mint: s.mint,
		Source: s.source, Index: 3, StateBump: stateBump, WalletBump: walletBump,
		Amount: 50,
	}
	pull := &escrow.PullBackMsg{
		Sender: s.sender.addr, Receiver: s.receiver.addr, Mint: s.mint,
		Refund: s.source, Index: 3, StateBump: stateBump, WalletBump: walletBump,
	}
	badBump := *pull
	badBump.WalletBump = walletBump - 1

	res := r.block(
		r.sign(init, s.sender),
		// receiver cannot pull back
		r.sign(pull, s.receiver),
		r.sign(&badBump, s.sender),
	)
	require.Equal(t, uint32(0), res[0].Code, res[0].Log)
	assert.Equal(t, errors.ErrUnauthorized.ABCICode(), res[1].Code, res[1].Log)
	assert.Equal(t, escrow.ErrInconsistentState.ABCICode(), res[2].Code, res[2].Log)
	assert.Equal(t, uint64(50), r.balance(wallet))
	assert.Equal(t, uint64(950), r.balance(s.source))

	res = r.block(r.sign(pull, s.sender))
	require.Equal(t, uint32(0), res[0].Code, res[0].Log)
	assert.Equal(t, "returned 50 to sender", res[0].Log)
	assert.Equal(t, uint64(1000), r.balance(s.source))

	// failed deliveries still consumed the sequence of their signers
	var u sigs.UserData
	require.True(t, r.query("/auth", sigs.Condition(s.receiver.key.Public().(ed25519.PublicKey)).Address(), &u))
	assert.Equal(t, uint64(1), u.Sequence)
}

func TestRejectsUnsignedAndReplayedTx(t *testing.T) {
	r, s := newScenario(t, nil)
	_, _, stateBump, walletBump := s.bumps(t, 1)
	init := &escrow.InitializeGrantMsg{
		Sender: s.sender.addr, Receiver: s.receiver.addr, Mint: s.mint,
		Source: s.source, Index: 1, StateBump: stateBump, WalletBump: walletBump,
		Amount: 10,
	}

	unsigned := r.sign(init)
	signed := r.sign(init, s.sender)
	res := r.block(unsigned, signed, signed)
	assert.Equal(t, errors.ErrUnauthorized.ABCICode(), res[0].Code, res[0].Log)
	assert.Equal(t, uint32(0), res[1].Code, res[1].Log)
	assert.Equal(t, sigs.ErrInvalidSequence.ABCICode(), res[2].Code, res[2].Log)

	check := r.app.CheckTx([]byte("garbage"))
	assert.NotEqual(t, uint32(0), check.Code)
}

func TestApplicationChecksGenesisFile(t *testing.T) {
	dir, err := ioutil.TempDir("", "custodyd")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	owner, mint := newUser(t), newUser(t)
	account := cash.AssociatedAddress(owner.addr, mint.addr)
	genesis, err := json.Marshal(map[string]interface{}{
		"chain_id": chainID,
		"app_state": map[string]interface{}{
			"cash": []cash.GenesisAccount{{
				Address: account,
				Account: cash.Account{Owner: owner.addr, Mint: mint.addr, Amount: 42},
			}},
		},
	})
	require.NoError(t, err)
	path := filepath.Join(dir, "genesis.json")
	require.NoError(t, ioutil.WriteFile(path, genesis, 0600))

	cfg := app.DefaultConfig()
	cfg.Genesis = path
	application, err := Application(cfg, log.TestingLogger(), nil)
	require.NoError(t, err)

	assert.Panics(t, func() {
		application.InitChain(abci.RequestInitChain{ChainId: "another-chain", AppStateBytes: []byte(`{}`)})
	})
	application.InitChain(abci.RequestInitChain{ChainId: chainID})
	application.Commit()

	r := &runner{t: t, app: application}
	assert.Equal(t, uint64(42), r.balance(account))

	cfg.Genesis = filepath.Join(dir, "missing.json")
	_, err = Application(cfg, log.TestingLogger(), nil)
	assert.True(t, errors.ErrInput.Is(err), "%+v", err)
}
