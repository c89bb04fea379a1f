package app

import (
	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
	abci "github.com/tendermint/tendermint/abci/types"
)

// BaseApp runs decoded transactions through the handler stack on top of
// the storage and query functionality of StoreApp.
type BaseApp struct {
	*StoreApp
	decoder custody.TxDecoder
	handler custody.Handler
	debug   bool
}

var _ abci.Application = BaseApp{}

// NewBaseApp returns an application decoding transactions with decoder.
// With debug set, error responses carry the full stack.
func NewBaseApp(store *StoreApp, decoder custody.TxDecoder, handler custody.Handler, debug bool) BaseApp {
	return BaseApp{
		StoreApp: store,
		decoder:  decoder,
		handler:  handler,
		debug:    debug,
	}
}

// DeliverTx executes the transaction against the block state.
func (b BaseApp) DeliverTx(txBytes []byte) abci.ResponseDeliverTx {
	ctx, tx, err := b.decode(txBytes, "deliver_tx")
	if err != nil {
		return custody.DeliverOrError(nil, err, b.debug)
	}
	res, err := b.handler.Deliver(ctx, b.DeliverStore(), tx)
	return custody.DeliverOrError(res, err, b.debug)
}

// CheckTx validates the transaction against the mempool state.
func (b BaseApp) CheckTx(txBytes []byte) abci.ResponseCheckTx {
	ctx, tx, err := b.decode(txBytes, "check_tx")
	if err != nil {
		return custody.CheckOrError(nil, err, b.debug)
	}
	res, err := b.handler.Check(ctx, b.CheckStore(), tx)
	return custody.CheckOrError(res, err, b.debug)
}

// decode returns the transaction and the block context it runs in. A
// decoder panic is returned as ErrPanic.
func (b BaseApp) decode(txBytes []byte, call string) (ctx custody.Context, tx custody.Tx, err error) {
	defer errors.Recover(&err)
	if tx, err = b.decoder(txBytes); err != nil {
		return nil, nil, err
	}
	ctx = custody.WithLogInfo(b.BlockContext(), "call", call, "path", custody.GetPath(tx))
	return ctx, tx, nil
}
