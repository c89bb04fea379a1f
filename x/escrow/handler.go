package escrow

import (
	"fmt"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/x"
	"github.com/iov-one/custody/x/cash"
)

// RegisterRoutes will instantiate and register
// all handlers in this package
func RegisterRoutes(r custody.Registry, auth x.Authenticator, bank cash.Controller) {
	ctrl := NewController(bank)
	r.Handle(&InitializeGrantMsg{}, InitializeGrantHandler{auth, ctrl})
	r.Handle(&CompleteGrantMsg{}, CompleteGrantHandler{auth, ctrl})
	r.Handle(&PullBackMsg{}, PullBackHandler{auth, ctrl})
}

// RegisterQuery will register this bucket as "/escrows"
func RegisterQuery(qr custody.QueryRouter) {
	NewBucket().Register("escrows", qr)
}

// InitializeGrantHandler creates an escrow and deposits the funds.
type InitializeGrantHandler struct {
	auth x.Authenticator
	ctrl Controller
}

var _ custody.Handler = InitializeGrantHandler{}

// Check verifies the message, the signature and the escrow stage.
func (h InitializeGrantHandler) Check(ctx custody.Context, db custody.KVStore, tx custody.Tx) (*custody.CheckResult, error) {
	msg, a, err := h.validate(ctx, tx)
	if err != nil {
		return nil, err
	}
	if err := h.ctrl.CheckInitialize(db, a, msg.Source); err != nil {
		return nil, err
	}
	return &custody.CheckResult{Data: a.State}, nil
}

// Deliver creates the escrow and moves the deposit into its holding.
func (h InitializeGrantHandler) Deliver(ctx custody.Context, db custody.KVStore, tx custody.Tx) (*custody.DeliverResult, error) {
	msg, a, err := h.validate(ctx, tx)
	if err != nil {
		return nil, err
	}
	if _, err := h.ctrl.Initialize(ctx, db, a, msg.Source, msg.Amount); err != nil {
		return nil, err
	}
	return &custody.DeliverResult{
		Data: a.State,
		Log:  fmt.Sprintf("deposited %d into %s", msg.Amount, a.Wallet),
	}, nil
}

// validate does all common pre-processing between Check and Deliver.
func (h InitializeGrantHandler) validate(ctx custody.Context, tx custody.Tx) (*InitializeGrantMsg, *Authorities, error) {
	var msg InitializeGrantMsg
	if err := custody.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	if !x.HasAllAddresses(ctx, h.auth, []custody.Address{msg.Sender}) {
		return nil, nil, errors.Wrap(errors.ErrUnauthorized, "sender must sign")
	}
	a, err := h.ctrl.Derive(msg.Seeds(), msg.StateBump, msg.WalletBump)
	if err != nil {
		return nil, nil, err
	}
	return &msg, a, nil
}

// CompleteGrantHandler releases the escrow to the receiver.
type CompleteGrantHandler struct {
	auth x.Authenticator
	ctrl Controller
}

var _ custody.Handler = CompleteGrantHandler{}

// Check verifies the message, the signature and the escrow stage.
func (h CompleteGrantHandler) Check(ctx custody.Context, db custody.KVStore, tx custody.Tx) (*custody.CheckResult, error) {
	_, a, err := h.validate(ctx, tx)
	if err != nil {
		return nil, err
	}
	if err := h.ctrl.CheckComplete(db, a); err != nil {
		return nil, err
	}
	return &custody.CheckResult{Data: a.State}, nil
}

// Deliver moves the holding balance to the receiver.
func (h CompleteGrantHandler) Deliver(ctx custody.Context, db custody.KVStore, tx custody.Tx) (*custody.DeliverResult, error) {
	_, a, err := h.validate(ctx, tx)
	if err != nil {
		return nil, err
	}
	_, moved, err := h.ctrl.Complete(ctx, db, a)
	if err != nil {
		return nil, err
	}
	return &custody.DeliverResult{
		Data: a.State,
		Log:  fmt.Sprintf("released %d to receiver", moved),
	}, nil
}

// validate does all common pre-processing between Check and Deliver.
func (h CompleteGrantHandler) validate(ctx custody.Context, tx custody.Tx) (*CompleteGrantMsg, *Authorities, error) {
	var msg CompleteGrantMsg
	if err := custody.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	if !x.HasAllAddresses(ctx, h.auth, []custody.Address{msg.Receiver}) {
		return nil, nil, errors.Wrap(errors.ErrUnauthorized, "receiver must sign")
	}
	a, err := h.ctrl.Derive(msg.Seeds(), msg.StateBump, msg.WalletBump)
	if err != nil {
		return nil, nil, err
	}
	return &msg, a, nil
}

// PullBackHandler returns the escrow to the sender.
type PullBackHandler struct {
	auth x.Authenticator
	ctrl Controller
}

var _ custody.Handler = PullBackHandler{}

// Check verifies the message, the signature and the escrow stage.
func (h PullBackHandler) Check(ctx custody.Context, db custody.KVStore, tx custody.Tx) (*custody.CheckResult, error) {
	msg, a, err := h.validate(ctx, tx)
	if err != nil {
		return nil, err
	}
	if err := h.ctrl.CheckPullBack(db, a, msg.Refund); err != nil {
		return nil, err
	}
	return &custody.CheckResult{Data: a.State}, nil
}

// Deliver moves the holding balance back to the sender.
func (h PullBackHandler) Deliver(ctx custody.Context, db custody.KVStore, tx custody.Tx) (*custody.DeliverResult, error) {
	msg, a, err := h.validate(ctx, tx)
	if err != nil {
		return nil, err
	}
	_, moved, err := h.ctrl.PullBack(ctx, db, a, msg.Refund)
	if err != nil {
		return nil, err
	}
	return &custody.DeliverResult{
		Data: a.State,
		Log:  fmt.Sprintf("returned %d to sender", moved),
	}, nil
}

// validate does all common pre-processing between Check and Deliver.
func (h PullBackHandler) validate(ctx custody.Context, tx custody.Tx) (*PullBackMsg, *Authorities, error) {
	var msg PullBackMsg
	if err := custody.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	if !x.HasAllAddresses(ctx, h.auth, []custody.Address{msg.Sender}) {
		return nil, nil, errors.Wrap(errors.ErrUnauthorized, "sender must sign")
	}
	a, err := h.ctrl.Derive(msg.Seeds(), msg.StateBump, msg.WalletBump)
	if err != nil {
		return nil, nil, err
	}
	return &msg, a, nil
}
