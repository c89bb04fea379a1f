package escrow

import (
	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/orm"
	"github.com/iov-one/custody/x/cash"
)

// Authorities are the two addresses derived for an escrow.
type Authorities struct {
	Seeds     Seeds
	State     custody.Address
	StateBump uint8
	Wallet    custody.Address
}

// Controller runs the escrow lifecycle on top of the token accounts.
type Controller struct {
	bucket orm.ModelBucket
	bank   cash.Controller
}

// NewController returns a controller moving tokens through given bank.
// The bank must accept authorities asserted by Authenticate.
func NewController(bank cash.Controller) Controller {
	return Controller{
		bucket: NewBucket(),
		bank:   bank,
	}
}

// Derive recomputes both authorities of an escrow. Each bump must be
// the canonical one for its label.
func (c Controller) Derive(seeds Seeds, stateBump, walletBump uint8) (*Authorities, error) {
	if err := seeds.Validate(); err != nil {
		return nil, errors.Wrap(ErrInconsistentState, err.Error())
	}
	state, err := canonicalAddress(StateLabel, seeds, stateBump)
	if err != nil {
		return nil, err
	}
	wallet, err := canonicalAddress(WalletLabel, seeds, walletBump)
	if err != nil {
		return nil, err
	}
	return &Authorities{
		Seeds:     seeds,
		State:     state,
		StateBump: stateBump,
		Wallet:    wallet,
	}, nil
}

// Load returns the escrow stored for given authorities. A missing
// escrow is returned as an empty record in the Uninitialized stage.
// A stored escrow must match the seeds and point to the derived
// holding.
func (c Controller) Load(db custody.ReadOnlyKVStore, a *Authorities) (*Escrow, error) {
	var e Escrow
	err := c.bucket.One(db, a.State, &e)
	switch {
	case errors.ErrNotFound.Is(err):
		return &Escrow{}, nil
	case err != nil:
		return nil, err
	}

	s := e.Seeds()
	if !s.Sender.Equals(a.Seeds.Sender) || !s.Receiver.Equals(a.Seeds.Receiver) ||
		!s.Mint.Equals(a.Seeds.Mint) || s.Index != a.Seeds.Index {
		return nil, errors.Wrapf(ErrInconsistentState, "escrow %s was created with other seeds", a.State)
	}
	if !e.Holding.Equals(a.Wallet) {
		return nil, errors.Wrapf(cash.ErrAuthorityMismatch, "escrow %s holding is %s", a.State, e.Holding)
	}
	return &e, nil
}

// guard loads the escrow and checks it may move to next.
func (c Controller) guard(db custody.ReadOnlyKVStore, a *Authorities, next Stage) (*Escrow, error) {
	e, err := c.Load(db, a)
	if err != nil {
		return nil, err
	}
	current, err := e.CurrentStage()
	if err != nil {
		return nil, err
	}
	if err := current.CanTransition(next); err != nil {
		return nil, err
	}
	return e, nil
}

// checkWallet ensures a caller supplied account belongs to the owner
// and holds the right mint.
func (c Controller) checkWallet(db custody.ReadOnlyKVStore, addr, owner, mint custody.Address) error {
	acc, err := c.bank.Account(db, addr)
	if err != nil {
		return err
	}
	if !acc.Owner.Equals(owner) {
		return errors.Wrapf(ErrInvalidOwner, "account %s", addr)
	}
	if !acc.Mint.Equals(mint) {
		return errors.Wrapf(cash.ErrMintMismatch, "account %s", addr)
	}
	return nil
}

// CheckInitialize runs all checks of Initialize without writing.
func (c Controller) CheckInitialize(db custody.ReadOnlyKVStore, a *Authorities, source custody.Address) error {
	if _, err := c.guard(db, a, FundsDeposited); err != nil {
		return err
	}
	return c.checkWallet(db, source, a.Seeds.Sender, a.Seeds.Mint)
}

// Initialize creates the escrow and its holding and moves amount from
// the source account of the sender into the holding. The sender must
// be authenticated for the bank.
func (c Controller) Initialize(ctx custody.Context, db custody.KVStore, a *Authorities, source custody.Address, amount uint64) (*Escrow, error) {
	if err := c.CheckInitialize(db, a, source); err != nil {
		return nil, err
	}
	if err := c.bank.Open(db, a.Wallet, a.State, a.Seeds.Mint); err != nil {
		return nil, errors.Wrap(err, "open holding")
	}
	if err := c.bank.Transfer(ctx, db, source, a.Wallet, a.Seeds.Sender, amount); err != nil {
		return nil, errors.Wrap(err, "deposit")
	}

	e := &Escrow{
		Index:    a.Seeds.Index,
		Sender:   a.Seeds.Sender,
		Receiver: a.Seeds.Receiver,
		Mint:     a.Seeds.Mint,
		Holding:  a.Wallet,
		Amount:   amount,
		Stage:    uint8(FundsDeposited),
	}
	if err := c.bucket.Put(db, a.State, e); err != nil {
		return nil, errors.Wrap(err, "cannot store escrow")
	}
	return e, nil
}

// CheckComplete runs all checks of Complete without writing.
func (c Controller) CheckComplete(db custody.ReadOnlyKVStore, a *Authorities) error {
	_, err := c.guard(db, a, EscrowComplete)
	return err
}

// Complete moves the whole holding balance to the associated account of
// the receiver, opened if needed. It returns the moved amount.
func (c Controller) Complete(ctx custody.Context, db custody.KVStore, a *Authorities) (*Escrow, uint64, error) {
	e, err := c.guard(db, a, EscrowComplete)
	if err != nil {
		return nil, 0, err
	}
	dest, err := c.bank.OpenAssociated(db, a.Seeds.Receiver, a.Seeds.Mint)
	if err != nil {
		return nil, 0, errors.Wrap(err, "receiver account")
	}
	return c.release(ctx, db, a, e, dest, EscrowComplete)
}

// CheckPullBack runs all checks of PullBack without writing.
func (c Controller) CheckPullBack(db custody.ReadOnlyKVStore, a *Authorities, refund custody.Address) error {
	if _, err := c.guard(db, a, PullBackComplete); err != nil {
		return err
	}
	return c.checkWallet(db, refund, a.Seeds.Sender, a.Seeds.Mint)
}

// PullBack moves the whole holding balance to the refund account of the
// sender. Pulling back again moves nothing. It returns the moved amount.
func (c Controller) PullBack(ctx custody.Context, db custody.KVStore, a *Authorities, refund custody.Address) (*Escrow, uint64, error) {
	e, err := c.guard(db, a, PullBackComplete)
	if err != nil {
		return nil, 0, err
	}
	if err := c.checkWallet(db, refund, a.Seeds.Sender, a.Seeds.Mint); err != nil {
		return nil, 0, err
	}
	return c.release(ctx, db, a, e, refund, PullBackComplete)
}

// release drains the live holding balance into destination and stores
// the new stage. A holding that is gone counts as empty.
func (c Controller) release(ctx custody.Context, db custody.KVStore, a *Authorities, e *Escrow, destination custody.Address, next Stage) (*Escrow, uint64, error) {
	balance, err := c.bank.Balance(db, a.Wallet)
	switch {
	case errors.ErrNotFound.Is(err):
		balance = 0
	case err != nil:
		return nil, 0, err
	default:
		if err := c.TransferOut(ctx, db, a, destination, balance); err != nil {
			return nil, 0, err
		}
	}

	e.Stage = uint8(next)
	if err := c.bucket.Put(db, a.State, e); err != nil {
		return nil, 0, errors.Wrap(err, "cannot store escrow")
	}
	custody.GetLogger(ctx).Debug("escrow released",
		"escrow", a.State,
		"stage", next,
		"amount", balance)
	return e, balance, nil
}

// TransferOut moves amount from the holding to destination acting as
// the state authority of the escrow. When the holding is left empty it
// is closed and its deposit refunded to the sender.
func (c Controller) TransferOut(ctx custody.Context, db custody.KVStore, a *Authorities, destination custody.Address, amount uint64) error {
	addr, err := DeriveAddress(StateLabel, a.Seeds, a.StateBump)
	if err != nil {
		return err
	}
	ctx = withAuthority(ctx, a.Seeds.Condition(StateLabel, a.StateBump))

	if err := c.bank.Transfer(ctx, db, a.Wallet, destination, addr, amount); err != nil {
		return errors.Wrap(err, "transfer out")
	}
	left, err := c.bank.Balance(db, a.Wallet)
	if err != nil {
		return err
	}
	if left != 0 {
		return nil
	}
	if err := c.bank.CloseAccount(ctx, db, a.Wallet, a.Seeds.Sender, addr); err != nil {
		return errors.Wrap(err, "close holding")
	}
	return nil
}
