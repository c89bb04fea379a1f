package cash

import (
	"math"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/orm"
	"github.com/iov-one/custody/x"
)

// Controller is the functionality needed by other extensions
// to move and hold tokens.
type Controller interface {
	Account(db custody.ReadOnlyKVStore, addr custody.Address) (*Account, error)
	Balance(db custody.ReadOnlyKVStore, addr custody.Address) (uint64, error)
	Open(db custody.KVStore, addr, owner, mint custody.Address) error
	OpenAssociated(db custody.KVStore, owner, mint custody.Address) (custody.Address, error)
	Issue(db custody.KVStore, addr custody.Address, amount uint64) error
	Transfer(ctx custody.Context, db custody.KVStore, from, to, authority custody.Address, amount uint64) error
	CloseAccount(ctx custody.Context, db custody.KVStore, account, refund, authority custody.Address) error
}

// BaseController is a simple implementation of Controller.
type BaseController struct {
	bucket orm.ModelBucket
	auth   x.Authenticator
}

var _ Controller = BaseController{}

// NewController returns a controller that checks every authority
// against given authenticator.
func NewController(auth x.Authenticator) BaseController {
	return BaseController{
		bucket: NewBucket(),
		auth:   auth,
	}
}

// Account returns the account stored under given address.
// ErrNotFound is returned if there is none.
func (c BaseController) Account(db custody.ReadOnlyKVStore, addr custody.Address) (*Account, error) {
	var acc Account
	if err := c.bucket.One(db, addr, &acc); err != nil {
		return nil, errors.Wrapf(err, "account %s", addr)
	}
	return &acc, nil
}

// Balance returns the amount held by given account.
func (c BaseController) Balance(db custody.ReadOnlyKVStore, addr custody.Address) (uint64, error) {
	acc, err := c.Account(db, addr)
	if err != nil {
		return 0, err
	}
	return acc.Amount, nil
}

// Open creates an empty account. It fails with ErrDuplicate if
// the address is already in use.
func (c BaseController) Open(db custody.KVStore, addr, owner, mint custody.Address) error {
	if err := addr.Validate(); err != nil {
		return errors.Wrap(err, "address")
	}
	switch err := c.bucket.Has(db, addr); {
	case err == nil:
		return errors.Wrapf(errors.ErrDuplicate, "account %s", addr)
	case !errors.ErrNotFound.Is(err):
		return err
	}
	return c.bucket.Put(db, addr, &Account{Owner: owner, Mint: mint})
}

// AssociatedAddress returns the address of the account that owner
// holds for given mint.
func AssociatedAddress(owner, mint custody.Address) custody.Address {
	data := make([]byte, 0, len(owner)+len(mint))
	data = append(data, owner...)
	data = append(data, mint...)
	return custody.NewCondition("cash", "assoc", data).Address()
}

// OpenAssociated returns the associated account of the owner for given
// mint, creating it when missing.
func (c BaseController) OpenAssociated(db custody.KVStore, owner, mint custody.Address) (custody.Address, error) {
	addr := AssociatedAddress(owner, mint)
	acc, err := c.Account(db, addr)
	switch {
	case errors.ErrNotFound.Is(err):
		return addr, c.Open(db, addr, owner, mint)
	case err != nil:
		return nil, err
	}
	if !acc.Mint.Equals(mint) || !acc.Owner.Equals(owner) {
		return nil, errors.Wrapf(errors.ErrState, "associated account %s", addr)
	}
	return addr, nil
}

// Issue creates new tokens in given account.
func (c BaseController) Issue(db custody.KVStore, addr custody.Address, amount uint64) error {
	acc, err := c.Account(db, addr)
	if err != nil {
		return err
	}
	if acc.Amount > math.MaxUint64-amount {
		return errors.Wrapf(errors.ErrOverflow, "account %s", addr)
	}
	acc.Amount += amount
	return c.bucket.Put(db, addr, acc)
}

// Transfer moves amount tokens between two accounts of the same mint.
// The authority must own the source account and must be asserted in
// the context.
func (c BaseController) Transfer(ctx custody.Context, db custody.KVStore, from, to, authority custody.Address, amount uint64) error {
	src, err := c.Account(db, from)
	if err != nil {
		return errors.Wrap(err, "source")
	}
	if err := c.authorize(ctx, src, authority); err != nil {
		return err
	}
	dst, err := c.Account(db, to)
	if err != nil {
		return errors.Wrap(err, "destination")
	}
	if !src.Mint.Equals(dst.Mint) {
		return errors.Wrapf(ErrMintMismatch, "%s into %s", src.Mint, dst.Mint)
	}
	if src.Amount < amount {
		return errors.Wrapf(errors.ErrAmount, "insufficient funds: %d < %d", src.Amount, amount)
	}
	if from.Equals(to) {
		return nil
	}
	if dst.Amount > math.MaxUint64-amount {
		return errors.Wrapf(errors.ErrOverflow, "account %s", to)
	}

	src.Amount -= amount
	dst.Amount += amount
	if err := c.bucket.Put(db, from, src); err != nil {
		return err
	}
	return c.bucket.Put(db, to, dst)
}

// CloseAccount removes a drained account. Storage deposits are not
// modeled, the refund destination is only recorded in the log.
func (c BaseController) CloseAccount(ctx custody.Context, db custody.KVStore, account, refund, authority custody.Address) error {
	acc, err := c.Account(db, account)
	if err != nil {
		return err
	}
	if err := c.authorize(ctx, acc, authority); err != nil {
		return err
	}
	if acc.Amount != 0 {
		return errors.Wrapf(errors.ErrState, "cannot close account holding %d", acc.Amount)
	}
	if err := c.bucket.Delete(db, account); err != nil {
		return err
	}
	custody.GetLogger(ctx).Debug("account closed",
		"account", account,
		"refund", refund)
	return nil
}

func (c BaseController) authorize(ctx custody.Context, acc *Account, authority custody.Address) error {
	if !acc.Owner.Equals(authority) {
		return errors.Wrapf(ErrAuthorityMismatch, "%s is not the owner", authority)
	}
	if !c.auth.HasAddress(ctx, authority) {
		return errors.Wrapf(ErrAuthorityMismatch, "%s not asserted", authority)
	}
	return nil
}

// RegisterQuery will register this bucket as "/accounts"
func RegisterQuery(qr custody.QueryRouter) {
	NewBucket().Register("accounts", qr)
}
