package escrow

import (
	"context"
	"encoding/binary"

	"filippo.io/edwards25519"
	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/x"
)

const (
	// StateLabel separates the address of the escrow record.
	StateLabel = "state"
	// WalletLabel separates the address of the holding account.
	WalletLabel = "wallet"

	authorityExt = "escrow"
)

// Seeds are the public inputs every derived authority of an escrow is
// computed from.
type Seeds struct {
	Sender   custody.Address
	Receiver custody.Address
	Mint     custody.Address
	Index    uint64
}

// Validate requires all three addresses.
func (s Seeds) Validate() error {
	if err := s.Sender.Validate(); err != nil {
		return errors.Wrap(err, "sender")
	}
	if err := s.Receiver.Validate(); err != nil {
		return errors.Wrap(err, "receiver")
	}
	if err := s.Mint.Validate(); err != nil {
		return errors.Wrap(err, "mint")
	}
	return nil
}

// Condition returns the condition of the authority derived from
// the seeds, given label and bump.
func (s Seeds) Condition(label string, bump uint8) custody.Condition {
	data := make([]byte, 0, len(s.Sender)+len(s.Receiver)+len(s.Mint)+9)
	data = append(data, s.Sender...)
	data = append(data, s.Receiver...)
	data = append(data, s.Mint...)
	var idx [8]byte
	binary.LittleEndian.PutUint64(idx[:], s.Index)
	data = append(data, idx[:]...)
	data = append(data, bump)
	return custody.NewCondition(authorityExt, label, data)
}

// DeriveAddress computes the address for given label and bump. The
// result must not be a valid ed25519 public key, otherwise somebody
// could hold a private key for it and ErrInconsistentState is returned.
func DeriveAddress(label string, seeds Seeds, bump uint8) (custody.Address, error) {
	addr := seeds.Condition(label, bump).Address()
	if onCurve(addr) {
		return nil, errors.Wrapf(ErrInconsistentState, "%s bump %d is on curve", label, bump)
	}
	return addr, nil
}

// FindAddress returns the canonical address and bump for given label.
// Bumps are tried from 255 down, the first one off the curve wins.
func FindAddress(label string, seeds Seeds) (custody.Address, uint8, error) {
	for bump := 255; bump >= 0; bump-- {
		addr, err := DeriveAddress(label, seeds, uint8(bump))
		if err == nil {
			return addr, uint8(bump), nil
		}
	}
	return nil, 0, errors.Wrapf(ErrInconsistentState, "no valid %s bump", label)
}

// canonicalAddress derives the address and makes sure the bump is the
// one FindAddress would choose.
func canonicalAddress(label string, seeds Seeds, bump uint8) (custody.Address, error) {
	addr, want, err := FindAddress(label, seeds)
	if err != nil {
		return nil, err
	}
	if bump != want {
		return nil, errors.Wrapf(ErrInconsistentState, "%s bump %d is not canonical", label, bump)
	}
	return addr, nil
}

// onCurve reports whether the bytes decode to an ed25519 point.
func onCurve(addr custody.Address) bool {
	_, err := new(edwards25519.Point).SetBytes(addr)
	return err == nil
}

type contextKey int // local to the escrow module

const (
	contextKeyAuthority contextKey = iota
)

// withAuthority is a private method, as only this module
// can assert a derived authority
func withAuthority(ctx custody.Context, cond custody.Condition) custody.Context {
	prev, _ := ctx.Value(contextKeyAuthority).([]custody.Condition)
	conds := make([]custody.Condition, 0, len(prev)+1)
	conds = append(conds, prev...)
	conds = append(conds, cond)
	return context.WithValue(ctx, contextKeyAuthority, conds)
}

// Authenticate exposes the derived authorities asserted by this module
type Authenticate struct{}

var _ x.Authenticator = Authenticate{}

// GetConditions returns authorities previously set on this context
func (a Authenticate) GetConditions(ctx custody.Context) []custody.Condition {
	// (val, ok) form to return nil instead of panic if unset
	val, _ := ctx.Value(contextKeyAuthority).([]custody.Condition)
	return val
}

// HasAddress returns true iff this address is in GetConditions
func (a Authenticate) HasAddress(ctx custody.Context, addr custody.Address) bool {
	for _, s := range a.GetConditions(ctx) {
		if addr.Equals(s.Address()) {
			return true
		}
	}
	return false
}
