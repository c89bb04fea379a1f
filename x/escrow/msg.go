package escrow

import (
	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/orm"
)

const (
	pathInitialize = "escrow/initialize"
	pathComplete   = "escrow/complete"
	pathPullBack   = "escrow/pullback"
)

// InitializeGrantMsg creates an escrow and deposits Amount tokens of
// Mint from the Source account into its holding.
type InitializeGrantMsg struct {
	Sender     custody.Address
	Receiver   custody.Address
	Mint       custody.Address
	Source     custody.Address
	Index      uint64
	StateBump  uint8
	WalletBump uint8
	Amount     uint64
}

var _ custody.Msg = (*InitializeGrantMsg)(nil)

func (InitializeGrantMsg) Path() string {
	return pathInitialize
}

func (m InitializeGrantMsg) Seeds() Seeds {
	return Seeds{Sender: m.Sender, Receiver: m.Receiver, Mint: m.Mint, Index: m.Index}
}

func (m InitializeGrantMsg) Validate() error {
	if err := m.Seeds().Validate(); err != nil {
		return errors.Wrap(errors.ErrMsg, err.Error())
	}
	if err := m.Source.Validate(); err != nil {
		return errors.Wrap(errors.ErrMsg, "source")
	}
	if m.Amount == 0 {
		return errors.Wrap(errors.ErrAmount, "deposit must be positive")
	}
	return nil
}

// CompleteGrantMsg releases the escrowed tokens to the receiver.
type CompleteGrantMsg struct {
	Sender     custody.Address
	Receiver   custody.Address
	Mint       custody.Address
	Index      uint64
	StateBump  uint8
	WalletBump uint8
}

var _ custody.Msg = (*CompleteGrantMsg)(nil)

func (CompleteGrantMsg) Path() string {
	return pathComplete
}

func (m CompleteGrantMsg) Seeds() Seeds {
	return Seeds{Sender: m.Sender, Receiver: m.Receiver, Mint: m.Mint, Index: m.Index}
}

func (m CompleteGrantMsg) Validate() error {
	if err := m.Seeds().Validate(); err != nil {
		return errors.Wrap(errors.ErrMsg, err.Error())
	}
	return nil
}

// PullBackMsg returns the escrowed tokens to the Refund account of
// the sender.
type PullBackMsg struct {
	Sender     custody.Address
	Receiver   custody.Address
	Mint       custody.Address
	Refund     custody.Address
	Index      uint64
	StateBump  uint8
	WalletBump uint8
}

var _ custody.Msg = (*PullBackMsg)(nil)

func (PullBackMsg) Path() string {
	return pathPullBack
}

func (m PullBackMsg) Seeds() Seeds {
	return Seeds{Sender: m.Sender, Receiver: m.Receiver, Mint: m.Mint, Index: m.Index}
}

func (m PullBackMsg) Validate() error {
	if err := m.Seeds().Validate(); err != nil {
		return errors.Wrap(errors.ErrMsg, err.Error())
	}
	if err := m.Refund.Validate(); err != nil {
		return errors.Wrap(errors.ErrMsg, "refund")
	}
	return nil
}

func (m *InitializeGrantMsg) Marshal() ([]byte, error) {
	return orm.NewEncoder().
		Bytes(1, m.Sender).
		Bytes(2, m.Receiver).
		Bytes(3, m.Mint).
		Bytes(4, m.Source).
		Varint(5, m.Index).
		Varint(6, uint64(m.StateBump)).
		Varint(7, uint64(m.WalletBump)).
		Fixed64(8, m.Amount).
		Result()
}

var grantSchema = orm.Schema{
	1: orm.WireBytes,
	2: orm.WireBytes,
	3: orm.WireBytes,
	4: orm.WireBytes,
	5: orm.WireVarint,
	6: orm.WireVarint,
	7: orm.WireVarint,
	8: orm.WireFixed64,
}

func (m *InitializeGrantMsg) Unmarshal(raw []byte) error {
	fields, err := orm.Decode(raw, grantSchema)
	if err != nil {
		return err
	}
	*m = InitializeGrantMsg{}
	for _, f := range fields {
		switch f.Tag {
		case 1:
			m.Sender = f.Bytes
		case 2:
			m.Receiver = f.Bytes
		case 3:
			m.Mint = f.Bytes
		case 4:
			m.Source = f.Bytes
		case 5:
			m.Index = f.Value
		case 6:
			m.StateBump, err = bump(f)
		case 7:
			m.WalletBump, err = bump(f)
		case 8:
			m.Amount = f.Value
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (m *CompleteGrantMsg) Marshal() ([]byte, error) {
	return orm.NewEncoder().
		Bytes(1, m.Sender).
		Bytes(2, m.Receiver).
		Bytes(3, m.Mint).
		Varint(5, m.Index).
		Varint(6, uint64(m.StateBump)).
		Varint(7, uint64(m.WalletBump)).
		Result()
}

func (m *CompleteGrantMsg) Unmarshal(raw []byte) error {
	fields, err := orm.Decode(raw, grantSchema)
	if err != nil {
		return err
	}
	*m = CompleteGrantMsg{}
	for _, f := range fields {
		switch f.Tag {
		case 1:
			m.Sender = f.Bytes
		case 2:
			m.Receiver = f.Bytes
		case 3:
			m.Mint = f.Bytes
		case 5:
			m.Index = f.Value
		case 6:
			m.StateBump, err = bump(f)
		case 7:
			m.WalletBump, err = bump(f)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (m *PullBackMsg) Marshal() ([]byte, error) {
	return orm.NewEncoder().
		Bytes(1, m.Sender).
		Bytes(2, m.Receiver).
		Bytes(3, m.Mint).
		Bytes(4, m.Refund).
		Varint(5, m.Index).
		Varint(6, uint64(m.StateBump)).
		Varint(7, uint64(m.WalletBump)).
		Result()
}

func (m *PullBackMsg) Unmarshal(raw []byte) error {
	fields, err := orm.Decode(raw, grantSchema)
	if err != nil {
		return err
	}
	*m = PullBackMsg{}
	for _, f := range fields {
		switch f.Tag {
		case 1:
			m.Sender = f.Bytes
		case 2:
			m.Receiver = f.Bytes
		case 3:
			m.Mint = f.Bytes
		case 4:
			m.Refund = f.Bytes
		case 5:
			m.Index = f.Value
		case 6:
			m.StateBump, err = bump(f)
		case 7:
			m.WalletBump, err = bump(f)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func bump(f orm.Field) (uint8, error) {
	if f.Value > 255 {
		return 0, errors.Wrapf(errors.ErrMsg, "field %d: bump out of range", f.Tag)
	}
	return uint8(f.Value), nil
}
