package app

import (
	"fmt"
	"reflect"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/orm"
	"github.com/iov-one/custody/x/escrow"
	"github.com/iov-one/custody/x/sigs"
	"golang.org/x/crypto/ed25519"
)

// Msg is a message that can be carried by a Tx.
type Msg interface {
	custody.Msg
	custody.Persistent
}

// msgs maps every supported message path to a constructor of an empty
// message.
var msgs = registerMsgs(
	&escrow.InitializeGrantMsg{},
	&escrow.CompleteGrantMsg{},
	&escrow.PullBackMsg{},
)

func registerMsgs(all ...Msg) map[string]func() Msg {
	reg := make(map[string]func() Msg, len(all))
	for _, m := range all {
		path := m.Path()
		if _, ok := reg[path]; ok {
			panic(fmt.Sprintf("duplicate message path: %s", path))
		}
		typ := reflect.TypeOf(m).Elem()
		reg[path] = func() Msg {
			return reflect.New(typ).Interface().(Msg)
		}
	}
	return reg
}

// Tx is the transaction format of the application: a single message
// together with the signatures authorizing it.
//
// Serialized as protobuf wire fields:
//   1 message path, 2 message, 3 signatures (repeated)
type Tx struct {
	Msg        Msg
	Signatures []*sigs.StdSignature
}

var _ custody.Tx = (*Tx)(nil)
var _ sigs.SignedTx = (*Tx)(nil)

// GetMsg returns the single message of this transaction.
func (tx *Tx) GetMsg() (custody.Msg, error) {
	if tx.Msg == nil {
		return nil, errors.Wrap(errors.ErrMsg, "missing message")
	}
	return tx.Msg, nil
}

// GetSignatures returns the signatures attached to this transaction.
func (tx *Tx) GetSignatures() []*sigs.StdSignature {
	return tx.Signatures
}

// GetSignBytes returns the serialized transaction without signatures.
func (tx *Tx) GetSignBytes() ([]byte, error) {
	unsigned := Tx{Msg: tx.Msg}
	return unsigned.Marshal()
}

// Sign appends a signature of given key, valid for given chain and
// sequence.
func (tx *Tx) Sign(key ed25519.PrivateKey, chainID string, seq uint64) error {
	sig, err := sigs.SignTx(key, tx, chainID, seq)
	if err != nil {
		return err
	}
	tx.Signatures = append(tx.Signatures, sig)
	return nil
}

func (tx *Tx) Marshal() ([]byte, error) {
	if tx.Msg == nil {
		return nil, errors.Wrap(errors.ErrMsg, "missing message")
	}
	msg, err := tx.Msg.Marshal()
	if err != nil {
		return nil, errors.Wrap(err, "cannot marshal message")
	}
	signatures := make([][]byte, len(tx.Signatures))
	for i, s := range tx.Signatures {
		if signatures[i], err = s.Marshal(); err != nil {
			return nil, errors.Wrap(err, "cannot marshal signature")
		}
	}
	return orm.NewEncoder().
		Bytes(1, []byte(tx.Msg.Path())).
		Bytes(2, msg).
		RepeatedBytes(3, signatures).
		Result()
}

var txSchema = orm.Schema{
	1: orm.WireBytes,
	2: orm.WireBytes,
	3: orm.WireBytes,
}

func (tx *Tx) Unmarshal(raw []byte) error {
	fields, err := orm.Decode(raw, txSchema)
	if err != nil {
		return err
	}
	*tx = Tx{}
	var path string
	var msg []byte
	for _, f := range fields {
		switch f.Tag {
		case 1:
			path = string(f.Bytes)
		case 2:
			msg = f.Bytes
		case 3:
			var s sigs.StdSignature
			if err := s.Unmarshal(f.Bytes); err != nil {
				return errors.Wrap(err, "signature")
			}
			tx.Signatures = append(tx.Signatures, &s)
		default:
			return errors.Wrapf(errors.ErrMsg, "unknown field %d", f.Tag)
		}
	}
	build, ok := msgs[path]
	if !ok {
		return errors.Wrapf(errors.ErrMsg, "unknown message path %q", path)
	}
	m := build()
	if err := m.Unmarshal(msg); err != nil {
		return errors.Wrapf(err, "cannot unmarshal %s", path)
	}
	tx.Msg = m
	return nil
}

// TxDecoder creates a Tx and unmarshals bytes into it
func TxDecoder(bz []byte) (custody.Tx, error) {
	tx := new(Tx)
	if err := tx.Unmarshal(bz); err != nil {
		return nil, err
	}
	return tx, nil
}
