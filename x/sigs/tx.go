package sigs

import (
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/orm"
	"golang.org/x/crypto/ed25519"
)

// SignedTx represents a transaction that contains signatures,
// which can be verified by the sigs.Decorator
type SignedTx interface {
	// GetSignBytes returns the canonical byte representation of the Msg.
	GetSignBytes() ([]byte, error)

	// GetSignatures returns the signature of signers who signed the Msg.
	GetSignatures() []*StdSignature
}

// StdSignature is a single ed25519 signature of a transaction.
type StdSignature struct {
	Pubkey    []byte
	Signature []byte
	Sequence  uint64
}

// Validate ensures the StdSignature meets basic standards
func (s *StdSignature) Validate() error {
	if len(s.Pubkey) != ed25519.PublicKeySize {
		return errors.Wrap(errors.ErrUnauthorized, "missing public key")
	}
	if len(s.Signature) != ed25519.SignatureSize {
		return errors.Wrap(errors.ErrUnauthorized, "missing signature")
	}
	if s.Sequence > maxSequenceValue {
		return errors.Wrap(ErrInvalidSequence, "out of range")
	}
	return nil
}

func (s *StdSignature) Marshal() ([]byte, error) {
	return orm.NewEncoder().
		Bytes(1, s.Pubkey).
		Bytes(2, s.Signature).
		Varint(3, s.Sequence).
		Result()
}

var signatureSchema = orm.Schema{
	1: orm.WireBytes,
	2: orm.WireBytes,
	3: orm.WireVarint,
}

func (s *StdSignature) Unmarshal(raw []byte) error {
	fields, err := orm.Decode(raw, signatureSchema)
	if err != nil {
		return err
	}
	*s = StdSignature{}
	for _, f := range fields {
		switch f.Tag {
		case 1:
			s.Pubkey = f.Bytes
		case 2:
			s.Signature = f.Bytes
		case 3:
			s.Sequence = f.Value
		}
	}
	return nil
}
