package sigs

import (
	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/orm"
	"golang.org/x/crypto/ed25519"
)

// BucketName is where we store the accounts
const BucketName = "sigs"

// maxSequenceValue is limited by the client. The greatest supported
// nonce value at client side is
//
//	Number.MAX_SAFE_INTEGER = 9007199254740991 = 2^53 - 1
const maxSequenceValue = (1 << 53) - 1

// Condition returns the condition a signature of given public key
// satisfies.
func Condition(pubkey ed25519.PublicKey) custody.Condition {
	return custody.NewCondition("sigs", "ed25519", pubkey)
}

// UserData tracks the replay protection of a single public key.
type UserData struct {
	Pubkey   []byte
	Sequence uint64
}

var _ orm.Model = (*UserData)(nil)

func (u *UserData) Validate() error {
	if len(u.Pubkey) != ed25519.PublicKeySize {
		return errors.Wrap(errors.ErrModel, "invalid public key")
	}
	if u.Sequence > maxSequenceValue {
		return errors.Wrap(ErrInvalidSequence, "out of range")
	}
	return nil
}

// CheckAndIncrementSequence implements check and increment operation.
// If current sequence value is the same as given expected value then it is
// incremented. Otherwise an error is returned.
func (u *UserData) CheckAndIncrementSequence(expected uint64) error {
	if u.Sequence != expected {
		return errors.Wrapf(ErrInvalidSequence, "mismatch expected %d, got %d", expected, u.Sequence)
	}
	next := u.Sequence + 1
	if next > maxSequenceValue {
		return errors.Wrap(errors.ErrOverflow, "sequence out of range")
	}
	u.Sequence = next
	return nil
}

func (u *UserData) Marshal() ([]byte, error) {
	return orm.NewEncoder().
		Bytes(1, u.Pubkey).
		Varint(2, u.Sequence).
		Result()
}

var userDataSchema = orm.Schema{
	1: orm.WireBytes,
	2: orm.WireVarint,
}

func (u *UserData) Unmarshal(raw []byte) error {
	fields, err := orm.Decode(raw, userDataSchema)
	if err != nil {
		return err
	}
	*u = UserData{}
	for _, f := range fields {
		switch f.Tag {
		case 1:
			u.Pubkey = f.Bytes
		case 2:
			u.Sequence = f.Value
		}
	}
	return nil
}

// Bucket stores the UserData of every known public key, keyed by the
// address of its condition.
type Bucket struct {
	orm.ModelBucket
}

// NewBucket creates the proper bucket for this extension
func NewBucket() Bucket {
	return Bucket{
		ModelBucket: orm.NewModelBucket(BucketName, &UserData{}),
	}
}

// GetOrCreate loads the UserData for given public key, or returns a
// fresh one if none was stored yet.
func (b Bucket) GetOrCreate(db custody.KVStore, pubkey ed25519.PublicKey) (*UserData, error) {
	var user UserData
	err := b.One(db, Condition(pubkey).Address(), &user)
	switch {
	case err == nil:
		return &user, nil
	case errors.ErrNotFound.Is(err):
		return &UserData{Pubkey: pubkey}, nil
	default:
		return nil, err
	}
}

// Save stores the user under the address of its public key.
func (b Bucket) Save(db custody.KVStore, user *UserData) error {
	return b.Put(db, Condition(user.Pubkey).Address(), user)
}
