package cash

import (
	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/orm"
)

const (
	// BucketName is where we store the accounts
	BucketName = "cash"
)

// Account is a token holding of a single mint.
type Account struct {
	Owner  custody.Address `json:"owner"`
	Mint   custody.Address `json:"mint"`
	Amount uint64          `json:"amount"`
}

var _ orm.Model = (*Account)(nil)

// Validate requires an owner and a mint.
func (a *Account) Validate() error {
	if err := a.Owner.Validate(); err != nil {
		return errors.Wrap(err, "owner")
	}
	if err := a.Mint.Validate(); err != nil {
		return errors.Wrap(err, "mint")
	}
	return nil
}

func (a *Account) Marshal() ([]byte, error) {
	return orm.NewEncoder().
		Bytes(1, a.Owner).
		Bytes(2, a.Mint).
		Fixed64(3, a.Amount).
		Result()
}

var accountSchema = orm.Schema{
	1: orm.WireBytes,
	2: orm.WireBytes,
	3: orm.WireFixed64,
}

func (a *Account) Unmarshal(raw []byte) error {
	fields, err := orm.Decode(raw, accountSchema)
	if err != nil {
		return err
	}
	*a = Account{}
	for _, f := range fields {
		switch f.Tag {
		case 1:
			a.Owner = f.Bytes
		case 2:
			a.Mint = f.Bytes
		case 3:
			a.Amount = f.Value
		}
	}
	return nil
}

// NewBucket returns the bucket holding all accounts, keyed by the
// account address.
func NewBucket() orm.ModelBucket {
	return orm.NewModelBucket(BucketName, &Account{})
}
