package cash

import (
	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
)

const optKey = "cash"

// GenesisAccount is used to parse the json from genesis file
// use custody.Address, so address in hex, not base64
type GenesisAccount struct {
	Address custody.Address `json:"address"`
	Account
}

// Initializer fulfils the Initializer interface to load data from
// the genesis file
type Initializer struct{}

var _ custody.Initializer = Initializer{}

// FromGenesis will parse initial account info from genesis
// and save it to the database
func (Initializer) FromGenesis(opts custody.Options, kv custody.KVStore) error {
	var accts []GenesisAccount
	if err := opts.ReadOptions(optKey, &accts); err != nil {
		return errors.Wrap(errors.ErrInput, err.Error())
	}
	bucket := NewBucket()
	for _, acct := range accts {
		if err := acct.Address.Validate(); err != nil {
			return errors.Wrap(err, "genesis account")
		}
		if err := bucket.Has(kv, acct.Address); err == nil {
			return errors.Wrapf(errors.ErrDuplicate, "genesis account %s", acct.Address)
		}
		acc := acct.Account
		if err := bucket.Put(kv, acct.Address, &acc); err != nil {
			return err
		}
	}
	return nil
}
