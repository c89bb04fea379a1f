package app

import (
	"encoding/json"
	"io/ioutil"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
)

// Genesis file format, designed to be overlayed with tendermint genesis
type Genesis struct {
	ChainID  string          `json:"chain_id"`
	AppState json.RawMessage `json:"app_state"`
}

// LoadGenesis tries to load a given file into a Genesis struct
func LoadGenesis(filePath string) (Genesis, error) {
	var gen Genesis

	bytes, err := ioutil.ReadFile(filePath)
	if err != nil {
		return gen, errors.Wrap(errors.ErrInput, err.Error())
	}
	if err := json.Unmarshal(bytes, &gen); err != nil {
		return gen, errors.Wrapf(errors.ErrInput, "cannot parse genesis: %s", err)
	}
	if !custody.IsValidChainID(gen.ChainID) {
		return gen, errors.Wrapf(errors.ErrInput, "chain id: %q", gen.ChainID)
	}
	return gen, nil
}

// ChainInitializers lets you initialize many extensions with one function
func ChainInitializers(inits ...custody.Initializer) custody.Initializer {
	return chainInitializer{inits}
}

type chainInitializer struct {
	inits []custody.Initializer
}

// FromGenesis will pass opts to all Initializers in the list,
// aborting at the first error.
func (c chainInitializer) FromGenesis(opts custody.Options, kv custody.KVStore) error {
	for _, i := range c.inits {
		if err := i.FromGenesis(opts, kv); err != nil {
			return err
		}
	}
	return nil
}
