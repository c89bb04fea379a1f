package custodytest

import (
	"crypto/rand"

	"github.com/iov-one/custody"
	"golang.org/x/crypto/ed25519"
)

// NewCondition returns the signature condition of a freshly generated
// ed25519 key.
func NewCondition() custody.Condition {
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		panic(err)
	}
	return custody.NewCondition("sigs", "ed25519", pub)
}

// NewAddress returns the address of a fresh signer.
func NewAddress() custody.Address {
	return NewCondition().Address()
}
