package cash

import "github.com/iov-one/custody/errors"

var (
	// ErrAuthorityMismatch is returned when the authority used for an
	// operation is not the asserted owner of the account.
	ErrAuthorityMismatch = errors.Register(2001, "authority mismatch")

	// ErrMintMismatch is returned when accounts of different mints are
	// combined.
	ErrMintMismatch = errors.Register(2002, "mint mismatch")
)
