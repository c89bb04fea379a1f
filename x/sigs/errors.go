package sigs

import "github.com/iov-one/custody/errors"

// ErrInvalidSequence is returned when a signature does not carry the
// next expected sequence of its signer.
var ErrInvalidSequence = errors.Register(3001, "invalid sequence")
