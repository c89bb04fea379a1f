package escrow

import "github.com/iov-one/custody/errors"

var (
	// ErrInvalidOwner is returned when a wallet provided by the caller
	// is not owned by the sender.
	ErrInvalidOwner = errors.Register(1001, "invalid owner")

	// ErrInconsistentState is returned when the seeds of an operation do
	// not reproduce the stored escrow.
	ErrInconsistentState = errors.Register(1002, "inconsistent state")

	// ErrStageInvalid is returned when an operation is not allowed in
	// the current stage of the escrow.
	ErrStageInvalid = errors.Register(1003, "stage invalid")
)
