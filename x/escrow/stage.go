package escrow

import (
	"fmt"

	"github.com/iov-one/custody/errors"
)

// Stage is the position of an escrow in its lifecycle.
type Stage uint8

const (
	// Uninitialized is the stage of an escrow that was never created.
	Uninitialized Stage = iota
	FundsDeposited
	EscrowComplete
	PullBackComplete
)

var stageNames = map[Stage]string{
	Uninitialized:    "Uninitialized",
	FundsDeposited:   "FundsDeposited",
	EscrowComplete:   "EscrowComplete",
	PullBackComplete: "PullBackComplete",
}

func (s Stage) String() string {
	if n, ok := stageNames[s]; ok {
		return n
	}
	return fmt.Sprintf("Stage(%d)", uint8(s))
}

// ParseStage turns a stored code into a Stage. Unknown codes fail with
// ErrStageInvalid.
func ParseStage(code uint8) (Stage, error) {
	s := Stage(code)
	if _, ok := stageNames[s]; !ok {
		return 0, errors.Wrapf(ErrStageInvalid, "unknown stage code %d", code)
	}
	return s, nil
}

// transitions lists for every stage the stages it may move to. Pulling
// back an already pulled back escrow is allowed and moves nothing.
var transitions = map[Stage][]Stage{
	Uninitialized:    {FundsDeposited},
	FundsDeposited:   {EscrowComplete, PullBackComplete},
	PullBackComplete: {PullBackComplete},
}

// CanTransition returns ErrStageInvalid unless the escrow may move from
// s to next.
func (s Stage) CanTransition(next Stage) error {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return nil
		}
	}
	return errors.Wrapf(ErrStageInvalid, "cannot move from %s to %s", s, next)
}
