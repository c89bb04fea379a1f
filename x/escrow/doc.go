/*
Package escrow implements a two-party grant escrow.

A sender deposits tokens into a holding account that is owned by a
derived authority instead of a key. The authority is an address
computed from the sender, the receiver, the mint and an index, so
only this package can reproduce and assert it. The receiver can then
complete the grant and receive the funds, or the sender can pull them
back. Every escrow is tracked by a record that moves through the
stages FundsDeposited, EscrowComplete and PullBackComplete.

Once a holding account is drained it is closed.
*/
package escrow
