package custodytest

import "github.com/iov-one/custody"

// Tx represents a single message that is to be processed within this
// transaction.
type Tx struct {
	// Msg is the message that is to be processed by this transaction.
	Msg custody.Msg
	// Err if set is returned by any method call.
	Err error
}

var _ custody.Tx = (*Tx)(nil)

func (tx *Tx) GetMsg() (custody.Msg, error) {
	return tx.Msg, tx.Err
}

// Msg is a request processed within a single transaction.
type Msg struct {
	// Path returned by the path method, consumed by the router.
	RoutePath string
	// Err if set is returned by Validate.
	Err error
}

var _ custody.Msg = (*Msg)(nil)

func (m *Msg) Path() string {
	return m.RoutePath
}

func (m *Msg) Validate() error {
	return m.Err
}
