package custody

import (
	"reflect"

	"github.com/iov-one/custody/errors"
)

// Msg is message for the ledger to take an action
// (Make a state transition). It is just the request, and
// must be validated by the Handlers. All authentication
// information is in the wrapping Tx.
type Msg interface {
	// Return the message path.
	// This is used by the Router to locate the proper Handler.
	// Msg should be created alongside the Handler that corresponds to them.
	//
	// Must be alphanumeric [0-9A-Za-z_\-/]+
	Path() string

	// Validate performs a sanity checks on this message. It returns an
	// error if at least one of the checks fails.
	Validate() error
}

// Tx represent the data sent from the user to the chain.
// It includes the actual message, along with information needed
// to authenticate the sender, and anything else needed to pass
// through middleware.
type Tx interface {
	// GetMsg returns the action we wish to communicate
	GetMsg() (Msg, error)
}

// TxDecoder can parse bytes into a Tx
type TxDecoder func(txBytes []byte) (Tx, error)

// Marshaller is anything that can be represented in binary
//
// Marshall may validate the data before serializing it and
// unless you previously validated the struct,
// errors should be expected.
type Marshaller interface {
	Marshal() ([]byte, error)
}

// Persistent supports Marshal and Unmarshal
//
// This is separated from Marshal, as this almost always requires
// a pointer, and functions that only need to marshal bytes can
// use the Marshaller interface to access non-pointers.
type Persistent interface {
	Marshaller
	Unmarshal([]byte) error
}

// GetPath returns the path of the message, or (missing) if no message
func GetPath(tx Tx) string {
	msg, err := tx.GetMsg()
	if err == nil && msg != nil {
		return msg.Path()
	}
	return "(missing)"
}

// LoadMsg extracts the message represented by given transaction into given
// destination. Before returning message validation method is called.
func LoadMsg(tx Tx, destination interface{}) error {
	msg, err := tx.GetMsg()
	if err != nil {
		return errors.Wrap(err, "cannot get transaction message")
	}
	if msg == nil {
		return errors.Wrap(errors.ErrMsg, "missing message")
	}

	// Destination must be a pointer to the same type as the message.
	dest := reflect.ValueOf(destination)
	if dest.Kind() != reflect.Ptr {
		return errors.Wrap(errors.ErrType, "destination must be a pointer")
	}
	src := reflect.ValueOf(msg)
	if src.Kind() == reflect.Ptr {
		src = src.Elem()
	}
	if !src.Type().AssignableTo(dest.Elem().Type()) {
		return errors.Wrapf(errors.ErrType, "want %T message, got %T", destination, msg)
	}
	dest.Elem().Set(src)

	if err := msg.Validate(); err != nil {
		return errors.Wrap(err, "invalid message")
	}
	return nil
}
