package utils

import (
	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
)

// Recovery converts a panic raised by any inner decorator or handler into
// an ErrPanic result. The panic is logged together with the message path,
// a client only sees the redacted error.
type Recovery struct{}

var _ custody.Decorator = Recovery{}

// NewRecovery creates a Recovery decorator
func NewRecovery() Recovery {
	return Recovery{}
}

func (r Recovery) Check(ctx custody.Context, store custody.KVStore, tx custody.Tx, next custody.Checker) (_ *custody.CheckResult, err error) {
	defer logPanic(ctx, tx, "check", &err)
	defer errors.Recover(&err)
	return next.Check(ctx, store, tx)
}

func (r Recovery) Deliver(ctx custody.Context, store custody.KVStore, tx custody.Tx, next custody.Deliverer) (_ *custody.DeliverResult, err error) {
	defer logPanic(ctx, tx, "deliver", &err)
	defer errors.Recover(&err)
	return next.Deliver(ctx, store, tx)
}

// logPanic must be deferred before errors.Recover so it runs after it.
func logPanic(ctx custody.Context, tx custody.Tx, phase string, err *error) {
	if errors.ErrPanic.Is(*err) {
		custody.GetLogger(ctx).Error("recovered from panic",
			"phase", phase,
			"path", custody.GetPath(tx),
			"err", *err)
	}
}
