package custodytest

import "github.com/iov-one/custody"

// Decorator is a mock implementation of the custody.Decorator interface.
//
// Set CheckErr or DeliverErr to force error response for corresponding method.
// If error attributes are not set then wrapped handler method is called and
// its result returned.
type Decorator struct {
	checkCall int
	// CheckErr if set is returned by the Check method before calling
	// the wrapped handler.
	CheckErr error

	deliverCall int
	// DeliverErr if set is returned by the Deliver method before calling
	// the wrapped handler.
	DeliverErr error
}

var _ custody.Decorator = (*Decorator)(nil)

func (d *Decorator) Check(ctx custody.Context, db custody.KVStore, tx custody.Tx, next custody.Checker) (*custody.CheckResult, error) {
	d.checkCall++

	if d.CheckErr != nil {
		return nil, d.CheckErr
	}
	return next.Check(ctx, db, tx)
}

func (d *Decorator) Deliver(ctx custody.Context, db custody.KVStore, tx custody.Tx, next custody.Deliverer) (*custody.DeliverResult, error) {
	d.deliverCall++

	if d.DeliverErr != nil {
		return nil, d.DeliverErr
	}
	return next.Deliver(ctx, db, tx)
}

func (d *Decorator) CheckCallCount() int {
	return d.checkCall
}

func (d *Decorator) DeliverCallCount() int {
	return d.deliverCall
}

func (d *Decorator) CallCount() int {
	return d.checkCall + d.deliverCall
}

// Decorate wraps the handler with one decorator and returns it
// as a single handler.
func Decorate(h custody.Handler, d custody.Decorator) custody.Handler {
	return &decoratedHandler{hn: h, dc: d}
}

type decoratedHandler struct {
	hn custody.Handler
	dc custody.Decorator
}

var _ custody.Handler = (*decoratedHandler)(nil)

func (d *decoratedHandler) Check(ctx custody.Context, db custody.KVStore, tx custody.Tx) (*custody.CheckResult, error) {
	return d.dc.Check(ctx, db, tx, d.hn)
}

func (d *decoratedHandler) Deliver(ctx custody.Context, db custody.KVStore, tx custody.Tx) (*custody.DeliverResult, error) {
	return d.dc.Deliver(ctx, db, tx, d.hn)
}
