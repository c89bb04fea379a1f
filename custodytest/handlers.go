package custodytest

import "github.com/iov-one/custody"

// Handler is a mock implementation of the custody.Handler interface.
// Each call is counted and the configured result returned.
// Key, if set, is written to the store on every call.
type Handler struct {
	checkCall   int
	CheckResult custody.CheckResult
	CheckErr    error

	deliverCall   int
	DeliverResult custody.DeliverResult
	DeliverErr    error

	Key   []byte
	Value []byte
}

var _ custody.Handler = (*Handler)(nil)

func (h *Handler) Check(ctx custody.Context, db custody.KVStore, tx custody.Tx) (*custody.CheckResult, error) {
	h.checkCall++
	if err := h.write(db); err != nil {
		return nil, err
	}
	if h.CheckErr != nil {
		return nil, h.CheckErr
	}
	res := h.CheckResult
	return &res, nil
}

func (h *Handler) Deliver(ctx custody.Context, db custody.KVStore, tx custody.Tx) (*custody.DeliverResult, error) {
	h.deliverCall++
	if err := h.write(db); err != nil {
		return nil, err
	}
	if h.DeliverErr != nil {
		return nil, h.DeliverErr
	}
	res := h.DeliverResult
	return &res, nil
}

func (h *Handler) write(db custody.KVStore) error {
	if h.Key == nil {
		return nil
	}
	return db.Set(h.Key, h.Value)
}

func (h *Handler) CheckCallCount() int {
	return h.checkCall
}

func (h *Handler) DeliverCallCount() int {
	return h.deliverCall
}

func (h *Handler) CallCount() int {
	return h.checkCall + h.deliverCall
}
