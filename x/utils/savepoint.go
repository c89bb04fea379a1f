package utils

import (
	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
)

// Savepoint will isolate all data inside of the call,
// and commit/rollback to savepoint based on if error
type Savepoint struct {
	onCheck   bool
	onDeliver bool
}

var _ custody.Decorator = Savepoint{}

// NewSavepoint creates a Savepoint decorator,
// but you must call OnCheck/OnDeliver so it will be triggered
func NewSavepoint() Savepoint {
	return Savepoint{}
}

// OnCheck returns a savepoint that will trigger on CheckTx
func (s Savepoint) OnCheck() Savepoint {
	return Savepoint{
		onCheck:   true,
		onDeliver: s.onDeliver,
	}
}

// OnDeliver returns a savepoint that will trigger on DeliverTx
func (s Savepoint) OnDeliver() Savepoint {
	return Savepoint{
		onCheck:   s.onCheck,
		onDeliver: true,
	}
}

// Check will optionally set a checkpoint
func (s Savepoint) Check(ctx custody.Context, store custody.KVStore, tx custody.Tx, next custody.Checker) (*custody.CheckResult, error) {
	if !s.onCheck {
		return next.Check(ctx, store, tx)
	}

	cstore, ok := store.(custody.CacheableKVStore)
	if !ok {
		return next.Check(ctx, store, tx)
	}

	cache := cstore.CacheWrap()
	res, err := next.Check(ctx, cache, tx)
	if err != nil {
		cache.Discard()
		return nil, err
	}
	if err := cache.Write(); err != nil {
		return nil, errors.Wrap(err, "writing savepoint")
	}
	return res, nil
}

// Deliver will optionally set a checkpoint
func (s Savepoint) Deliver(ctx custody.Context, store custody.KVStore, tx custody.Tx, next custody.Deliverer) (*custody.DeliverResult, error) {
	if !s.onDeliver {
		return next.Deliver(ctx, store, tx)
	}

	cstore, ok := store.(custody.CacheableKVStore)
	if !ok {
		return next.Deliver(ctx, store, tx)
	}

	cache := cstore.CacheWrap()
	res, err := next.Deliver(ctx, cache, tx)
	if err != nil {
		cache.Discard()
		return nil, err
	}
	if err := cache.Write(); err != nil {
		return nil, errors.Wrap(err, "writing savepoint")
	}
	return res, nil
}
