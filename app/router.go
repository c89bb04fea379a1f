package app

import (
	"fmt"
	"regexp"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
)

// isMsgPath is the RegExp to ensure the routes make sense
var isMsgPath = regexp.MustCompile(`^[a-zA-Z0-9_\-/]+$`).MatchString

// Router allows us to register many handlers with different
// paths and then direct each message to the proper handler.
//
// Minimal interface modeled after net/http.ServeMux
type Router struct {
	routes map[string]custody.Handler
}

var _ custody.Registry = (*Router)(nil)
var _ custody.Handler = (*Router)(nil)

// NewRouter returns a new empty handler
func NewRouter() *Router {
	return &Router{
		routes: make(map[string]custody.Handler, 10),
	}
}

// Handle adds a new Handler for the path of given message.
// panics if another Handler was already registered
func (r *Router) Handle(m custody.Msg, h custody.Handler) {
	path := m.Path()
	if !isMsgPath(path) {
		panic(fmt.Sprintf("invalid path: %s", path))
	}
	if _, ok := r.routes[path]; ok {
		panic(fmt.Sprintf("re-registering route: %s", path))
	}
	r.routes[path] = h
}

// handler returns the registered Handler for this path.
// If no path is found, returns a noSuchPath Handler.
// Always returns a non-nil Handler
func (r *Router) handler(path string) custody.Handler {
	h, ok := r.routes[path]
	if !ok {
		return notFoundHandler(path)
	}
	return h
}

// Check dispatches to the proper handler based on path
func (r *Router) Check(ctx custody.Context, store custody.KVStore, tx custody.Tx) (*custody.CheckResult, error) {
	msg, err := tx.GetMsg()
	if err != nil {
		return nil, errors.Wrap(err, "cannot load msg")
	}
	if msg == nil {
		return nil, errors.Wrap(errors.ErrMsg, "missing message")
	}
	return r.handler(msg.Path()).Check(ctx, store, tx)
}

// Deliver dispatches to the proper handler based on path
func (r *Router) Deliver(ctx custody.Context, store custody.KVStore, tx custody.Tx) (*custody.DeliverResult, error) {
	msg, err := tx.GetMsg()
	if err != nil {
		return nil, errors.Wrap(err, "cannot load msg")
	}
	if msg == nil {
		return nil, errors.Wrap(errors.ErrMsg, "missing message")
	}
	return r.handler(msg.Path()).Deliver(ctx, store, tx)
}

// notFoundHandler always returns ErrNotFound error regardless of the
// arguments.
type notFoundHandler string

func (path notFoundHandler) Check(custody.Context, custody.KVStore, custody.Tx) (*custody.CheckResult, error) {
	return nil, errors.Wrapf(errors.ErrNotFound, "no handler for message path %q", string(path))
}

func (path notFoundHandler) Deliver(custody.Context, custody.KVStore, custody.Tx) (*custody.DeliverResult, error) {
	return nil, errors.Wrapf(errors.ErrNotFound, "no handler for message path %q", string(path))
}
