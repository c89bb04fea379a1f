package x

import (
	"github.com/iov-one/custody"
)

// Authenticator is an interface we can use to extract authentication info
// from the context. This should be passed into the constructor of
// handlers, so we can plug in another authentication system.
type Authenticator interface {
	// GetConditions reveals all Conditions fulfilled
	GetConditions(custody.Context) []custody.Condition
	// HasAddress checks if any condition matches this address
	HasAddress(custody.Context, custody.Address) bool
}

// MultiAuth chains together many Authenticators into one
type MultiAuth struct {
	impls []Authenticator
}

var _ Authenticator = MultiAuth{}

// ChainAuth groups together a series of Authenticator
func ChainAuth(impls ...Authenticator) MultiAuth {
	return MultiAuth{impls}
}

// GetConditions combines all Conditions from all Authenticators
func (m MultiAuth) GetConditions(ctx custody.Context) []custody.Condition {
	var res []custody.Condition
	for _, impl := range m.impls {
		add := impl.GetConditions(ctx)
		if len(add) > 0 {
			res = append(res, add...)
		}
	}
	return res
}

// HasAddress returns true iff any Authenticator support this
func (m MultiAuth) HasAddress(ctx custody.Context, addr custody.Address) bool {
	for _, impl := range m.impls {
		if impl.HasAddress(ctx, addr) {
			return true
		}
	}
	return false
}

// HasAllAddresses returns true if all elements in required are
// also in context.
func HasAllAddresses(ctx custody.Context, auth Authenticator, required []custody.Address) bool {
	for _, r := range required {
		if !auth.HasAddress(ctx, r) {
			return false
		}
	}
	return true
}
