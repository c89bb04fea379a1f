package custodytest

import (
	"context"
	"fmt"

	"github.com/iov-one/custody"
)

// Auth is a mock implementing x.Authenticator interface.
//
// This structure authenticates any of referenced conditions.
// You can use either Signer or Signers (or both) attributes to reference
// conditions. Each time all signers (regardless which attribute) are
// considered.
type Auth struct {
	// Signer represents an authentication of a single signer.
	Signer custody.Condition

	// Signers represents an authentication of multiple signers.
	Signers []custody.Condition
}

func (a *Auth) GetConditions(custody.Context) []custody.Condition {
	if a.Signer != nil {
		return append(a.Signers, a.Signer)
	}
	return a.Signers
}

func (a *Auth) HasAddress(ctx custody.Context, addr custody.Address) bool {
	for _, s := range a.GetConditions(ctx) {
		if addr.Equals(s.Address()) {
			return true
		}
	}
	return false
}

// CtxAuth is a mock implementing x.Authenticator interface.
//
// This implementation is using context to store and retrieve permissions.
type CtxAuth struct {
	// Key used to set and retrieve conditions from the context. For
	// convenience only string type keys are allowed.
	Key string
}

func (a *CtxAuth) SetConditions(ctx custody.Context, permissions ...custody.Condition) custody.Context {
	return context.WithValue(ctx, a.Key, permissions)
}

func (a *CtxAuth) GetConditions(ctx custody.Context) []custody.Condition {
	val := ctx.Value(a.Key)
	if val == nil {
		return nil
	}
	conds, ok := val.([]custody.Condition)
	if !ok {
		panic(fmt.Sprintf("instead of []custody.Condition got %T", val))
	}
	return conds
}

func (a *CtxAuth) HasAddress(ctx custody.Context, addr custody.Address) bool {
	for _, s := range a.GetConditions(ctx) {
		if addr.Equals(s.Address()) {
			return true
		}
	}
	return false
}
