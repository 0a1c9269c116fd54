package expense

import (
	"context"
)

var identityCtxKey = &contextKey{"identity"}

type contextKey struct {
	name string
}

// RequestIdentity is the per-request outcome of session verification.
// Every request carries one, anonymous when no valid token was
// presented.
type RequestIdentity struct {
	Authenticated bool
	Subject       string
	Claims        AuthClaims
}

// Anonymous returns the identity attached to requests without a valid
// session token.
func Anonymous() RequestIdentity {
	return RequestIdentity{}
}

// WithIdentity sets the RequestIdentity in the given context
func WithIdentity(r context.Context, identity RequestIdentity) context.Context {
	return context.WithValue(r, identityCtxKey, identity)
}

// IdentityFromContext finds the request identity from the context.
// Absence reads as anonymous.
func IdentityFromContext(ctx context.Context) RequestIdentity {
	raw, ok := ctx.Value(identityCtxKey).(RequestIdentity)
	if !ok {
		return Anonymous()
	}
	return raw
}
