package expense

import (
	"context"

	"github.com/goliatone/go-expense/middleware/identityware"
	"github.com/goliatone/go-router"
)

// NewIdentityMiddleware wires the identity middleware to the token
// service using the shared Config. The middleware never fails a
// request, it only attaches a RequestIdentity.
func NewIdentityMiddleware(ts TokenService, cfg Config, logger Logger) router.MiddlewareFunc {
	if logger == nil {
		logger = defLogger{}
	}

	return identityware.New(identityware.Config{
		TokenValidator:  tokenValidatorAdapter{ts},
		ContextKey:      cfg.GetContextKey(),
		TokenLookup:     cfg.GetTokenLookup(),
		AuthScheme:      cfg.GetAuthScheme(),
		ContextEnricher: ContextEnricherAdapter,
		OnRejected: func(ctx router.Context, err error) {
			logger.Debug("rejected bearer token: %v", err)
		},
	})
}

// ContextEnricherAdapter stores the request identity in the standard
// context for downstream consumers that only see context.Context.
func ContextEnricherAdapter(c context.Context, id identityware.Identity) context.Context {
	return WithIdentity(c, requestIdentityFrom(id))
}

// RouterIdentity extracts the RequestIdentity from the router context.
// Absence or a foreign type reads as anonymous.
func RouterIdentity(ctx router.Context, key string) RequestIdentity {
	if key == "" {
		key = "identity"
	}

	switch id := ctx.Locals(key).(type) {
	case RequestIdentity:
		return id
	case identityware.Identity:
		return requestIdentityFrom(id)
	default:
		return Anonymous()
	}
}

func requestIdentityFrom(id identityware.Identity) RequestIdentity {
	out := RequestIdentity{
		Authenticated: id.Authenticated,
		Subject:       id.Subject,
	}

	if claims, ok := id.Claims.(AuthClaims); ok {
		out.Claims = claims
	}

	return out
}

// tokenValidatorAdapter bridges the token service to the middleware
// without an import cycle.
type tokenValidatorAdapter struct {
	ts TokenService
}

func (a tokenValidatorAdapter) Validate(token string) (identityware.AuthClaims, error) {
	claims, err := a.ts.Validate(token)
	if err != nil {
		return nil, err
	}
	return claims, nil
}
