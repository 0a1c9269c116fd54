package expense

import (
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// Options is the concrete Config used by the service wiring. Zero
// values fall back to the defaults documented per field.
type Options struct {
	// SigningKey is the HMAC secret used to sign session tokens.
	// Required.
	SigningKey string

	// SigningMethod is the JWT signing algorithm. Default: "HS256".
	SigningMethod string

	// ContextKey is the router locals key the identity middleware
	// stores the request identity under. Default: "identity".
	ContextKey string

	// TokenExpiration is the session token lifetime in hours.
	// Default: 24.
	TokenExpiration int

	// TokenLookup tells the middleware where to find the token.
	// Default: "header:Authorization".
	TokenLookup string

	// AuthScheme is the expected Authorization scheme. Default: "Bearer".
	AuthScheme string

	// Issuer and Audience are stamped into and checked against session
	// token claims.
	Issuer   string
	Audience []string

	// SingleUseTokenTTL is the lifetime of verification and reset
	// tokens. Default: 1 hour.
	SingleUseTokenTTL time.Duration

	// LockoutThreshold and LockoutDuration shape the brute force
	// policy. Defaults: 5 attempts, 15 minutes.
	LockoutThreshold int
	LockoutDuration  time.Duration

	// BcryptCost is the password hashing work factor. Default: 12.
	BcryptCost int

	// ClientURL is the base URL used to build links in outbound
	// emails.
	ClientURL string
}

func (o Options) GetSigningKey() string { return o.SigningKey }

func (o Options) GetSigningMethod() string {
	if o.SigningMethod == "" {
		return "HS256"
	}
	return o.SigningMethod
}

func (o Options) GetContextKey() string {
	if o.ContextKey == "" {
		return "identity"
	}
	return o.ContextKey
}

func (o Options) GetTokenExpiration() int {
	if o.TokenExpiration <= 0 {
		return 24
	}
	return o.TokenExpiration
}

func (o Options) GetTokenLookup() string {
	if o.TokenLookup == "" {
		return "header:Authorization"
	}
	return o.TokenLookup
}

func (o Options) GetAuthScheme() string {
	if o.AuthScheme == "" {
		return "Bearer"
	}
	return o.AuthScheme
}

func (o Options) GetIssuer() string { return o.Issuer }

func (o Options) GetAudience() []string { return o.Audience }

func (o Options) GetSingleUseTokenTTL() time.Duration {
	if o.SingleUseTokenTTL <= 0 {
		return DefaultSingleUseTokenTTL
	}
	return o.SingleUseTokenTTL
}

func (o Options) GetLockoutThreshold() int {
	if o.LockoutThreshold <= 0 {
		return DefaultLockoutThreshold
	}
	return o.LockoutThreshold
}

func (o Options) GetLockoutDuration() time.Duration {
	if o.LockoutDuration <= 0 {
		return DefaultLockoutDuration
	}
	return o.LockoutDuration
}

func (o Options) GetBcryptCost() int {
	if o.BcryptCost <= 0 {
		return DefaultBcryptCost
	}
	return o.BcryptCost
}

func (o Options) GetClientURL() string { return o.ClientURL }

// Validate checks the options that have no workable default.
func (o Options) Validate() error {
	if o.SigningKey == "" {
		return goerrors.New("missing signing key", goerrors.CategoryValidation).
			WithCode(goerrors.CodeBadRequest)
	}
	return nil
}

var _ Config = Options{}
