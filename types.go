package expense

import (
	"context"
	"fmt"
	"time"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// TokenService issues and validates stateless session tokens. Validation
// is a pure computation, it never touches storage.
type TokenService interface {
	Issue(subjectID string) (token string, expiresAt time.Time, err error)
	Validate(token string) (AuthClaims, error)
}

// Authenticator holds methods to deal with authentication
type Authenticator interface {
	Login(ctx context.Context, email, password string) (string, *User, error)
	SessionFromToken(token string) (AuthClaims, error)
	IdentityFromSession(ctx context.Context, claims AuthClaims) (*User, error)
}

// Mailer delivers out-of-band notifications. Send failures are logged and
// swallowed by the auth flows, never surfaced to the caller.
type Mailer interface {
	Send(ctx context.Context, to, template string, vars map[string]any) error
}

// Config holds auth options
type Config interface {
	GetSigningKey() string
	GetSigningMethod() string
	GetContextKey() string
	GetTokenExpiration() int
	GetTokenLookup() string
	GetAuthScheme() string
	GetIssuer() string
	GetAudience() []string
	GetSingleUseTokenTTL() time.Duration
	GetLockoutThreshold() int
	GetLockoutDuration() time.Duration
	GetBcryptCost() int
	GetClientURL() string
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] EXPENSE "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] EXPENSE "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] EXPENSE "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] EXPENSE "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
