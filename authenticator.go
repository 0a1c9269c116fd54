package expense

import (
	"context"
	"time"

	"github.com/goliatone/go-repository-bun"
)

// CredentialStore is the slice of the Users repository the
// authenticator needs. Users satisfies it.
type CredentialStore interface {
	LockoutStore

	GetByEmail(ctx context.Context, email string, criteria ...repository.SelectCriteria) (*User, error)
	GetByID(ctx context.Context, id string, criteria ...repository.SelectCriteria) (*User, error)
}

// Auther authenticates credentials and turns them into sessions. The
// brute force policy is delegated to the LockoutMachine, credential
// storage to the Users repository.
type Auther struct {
	store        CredentialStore
	lockout      *LockoutMachine
	tokenService TokenService
	bcryptCost   int
	logger       Logger
}

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(store CredentialStore, opts Config) *Auther {
	tokenService := NewTokenService(
		[]byte(opts.GetSigningKey()),
		opts.GetTokenExpiration(),
		opts.GetIssuer(),
		opts.GetAudience(),
		defLogger{},
	)

	lockout := NewLockoutMachine(store).
		WithPolicy(opts.GetLockoutThreshold(), opts.GetLockoutDuration())

	return &Auther{
		store:        store,
		lockout:      lockout,
		tokenService: tokenService,
		bcryptCost:   opts.GetBcryptCost(),
		logger:       defLogger{},
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	if logger != nil {
		s.logger = logger
		s.lockout = s.lockout.WithLogger(logger)
	}
	return s
}

// WithTokenService replaces the default token service.
func (s *Auther) WithTokenService(ts TokenService) *Auther {
	if ts != nil {
		s.tokenService = ts
	}
	return s
}

// WithClock injects a custom clock into the lockout machine.
func (s *Auther) WithClock(clock func() time.Time) *Auther {
	s.lockout = s.lockout.WithClock(clock)
	return s
}

// TokenService returns the TokenService instance used by this Authenticator
func (s *Auther) TokenService() TokenService {
	return s.tokenService
}

// Lockout returns the lockout machine, mostly for inspection in tests.
func (s *Auther) Lockout() *LockoutMachine {
	return s.lockout
}

// Login verifies the email and password pair and returns a signed
// session token plus the account record. Unknown accounts and bad
// passwords both come back as ErrInvalidCredentials so callers cannot
// probe which emails exist. A locked account fails before the password
// is ever compared.
func (s *Auther) Login(ctx context.Context, email, password string) (string, *User, error) {
	user, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return "", nil, ErrInvalidCredentials
		}
		s.logger.Error("Login lookup error: %v", err)
		return "", nil, err
	}

	if err := s.lockout.Admit(user); err != nil {
		s.logger.Warn("Login rejected, account %s is locked", user.ID.String())
		return "", nil, err
	}

	if err := ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		if ferr := s.lockout.RegisterFailure(ctx, user); ferr != nil {
			s.logger.Error("Login failed to record attempt: %v", ferr)
		}
		return "", nil, ErrInvalidCredentials
	}

	if err := s.lockout.RegisterSuccess(ctx, user); err != nil {
		s.logger.Error("Login failed to clear attempts: %v", err)
		return "", nil, err
	}

	token, _, err := s.tokenService.Issue(user.ID.String())
	if err != nil {
		s.logger.Error("Login token issue error: %v", err)
		return "", nil, err
	}

	return token, user, nil
}

// SessionFromToken verifies a session token. Pure computation, no
// storage round trip.
func (s *Auther) SessionFromToken(raw string) (AuthClaims, error) {
	claims, err := s.tokenService.Validate(raw)
	if err != nil {
		s.logger.Debug("SessionFromToken validation failed: %v", err)
		return nil, err
	}

	return claims, nil
}

// IdentityFromSession loads the account behind verified claims.
func (s *Auther) IdentityFromSession(ctx context.Context, claims AuthClaims) (*User, error) {
	if claims == nil {
		return nil, ErrUnauthenticated
	}

	user, err := s.store.GetByID(ctx, claims.UserID())
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrUnauthenticated
		}
		s.logger.Error("IdentityFromSession lookup error: %v", err)
		return nil, err
	}

	return user, nil
}

var _ Authenticator = (*Auther)(nil)
