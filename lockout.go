package expense

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// LockoutState is derived from the persisted {loginAttempts, lockUntil}
// pair, it is never stored itself.
type LockoutState string

const (
	// LockoutOpen means login attempts are evaluated normally.
	LockoutOpen LockoutState = "open"
	// LockoutLocked means any attempt fails with ErrAccountLocked,
	// independent of credential correctness.
	LockoutLocked LockoutState = "locked"
)

// DefaultLockoutThreshold is the failed attempt count that triggers a lock.
const DefaultLockoutThreshold = 5

// DefaultLockoutDuration is how long a triggered lock lasts.
const DefaultLockoutDuration = 15 * time.Minute

// LockoutStore is the slice of the credential store the lockout machine
// needs. IncrementLoginAttempts must be atomic at the storage layer so
// the increment that crosses the threshold is never lost to a
// concurrent attempt.
type LockoutStore interface {
	IncrementLoginAttempts(ctx context.Context, user *User) (int, error)
	SetLockUntil(ctx context.Context, user *User, until time.Time) error
	ResetAttempts(ctx context.Context, user *User, attempts int) error
	TrackSuccessfulLogin(ctx context.Context, user *User) error
}

// LockoutMachine decides admit/deny and the attempt-increment policy for
// login. It keeps no state of its own, everything lives on the account
// record and is read-modify-write per attempt.
type LockoutMachine struct {
	store     LockoutStore
	threshold int
	duration  time.Duration
	logger    Logger
	now       func() time.Time
}

// NewLockoutMachine returns a machine with the reference policy:
// 5 attempts, 15 minute lock.
func NewLockoutMachine(store LockoutStore) *LockoutMachine {
	return &LockoutMachine{
		store:     store,
		threshold: DefaultLockoutThreshold,
		duration:  DefaultLockoutDuration,
		logger:    defLogger{},
		now:       time.Now,
	}
}

// WithPolicy overrides the threshold and lock duration.
func (m *LockoutMachine) WithPolicy(threshold int, duration time.Duration) *LockoutMachine {
	if threshold > 0 {
		m.threshold = threshold
	}
	if duration > 0 {
		m.duration = duration
	}
	return m
}

func (m *LockoutMachine) WithLogger(logger Logger) *LockoutMachine {
	if logger != nil {
		m.logger = logger
	}
	return m
}

// WithClock injects a custom clock (useful for tests).
func (m *LockoutMachine) WithClock(clock func() time.Time) *LockoutMachine {
	if clock != nil {
		m.now = clock
	}
	return m
}

// State derives the current lockout state. A lockUntil in the past is
// treated as open, it is cleared lazily by the next Admit or failure.
func (m *LockoutMachine) State(user *User) LockoutState {
	if user == nil {
		return LockoutOpen
	}
	if user.LockUntil != nil && user.LockUntil.After(m.now()) {
		return LockoutLocked
	}
	return LockoutOpen
}

// Admit gates a login attempt before the credential check. While locked
// it denies without mutating any field.
func (m *LockoutMachine) Admit(user *User) error {
	if m.State(user) == LockoutLocked {
		return ErrAccountLocked.WithMetadata(map[string]any{
			"lock_until": user.LockUntil,
		})
	}
	return nil
}

// RegisterFailure records a credential mismatch. An expired lock resets
// the counter to 1 on this triggering attempt and clears the lock,
// mirroring the legacy behavior. Otherwise the counter is incremented
// atomically and a lock is set when the post-increment count reaches
// the threshold.
func (m *LockoutMachine) RegisterFailure(ctx context.Context, user *User) error {
	now := m.now()

	if user.LockUntil != nil && !user.LockUntil.After(now) {
		if err := m.store.ResetAttempts(ctx, user, 1); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to reset login attempts after lock expiry")
		}
		user.LoginAttempts = 1
		user.LockUntil = nil
		return nil
	}

	attempts, err := m.store.IncrementLoginAttempts(ctx, user)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to track login attempt")
	}
	user.LoginAttempts = attempts

	if attempts >= m.threshold {
		until := now.Add(m.duration)
		if err := m.store.SetLockUntil(ctx, user, until); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to set account lock")
		}
		user.LockUntil = &until
		m.logger.Warn("account %s locked until %s after repeated failed logins", user.ID.String(), until.Format(time.RFC3339))
	}

	return nil
}

// RegisterSuccess clears the counter and lock and stamps lastLogin. This
// is the only success path. A lost update here only affects the
// lastLogin timestamp, which is tolerable.
func (m *LockoutMachine) RegisterSuccess(ctx context.Context, user *User) error {
	if err := m.store.TrackSuccessfulLogin(ctx, user); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to track successful login")
	}
	now := m.now()
	user.LoginAttempts = 0
	user.LockUntil = nil
	user.LastLogin = &now
	return nil
}
