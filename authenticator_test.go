package expense_test

import (
	"context"
	"testing"
	"time"

	expense "github.com/goliatone/go-expense"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeTestUser(t *testing.T, email, password string) *expense.User {
	t.Helper()

	hash, err := expense.HashPassword(password)
	require.NoError(t, err)

	return &expense.User{
		ID:           uuid.New(),
		Email:        expense.NormalizeEmail(email),
		PasswordHash: hash,
	}
}

func TestAuther_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("valid credentials return a session token", func(t *testing.T) {
		user := makeTestUser(t, "peperone@example.com", "secret-password")
		store := newFakeCredentialStore(user)
		auther := expense.NewAuthenticator(store, testConfig())

		token, got, err := auther.Login(ctx, "peperone@example.com", "secret-password")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, user.ID, got.ID)
		require.NotEmpty(t, token)

		claims, err := auther.SessionFromToken(token)
		require.NoError(t, err)
		assert.Equal(t, user.ID.String(), claims.Subject())
	})

	t.Run("email lookup is case insensitive", func(t *testing.T) {
		user := makeTestUser(t, "peperone@example.com", "secret-password")
		store := newFakeCredentialStore(user)
		auther := expense.NewAuthenticator(store, testConfig())

		_, got, err := auther.Login(ctx, "  PePeRoNe@Example.COM ", "secret-password")
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
	})

	t.Run("unknown email reads as invalid credentials", func(t *testing.T) {
		auther := expense.NewAuthenticator(newFakeCredentialStore(), testConfig())

		token, got, err := auther.Login(ctx, "nobody@example.com", "whatever")
		assert.ErrorIs(t, err, expense.ErrInvalidCredentials)
		assert.Nil(t, got)
		assert.Empty(t, token)
	})

	t.Run("wrong password increments the attempt counter", func(t *testing.T) {
		user := makeTestUser(t, "peperone@example.com", "secret-password")
		store := newFakeCredentialStore(user)
		auther := expense.NewAuthenticator(store, testConfig())

		_, _, err := auther.Login(ctx, "peperone@example.com", "not-it")
		assert.ErrorIs(t, err, expense.ErrInvalidCredentials)
		assert.Equal(t, 1, user.LoginAttempts)
	})

	t.Run("fifth failure locks the account", func(t *testing.T) {
		user := makeTestUser(t, "peperone@example.com", "secret-password")
		store := newFakeCredentialStore(user)
		auther := expense.NewAuthenticator(store, testConfig())

		for i := 0; i < expense.DefaultLockoutThreshold; i++ {
			_, _, err := auther.Login(ctx, "peperone@example.com", "not-it")
			assert.ErrorIs(t, err, expense.ErrInvalidCredentials)
		}
		require.NotNil(t, user.LockUntil)

		_, _, err := auther.Login(ctx, "peperone@example.com", "secret-password")
		assert.ErrorIs(t, err, expense.ErrAccountLocked)
	})

	t.Run("lock expires and the triggering failure counts as one", func(t *testing.T) {
		user := makeTestUser(t, "peperone@example.com", "secret-password")
		store := newFakeCredentialStore(user)

		now := time.Now()
		auther := expense.NewAuthenticator(store, testConfig()).
			WithClock(func() time.Time { return now })

		for i := 0; i < expense.DefaultLockoutThreshold; i++ {
			auther.Login(ctx, "peperone@example.com", "not-it")
		}
		require.NotNil(t, user.LockUntil)

		now = now.Add(expense.DefaultLockoutDuration + time.Second)

		_, _, err := auther.Login(ctx, "peperone@example.com", "not-it")
		assert.ErrorIs(t, err, expense.ErrInvalidCredentials)
		assert.Equal(t, 1, user.LoginAttempts)
		assert.Nil(t, user.LockUntil)
	})

	t.Run("success clears the counter and stamps last login", func(t *testing.T) {
		user := makeTestUser(t, "peperone@example.com", "secret-password")
		user.LoginAttempts = 3
		store := newFakeCredentialStore(user)
		auther := expense.NewAuthenticator(store, testConfig())

		_, got, err := auther.Login(ctx, "peperone@example.com", "secret-password")
		require.NoError(t, err)
		assert.Equal(t, 0, got.LoginAttempts)
		assert.NotNil(t, got.LastLogin)
	})
}

func TestAuther_SessionFromToken(t *testing.T) {
	auther := expense.NewAuthenticator(newFakeCredentialStore(), testConfig())

	t.Run("rejects garbage", func(t *testing.T) {
		claims, err := auther.SessionFromToken("garbage")
		assert.Nil(t, claims)
		assert.ErrorIs(t, err, expense.ErrTokenMalformed)
	})
}

func TestAuther_IdentityFromSession(t *testing.T) {
	ctx := context.Background()
	user := makeTestUser(t, "peperone@example.com", "secret-password")
	store := newFakeCredentialStore(user)
	auther := expense.NewAuthenticator(store, testConfig())

	t.Run("nil claims are unauthenticated", func(t *testing.T) {
		got, err := auther.IdentityFromSession(ctx, nil)
		assert.Nil(t, got)
		assert.ErrorIs(t, err, expense.ErrUnauthenticated)
	})

	t.Run("loads the account behind the claims", func(t *testing.T) {
		token, _, err := auther.Login(ctx, "peperone@example.com", "secret-password")
		require.NoError(t, err)

		claims, err := auther.SessionFromToken(token)
		require.NoError(t, err)

		got, err := auther.IdentityFromSession(ctx, claims)
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
	})

	t.Run("deleted account is unauthenticated", func(t *testing.T) {
		other := expense.NewAuthenticator(newFakeCredentialStore(), testConfig())
		token, _, err := auther.Login(ctx, "peperone@example.com", "secret-password")
		require.NoError(t, err)

		claims, err := other.SessionFromToken(token)
		require.NoError(t, err)

		got, err := other.IdentityFromSession(ctx, claims)
		assert.Nil(t, got)
		assert.ErrorIs(t, err, expense.ErrUnauthenticated)
	})
}
