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

func seedPendingVerification(t *testing.T, repo *fakeRepoManager, expires time.Time) (*expense.User, string) {
	t.Helper()

	user := makeTestUser(t, "peperone@example.com", "secret-password")
	token, err := expense.GenerateSingleUseToken()
	require.NoError(t, err)
	user.VerifyToken = &token
	user.VerifyExpires = &expires
	repo.users.users[user.ID] = user
	return user, token
}

func TestVerifyEmailHandler(t *testing.T) {
	ctx := context.Background()

	t.Run("verifies the account and consumes the token", func(t *testing.T) {
		repo := newFakeRepoManager()
		user, token := seedPendingVerification(t, repo, time.Now().Add(time.Hour))

		handler := expense.NewVerifyEmailHandler(repo)

		var resp *expense.VerifyEmailResponse
		err := handler.Execute(ctx, expense.VerifyEmailMessage{
			Token: token,
			OnResponse: func(r *expense.VerifyEmailResponse) {
				resp = r
			},
		})
		require.NoError(t, err)
		require.NotNil(t, resp)
		assert.True(t, resp.Success)
		assert.True(t, resp.User.EmailValidated)

		assert.True(t, user.EmailValidated)
		assert.Nil(t, user.VerifyToken)
		assert.Nil(t, user.VerifyExpires)
	})

	t.Run("replaying the consumed token fails", func(t *testing.T) {
		repo := newFakeRepoManager()
		_, token := seedPendingVerification(t, repo, time.Now().Add(time.Hour))

		handler := expense.NewVerifyEmailHandler(repo)
		require.NoError(t, handler.Execute(ctx, expense.VerifyEmailMessage{Token: token}))

		err := handler.Execute(ctx, expense.VerifyEmailMessage{Token: token})
		assert.ErrorIs(t, err, expense.ErrInvalidOrExpiredToken)
	})

	t.Run("expired token is rejected", func(t *testing.T) {
		repo := newFakeRepoManager()
		user, token := seedPendingVerification(t, repo, time.Now().Add(-time.Minute))

		handler := expense.NewVerifyEmailHandler(repo)
		err := handler.Execute(ctx, expense.VerifyEmailMessage{Token: token})
		assert.ErrorIs(t, err, expense.ErrInvalidOrExpiredToken)
		assert.False(t, user.EmailValidated)
	})

	t.Run("unknown token is rejected", func(t *testing.T) {
		repo := newFakeRepoManager()
		handler := expense.NewVerifyEmailHandler(repo)

		err := handler.Execute(ctx, expense.VerifyEmailMessage{Token: uuid.NewString()})
		assert.ErrorIs(t, err, expense.ErrInvalidOrExpiredToken)
	})
}

func TestResendVerificationHandler(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()

	t.Run("issues a fresh token and resends the mail", func(t *testing.T) {
		repo := newFakeRepoManager()
		mailer := &recordingMailer{}
		user, old := seedPendingVerification(t, repo, time.Now().Add(time.Hour))

		handler := expense.NewResendVerificationHandler(repo, mailer, cfg)

		var resp *expense.ResendVerificationResponse
		err := handler.Execute(ctx, expense.ResendVerificationMessage{
			UserID: user.ID,
			OnResponse: func(r *expense.ResendVerificationResponse) {
				resp = r
			},
		})
		require.NoError(t, err)
		require.NotNil(t, resp)
		assert.True(t, resp.Success)

		require.NotNil(t, user.VerifyToken)
		assert.NotEqual(t, old, *user.VerifyToken)

		sends := mailer.sent()
		require.Len(t, sends, 1)
		assert.Equal(t, "account_verification", sends[0].Template)
		assert.Contains(t, sends[0].Vars["link"], *user.VerifyToken)
	})

	t.Run("already verified account is rejected", func(t *testing.T) {
		repo := newFakeRepoManager()
		user := makeTestUser(t, "peperone@example.com", "secret-password")
		user.EmailValidated = true
		repo.users.users[user.ID] = user

		handler := expense.NewResendVerificationHandler(repo, &recordingMailer{}, cfg)
		err := handler.Execute(ctx, expense.ResendVerificationMessage{UserID: user.ID})
		assert.ErrorIs(t, err, expense.ErrAlreadyVerified)
	})

	t.Run("missing identity is unauthenticated", func(t *testing.T) {
		repo := newFakeRepoManager()
		handler := expense.NewResendVerificationHandler(repo, &recordingMailer{}, cfg)

		err := handler.Execute(ctx, expense.ResendVerificationMessage{})
		assert.ErrorIs(t, err, expense.ErrUnauthenticated)
	})

	t.Run("unknown account is unauthenticated", func(t *testing.T) {
		repo := newFakeRepoManager()
		handler := expense.NewResendVerificationHandler(repo, &recordingMailer{}, cfg)

		err := handler.Execute(ctx, expense.ResendVerificationMessage{UserID: uuid.New()})
		assert.ErrorIs(t, err, expense.ErrUnauthenticated)
	})
}
