package expense_test

import (
	"errors"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	expense "github.com/goliatone/go-expense"
	"github.com/stretchr/testify/assert"
)

func TestErrorCategories(t *testing.T) {
	cases := []struct {
		name     string
		err      *goerrors.Error
		category goerrors.Category
		textCode string
	}{
		{"invalid credentials", expense.ErrInvalidCredentials, goerrors.CategoryAuth, expense.TextCodeInvalidCreds},
		{"account locked", expense.ErrAccountLocked, goerrors.CategoryRateLimit, expense.TextCodeAccountLocked},
		{"account exists", expense.ErrAccountExists, goerrors.CategoryConflict, expense.TextCodeAccountExists},
		{"invalid or expired token", expense.ErrInvalidOrExpiredToken, goerrors.CategoryValidation, expense.TextCodeTokenInvalid},
		{"already verified", expense.ErrAlreadyVerified, goerrors.CategoryConflict, expense.TextCodeAlreadyVerified},
		{"unauthenticated", expense.ErrUnauthenticated, goerrors.CategoryAuth, expense.TextCodeUnauthenticated},
		{"forbidden", expense.ErrForbidden, goerrors.CategoryAuthz, expense.TextCodeForbidden},
		{"not found", expense.ErrNotFound, goerrors.CategoryNotFound, expense.TextCodeNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.category, tc.err.Category)
			assert.Equal(t, tc.textCode, tc.err.TextCode)
		})
	}
}

func TestIsTokenExpiredError(t *testing.T) {
	assert.True(t, expense.IsTokenExpiredError(expense.ErrTokenExpired))
	assert.True(t, expense.IsTokenExpiredError(errors.New("token is expired by 1h")))
	assert.False(t, expense.IsTokenExpiredError(expense.ErrTokenMalformed))
	assert.False(t, expense.IsTokenExpiredError(nil))
}

func TestIsMalformedError(t *testing.T) {
	assert.True(t, expense.IsMalformedError(expense.ErrTokenMalformed))
	assert.True(t, expense.IsMalformedError(errors.New("missing or malformed JWT")))
	assert.False(t, expense.IsMalformedError(expense.ErrTokenExpired))
	assert.False(t, expense.IsMalformedError(nil))
}
