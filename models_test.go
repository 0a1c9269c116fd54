package expense_test

import (
	"testing"
	"time"

	expense "github.com/goliatone/go-expense"
	"github.com/stretchr/testify/assert"
)

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "peperone@example.com", expense.NormalizeEmail("  PePeRoNe@Example.COM "))
	assert.Equal(t, "", expense.NormalizeEmail("   "))
}

func TestUserDisplayName(t *testing.T) {
	t.Run("joins first and last name", func(t *testing.T) {
		u := &expense.User{FirstName: "Pepe", LastName: "Rone"}
		assert.Equal(t, "Pepe Rone", u.DisplayName())
	})

	t.Run("single name has no stray spaces", func(t *testing.T) {
		u := &expense.User{FirstName: "Pepe"}
		assert.Equal(t, "Pepe", u.DisplayName())
	})

	t.Run("falls back to the email", func(t *testing.T) {
		u := &expense.User{Email: "peperone@example.com"}
		assert.Equal(t, "peperone@example.com", u.DisplayName())
	})
}

func TestUserPendingTokenHelpers(t *testing.T) {
	token := "token"
	expires := time.Now().Add(time.Hour)

	u := &expense.User{}
	assert.False(t, u.HasPendingVerification())
	assert.False(t, u.HasPendingReset())

	u.VerifyToken = &token
	assert.False(t, u.HasPendingVerification())
	u.VerifyExpires = &expires
	assert.True(t, u.HasPendingVerification())

	u.ResetToken = &token
	u.ResetExpires = &expires
	assert.True(t, u.HasPendingReset())
}
