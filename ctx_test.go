package expense_test

import (
	"context"
	"testing"

	expense "github.com/goliatone/go-expense"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestIdentityContext(t *testing.T) {
	t.Run("absence reads as anonymous", func(t *testing.T) {
		identity := expense.IdentityFromContext(context.Background())
		assert.False(t, identity.Authenticated)
		assert.Empty(t, identity.Subject)
	})

	t.Run("round trips an identity", func(t *testing.T) {
		want := identityFor(uuid.New())
		ctx := expense.WithIdentity(context.Background(), want)

		got := expense.IdentityFromContext(ctx)
		assert.True(t, got.Authenticated)
		assert.Equal(t, want.Subject, got.Subject)
	})
}
