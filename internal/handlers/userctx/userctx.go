package userctx

import (
	"context"
	"slices"

	"github.com/nkiryanov/savingapp/internal/models"
)

type ctxKey string

const userKey ctxKey = "user"

// Create a new context with the authenticated user
func New(ctx context.Context, u models.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// Extract the user from the context
func FromContext(ctx context.Context) (models.User, bool) {
	u, ok := ctx.Value(userKey).(models.User)
	return u, ok
}

// HasRole reports whether the context user has one of the roles
func HasRole(ctx context.Context, roles ...models.Role) bool {
	u, ok := FromContext(ctx)
	return ok && slices.Contains(roles, u.Role)
}
