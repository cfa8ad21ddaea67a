package auth

import (
	"context"

	"github.com/google/uuid"
)

type userIDKey struct{}

func ContextWithUserID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, userIDKey{}, id)
}

func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(userIDKey{}).(uuid.UUID)
	return id, ok
}

// ScopeFromContext returns the ledger scope of the authenticated user.
func ScopeFromContext(ctx context.Context) (string, bool) {
	id, ok := UserIDFromContext(ctx)
	if !ok || id == uuid.Nil {
		return "", false
	}
	return id.String(), true
}
