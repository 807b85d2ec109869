package middleware

import (
	"context"

	"github.com/dperea/storefront-backend/pkg/enums"
	"github.com/dperea/storefront-backend/pkg/oid"
)

type contextKey string

const (
	ctxUserID contextKey = "user_id"
	ctxRole   contextKey = "actor_role"
)

// UserIDFromContext returns the authenticated user id, or the zero value.
func UserIDFromContext(ctx context.Context) oid.ID {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxUserID).(oid.ID); ok {
		return v
	}
	return ""
}

// RoleFromContext returns the authenticated role, or the zero value.
func RoleFromContext(ctx context.Context) enums.Role {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRole).(enums.Role); ok {
		return v
	}
	return ""
}

// WithActor injects the authenticated identity into the context.
func WithActor(ctx context.Context, userID oid.ID, role enums.Role) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxUserID, userID)
	return context.WithValue(ctx, ctxRole, role)
}
