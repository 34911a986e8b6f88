package httpserver

import (
	"context"
)

type ctxKey string

const roleKey ctxKey = "sk.role"

// WithRole stores the authenticated key role in context.
func WithRole(ctx context.Context, role string) context.Context {
	return context.WithValue(ctx, roleKey, role)
}

// RoleFromCtx fetches the key role from context.
func RoleFromCtx(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(roleKey).(string)
	return v, ok && v != ""
}
