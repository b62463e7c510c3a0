package auth

import (
	"context"
	"errors"
)

type ctxKey int

const (
	ctxIdentity ctxKey = iota
)

// WithIdentity threads the resolved claims through the request context.
func WithIdentity(ctx context.Context, claims Claims) context.Context {
	return context.WithValue(ctx, ctxIdentity, claims)
}

// IdentityFrom returns the claims stored by WithIdentity, if any.
func IdentityFrom(ctx context.Context) (Claims, bool) {
	c, ok := ctx.Value(ctxIdentity).(Claims)
	if !ok || c.UserID == "" {
		return Claims{}, false
	}
	return c, true
}

func UserID(ctx context.Context) (string, error) {
	if c, ok := IdentityFrom(ctx); ok {
		return c.UserID, nil
	}
	return "", errors.New("user id not in context")
}

func RoleFrom(ctx context.Context) (Role, error) {
	if c, ok := IdentityFrom(ctx); ok && c.Role != "" {
		return c.Role, nil
	}
	return "", errors.New("role not in context")
}
