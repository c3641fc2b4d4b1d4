package auth

import (
	"context"
	"errors"
)

type ctxKey int

const (
	ctxSubject ctxKey = iota
	ctxRole
	ctxRoom
)

func WithIdentity(ctx context.Context, subject, role, room string) context.Context {
	ctx = context.WithValue(ctx, ctxSubject, subject)
	ctx = context.WithValue(ctx, ctxRole, role)
	ctx = context.WithValue(ctx, ctxRoom, room)
	return ctx
}

func Subject(ctx context.Context) (string, error) {
	if s, ok := ctx.Value(ctxSubject).(string); ok && s != "" {
		return s, nil
	}
	return "", errors.New("subject not in context")
}

func Role(ctx context.Context) (string, error) {
	if s, ok := ctx.Value(ctxRole).(string); ok && s != "" {
		return s, nil
	}
	return "", errors.New("role not in context")
}

// Room returns the room the token is scoped to; empty means any room.
func Room(ctx context.Context) string {
	s, _ := ctx.Value(ctxRoom).(string)
	return s
}
