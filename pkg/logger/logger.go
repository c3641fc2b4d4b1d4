package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// New returns a JSON logger writing to stdout. Debug level for local and dev.
func New(appEnv string) *slog.Logger {
	return NewWithWriter(appEnv, os.Stdout)
}

func NewWithWriter(appEnv string, w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if appEnv == "local" || appEnv == "dev" {
		level = slog.LevelDebug
	}

	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(h).With("service", "call-agent")
}

type ctxKey struct{}

// With stores a logger in context.
func With(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// From gets a logger from context, falling back to slog.Default().
func From(ctx context.Context) *slog.Logger {
	if v := ctx.Value(ctxKey{}); v != nil {
		if l, ok := v.(*slog.Logger); ok && l != nil {
			return l
		}
	}
	return slog.Default()
}

// CallAttrs identifies one call in every log line emitted on its behalf.
type CallAttrs struct {
	Room      string
	CallLogID string
	LeadID    string
	Outbound  bool
}

// WithCall derives a call-scoped logger and stores it in ctx.
func WithCall(ctx context.Context, a CallAttrs) (context.Context, *slog.Logger) {
	l := From(ctx).With(
		"room", a.Room,
		"call_log_id", a.CallLogID,
		"lead_id", a.LeadID,
		"outbound", a.Outbound,
	)
	return With(ctx, l), l
}
