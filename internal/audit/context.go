package audit

import "context"

type refKey struct{}

// WithRef stores the call an audit event should be attributed to.
func WithRef(ctx context.Context, ref CallRef) context.Context {
	return context.WithValue(ctx, refKey{}, ref)
}

func RefFrom(ctx context.Context) (CallRef, bool) {
	ref, ok := ctx.Value(refKey{}).(CallRef)
	return ref, ok && ref.Room != ""
}
