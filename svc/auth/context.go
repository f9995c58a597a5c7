package auth

import "context"

type contextKey struct{}

// WithSession returns a context carrying the session.
func WithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, sess)
}

// SessionFromContext returns the session stored in ctx, or nil when the
// request is unauthenticated.
func SessionFromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(contextKey{}).(*Session)
	return sess
}
