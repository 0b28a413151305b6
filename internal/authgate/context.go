// ABOUTME: Context plumbing for the authenticated session
// ABOUTME: Provides WithSession/FromContext for propagating the session to handlers

package authgate

import (
	"context"

	"github.com/2389/passage-gateway/internal/session"
)

// sessionContextKey is the key type for storing the session in context.Context.
type sessionContextKey struct{}

// WithSession returns a new context with the session attached.
func WithSession(ctx context.Context, sess *session.Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, sess)
}

// FromContext retrieves the session from the context, returning nil if the
// caller is anonymous.
func FromContext(ctx context.Context) *session.Session {
	val := ctx.Value(sessionContextKey{})
	if val == nil {
		return nil
	}
	sess, ok := val.(*session.Session)
	if !ok {
		return nil
	}
	return sess
}
