package auth

import "context"

type contextKeySessionID struct{}

// WithSessionID injects the browser session key into a context. The web
// middleware does this once per request; the token source reads it back so
// every proxied call authenticates as that browser's session.
func WithSessionID(ctx context.Context, sid string) context.Context {
	return context.WithValue(ctx, contextKeySessionID{}, sid)
}

// SessionIDFrom retrieves the browser session key from the context.
func SessionIDFrom(ctx context.Context) string {
	if sid, ok := ctx.Value(contextKeySessionID{}).(string); ok {
		return sid
	}
	return ""
}
