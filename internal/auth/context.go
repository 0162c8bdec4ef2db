package auth

import "context"

type loginContextKey struct{}

// ContextWithLogin attaches the verified login to the context.
func ContextWithLogin(ctx context.Context, login Login) context.Context {
	return context.WithValue(ctx, loginContextKey{}, login)
}

// LoginFromContext extracts the verified login from the context.
func LoginFromContext(ctx context.Context) (Login, bool) {
	if ctx == nil {
		return Login{}, false
	}
	l, ok := ctx.Value(loginContextKey{}).(Login)
	if !ok || l.ID == "" {
		return Login{}, false
	}
	return l, true
}
