package auth

import (
	"context"
)

type contextKey string

const CallerKey contextKey = "caller"

// Caller describes who sent a request through the proxy.
type Caller struct {
	RemoteAddr string
	// TokenVerified is true when an access token was required and matched.
	TokenVerified bool
}

func WithCaller(ctx context.Context, caller *Caller) context.Context {
	return context.WithValue(ctx, CallerKey, caller)
}

func GetCallerFromContext(ctx context.Context) (*Caller, bool) {
	caller, ok := ctx.Value(CallerKey).(*Caller)
	return caller, ok
}
