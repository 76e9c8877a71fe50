package auth

import "context"

type identityContextKey struct{}

// ContextWithIdentity attaches the verified identity to an in-flight
// request's context. The value lives only for the request's lifetime.
func ContextWithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, identity)
}

func IdentityFromContext(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(identityContextKey{}).(Identity)
	return identity, ok
}
