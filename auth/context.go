// This file provides utilities for carrying the request's identity through
// the context.Context. The session middleware resolves the identity once;
// handlers read it from the context instead of re-parsing the cookie.
package auth

import (
	"context"
)

// contextKey is a private type for context keys, preventing collisions with
// keys defined in other packages.
type contextKey string

const identityContextKey contextKey = "identity"

// NewContextWithIdentity returns a child context carrying the identity.
func NewContextWithIdentity(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, identity)
}

// IdentityFromContext extracts the Identity stored by the session middleware.
// The second return value reports whether an identity was present.
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	identity, ok := ctx.Value(identityContextKey).(*Identity)
	return identity, ok
}

// UserFromContext returns the authenticated user, or false when the request
// has no session or an anonymous one.
func UserFromContext(ctx context.Context) (*User, bool) {
	identity, ok := IdentityFromContext(ctx)
	if !ok || identity.User == nil {
		return nil, false
	}
	return identity.User, true
}
