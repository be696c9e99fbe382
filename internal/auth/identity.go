// Storegate - Storefront Edge API Gateway
// Copyright 2026 M. Walcott (mwalcott)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mwalcott/storegate

// Package auth resolves caller identity across the gateway's trust tiers:
// verified bearer/cookie token, shared internal service key, bare user-id
// header, or nothing. Resolution never fails a request; a tier that cannot
// be proven is skipped and the next one is tried.
package auth

import (
	"context"
	"net/http"
	"strings"
)

// AuthType labels how a request's identity was established.
type AuthType string

const (
	// AuthTypeUserToken means a bearer or cookie token was verified against
	// the identity provider.
	AuthTypeUserToken AuthType = "user_token"

	// AuthTypeInternalKey means the request carried the shared
	// service-to-service secret.
	AuthTypeInternalKey AuthType = "internal_key"

	// AuthTypeNone means no proof of identity was presented.
	AuthTypeNone AuthType = "none"
)

// String returns the string representation of the auth type.
func (t AuthType) String() string {
	return string(t)
}

// Header names the resolver inspects.
const (
	// InternalKeyHeader carries the shared service secret.
	InternalKeyHeader = "X-Internal-Key"

	// UserIDHeader carries a caller-asserted user id. On its own it is
	// never trusted; combined with the internal key it names the acting
	// user for a service call.
	UserIDHeader = "X-User-Id"
)

// RequestIdentity is the per-request resolution result. It is created once
// per request, carried in the request context, and never persisted.
type RequestIdentity struct {
	// UserID is the resolved user id, or empty when anonymous.
	UserID string

	// AuthType records which tier established the identity.
	AuthType AuthType

	// Trusted is true only for verified tokens and the internal key. An
	// untrusted identity may personalize reads but must never authorize
	// writes or widen a read scope.
	Trusted bool
}

// Anonymous is the zero-trust identity used when no tier matches.
var Anonymous = RequestIdentity{AuthType: AuthTypeNone}

type contextKey string

const identityContextKey contextKey = "request-identity"

// ContextWithIdentity returns a context carrying the resolved identity.
func ContextWithIdentity(ctx context.Context, id RequestIdentity) context.Context {
	return context.WithValue(ctx, identityContextKey, id)
}

// IdentityFromContext extracts the resolved identity from the context.
// Returns Anonymous when resolution middleware did not run.
func IdentityFromContext(ctx context.Context) RequestIdentity {
	if id, ok := ctx.Value(identityContextKey).(RequestIdentity); ok {
		return id
	}
	return Anonymous
}

// BearerToken extracts the token from an Authorization: Bearer header.
// Returns empty when the header is absent or uses another scheme.
func BearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if h == "" {
		return ""
	}
	const prefix = "Bearer "
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(h[len(prefix):])
}
