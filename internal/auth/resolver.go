// Storegate - Storefront Edge API Gateway
// Copyright 2026 M. Walcott (mwalcott)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mwalcott/storegate

package auth

import (
	"crypto/subtle"
	"net/http"
)

// Resolver orders the trust tiers into a single RequestIdentity.
//
// Tier order, first match wins:
//  1. bearer/cookie token verified against the identity provider
//  2. shared internal service key
//  3. bare caller-supplied user-id header (untrusted)
//  4. anonymous
type Resolver struct {
	verifier    *TokenVerifier
	internalKey string
	cookieName  string
}

// NewResolver creates a resolver. An empty internalKey disables the
// internal-key tier entirely.
func NewResolver(verifier *TokenVerifier, internalKey, cookieName string) *Resolver {
	if cookieName == "" {
		cookieName = "access_token"
	}
	return &Resolver{
		verifier:    verifier,
		internalKey: internalKey,
		cookieName:  cookieName,
	}
}

// Resolve determines the request identity. It never fails: an unverifiable
// tier is skipped, and a provider outage downgrades rather than erroring.
func (r *Resolver) Resolve(req *http.Request) RequestIdentity {
	// Tier 1: verified user token.
	if token := r.requestToken(req); token != "" && r.verifier != nil {
		if userID := r.verifier.Verify(req.Context(), token); userID != "" {
			return RequestIdentity{
				UserID:   userID,
				AuthType: AuthTypeUserToken,
				Trusted:  true,
			}
		}
	}

	// Tier 2: shared internal service key. The acting user, if any, is
	// whatever the calling service asserts in the user-id header. An
	// explicit user field in a request payload outranks the header, but
	// the body cannot be consumed here; handlers that parse one apply
	// that precedence themselves (see the upload handler).
	if r.internalKey != "" {
		supplied := req.Header.Get(InternalKeyHeader)
		if supplied != "" && subtle.ConstantTimeCompare([]byte(supplied), []byte(r.internalKey)) == 1 {
			return RequestIdentity{
				UserID:   req.Header.Get(UserIDHeader),
				AuthType: AuthTypeInternalKey,
				Trusted:  true,
			}
		}
	}

	// Tier 3: bare user-id header. Personalization only, never trusted.
	if userID := req.Header.Get(UserIDHeader); userID != "" {
		return RequestIdentity{
			UserID:   userID,
			AuthType: AuthTypeNone,
			Trusted:  false,
		}
	}

	return Anonymous
}

// requestToken finds a bearer token in the Authorization header, falling
// back to the access-token cookie.
func (r *Resolver) requestToken(req *http.Request) string {
	if token := BearerToken(req); token != "" {
		return token
	}
	if c, err := req.Cookie(r.cookieName); err == nil && c.Value != "" {
		return c.Value
	}
	return ""
}
