// Storegate - Storefront Edge API Gateway
// Copyright 2026 M. Walcott (mwalcott)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mwalcott/storegate

package auth

import (
	"net/http"

	"github.com/goccy/go-json"

	"github.com/mwalcott/storegate/internal/logging"
	"github.com/mwalcott/storegate/internal/models"
)

// ResolveIdentity is middleware that resolves the caller's trust tier once
// per request and stores the result in the request context. It never
// rejects a request; enforcement belongs to RequireTrusted or the handler.
func (r *Resolver) ResolveIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		id := r.Resolve(req)

		logging.Ctx(req.Context()).Debug().
			Str("auth_type", id.AuthType.String()).
			Bool("trusted", id.Trusted).
			Msg("Resolved request identity")

		next.ServeHTTP(w, req.WithContext(ContextWithIdentity(req.Context(), id)))
	})
}

// RequireTrusted is middleware that rejects requests whose identity did not
// come from a verified token or the internal key. Used on write endpoints;
// reads stay open and scope themselves by the resolved identity instead.
func RequireTrusted(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := IdentityFromContext(r.Context())
		if !id.Trusted {
			logging.Ctx(r.Context()).Warn().
				Str("path", r.URL.Path).
				Str("auth_type", id.AuthType.String()).
				Msg("Rejected untrusted request")
			writeAuthError(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeAuthError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)

	resp := models.NewErrorResponse(models.ErrCodeAuthentication, "authentication required", nil)
	if err := json.NewEncoder(w).Encode(&resp); err != nil {
		logging.Error().Err(err).Msg("Failed to write auth error response")
	}
}
