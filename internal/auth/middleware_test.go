// Storegate - Storefront Edge API Gateway
// Copyright 2026 M. Walcott (mwalcott)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mwalcott/storegate

package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestResolveIdentityStoresIdentityInContext(t *testing.T) {
	res := NewResolver(nil, "secret-key", "")

	var seen RequestIdentity
	handler := res.ResolveIdentity(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = IdentityFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
	req.Header.Set(InternalKeyHeader, "secret-key")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if seen.AuthType != AuthTypeInternalKey || !seen.Trusted {
		t.Errorf("expected internal-key identity in context, got %+v", seen)
	}
}

func TestRequireTrustedRejectsUntrusted(t *testing.T) {
	called := false
	handler := RequireTrusted(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/images", nil)
	req = req.WithContext(ContextWithIdentity(req.Context(), RequestIdentity{
		UserID:   "user-1",
		AuthType: AuthTypeNone,
		Trusted:  false,
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if called {
		t.Error("handler must not run for untrusted identity")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected JSON error, got Content-Type %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "AUTHENTICATION_ERROR") {
		t.Errorf("expected AUTHENTICATION_ERROR code, got %s", rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"status":"error"`) {
		t.Errorf("expected standard error envelope, got %s", rec.Body.String())
	}
}

func TestRequireTrustedAllowsTrusted(t *testing.T) {
	called := false
	handler := RequireTrusted(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusCreated)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/images", nil)
	req = req.WithContext(ContextWithIdentity(req.Context(), RequestIdentity{
		UserID:   "user-1",
		AuthType: AuthTypeUserToken,
		Trusted:  true,
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if !called {
		t.Error("handler should run for trusted identity")
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
}

func TestRequireTrustedRejectsMissingIdentity(t *testing.T) {
	handler := RequireTrusted(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/images", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without resolution middleware, got %d", rec.Code)
	}
}
