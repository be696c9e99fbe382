// Storegate - Storefront Edge API Gateway
// Copyright 2026 M. Walcott (mwalcott)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mwalcott/storegate

package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/mwalcott/storegate/internal/auth"
	"github.com/mwalcott/storegate/internal/blob"
	"github.com/mwalcott/storegate/internal/cache"
	"github.com/mwalcott/storegate/internal/images"
	"github.com/mwalcott/storegate/internal/models"
	"github.com/mwalcott/storegate/internal/store"
)

// fakeStore is a function-field test double for the content store.
type fakeStore struct {
	listProducts    func(ctx context.Context, scope store.Scope) (*models.ProductList, error)
	getProduct      func(ctx context.Context, scope store.Scope, id string) (*models.Product, error)
	listCollections func(ctx context.Context, scope store.Scope) (*models.CollectionList, error)
	getCollection   func(ctx context.Context, scope store.Scope, id string) (*models.Collection, error)
	listRecipes     func(ctx context.Context, scope store.Scope) (*models.RecipeList, error)
	getRecipe       func(ctx context.Context, scope store.Scope, id string) (*models.Recipe, error)
	listTags        func(ctx context.Context) (*models.TagList, error)
	getSettings     func(ctx context.Context) (*models.Settings, error)
	ping            func(ctx context.Context) error
}

func (f *fakeStore) ListProducts(ctx context.Context, scope store.Scope) (*models.ProductList, error) {
	if f.listProducts == nil {
		return &models.ProductList{Products: []models.Product{}}, nil
	}
	return f.listProducts(ctx, scope)
}

func (f *fakeStore) GetProduct(ctx context.Context, scope store.Scope, id string) (*models.Product, error) {
	if f.getProduct == nil {
		return nil, store.ErrNotFound
	}
	return f.getProduct(ctx, scope, id)
}

func (f *fakeStore) ListCollections(ctx context.Context, scope store.Scope) (*models.CollectionList, error) {
	if f.listCollections == nil {
		return &models.CollectionList{Collections: []models.Collection{}}, nil
	}
	return f.listCollections(ctx, scope)
}

func (f *fakeStore) GetCollection(ctx context.Context, scope store.Scope, id string) (*models.Collection, error) {
	if f.getCollection == nil {
		return nil, store.ErrNotFound
	}
	return f.getCollection(ctx, scope, id)
}

func (f *fakeStore) ListRecipes(ctx context.Context, scope store.Scope) (*models.RecipeList, error) {
	if f.listRecipes == nil {
		return &models.RecipeList{Recipes: []models.Recipe{}}, nil
	}
	return f.listRecipes(ctx, scope)
}

func (f *fakeStore) GetRecipe(ctx context.Context, scope store.Scope, id string) (*models.Recipe, error) {
	if f.getRecipe == nil {
		return nil, store.ErrNotFound
	}
	return f.getRecipe(ctx, scope, id)
}

func (f *fakeStore) ListTags(ctx context.Context) (*models.TagList, error) {
	if f.listTags == nil {
		return &models.TagList{Tags: []models.Tag{}}, nil
	}
	return f.listTags(ctx)
}

func (f *fakeStore) GetSettings(ctx context.Context) (*models.Settings, error) {
	if f.getSettings == nil {
		return &models.Settings{}, nil
	}
	return f.getSettings(ctx)
}

func (f *fakeStore) Ping(ctx context.Context) error {
	if f.ping == nil {
		return nil
	}
	return f.ping(ctx)
}

var _ store.Client = (*fakeStore)(nil)

// newTestRouter wires a full router around a fake store and a real blob
// store in a temp dir.
func newTestRouter(t *testing.T, fs *fakeStore) http.Handler {
	t.Helper()

	blobs, err := blob.Open(t.TempDir())
	if err != nil {
		t.Fatalf("failed to open blob store: %v", err)
	}
	t.Cleanup(func() { blobs.Close() })

	canon := images.NewCanonicalizer("transform", "media")
	resolver := images.NewResolver("https://assets.example.com", "https://img.example.com", "transform", 80)
	cc := NewConditionalCache(cache.NewLRU(128, time.Minute), 60*time.Second, 300*time.Second)

	handler := NewHandler(fs, blobs, canon, resolver, cc, 1<<20)
	authResolver := auth.NewResolver(nil, "secret-key", "access_token")
	mw := NewChiMiddleware(MiddlewareConfig{
		CORSOrigins:       []string{"https://shop.example.com", "https://*.example.org"},
		RateLimitDisabled: true,
	})

	return NewRouter(handler, authResolver, mw).Setup()
}

func decodeEnvelope(t *testing.T, body []byte) models.APIResponse {
	t.Helper()
	var resp models.APIResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("failed to decode envelope: %v (%s)", err, body)
	}
	return resp
}

func TestListProductsEndpoint(t *testing.T) {
	fs := &fakeStore{
		listProducts: func(ctx context.Context, scope store.Scope) (*models.ProductList, error) {
			return &models.ProductList{
				Products: []models.Product{{ID: "p1", Name: "Mug", Published: true}},
				Total:    1,
			}, nil
		},
	}
	router := newTestRouter(t, fs)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/products", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	resp := decodeEnvelope(t, rec.Body.Bytes())
	if resp.Status != "success" {
		t.Errorf("expected success status, got %q", resp.Status)
	}
	if rec.Header().Get("ETag") == "" {
		t.Error("expected ETag on read endpoint")
	}
	if !strings.Contains(rec.Header().Get("Cache-Control"), "stale-while-revalidate=300") {
		t.Errorf("unexpected Cache-Control %q", rec.Header().Get("Cache-Control"))
	}
}

func TestGetProductNotFound(t *testing.T) {
	router := newTestRouter(t, &fakeStore{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/products/nope", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	resp := decodeEnvelope(t, rec.Body.Bytes())
	if resp.Error == nil || resp.Error.Code != models.ErrCodeNotFound {
		t.Errorf("expected NOT_FOUND error, got %+v", resp.Error)
	}
}

func TestTrustedIdentityWidensScope(t *testing.T) {
	var seenScope store.Scope
	fs := &fakeStore{
		listProducts: func(ctx context.Context, scope store.Scope) (*models.ProductList, error) {
			seenScope = scope
			return &models.ProductList{Products: []models.Product{}}, nil
		},
	}
	router := newTestRouter(t, fs)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
	req.Header.Set(auth.InternalKeyHeader, "secret-key")
	req.Header.Set(auth.UserIDHeader, "user-1")
	router.ServeHTTP(httptest.NewRecorder(), req)

	if seenScope.OwnerID != "user-1" || !seenScope.IncludeUnpublished {
		t.Errorf("expected widened scope for trusted caller, got %+v", seenScope)
	}
}

func TestUntrustedHeaderDoesNotWidenScope(t *testing.T) {
	var seenScope store.Scope
	fs := &fakeStore{
		listProducts: func(ctx context.Context, scope store.Scope) (*models.ProductList, error) {
			seenScope = scope
			return &models.ProductList{Products: []models.Product{}}, nil
		},
	}
	router := newTestRouter(t, fs)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
	req.Header.Set(auth.UserIDHeader, "user-1")
	router.ServeHTTP(httptest.NewRecorder(), req)

	if seenScope.OwnerID != "" || seenScope.IncludeUnpublished {
		t.Errorf("bare user-id header must not widen scope, got %+v", seenScope)
	}
}

func TestConditionalGetThroughRouter(t *testing.T) {
	calls := 0
	fs := &fakeStore{
		listTags: func(ctx context.Context) (*models.TagList, error) {
			calls++
			return &models.TagList{Tags: []models.Tag{{ID: "t1", Name: "ceramics"}}, Total: 1}, nil
		},
	}
	router := newTestRouter(t, fs)

	first := httptest.NewRecorder()
	router.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/api/v1/tags", nil))
	etag := first.Header().Get("ETag")
	if etag == "" {
		t.Fatal("expected ETag")
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tags", nil)
	req.Header.Set("If-None-Match", etag)
	second := httptest.NewRecorder()
	router.ServeHTTP(second, req)

	if second.Code != http.StatusNotModified {
		t.Fatalf("expected 304, got %d", second.Code)
	}
	if calls != 1 {
		t.Errorf("expected store hit only on first request, got %d", calls)
	}
}

func TestHealthEndpoints(t *testing.T) {
	router := newTestRouter(t, &fakeStore{})

	live := httptest.NewRecorder()
	router.ServeHTTP(live, httptest.NewRequest(http.MethodGet, "/api/v1/health/live", nil))
	if live.Code != http.StatusOK {
		t.Errorf("expected live 200, got %d", live.Code)
	}

	ready := httptest.NewRecorder()
	router.ServeHTTP(ready, httptest.NewRequest(http.MethodGet, "/api/v1/health/ready", nil))
	if ready.Code != http.StatusOK {
		t.Errorf("expected ready 200, got %d", ready.Code)
	}
}

func TestHealthReadyStoreDown(t *testing.T) {
	fs := &fakeStore{ping: func(ctx context.Context) error { return store.ErrUnavailable }}
	router := newTestRouter(t, fs)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health/ready", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 when store is down, got %d", rec.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	router := newTestRouter(t, &fakeStore{})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/products", nil)
	req.Header.Set("Origin", "https://shop.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	req.Header.Set("Access-Control-Request-Headers", "If-None-Match")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://shop.example.com" {
		t.Errorf("expected origin allowed, got %q", got)
	}
	if !strings.Contains(rec.Header().Get("Access-Control-Allow-Headers"), "If-None-Match") {
		t.Errorf("expected If-None-Match allowed, got %q", rec.Header().Get("Access-Control-Allow-Headers"))
	}
}

func TestCORSWildcardSubdomain(t *testing.T) {
	router := newTestRouter(t, &fakeStore{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
	req.Header.Set("Origin", "https://admin.example.org")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://admin.example.org" {
		t.Errorf("expected wildcard subdomain allowed, got %q", got)
	}
	if !strings.Contains(rec.Header().Get("Access-Control-Expose-Headers"), "ETag") {
		t.Errorf("expected ETag exposed, got %q", rec.Header().Get("Access-Control-Expose-Headers"))
	}
}

func TestCORSDisallowedOrigin(t *testing.T) {
	router := newTestRouter(t, &fakeStore{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
	req.Header.Set("Origin", "https://evil.example.net")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("expected disallowed origin to get no allow header, got %q", got)
	}
}
