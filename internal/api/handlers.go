// Storegate - Storefront Edge API Gateway
// Copyright 2026 M. Walcott (mwalcott)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mwalcott/storegate

// Package api routes HTTP requests and owns the gateway's response
// surface: per-resource read handlers behind the conditional cache, the
// image redirect and upload endpoints, and health/metrics.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mwalcott/storegate/internal/auth"
	"github.com/mwalcott/storegate/internal/blob"
	"github.com/mwalcott/storegate/internal/images"
	"github.com/mwalcott/storegate/internal/store"
)

// Handler bundles the collaborators the route handlers need. One handler
// instance serves all requests; everything it holds is safe for
// concurrent use.
type Handler struct {
	store    store.Client
	blobs    *blob.Store
	canon    *images.Canonicalizer
	resolver *images.Resolver
	cache    *ConditionalCache

	maxUploadBytes int64
}

// NewHandler creates the route handler set.
func NewHandler(st store.Client, blobs *blob.Store, canon *images.Canonicalizer, resolver *images.Resolver, cc *ConditionalCache, maxUploadBytes int64) *Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = 20 << 20
	}
	return &Handler{
		store:          st,
		blobs:          blobs,
		canon:          canon,
		resolver:       resolver,
		cache:          cc,
		maxUploadBytes: maxUploadBytes,
	}
}

// scopeFrom derives the store query scope from the resolved identity.
// Only a trusted identity widens the scope to its own unpublished rows;
// a bare user-id header is personalization, not authority.
func scopeFrom(r *http.Request) store.Scope {
	id := auth.IdentityFromContext(r.Context())
	if id.Trusted && id.UserID != "" {
		return store.Scope{OwnerID: id.UserID, IncludeUnpublished: true}
	}
	return store.Scope{}
}

// ListProducts handles GET /api/v1/products.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	h.cache.Serve(w, r, "products", func() (interface{}, error) {
		return h.store.ListProducts(r.Context(), scopeFrom(r))
	})
}

// GetProduct handles GET /api/v1/products/{id}.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	h.cache.Serve(w, r, "products/"+id, func() (interface{}, error) {
		return h.store.GetProduct(r.Context(), scopeFrom(r), id)
	})
}

// ListCollections handles GET /api/v1/collections.
func (h *Handler) ListCollections(w http.ResponseWriter, r *http.Request) {
	h.cache.Serve(w, r, "collections", func() (interface{}, error) {
		return h.store.ListCollections(r.Context(), scopeFrom(r))
	})
}

// GetCollection handles GET /api/v1/collections/{id}.
func (h *Handler) GetCollection(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	h.cache.Serve(w, r, "collections/"+id, func() (interface{}, error) {
		return h.store.GetCollection(r.Context(), scopeFrom(r), id)
	})
}

// ListRecipes handles GET /api/v1/recipes.
func (h *Handler) ListRecipes(w http.ResponseWriter, r *http.Request) {
	h.cache.Serve(w, r, "recipes", func() (interface{}, error) {
		return h.store.ListRecipes(r.Context(), scopeFrom(r))
	})
}

// GetRecipe handles GET /api/v1/recipes/{id}.
func (h *Handler) GetRecipe(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	h.cache.Serve(w, r, "recipes/"+id, func() (interface{}, error) {
		return h.store.GetRecipe(r.Context(), scopeFrom(r), id)
	})
}

// ListTags handles GET /api/v1/tags.
func (h *Handler) ListTags(w http.ResponseWriter, r *http.Request) {
	h.cache.Serve(w, r, "tags", func() (interface{}, error) {
		return h.store.ListTags(r.Context())
	})
}

// GetSettings handles GET /api/v1/settings.
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	h.cache.Serve(w, r, "settings", func() (interface{}, error) {
		return h.store.GetSettings(r.Context())
	})
}
