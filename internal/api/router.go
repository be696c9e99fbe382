// Storegate - Storefront Edge API Gateway
// Copyright 2026 M. Walcott (mwalcott)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mwalcott/storegate

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mwalcott/storegate/internal/auth"
	"github.com/mwalcott/storegate/internal/middleware"
)

// Router wires handlers, identity resolution and the middleware stack
// into the chi route tree.
type Router struct {
	handler    *Handler
	resolver   *auth.Resolver
	middleware *ChiMiddleware
}

// NewRouter creates the router.
func NewRouter(handler *Handler, resolver *auth.Resolver, mw *ChiMiddleware) *Router {
	return &Router{
		handler:    handler,
		resolver:   resolver,
		middleware: mw,
	}
}

// Setup builds the HTTP handler tree.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global stack, applied to every route in order. CORS sits at the
	// top so OPTIONS preflights never reach rate limiting or identity
	// resolution.
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.middleware.CORS())

	// Health endpoints stay outside rate limiting and identity
	// resolution so probes cannot be starved by traffic.
	r.Route("/api/v1/health", func(r chi.Router) {
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	})

	r.Handle("/metrics", promhttp.Handler())

	// Image redirect: public, no identity needed, cheap enough to sit
	// under the standard rate limit.
	r.Route("/images", func(r chi.Router) {
		r.Use(router.middleware.RateLimit())
		r.Use(middleware.PrometheusMetrics)
		r.Get("/*", router.handler.ImageRedirect)
	})

	// Resource reads: identity resolved (for scoping), never required.
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(router.middleware.RateLimit())
		r.Use(middleware.PrometheusMetrics)
		r.Use(router.resolver.ResolveIdentity)

		r.Get("/products", router.handler.ListProducts)
		r.Get("/products/{id}", router.handler.GetProduct)
		r.Get("/collections", router.handler.ListCollections)
		r.Get("/collections/{id}", router.handler.GetCollection)
		r.Get("/recipes", router.handler.ListRecipes)
		r.Get("/recipes/{id}", router.handler.GetRecipe)
		r.Get("/tags", router.handler.ListTags)
		r.Get("/settings", router.handler.GetSettings)

		// Image bytes and uploads. Writes require a trusted identity.
		r.Get("/images/*", router.handler.ServeImage)
		r.Group(func(r chi.Router) {
			r.Use(router.middleware.RateLimitUploads())
			r.Use(auth.RequireTrusted)
			r.Post("/images", router.handler.Upload)
		})
	})

	return r
}
