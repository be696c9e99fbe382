// Storegate - Storefront Edge API Gateway
// Copyright 2026 M. Walcott (mwalcott)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mwalcott/storegate

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
)

// MiddlewareConfig configures the router's CORS and rate limiting.
type MiddlewareConfig struct {
	// CORSOrigins is the allow-list: exact origins, wildcard-subdomain
	// patterns like https://*.example.com, or "*".
	CORSOrigins []string

	RateLimitRequests int
	RateLimitWindow   time.Duration
	RateLimitDisabled bool
}

// ChiMiddleware builds the chi-compatible middleware stack from config.
type ChiMiddleware struct {
	config MiddlewareConfig
	cors   func(http.Handler) http.Handler
}

// NewChiMiddleware creates the middleware set.
func NewChiMiddleware(config MiddlewareConfig) *ChiMiddleware {
	if len(config.CORSOrigins) == 0 {
		config.CORSOrigins = []string{"*"}
	}
	if config.RateLimitRequests <= 0 {
		config.RateLimitRequests = 300
	}
	if config.RateLimitWindow <= 0 {
		config.RateLimitWindow = time.Minute
	}

	corsHandler := cors.Handler(cors.Options{
		AllowedOrigins: config.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "If-None-Match", "Authorization", "X-Internal-Key", "X-User-Id"},
		ExposedHeaders: []string{"ETag", "X-Request-ID"},
		MaxAge:         300,
	})

	return &ChiMiddleware{
		config: config,
		cors:   corsHandler,
	}
}

// CORS returns the preflight/allow-list middleware. Must be global so
// OPTIONS requests are answered on every route.
func (m *ChiMiddleware) CORS() func(http.Handler) http.Handler {
	return m.cors
}

// RateLimit returns per-IP rate limiting for the API routes.
func (m *ChiMiddleware) RateLimit() func(http.Handler) http.Handler {
	if m.config.RateLimitDisabled {
		return passthrough
	}
	return httprate.Limit(
		m.config.RateLimitRequests,
		m.config.RateLimitWindow,
		httprate.WithKeyFuncs(httprate.KeyByIP),
	)
}

// RateLimitUploads returns the stricter limit for the upload endpoint:
// a tenth of the read budget, minimum 10 per window.
func (m *ChiMiddleware) RateLimitUploads() func(http.Handler) http.Handler {
	if m.config.RateLimitDisabled {
		return passthrough
	}
	limit := m.config.RateLimitRequests / 10
	if limit < 10 {
		limit = 10
	}
	return httprate.Limit(
		limit,
		m.config.RateLimitWindow,
		httprate.WithKeyFuncs(httprate.KeyByIP),
	)
}

func passthrough(next http.Handler) http.Handler {
	return next
}
