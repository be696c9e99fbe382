// Storegate - Storefront Edge API Gateway
// Copyright 2026 M. Walcott (mwalcott)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mwalcott/storegate

// Package main is the entry point for the Storegate server.
//
// Storegate is the edge API gateway for a storefront: it fronts the content
// store's REST endpoint with per-resource read handlers, an ETag-based edge
// cache, multi-tier caller identity resolution, image reference
// canonicalization with responsive delivery URLs, and an image redirect plus
// upload surface.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: layered loading from env vars, config.yaml and defaults (Koanf v2)
//  2. Logging: zerolog, JSON or console format
//  3. Identity: token verifier with introspection memoization and circuit breaker
//  4. Content store client: REST client with circuit breaker and row mapping
//  5. Blob store: embedded BadgerDB for uploaded image bytes
//  6. Edge cache: in-process LRU keyed by route, identity scope and query
//  7. HTTP server: Chi router with CORS, rate limiting and Prometheus metrics
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest priority
// wins): environment variables, then config.yaml, then built-in defaults.
//
// Required:
//   - STORE_URL: base URL of the content store's REST endpoint
//
// Common:
//   - IDENTITY_PROVIDER_URL: identity provider base URL (empty disables token verification)
//   - INTERNAL_KEY: shared secret for service-to-service calls (empty disables the tier)
//   - ASSETS_ROOT, IMAGES_ROOT: public asset and CDN resizer base URLs
//   - BLOB_PATH: directory for the embedded upload store
//   - HTTP_PORT: listen port (default 8787)
//
// # Signal Handling
//
// The server handles graceful shutdown on SIGINT and SIGTERM: it stops
// accepting new connections, waits up to 10s for in-flight requests, then
// closes the blob store.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mwalcott/storegate/internal/api"
	"github.com/mwalcott/storegate/internal/auth"
	"github.com/mwalcott/storegate/internal/blob"
	"github.com/mwalcott/storegate/internal/cache"
	"github.com/mwalcott/storegate/internal/config"
	"github.com/mwalcott/storegate/internal/images"
	"github.com/mwalcott/storegate/internal/logging"
	"github.com/mwalcott/storegate/internal/store"
)

func main() {
	// Load configuration first to get logging settings
	cfg, err := config.Load()
	if err != nil {
		// Use default logger for config errors (config not yet available)
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("store_url", cfg.Store.URL).
		Bool("identity_enabled", cfg.Identity.ProviderURL != "").
		Bool("internal_key_enabled", cfg.Security.InternalKey != "").
		Msg("Configuration loaded")

	// Identity: token verification is optional. Without a provider the
	// gateway still serves, resolving callers through the remaining tiers.
	var verifier *auth.TokenVerifier
	if cfg.Identity.ProviderURL != "" {
		verifier = auth.NewTokenVerifier(auth.VerifierOptions{
			ProviderURL:  cfg.Identity.ProviderURL,
			Timeout:      cfg.Identity.Timeout,
			MemoTTL:      cfg.Identity.MemoTTL,
			MemoCapacity: cfg.Identity.MemoCapacity,
		})
	} else {
		logging.Warn().Msg("No identity provider configured - token tier disabled")
	}
	resolver := auth.NewResolver(verifier, cfg.Security.InternalKey, cfg.Identity.CookieName)

	// Image canonicalization and delivery URL resolution.
	canon := images.NewCanonicalizer(cfg.Images.TransformPath, cfg.Images.Bucket)
	imageResolver := images.NewResolver(cfg.Images.AssetsRoot, cfg.Images.ImagesRoot, cfg.Images.TransformPath, cfg.Images.Quality)

	// Content store client with circuit breaker protection.
	storeClient := store.NewHTTPClient(store.Options{
		BaseURL:    cfg.Store.URL,
		ServiceKey: cfg.Store.ServiceKey,
		Timeout:    cfg.Store.Timeout,
		Mapper:     store.NewMapper(canon, imageResolver),
	})
	if err := storeClient.Ping(context.Background()); err != nil {
		logging.Warn().Err(err).Msg("Content store not reachable at startup (will retry per request)")
	} else {
		logging.Info().Msg("Connected to content store")
	}

	// Embedded blob store for uploads.
	blobs, err := blob.Open(cfg.Blob.Path)
	if err != nil {
		logging.Fatal().Err(err).Str("path", cfg.Blob.Path).Msg("Failed to open blob store")
	}
	defer func() {
		if err := blobs.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing blob store")
		}
	}()

	// Edge cache: LRU bounded by capacity, entries expire at max_age.
	edgeCache := api.NewConditionalCache(
		cache.NewLRU(cfg.Cache.Capacity, cfg.Cache.MaxAge),
		cfg.Cache.MaxAge,
		cfg.Cache.StaleWhileRevalidate,
	)

	handler := api.NewHandler(storeClient, blobs, canon, imageResolver, edgeCache, cfg.Blob.MaxUploadBytes)
	mw := api.NewChiMiddleware(api.MiddlewareConfig{
		CORSOrigins:       cfg.Security.CORSOrigins,
		RateLimitRequests: cfg.Security.RateLimitReqs,
		RateLimitWindow:   cfg.Security.RateLimitWindow,
		RateLimitDisabled: cfg.Security.RateLimitDisabled,
	})
	router := api.NewRouter(handler, resolver, mw)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	// Setup signal handling
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		serverErr <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigCh:
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal().Err(err).Msg("HTTP server error")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("Graceful shutdown failed, forcing close")
		_ = server.Close()
	}

	logging.Info().Msg("Application stopped gracefully")
}
