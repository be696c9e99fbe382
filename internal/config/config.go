// Storegate - Storefront Edge API Gateway
// Copyright 2026 M. Walcott (mwalcott)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mwalcott/storegate

// Package config provides layered configuration loading for the gateway.
//
// Precedence: environment variables > YAML config file > built-in defaults.
package config

import (
	"fmt"
	"net/url"
	"time"
)

// Config is the root configuration for the gateway.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Store    StoreConfig    `koanf:"store"`
	Identity IdentityConfig `koanf:"identity"`
	Security SecurityConfig `koanf:"security"`
	Images   ImagesConfig   `koanf:"images"`
	Cache    CacheConfig    `koanf:"cache"`
	Blob     BlobConfig     `koanf:"blob"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port"`
	Timeout time.Duration `koanf:"timeout"`

	// Debug exposes internal error details in 500 responses. Never enable
	// in production.
	Debug bool `koanf:"debug"`
}

// StoreConfig holds content store connection settings.
type StoreConfig struct {
	// URL is the base URL of the content store's REST endpoint.
	URL string `koanf:"url"`

	// ServiceKey authenticates the gateway to the content store.
	ServiceKey string `koanf:"service_key"`

	Timeout time.Duration `koanf:"timeout"`
}

// IdentityConfig holds identity provider settings for token introspection.
type IdentityConfig struct {
	// ProviderURL is the base URL of the identity provider. The user
	// introspection endpoint is <ProviderURL>/auth/v1/user.
	ProviderURL string `koanf:"provider_url"`

	Timeout time.Duration `koanf:"timeout"`

	// CookieName is the access-token cookie checked when no Authorization
	// header is present.
	CookieName string `koanf:"cookie_name"`

	// MemoTTL bounds how long a (token -> userId) result is reused without
	// a fresh introspection call.
	MemoTTL time.Duration `koanf:"memo_ttl"`

	// MemoCapacity caps the token memo LRU.
	MemoCapacity int `koanf:"memo_capacity"`
}

// SecurityConfig holds trust and traffic-shaping settings.
type SecurityConfig struct {
	// InternalKey is the shared secret accepted in the X-Internal-Key
	// header for service-to-service calls. Empty disables the tier.
	InternalKey string `koanf:"internal_key"`

	CORSOrigins []string `koanf:"cors_origins"`

	RateLimitReqs     int           `koanf:"rate_limit_requests"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// ImagesConfig holds image canonicalization and delivery settings.
type ImagesConfig struct {
	// AssetsRoot is the public base URL for untransformed originals.
	AssetsRoot string `koanf:"assets_root"`

	// ImagesRoot is the base URL of the CDN image resizer.
	ImagesRoot string `koanf:"images_root"`

	// TransformPath is the path segment the CDN uses to carry transform
	// parameters, e.g. "transform" in /transform/width=400,format=auto/.
	TransformPath string `koanf:"transform_path"`

	// AssetDomains lists hostnames recognized as our asset or CDN hosts;
	// stored references on these domains are reduced to bare keys.
	AssetDomains []string `koanf:"asset_domains"`

	// Bucket is the storage bucket name stripped when it leaks into
	// stored URLs as the first path segment.
	Bucket string `koanf:"bucket"`

	// Quality is the CDN transform quality parameter.
	Quality int `koanf:"quality"`
}

// CacheConfig holds edge cache settings.
type CacheConfig struct {
	// Capacity caps the number of cached responses (LRU eviction).
	Capacity int `koanf:"capacity"`

	// MaxAge is the freshness lifetime advertised in Cache-Control and
	// used as the in-process entry TTL.
	MaxAge time.Duration `koanf:"max_age"`

	// StaleWhileRevalidate is advertised to downstream caches.
	StaleWhileRevalidate time.Duration `koanf:"stale_while_revalidate"`
}

// BlobConfig holds embedded blob store settings for uploads.
type BlobConfig struct {
	Path string `koanf:"path"`

	// MaxUploadBytes caps a single multipart upload.
	MaxUploadBytes int64 `koanf:"max_upload_bytes"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// defaultConfig returns a Config with all default values. Defaults are
// applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:    "0.0.0.0",
			Port:    8787,
			Timeout: 30 * time.Second,
			Debug:   false,
		},
		Store: StoreConfig{
			URL:        "",
			ServiceKey: "",
			Timeout:    10 * time.Second,
		},
		Identity: IdentityConfig{
			ProviderURL:  "",
			Timeout:      5 * time.Second,
			CookieName:   "access_token",
			MemoTTL:      60 * time.Second,
			MemoCapacity: 10000,
		},
		Security: SecurityConfig{
			InternalKey:       "",
			CORSOrigins:       []string{"*"},
			RateLimitReqs:     300,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
		},
		Images: ImagesConfig{
			AssetsRoot:    "https://assets.example.com",
			ImagesRoot:    "https://img.example.com",
			TransformPath: "transform",
			AssetDomains:  []string{},
			Bucket:        "media",
			Quality:       80,
		},
		Cache: CacheConfig{
			Capacity:             4096,
			MaxAge:               60 * time.Second,
			StaleWhileRevalidate: 300 * time.Second,
		},
		Blob: BlobConfig{
			Path:           "/data/blobs",
			MaxUploadBytes: 20 << 20, // 20MB
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Validate checks the configuration for invalid or inconsistent values.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Store.URL == "" {
		return fmt.Errorf("store.url is required")
	}
	if _, err := url.Parse(c.Store.URL); err != nil {
		return fmt.Errorf("store.url is not a valid URL: %w", err)
	}
	if c.Identity.ProviderURL != "" {
		if _, err := url.Parse(c.Identity.ProviderURL); err != nil {
			return fmt.Errorf("identity.provider_url is not a valid URL: %w", err)
		}
	}
	if c.Identity.MemoTTL <= 0 {
		return fmt.Errorf("identity.memo_ttl must be positive")
	}
	if c.Cache.Capacity <= 0 {
		return fmt.Errorf("cache.capacity must be positive")
	}
	if c.Cache.MaxAge <= 0 {
		return fmt.Errorf("cache.max_age must be positive")
	}
	if c.Images.Quality < 1 || c.Images.Quality > 100 {
		return fmt.Errorf("images.quality must be between 1 and 100, got %d", c.Images.Quality)
	}
	if c.Blob.MaxUploadBytes <= 0 {
		return fmt.Errorf("blob.max_upload_bytes must be positive")
	}
	return nil
}
