// Storegate - Storefront Edge API Gateway
// Copyright 2026 M. Walcott (mwalcott)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mwalcott/storegate

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultsAreValidWithStoreURL(t *testing.T) {
	cfg := defaultConfig()
	cfg.Store.URL = "http://store.internal:3000"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults with store URL should validate: %v", err)
	}
}

func TestValidateRejectsMissingStoreURL(t *testing.T) {
	cfg := defaultConfig()
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for missing store.url")
	}
}

func TestValidateRejectsBadPort(t *testing.T) {
	cfg := defaultConfig()
	cfg.Store.URL = "http://store.internal:3000"
	cfg.Server.Port = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for port 0")
	}
}

func TestValidateRejectsBadQuality(t *testing.T) {
	cfg := defaultConfig()
	cfg.Store.URL = "http://store.internal:3000"
	cfg.Images.Quality = 101
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for quality > 100")
	}
}

func TestLoadLayersEnvOverFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
store:
  url: http://file-store:3000
server:
  port: 9000
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("HTTP_PORT", "9100")
	t.Setenv("CORS_ORIGINS", "https://shop.example.com, https://*.example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Store.URL != "http://file-store:3000" {
		t.Errorf("expected store URL from file, got %q", cfg.Store.URL)
	}
	if cfg.Server.Port != 9100 {
		t.Errorf("expected env port override 9100, got %d", cfg.Server.Port)
	}
	if len(cfg.Security.CORSOrigins) != 2 || cfg.Security.CORSOrigins[1] != "https://*.example.com" {
		t.Errorf("expected comma-split CORS origins, got %v", cfg.Security.CORSOrigins)
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("store:\n  url: http://s:3000\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Identity.MemoTTL != 60*time.Second {
		t.Errorf("expected default memo TTL 60s, got %v", cfg.Identity.MemoTTL)
	}
	if cfg.Cache.MaxAge != 60*time.Second {
		t.Errorf("expected default cache max age 60s, got %v", cfg.Cache.MaxAge)
	}
	if cfg.Identity.CookieName != "access_token" {
		t.Errorf("expected default cookie name, got %q", cfg.Identity.CookieName)
	}
}
