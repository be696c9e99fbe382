// Storegate - Storefront Edge API Gateway
// Copyright 2026 M. Walcott (mwalcott)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mwalcott/storegate

package api

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/mwalcott/storegate/internal/auth"
	"github.com/mwalcott/storegate/internal/cache"
	"github.com/mwalcott/storegate/internal/metrics"
	"github.com/mwalcott/storegate/internal/models"
)

// cacheEntry is a stored 2xx response. Body and headers are served
// verbatim on hits; entries are never mutated after the Set.
type cacheEntry struct {
	Status       int
	Body         []byte
	ContentType  string
	ETag         string
	CacheControl string
}

// ConditionalCache wraps JSON-producing builders with ETag computation,
// response caching and If-None-Match short-circuiting.
//
// Only 2xx results are stored, so a transient failure can never be served
// stale. Entries expire via TTL; there is no explicit invalidation because
// every cached value is a pure function of content-store state.
type ConditionalCache struct {
	store        cache.Cacher
	cacheControl string
}

// NewConditionalCache creates a conditional cache over the given bounded
// store. maxAge doubles as the entry TTL and the advertised freshness.
func NewConditionalCache(store cache.Cacher, maxAge, staleWhileRevalidate time.Duration) *ConditionalCache {
	return &ConditionalCache{
		store: store,
		cacheControl: fmt.Sprintf("public, max-age=%d, stale-while-revalidate=%d",
			int(maxAge.Seconds()), int(staleWhileRevalidate.Seconds())),
	}
}

// Serve answers the request from cache when possible, otherwise runs
// build, caches a successful result and serves it. The cache key is the
// namespace, the caller's resolved scope and the canonically ordered
// query string; identical requests with differently ordered parameters
// share an entry, and differently scoped callers never do.
func (cc *ConditionalCache) Serve(w http.ResponseWriter, r *http.Request, namespace string, build func() (interface{}, error)) {
	key := cc.cacheKey(r, namespace)

	if cached, ok := cc.store.Get(key); ok {
		entry := cached.(*cacheEntry)
		cc.writeEntry(w, r, entry, true)
		return
	}
	metrics.EdgeCacheMisses.Inc()

	payload, err := build()
	if err != nil {
		status, code, message := mapStoreError(err)
		respondError(w, status, code, message, err)
		return
	}

	resp := models.NewSuccessResponse(payload)
	body, err := json.Marshal(resp)
	if err != nil {
		respondError(w, http.StatusInternalServerError, models.ErrCodeInternal, "failed to encode response", err)
		return
	}

	entry := &cacheEntry{
		Status:       http.StatusOK,
		Body:         body,
		ContentType:  "application/json",
		ETag:         weakETag(body),
		CacheControl: cc.cacheControl,
	}

	// The entry is complete before it becomes visible; a cancelled build
	// never got this far.
	cc.store.Set(key, entry)
	metrics.EdgeCacheEntries.Set(float64(cc.store.Len()))

	cc.writeEntry(w, r, entry, false)
}

// writeEntry serves a cache entry, short-circuiting to 304 when the
// client already holds the current representation. The fresh-build path
// also honors If-None-Match: the client may have obtained the current
// ETag before this process first populated its cache.
func (cc *ConditionalCache) writeEntry(w http.ResponseWriter, r *http.Request, entry *cacheEntry, fromCache bool) {
	w.Header().Set("ETag", entry.ETag)
	w.Header().Set("Cache-Control", entry.CacheControl)

	if etagMatches(r.Header.Get("If-None-Match"), entry.ETag) {
		if fromCache {
			metrics.EdgeCacheHits.WithLabelValues("revalidated").Inc()
		}
		w.WriteHeader(http.StatusNotModified)
		return
	}

	if fromCache {
		metrics.EdgeCacheHits.WithLabelValues("fresh").Inc()
	}
	w.Header().Set("Content-Type", entry.ContentType)
	w.WriteHeader(entry.Status)
	if _, err := w.Write(entry.Body); err != nil {
		return
	}
}

// cacheKey builds the entry key: namespace, caller scope, canonical query.
func (cc *ConditionalCache) cacheKey(r *http.Request, namespace string) string {
	id := auth.IdentityFromContext(r.Context())
	scope := "anon"
	if id.Trusted && id.UserID != "" {
		scope = "u:" + id.UserID
	} else if id.UserID != "" {
		scope = "h:" + id.UserID
	}
	return namespace + "|" + scope + "|" + canonicalQuery(r.URL.Query())
}

// canonicalQuery renders query parameters sorted by key then value, so
// parameter order cannot split the cache.
func canonicalQuery(values map[string][]string) string {
	if len(values) == 0 {
		return ""
	}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		vals := append([]string(nil), values[k]...)
		sort.Strings(vals)
		for _, v := range vals {
			if b.Len() > 0 {
				b.WriteByte('&')
			}
			b.WriteString(k)
			b.WriteByte('=')
			b.WriteString(v)
		}
	}
	return b.String()
}

// weakETag derives a weak validator from the response body.
func weakETag(body []byte) string {
	sum := sha256.Sum256(body)
	return `W/"` + hex.EncodeToString(sum[:]) + `"`
}

// etagMatches reports whether an If-None-Match header matches an ETag.
// Weak comparison: the W/ prefix is ignored on both sides, and "*"
// matches anything.
func etagMatches(ifNoneMatch, etag string) bool {
	if ifNoneMatch == "" {
		return false
	}
	target := strings.TrimPrefix(etag, "W/")
	for _, candidate := range strings.Split(ifNoneMatch, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" {
			return true
		}
		if strings.TrimPrefix(candidate, "W/") == target {
			return true
		}
	}
	return false
}
