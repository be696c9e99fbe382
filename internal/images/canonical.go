// Storegate - Storefront Edge API Gateway
// Copyright 2026 M. Walcott (mwalcott)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mwalcott/storegate

// Package images normalizes stored image references to canonical storage
// keys and derives responsive delivery URLs from them.
//
// Stored references arrive in four shapes that can all name the same
// object: bare relative keys, absolute asset-domain URLs, CDN
// transform-proxy URLs with an embedded parameter segment, and URLs whose
// first path segment is the storage bucket. Canonicalization reduces all
// of them to one relative key so equality, caching and deduplication work.
package images

import (
	"net/url"
	"strings"
)

// Canonicalizer reduces raw image references to canonical relative keys.
// A canonical key has no domain, no leading slash, no transform-parameter
// segment, no bucket prefix and no doubled leading segment.
// Canonicalize is idempotent.
type Canonicalizer struct {
	transformPath string
	bucket        string
}

// NewCanonicalizer creates a canonicalizer. transformPath is the CDN path
// segment that introduces transform parameters (e.g. "transform"); bucket
// is the storage bucket name stripped when it leaks into stored URLs.
func NewCanonicalizer(transformPath, bucket string) *Canonicalizer {
	return &Canonicalizer{
		transformPath: strings.Trim(transformPath, "/"),
		bucket:        strings.Trim(bucket, "/"),
	}
}

// Canonicalize reduces a raw reference to a canonical key. Empty input
// yields empty output; callers render that as null downstream.
func (c *Canonicalizer) Canonicalize(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	path := raw
	if isAbsoluteURL(raw) {
		if u, err := url.Parse(normalizeScheme(raw)); err == nil {
			path = u.Path
		}
	}

	// The reductions interact: stripping the bucket can expose a second
	// bucket segment or a duplicated prefix and vice versa. Iterate to a
	// fixed point so a single call reaches the canonical form.
	segments := splitPath(path)
	for {
		before := len(segments)
		segments = c.stripTransformSegment(segments)
		segments = c.stripBucketPrefix(segments)
		segments = collapseLeadingDuplicate(segments)
		if len(segments) == before {
			break
		}
	}

	return strings.Join(segments, "/")
}

func isAbsoluteURL(s string) bool {
	return strings.HasPrefix(s, "http://") ||
		strings.HasPrefix(s, "https://") ||
		strings.HasPrefix(s, "//")
}

// normalizeScheme gives protocol-relative URLs a scheme so url.Parse
// produces a host+path split.
func normalizeScheme(s string) string {
	if strings.HasPrefix(s, "//") {
		return "https:" + s
	}
	return s
}

// splitPath strips leading slashes and collapses repeated slashes by
// discarding empty segments.
func splitPath(p string) []string {
	parts := strings.Split(p, "/")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// stripTransformSegment removes a leading "<transformPath>/<params>" pair.
// The params segment is only dropped when it actually looks like transform
// parameters (contains "="), so a legitimate key that happens to start
// with the transform path name survives.
func (c *Canonicalizer) stripTransformSegment(segments []string) []string {
	if c.transformPath == "" || len(segments) < 2 {
		return segments
	}
	if segments[0] == c.transformPath && strings.Contains(segments[1], "=") {
		return segments[2:]
	}
	return segments
}

// stripBucketPrefix drops the storage bucket when it leaks in as the first
// segment. Upload keys are date-partitioned under images/, so a genuine
// key never starts with the bucket name.
func (c *Canonicalizer) stripBucketPrefix(segments []string) []string {
	if c.bucket == "" || len(segments) < 2 {
		return segments
	}
	if segments[0] == c.bucket {
		return segments[1:]
	}
	return segments
}

// collapseLeadingDuplicate reduces an accidentally doubled leading segment
// to a single occurrence. Only the prefix pair is touched: repeats deeper
// in the path are legitimate, date-partitioned upload keys repeat the
// month and day whenever they coincide.
func collapseLeadingDuplicate(segments []string) []string {
	if len(segments) >= 2 && segments[0] == segments[1] {
		return segments[1:]
	}
	return segments
}
