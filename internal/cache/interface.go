// Storegate - Storefront Edge API Gateway
// Copyright 2026 M. Walcott (mwalcott)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mwalcott/storegate

// Package cache provides bounded in-memory caches for the gateway's two
// process-wide stores: the token-verification memo and the edge response
// cache. Both are LRUs with TTL so neither can grow without limit.
package cache

import "time"

// Stats tracks cache performance counters.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	TotalKeys int64
}

// Cacher is the injected cache abstraction. The single implementation is
// the bounded LRU; the interface keeps callers decoupled so an external
// cache could be substituted per deployment.
type Cacher interface {
	// Get retrieves a value. Returns the value and true if present and
	// not expired.
	Get(key string) (interface{}, bool)

	// Set stores a value with the default TTL.
	Set(key string, value interface{})

	// SetWithTTL stores a value with a custom TTL.
	SetWithTTL(key string, value interface{}, ttl time.Duration)

	// Delete removes a value.
	Delete(key string)

	// Clear removes all entries.
	Clear()

	// Len returns the current number of entries.
	Len() int

	// GetStats returns cache statistics.
	GetStats() Stats
}

// HitRate returns the hit rate of s as a percentage.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0.0
	}
	return float64(s.Hits) / float64(total) * 100.0
}

// Verify interface implementation at compile time
var _ Cacher = (*LRUCache)(nil)
