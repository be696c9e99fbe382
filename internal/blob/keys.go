// Storegate - Storefront Edge API Gateway
// Copyright 2026 M. Walcott (mwalcott)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mwalcott/storegate

package blob

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// maxFilenameLength bounds the sanitized filename portion of a key.
const maxFilenameLength = 100

// NewUploadKey builds a date-partitioned canonical key for an upload:
// images/<yyyy>/<mm>/<dd>/<random>-<sanitized-filename>. The random prefix
// makes collisions for same-named files on the same day a non-issue.
func NewUploadKey(filename string, now time.Time) string {
	now = now.UTC()
	return fmt.Sprintf("images/%04d/%02d/%02d/%s-%s",
		now.Year(), int(now.Month()), now.Day(),
		uuid.NewString()[:8], SanitizeFilename(filename))
}

// SanitizeFilename reduces a client-supplied filename to a safe key
// segment: lowercase, alphanumerics plus dot, dash and underscore, no
// path separators, bounded length. An empty result becomes "file".
func SanitizeFilename(name string) string {
	// Drop any client-side path.
	if i := strings.LastIndexAny(name, "/\\"); i >= 0 {
		name = name[i+1:]
	}
	name = strings.ToLower(strings.TrimSpace(name))

	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}

	out := strings.Trim(b.String(), "-.")
	if len(out) > maxFilenameLength {
		out = out[len(out)-maxFilenameLength:]
	}
	if out == "" {
		return "file"
	}
	return out
}
