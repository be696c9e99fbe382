// Storegate - Storefront Edge API Gateway
// Copyright 2026 M. Walcott (mwalcott)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mwalcott/storegate

package images

import "testing"

func newTestCanonicalizer() *Canonicalizer {
	return NewCanonicalizer("transform", "media")
}

func TestCanonicalizeShapes(t *testing.T) {
	c := newTestCanonicalizer()

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			"bare relative key",
			"foo/bar.png",
			"foo/bar.png",
		},
		{
			"leading slash stripped",
			"/images/2024/01/01/abc-file.png",
			"images/2024/01/01/abc-file.png",
		},
		{
			"repeated slashes collapsed",
			"images//2024///01/file.png",
			"images/2024/01/file.png",
		},
		{
			"asset domain URL",
			"https://assets.example.com/images/2024/01/01/abc-file.png",
			"images/2024/01/01/abc-file.png",
		},
		{
			"transform proxy URL",
			"https://img.example.com/transform/width=400,format=auto/images/2024/01/01/abc-file.png",
			"images/2024/01/01/abc-file.png",
		},
		{
			"bucket-prefixed URL",
			"https://assets.example.com/media/images/2024/01/01/abc-file.png",
			"images/2024/01/01/abc-file.png",
		},
		{
			"transform and bucket combined",
			"https://img.example.com/transform/width=800,quality=80/media/uploads/pic.jpg",
			"uploads/pic.jpg",
		},
		{
			"protocol-relative URL",
			"//assets.example.com/images/a.png",
			"images/a.png",
		},
		{
			"duplicated prefix collapsed",
			"uploads/uploads/foo.png",
			"uploads/foo.png",
		},
		{
			"repeat deeper in path preserved",
			"docs/archive/archive/scan.png",
			"docs/archive/archive/scan.png",
		},
		{
			"date key with equal month and day preserved",
			"images/2026/09/09/deadbeef-photo.png",
			"images/2026/09/09/deadbeef-photo.png",
		},
		{
			"transform URL over date key with equal month and day",
			"https://img.example.com/transform/width=400,format=auto/images/2026/09/09/deadbeef-photo.png",
			"images/2026/09/09/deadbeef-photo.png",
		},
		{
			"doubled bucket prefix",
			"media/media/uploads/x.png",
			"uploads/x.png",
		},
		{
			"bucket over doubled prefix",
			"media/uploads/uploads/foo.png",
			"uploads/foo.png",
		},
		{
			"bare bucket prefix stripped",
			"media/uploads/foo.png",
			"uploads/foo.png",
		},
		{
			"empty input",
			"",
			"",
		},
		{
			"whitespace only",
			"   ",
			"",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Canonicalize(tt.raw); got != tt.want {
				t.Errorf("Canonicalize(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestCanonicalizeIdempotent(t *testing.T) {
	c := newTestCanonicalizer()

	inputs := []string{
		"foo/bar.png",
		"/images/2024/01/01/abc-file.png",
		"https://img.example.com/transform/width=400,format=auto/images/2024/01/01/abc-file.png",
		"https://assets.example.com/media/uploads/pic.jpg",
		"uploads/uploads/foo.png",
		"media/media/uploads/x.png",
		"media/uploads/uploads/foo.png",
		"images/2026/09/09/deadbeef-photo.png",
		"",
	}

	for _, raw := range inputs {
		once := c.Canonicalize(raw)
		twice := c.Canonicalize(once)
		if once != twice {
			t.Errorf("not idempotent for %q: first %q, second %q", raw, once, twice)
		}
	}
}

func TestCanonicalizeKeepsTransformLikeKeys(t *testing.T) {
	c := newTestCanonicalizer()

	// A key that merely starts with the transform path name is not a
	// proxy URL: the second segment carries no parameters.
	got := c.Canonicalize("transform/notes/file.png")
	if got != "transform/notes/file.png" {
		t.Errorf("expected transform-named key preserved, got %q", got)
	}
}

func TestCanonicalizeSameObjectFourShapes(t *testing.T) {
	c := newTestCanonicalizer()

	shapes := []string{
		"images/2024/01/01/abc-file.png",
		"https://assets.example.com/images/2024/01/01/abc-file.png",
		"https://img.example.com/transform/width=400,format=auto/images/2024/01/01/abc-file.png",
		"https://assets.example.com/media/images/2024/01/01/abc-file.png",
	}

	want := "images/2024/01/01/abc-file.png"
	for _, raw := range shapes {
		if got := c.Canonicalize(raw); got != want {
			t.Errorf("Canonicalize(%q) = %q, want %q", raw, got, want)
		}
	}
}
