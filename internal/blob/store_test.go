// Storegate - Storefront Edge API Gateway
// Copyright 2026 M. Walcott (mwalcott)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mwalcott/storegate

package blob

import (
	"bytes"
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("failed to open blob store: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("failed to close blob store: %v", err)
		}
	})
	return s
}

func TestPutGetRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	payload := []byte("fake png bytes")
	meta := Meta{
		Key:         "images/2026/09/01/abc12345-mug.png",
		ContentType: "image/png",
		UploadedBy:  "user-1",
	}

	if err := s.Put(ctx, meta, payload); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	data, gotMeta, err := s.Get(ctx, meta.Key)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !bytes.Equal(data, payload) {
		t.Error("stored bytes do not match")
	}
	if gotMeta.ContentType != "image/png" {
		t.Errorf("expected content type preserved, got %q", gotMeta.ContentType)
	}
	if gotMeta.Size != int64(len(payload)) {
		t.Errorf("expected size %d, got %d", len(payload), gotMeta.Size)
	}
	if gotMeta.UploadedAt.IsZero() {
		t.Error("expected upload timestamp set")
	}
}

func TestGetMissingKey(t *testing.T) {
	s := newTestStore(t)

	_, _, err := s.Get(context.Background(), "images/2026/01/01/nothing.png")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestPutRejectsEmptyKey(t *testing.T) {
	s := newTestStore(t)

	if err := s.Put(context.Background(), Meta{}, []byte("x")); err == nil {
		t.Error("expected error for empty key")
	}
}

func TestExists(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if ok, _ := s.Exists("images/a.png"); ok {
		t.Error("expected missing key to not exist")
	}

	if err := s.Put(ctx, Meta{Key: "images/a.png"}, []byte("x")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	ok, err := s.Exists("images/a.png")
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if !ok {
		t.Error("expected stored key to exist")
	}
}

func TestNewUploadKeyShape(t *testing.T) {
	now := time.Date(2026, 9, 1, 15, 4, 5, 0, time.UTC)
	key := NewUploadKey("My Photo (1).PNG", now)

	pattern := regexp.MustCompile(`^images/2026/09/01/[0-9a-f]{8}-my-photo--1-\.png$`)
	if !pattern.MatchString(key) {
		t.Errorf("unexpected key shape: %q", key)
	}
}

func TestNewUploadKeyUnique(t *testing.T) {
	now := time.Now()
	a := NewUploadKey("same.png", now)
	b := NewUploadKey("same.png", now)
	if a == b {
		t.Error("expected distinct keys for identical filenames")
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"simple", "photo.png", "photo.png"},
		{"uppercase lowered", "Photo.PNG", "photo.png"},
		{"spaces replaced", "my photo.png", "my-photo.png"},
		{"path stripped", "../../etc/passwd", "passwd"},
		{"windows path stripped", `C:\Users\me\pic.jpg`, "pic.jpg"},
		{"unicode replaced", "tèst.png", "t-st.png"},
		{"empty becomes file", "", "file"},
		{"dots trimmed", "...", "file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeFilename(tt.in); got != tt.want {
				t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSanitizeFilenameBoundsLength(t *testing.T) {
	long := strings.Repeat("a", 300) + ".png"
	got := SanitizeFilename(long)
	if len(got) > 100 {
		t.Errorf("expected bounded filename, got %d chars", len(got))
	}
	if !strings.HasSuffix(got, ".png") {
		t.Errorf("expected extension preserved, got %q", got)
	}
}
