// Storegate - Storefront Edge API Gateway
// Copyright 2026 M. Walcott (mwalcott)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mwalcott/storegate

// Package blob stores uploaded image bytes in an embedded BadgerDB keyed
// by canonical storage key. The gateway owns the bytes until the CDN origin
// pulls them; clients only ever see the key.
package blob

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/mwalcott/storegate/internal/logging"
	"github.com/mwalcott/storegate/internal/metrics"
)

// Key prefixes for BadgerDB storage
const (
	blobKeyPrefix = "blob:"
	metaKeyPrefix = "blob_meta:"
)

// ErrNotFound means no object is stored under the key.
var ErrNotFound = errors.New("blob not found")

// Meta describes a stored object.
type Meta struct {
	Key         string    `json:"key"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	UploadedBy  string    `json:"uploaded_by,omitempty"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

// Store is a BadgerDB-backed binary object store.
type Store struct {
	db *badger.DB
}

// Open opens (creating if needed) the blob database at path.
func Open(path string) (*Store, error) {
	opts := badger.DefaultOptions(path).
		WithLogger(badgerLogger{})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open blob store: %w", err)
	}
	return &Store{db: db}, nil
}

// NewWithDB wraps an existing Badger handle. Used by tests and by callers
// sharing one database across stores.
func NewWithDB(db *badger.DB) *Store {
	return &Store{db: db}
}

// Close flushes and closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Put stores object bytes and metadata under a canonical key. The write is
// transactional: bytes and metadata commit together or not at all, so a
// partial upload is never visible.
func (s *Store) Put(ctx context.Context, meta Meta, data []byte) error {
	if meta.Key == "" {
		return fmt.Errorf("blob key must not be empty")
	}
	meta.Size = int64(len(data))
	if meta.UploadedAt.IsZero() {
		meta.UploadedAt = time.Now().UTC()
	}

	metaBytes, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("marshal blob metadata: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(blobKeyPrefix+meta.Key), data); err != nil {
			return fmt.Errorf("set blob: %w", err)
		}
		if err := txn.Set([]byte(metaKeyPrefix+meta.Key), metaBytes); err != nil {
			return fmt.Errorf("set blob metadata: %w", err)
		}
		return nil
	})

	if err != nil {
		metrics.BlobOperations.WithLabelValues("put", "error").Inc()
		return err
	}

	metrics.BlobOperations.WithLabelValues("put", "success").Inc()
	metrics.UploadBytes.Add(float64(meta.Size))
	logging.Ctx(ctx).Info().
		Str("key", meta.Key).
		Int64("size", meta.Size).
		Str("content_type", meta.ContentType).
		Msg("Stored blob")
	return nil
}

// Get returns the bytes and metadata for a key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, *Meta, error) {
	var (
		data []byte
		meta Meta
	)

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(blobKeyPrefix + key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get blob: %w", err)
		}
		if data, err = item.ValueCopy(nil); err != nil {
			return fmt.Errorf("copy blob value: %w", err)
		}

		metaItem, err := txn.Get([]byte(metaKeyPrefix + key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			// Bytes without metadata: tolerate, callers fall back to
			// sniffing the content type.
			return nil
		}
		if err != nil {
			return fmt.Errorf("get blob metadata: %w", err)
		}
		return metaItem.Value(func(val []byte) error {
			return json.Unmarshal(val, &meta)
		})
	})

	if err != nil {
		if errors.Is(err, ErrNotFound) {
			metrics.BlobOperations.WithLabelValues("get", "not_found").Inc()
		} else {
			metrics.BlobOperations.WithLabelValues("get", "error").Inc()
		}
		return nil, nil, err
	}

	metrics.BlobOperations.WithLabelValues("get", "success").Inc()
	return data, &meta, nil
}

// Exists reports whether a key holds an object without reading its bytes.
func (s *Store) Exists(key string) (bool, error) {
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(blobKeyPrefix + key))
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check blob: %w", err)
	}
	return true, nil
}

// badgerLogger routes Badger's internal logging through the gateway's
// structured logger at debug level.
type badgerLogger struct{}

func (badgerLogger) Errorf(format string, args ...interface{}) {
	logging.Error().Msgf("badger: "+format, args...)
}

func (badgerLogger) Warningf(format string, args ...interface{}) {
	logging.Warn().Msgf("badger: "+format, args...)
}

func (badgerLogger) Infof(format string, args ...interface{}) {
	logging.Debug().Msgf("badger: "+format, args...)
}

func (badgerLogger) Debugf(format string, args ...interface{}) {
	logging.Debug().Msgf("badger: "+format, args...)
}
