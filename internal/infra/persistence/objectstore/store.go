// Package objectstore provides a storage backend that keeps each record as a
// JSON object in a blob store (filesystem, S3 or memory).
package objectstore

import (
	"bytes"
	"context"
	"errors"
	"familycore/internal/blob"
	"familycore/pkg/domain"
	"fmt"
	"io"
	"strings"
)

var _ domain.Backend = (*Store)(nil)

// DefaultPrefix is the key prefix records are written under.
const DefaultPrefix = "state/"

// Store adapts a blob.Store to domain.Backend.
type Store struct {
	blobs  blob.Store
	prefix string
}

// NewStore wraps blobs. An empty prefix selects DefaultPrefix.
func NewStore(blobs blob.Store, prefix string) (*Store, error) {
	if blobs == nil {
		return nil, fmt.Errorf("objectstore: nil blob store")
	}
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &Store{blobs: blobs, prefix: prefix}, nil
}

// ObjectKey returns the blob key a record is stored under.
func (s *Store) ObjectKey(key string) string { return s.prefix + key + ".json" }

// Get returns the record under key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	_, rc, err := s.blobs.Get(ctx, s.ObjectKey(key))
	if errors.Is(err, blob.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("objectstore get %s: %w", key, err)
	}
	defer func() { _ = rc.Close() }()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, false, fmt.Errorf("objectstore read %s: %w", key, err)
	}
	return data, true, nil
}

// Put replaces the record under key.
func (s *Store) Put(ctx context.Context, key string, data []byte) error {
	_, err := s.blobs.Put(ctx, s.ObjectKey(key), bytes.NewReader(data), blob.PutOptions{
		ContentType: "application/json",
		Metadata:    map[string]string{"record": key},
		Overwrite:   true,
	})
	if err != nil {
		return fmt.Errorf("objectstore put %s: %w", key, err)
	}
	return nil
}

// Delete removes the record under key; missing records are not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.blobs.Delete(ctx, s.ObjectKey(key)); err != nil {
		return fmt.Errorf("objectstore delete %s: %w", key, err)
	}
	return nil
}

// Close is a no-op; the blob store has no connection to release.
func (s *Store) Close() error { return nil }
