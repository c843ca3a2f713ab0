// Package content stores uploaded bytes and their thumbnail variants.
//
// Keys are opaque: Put generates a fresh UUID per upload and the metadata
// record carries the key. Thumbnail variants live next to the original under
// a computed key (VariantKey), so no separate index is needed to find them.
// The backing storage.Store is the same local/S3 abstraction used across
// waffle apps; the upload root is created by the backend at construction.
package content

import (
	"bytes"
	"context"
	"errors"
	"io"
	"io/fs"
	"strconv"

	"github.com/dalemusser/waffle/pantry/storage"
	"github.com/google/uuid"
)

// ErrNotFound is returned when a key has no backing object.
var ErrNotFound = errors.New("content not found")

// Store reads and writes blobs by opaque key.
type Store struct {
	backend storage.Store
}

// New creates a content store on top of a storage backend.
func New(backend storage.Store) *Store {
	return &Store{backend: backend}
}

// Put writes data under a freshly generated key and returns the key.
func (s *Store) Put(ctx context.Context, data []byte, contentType string) (string, error) {
	key := uuid.New().String()
	if err := s.PutAt(ctx, key, data, contentType); err != nil {
		return "", err
	}
	return key, nil
}

// PutAt writes data under an explicit key. Used by the thumbnail worker,
// whose variant keys are derived from the original's key. Overwriting an
// existing key is allowed; re-generating the same variant is harmless.
func (s *Store) PutAt(ctx context.Context, key string, data []byte, contentType string) error {
	opts := &storage.PutOptions{ContentType: contentType}
	return s.backend.Put(ctx, key, bytes.NewReader(data), opts)
}

// Get reads the blob stored under key. Returns ErrNotFound if the key has no
// backing object.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	reader, err := s.backend.Get(ctx, key)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	return data, nil
}

// VariantKey returns the derived key for a resized variant of the blob at
// key. The naming is computed, never stored.
func VariantKey(key string, width int) string {
	return key + "_" + strconv.Itoa(width)
}
