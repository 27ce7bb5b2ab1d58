// Package blobstore mirrors generated corpus blobs to shared storage so a
// corpus can be generated once and benchmarked on other machines.
package blobstore

import (
	"context"
	"errors"
	"io"
)

var ErrNotFound = errors.New("blobstore: object not found")

// Store defines the interface for blob storage backends.
// Implementations can be swapped to use different storage mechanisms.
type Store interface {
	// Put stores size bytes read from body under key.
	Put(ctx context.Context, key string, body io.Reader, size int64) error

	// Get opens the object stored under key. It returns ErrNotFound when
	// there is none.
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// Close performs any cleanup operations needed by the backend.
	Close() error
}
