package blobstore

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/pierrec/lz4/v4"
)

// CompressedExt is appended to the keys of compressed objects.
const CompressedExt = ".lz4"

// Compressed wraps a Store and stores every object as an LZ4 frame.
type Compressed struct {
	store Store
}

// NewCompressed wraps store.
func NewCompressed(store Store) *Compressed {
	return &Compressed{store: store}
}

func (c *Compressed) Put(ctx context.Context, key string, body io.Reader, _ int64) error {
	var buf bytes.Buffer
	zw := lz4.NewWriter(&buf)
	if _, err := io.Copy(zw, body); err != nil {
		return fmt.Errorf("failed to compress %s: %w", key, err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to compress %s: %w", key, err)
	}
	return c.store.Put(ctx, key+CompressedExt, &buf, int64(buf.Len()))
}

func (c *Compressed) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	rc, err := c.store.Get(ctx, key+CompressedExt)
	if err != nil {
		return nil, err
	}
	return &lz4ReadCloser{Reader: lz4.NewReader(rc), body: rc}, nil
}

func (c *Compressed) Close() error {
	return c.store.Close()
}

type lz4ReadCloser struct {
	*lz4.Reader
	body io.Closer
}

func (r *lz4ReadCloser) Close() error {
	return r.body.Close()
}
