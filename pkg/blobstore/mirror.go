package blobstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/lmondada/portmatching-benchmarking/pkg/circuit"
	"github.com/lmondada/portmatching-benchmarking/pkg/dataset"
)

// CorpusKey returns the key of one corpus blob.
func CorpusKey(corpus string, f circuit.Format) string {
	return path.Join(corpus, dataset.BlobName(f))
}

// PushCorpus uploads both blobs of the corpus in dir under its leaf name.
func PushCorpus(ctx context.Context, s Store, dir string) error {
	name := filepath.Base(filepath.Clean(dir))
	for _, f := range dataset.BlobFormats {
		data, err := os.ReadFile(filepath.Join(dir, dataset.BlobName(f)))
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("%w: %s", dataset.ErrCorpusNotGenerated, dir)
			}
			return fmt.Errorf("failed to read blob: %w", err)
		}
		if err := s.Put(ctx, CorpusKey(name, f), bytes.NewReader(data), int64(len(data))); err != nil {
			return err
		}
	}
	return nil
}

// PullCorpus downloads both blobs of the corpus named after dir's leaf.
// Nothing is written unless both blobs were fetched.
func PullCorpus(ctx context.Context, s Store, dir string) error {
	name := filepath.Base(filepath.Clean(dir))

	blobs := make(map[circuit.Format][]byte, len(dataset.BlobFormats))
	for _, f := range dataset.BlobFormats {
		data, err := get(ctx, s, CorpusKey(name, f))
		if err != nil {
			return err
		}
		blobs[f] = data
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create corpus directory: %w", err)
	}
	return dataset.ReplaceBlobs(dir, blobs)
}

func get(ctx context.Context, s Store, key string) ([]byte, error) {
	rc, err := s.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return data, nil
}
