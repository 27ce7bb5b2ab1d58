package blobstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"
)

// Local stores objects as files under a directory. Keys are slash
// separated paths relative to it.
type Local struct {
	dir    string // Absolute path to the store directory
	logger *slog.Logger
}

// NewLocal creates the directory if needed.
func NewLocal(dir string, logger *slog.Logger) (*Local, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	return &Local{
		dir:    absDir,
		logger: logger,
	}, nil
}

func (l *Local) path(key string) (string, error) {
	p := filepath.Join(l.dir, filepath.FromSlash(key))
	if p != l.dir && !strings.HasPrefix(p, l.dir+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid key %q", key)
	}
	return p, nil
}

// Put atomically writes the object.
func (l *Local) Put(_ context.Context, key string, body io.Reader, size int64) error {
	diskPath, err := l.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(diskPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("failed to read object body: %w", err)
	}
	n := int64(len(data))
	if size >= 0 && n != size {
		return fmt.Errorf("short write for %s: %d of %d bytes", key, n, size)
	}

	if err := atomic.WriteFile(diskPath, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write object file: %w", err)
	}

	l.logger.Debug("stored object", "path", diskPath, "size", n)
	return nil
}

func (l *Local) Get(_ context.Context, key string) (io.ReadCloser, error) {
	diskPath, err := l.path(key)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(diskPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, fmt.Errorf("failed to open object: %w", err)
	}
	return f, nil
}

func (l *Local) Close() error {
	return nil
}
