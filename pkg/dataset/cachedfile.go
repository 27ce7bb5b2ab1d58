package dataset

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/natefinch/atomic"
)

// CachedFile manages one on-disk file that may or may not exist. Its
// contents are loaded lazily and saved idempotently.
//
// Whether the file exists is checked once, when the CachedFile is created.
type CachedFile struct {
	path      string
	contents  *string
	persisted bool
	exists    bool
}

// NewCachedFile creates a CachedFile for path.
func NewCachedFile(path string) *CachedFile {
	_, err := os.Stat(path)
	return &CachedFile{
		path:   path,
		exists: err == nil,
	}
}

// Path returns the backing path.
func (f *CachedFile) Path() string {
	return f.path
}

// Exists reports whether the backing file was present at construction.
func (f *CachedFile) Exists() bool {
	return f.exists
}

// IsEmpty reports whether there are neither in-memory contents nor a file.
func (f *CachedFile) IsEmpty() bool {
	return f.contents == nil && !f.exists
}

// Persisted reports whether the in-memory contents match the file.
func (f *CachedFile) Persisted() bool {
	return f.persisted
}

// Load returns the contents, reading them from disk on first use.
func (f *CachedFile) Load() (string, error) {
	if f.contents != nil {
		return *f.contents, nil
	}
	if !f.exists {
		return "", fmt.Errorf("%w: %s", ErrNotFound, f.path)
	}

	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, f.path)
		}
		return "", fmt.Errorf("failed to read %s: %w", f.path, err)
	}

	text := string(data)
	f.contents = &text
	f.persisted = true
	return text, nil
}

// SetContents replaces the in-memory contents. They stay unpersisted until
// Save is called.
func (f *CachedFile) SetContents(text string) {
	f.contents = &text
	f.persisted = false
}

// Save writes the contents to disk. It does nothing when the contents are
// already persisted or were never set.
func (f *CachedFile) Save() error {
	if f.persisted || f.contents == nil {
		return nil
	}

	if err := atomic.WriteFile(f.path, strings.NewReader(*f.contents)); err != nil {
		return fmt.Errorf("failed to write %s: %w", f.path, err)
	}

	f.persisted = true
	return nil
}
