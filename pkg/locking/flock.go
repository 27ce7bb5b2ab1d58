package locking

import (
	"fmt"
	"path/filepath"

	"github.com/gofrs/flock"
)

// DefaultLockFile is the lock file created inside a locked directory.
const DefaultLockFile = ".lock"

// FileLock is a Group implementation backed by advisory flock(2) locks, so it
// also excludes other processes. Keys are directories; the lock file lives
// inside the directory, which must exist. Contended keys fail immediately
// with ErrLocked instead of waiting.
type FileLock struct {
	name string
}

// NewFileLock creates a FileLock using DefaultLockFile.
func NewFileLock() *FileLock {
	return &FileLock{name: DefaultLockFile}
}

func (l *FileLock) DoWithLock(key string, fn func() (interface{}, error)) (interface{}, error) {
	fl := flock.New(filepath.Join(key, l.name))

	locked, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to lock %s: %w", key, err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: %s", ErrLocked, key)
	}
	defer fl.Unlock()

	return fn()
}
