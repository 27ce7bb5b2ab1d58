package locking

import (
	"fmt"
	"sync"
)

// MemLock is a Group implementation that uses in-memory bookkeeping for mutual
// exclusion. It only works within a single process and doesn't protect a
// corpus directory against other processes. It's used primarily in tests.
//
// Like FileLock it never waits: a key that is already held fails with
// ErrLocked.
type MemLock struct {
	sync.Mutex
	held map[string]bool
}

func NewMemLock() *MemLock {
	return &MemLock{
		held: make(map[string]bool),
	}
}

func (s *MemLock) DoWithLock(key string, fn func() (interface{}, error)) (v interface{}, err error) {
	s.Lock()
	if s.held[key] {
		s.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrLocked, key)
	}
	s.held[key] = true
	s.Unlock()

	defer func() {
		s.Lock()
		delete(s.held, key)
		s.Unlock()
	}()
	return fn()
}
