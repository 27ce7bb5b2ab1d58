package locking

import (
	"errors"
	"testing"
)

func TestFileLockExcludesConcurrentHolders(t *testing.T) {
	dir := t.TempDir()
	outer := NewFileLock()
	inner := NewFileLock()

	v, err := outer.DoWithLock(dir, func() (interface{}, error) {
		_, innerErr := inner.DoWithLock(dir, func() (interface{}, error) {
			t.Error("inner function must not run while the directory is locked")
			return nil, nil
		})
		if !errors.Is(innerErr, ErrLocked) {
			t.Errorf("expected ErrLocked, got %v", innerErr)
		}
		return 42, nil
	})
	if err != nil {
		t.Fatalf("DoWithLock failed: %v", err)
	}
	if v.(int) != 42 {
		t.Errorf("expected 42, got %v", v)
	}

	// Released after the outer call returns.
	if _, err := inner.DoWithLock(dir, func() (interface{}, error) { return nil, nil }); err != nil {
		t.Errorf("expected lock to be free, got %v", err)
	}
}

func TestFileLockMissingDirectory(t *testing.T) {
	_, err := NewFileLock().DoWithLock(t.TempDir()+"/missing", func() (interface{}, error) {
		t.Error("function must not run")
		return nil, nil
	})
	if err == nil {
		t.Fatal("expected error for missing directory")
	}
}

func TestMemLock(t *testing.T) {
	l := NewMemLock()
	fnErr := errors.New("boom")

	_, err := l.DoWithLock("a", func() (interface{}, error) {
		if _, err := l.DoWithLock("a", func() (interface{}, error) { return nil, nil }); !errors.Is(err, ErrLocked) {
			t.Errorf("expected ErrLocked, got %v", err)
		}
		if _, err := l.DoWithLock("b", func() (interface{}, error) { return nil, nil }); err != nil {
			t.Errorf("other keys must not be blocked: %v", err)
		}
		return nil, fnErr
	})
	if !errors.Is(err, fnErr) {
		t.Errorf("expected function error, got %v", err)
	}

	if _, err := l.DoWithLock("a", func() (interface{}, error) { return nil, nil }); err != nil {
		t.Errorf("expected key to be released after an error, got %v", err)
	}
}

func TestNoOpGroup(t *testing.T) {
	g := NewNoOpGroup()
	calls := 0
	for i := 0; i < 2; i++ {
		_, _ = g.DoWithLock("k", func() (interface{}, error) {
			calls++
			_, _ = g.DoWithLock("k", func() (interface{}, error) {
				calls++
				return nil, nil
			})
			return nil, nil
		})
	}
	if calls != 4 {
		t.Errorf("expected 4 calls, got %d", calls)
	}
}
