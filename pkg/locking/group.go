// Package locking provides mutual exclusion over keyed resources, such as a
// corpus directory owned by a single generation run.
package locking

import "errors"

// ErrLocked is returned when a key is already held by someone else.
var ErrLocked = errors.New("locking: already locked")

// locking.Group is an abstraction for running functions with mutual exclusion
// over sets of keys.
type Group interface {
	// DoWithLock runs the given function with mutual exclusion over the given key.
	DoWithLock(key string, fn func() (interface{}, error)) (v interface{}, err error)
}
