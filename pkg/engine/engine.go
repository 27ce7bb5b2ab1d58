// Package engine abstracts the pattern-matching engines under benchmark.
//
// An Engine is opened on a target circuit. The resulting Session compiles
// pattern sets and counts their matches in the target.
package engine

import (
	"errors"
	"fmt"

	"github.com/lmondada/portmatching-benchmarking/pkg/circuit"
)

var (
	// ErrUnknownEngine is returned by Lookup for an unregistered name.
	ErrUnknownEngine = errors.New("engine: unknown engine")

	// ErrSessionClosed is returned when a closed Session is used.
	ErrSessionClosed = errors.New("engine: session closed")
)

// Target is the circuit patterns are matched against, in both encodings.
type Target struct {
	QASM string
	JSON string
}

// Encoded returns the target in format f.
func (t Target) Encoded(f circuit.Format) string {
	if f == circuit.FormatQASM {
		return t.QASM
	}
	return t.JSON
}

// Engine is a pattern-matching engine.
type Engine interface {
	// Name labels results, e.g. "portmatching".
	Name() string

	// Format is the encoding the engine reads patterns and targets in.
	Format() circuit.Format

	// CompileIsMatching reports whether compiling a pattern set is part of
	// the engine's own matching call. Benchmarks time compilation for such
	// engines under natural timing.
	CompileIsMatching() bool

	// Open prepares the engine to match against target.
	Open(target Target) (Session, error)
}

// Session holds the state of an engine opened on one target.
type Session interface {
	// Compile builds a matcher for patterns, given in the engine's format.
	Compile(patterns []string) (Compiled, error)

	// Match returns the number of matches of the compiled patterns.
	Match(c Compiled) (int, error)

	// Close releases the target.
	Close() error
}

// Compiled is a pattern set ready for matching.
type Compiled interface {
	Len() int
	Close() error
}

// Lookup returns the engine in engines named name.
func Lookup(engines []Engine, name string) (Engine, error) {
	for _, e := range engines {
		if e.Name() == name {
			return e, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownEngine, name)
}
