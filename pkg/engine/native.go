package engine

import (
	"errors"
	"fmt"

	"github.com/lmondada/portmatching-benchmarking/pkg/circuit"
)

// Opaque handles allocated by a NativeRuntime. Every handle must be passed
// back to the matching Free call exactly once.
type (
	Graph any
	Ops   any
	Xfers any
)

// NativeRuntime is the foreign interface of a native matcher library.
type NativeRuntime interface {
	LoadGraph(qasm string) (Graph, error)
	GetOps(g Graph) (Ops, error)
	LoadXfers(patterns []string) (Xfers, error)
	PatternMatch(g Graph, ops Ops, xfers Xfers, n int) (int, error)
	FreeGraph(g Graph)
	FreeOps(ops Ops)
	FreeXfers(xfers Xfers)
}

// Native benchmarks a NativeRuntime. It reads QASM; loading the pattern set
// is part of matching as far as the runtime is concerned.
type Native struct {
	name    string
	runtime NativeRuntime
}

// NewNative creates a native engine called name.
func NewNative(name string, runtime NativeRuntime) *Native {
	return &Native{name: name, runtime: runtime}
}

func (n *Native) Name() string {
	return n.name
}

func (n *Native) Format() circuit.Format {
	return circuit.FormatQASM
}

// CompileIsMatching is true: pattern_match consumes the loaded pattern set,
// so natural timing includes load_xfers.
func (n *Native) CompileIsMatching() bool {
	return true
}

// Open loads the target graph and its ops.
func (n *Native) Open(target Target) (Session, error) {
	g, err := n.runtime.LoadGraph(target.QASM)
	if err != nil {
		return nil, fmt.Errorf("failed to load target graph: %w", err)
	}
	ops, err := n.runtime.GetOps(g)
	if err != nil {
		n.runtime.FreeGraph(g)
		return nil, fmt.Errorf("failed to get target ops: %w", err)
	}
	return &nativeSession{runtime: n.runtime, graph: g, ops: ops}, nil
}

type nativeSession struct {
	runtime NativeRuntime
	graph   Graph
	ops     Ops
	closed  bool
}

type nativeCompiled struct {
	runtime NativeRuntime
	xfers   Xfers
	n       int
	freed   bool
}

func (c *nativeCompiled) Len() int {
	return c.n
}

func (c *nativeCompiled) Close() error {
	if c.freed {
		return nil
	}
	c.freed = true
	c.runtime.FreeXfers(c.xfers)
	return nil
}

func (s *nativeSession) Compile(patterns []string) (Compiled, error) {
	if s.closed {
		return nil, ErrSessionClosed
	}
	xfers, err := s.runtime.LoadXfers(patterns)
	if err != nil {
		return nil, fmt.Errorf("failed to load %d patterns: %w", len(patterns), err)
	}
	return &nativeCompiled{runtime: s.runtime, xfers: xfers, n: len(patterns)}, nil
}

func (s *nativeSession) Match(c Compiled) (int, error) {
	if s.closed {
		return 0, ErrSessionClosed
	}
	nc, ok := c.(*nativeCompiled)
	if !ok {
		return 0, fmt.Errorf("pattern set %T was not compiled by this engine", c)
	}
	if nc.freed {
		return 0, errors.New("pattern set already released")
	}
	return s.runtime.PatternMatch(s.graph, s.ops, nc.xfers, nc.n)
}

// Close frees the ops before the graph they point into.
func (s *nativeSession) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.runtime.FreeOps(s.ops)
	s.runtime.FreeGraph(s.graph)
	return nil
}
