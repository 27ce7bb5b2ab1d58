// Package circuit holds the in-memory quantum circuit model shared by the
// dataset tooling and the in-process pattern matcher, together with codecs
// for the two textual encodings a corpus carries: OpenQASM 2.0 and tket JSON.
package circuit

import (
	"errors"
	"fmt"
	"math"
)

// Format identifies one of the two textual circuit encodings.
type Format string

const (
	FormatQASM = Format("qasm")
	FormatJSON = Format("json")
)

// Ext returns the file extension used for the format, including the dot.
func (f Format) Ext() string {
	return "." + string(f)
}

var (
	ErrSyntax      = errors.New("circuit: syntax error")
	ErrUnsupported = errors.New("circuit: unsupported construct")
)

// paramTolerance is the half-turn tolerance used when comparing parameters.
const paramTolerance = 1e-9

// Command is a single gate application. Op uses tket operation names and
// Params are expressed in half-turns.
type Command struct {
	Op     string
	Qubits []int
	Params []float64
}

// Circuit is an ordered list of commands over NumQubits qubits.
type Circuit struct {
	NumQubits int
	Commands  []Command
}

// Validate checks that every command addresses qubits inside the register.
func (c *Circuit) Validate() error {
	for i, cmd := range c.Commands {
		for _, q := range cmd.Qubits {
			if q < 0 || q >= c.NumQubits {
				return fmt.Errorf("%w: command %d (%s) uses qubit %d of %d", ErrSyntax, i, cmd.Op, q, c.NumQubits)
			}
		}
	}
	return nil
}

// Equivalent reports whether two circuits apply the same operations to the
// same qubits in the same order, comparing parameters with a small tolerance.
func (c *Circuit) Equivalent(other *Circuit) bool {
	if c.NumQubits != other.NumQubits || len(c.Commands) != len(other.Commands) {
		return false
	}
	for i := range c.Commands {
		if !sameCommand(c.Commands[i], other.Commands[i]) {
			return false
		}
	}
	for i := range c.Commands {
		a, b := c.Commands[i].Qubits, other.Commands[i].Qubits
		for k := range a {
			if a[k] != b[k] {
				return false
			}
		}
	}
	return true
}

// sameCommand compares op name, arity and parameters, but not qubit indices.
func sameCommand(a, b Command) bool {
	if a.Op != b.Op || len(a.Qubits) != len(b.Qubits) || len(a.Params) != len(b.Params) {
		return false
	}
	for i := range a.Params {
		if math.Abs(a.Params[i]-b.Params[i]) > paramTolerance {
			return false
		}
	}
	return true
}

// Stats summarises a circuit for corpus filter expressions.
type Stats struct {
	Qubits int
	Gates  int
	CX     int
	Depth  int
}

// Stats computes the summary statistics of c.
func (c *Circuit) Stats() Stats {
	s := Stats{Qubits: c.NumQubits, Gates: len(c.Commands)}
	layer := make([]int, c.NumQubits)
	for _, cmd := range c.Commands {
		if len(cmd.Qubits) > 1 {
			s.CX++
		}
		d := 0
		for _, q := range cmd.Qubits {
			d = max(d, layer[q])
		}
		for _, q := range cmd.Qubits {
			layer[q] = d + 1
		}
		s.Depth = max(s.Depth, d+1)
	}
	return s
}

// Env exposes the statistics under the variable names available to
// corpus filter expressions.
func (s Stats) Env() map[string]any {
	return map[string]any{
		"qubits": s.Qubits,
		"gates":  s.Gates,
		"cx":     s.CX,
		"depth":  s.Depth,
	}
}
