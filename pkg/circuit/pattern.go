package circuit

import (
	"errors"
	"fmt"
)

var ErrInvalidPattern = errors.New("circuit: invalid pattern")

// port identifies one qubit slot of a command: the idx-th operand of cmd.
type port struct {
	cmd int
	idx int
}

var noPort = port{cmd: -1, idx: -1}

// wiring records, for every operand of every command, the neighbouring
// command on the same qubit wire in both directions.
type wiring struct {
	circ *Circuit
	prev [][]port
	next [][]port
}

func newWiring(c *Circuit) *wiring {
	w := &wiring{
		circ: c,
		prev: make([][]port, len(c.Commands)),
		next: make([][]port, len(c.Commands)),
	}
	last := make([]port, c.NumQubits)
	for q := range last {
		last[q] = noPort
	}
	for i, cmd := range c.Commands {
		w.prev[i] = make([]port, len(cmd.Qubits))
		w.next[i] = make([]port, len(cmd.Qubits))
		for k, q := range cmd.Qubits {
			w.next[i][k] = noPort
			w.prev[i][k] = last[q]
			if p := last[q]; p.cmd >= 0 {
				w.next[p.cmd][p.idx] = port{cmd: i, idx: k}
			}
			last[q] = port{cmd: i, idx: k}
		}
	}
	return w
}

// Pattern is a circuit compiled for matching.
type Pattern struct {
	w *wiring
}

// CompilePattern checks that c can be used as a pattern and precomputes its
// wiring. Patterns must be non-empty, touch every qubit, never repeat an
// operand within a command and have a connected qubit interaction graph.
func CompilePattern(c *Circuit) (*Pattern, error) {
	if len(c.Commands) == 0 {
		return nil, fmt.Errorf("%w: empty circuit", ErrInvalidPattern)
	}

	used := make([]bool, c.NumQubits)
	for i, cmd := range c.Commands {
		if len(cmd.Qubits) == 0 {
			return nil, fmt.Errorf("%w: command %d (%s) has no qubits", ErrInvalidPattern, i, cmd.Op)
		}
		seen := make(map[int]bool, len(cmd.Qubits))
		for _, q := range cmd.Qubits {
			if q < 0 || q >= c.NumQubits {
				return nil, fmt.Errorf("%w: command %d uses qubit %d of %d", ErrInvalidPattern, i, q, c.NumQubits)
			}
			if seen[q] {
				return nil, fmt.Errorf("%w: command %d repeats qubit %d", ErrInvalidPattern, i, q)
			}
			seen[q] = true
			used[q] = true
		}
	}
	for q, ok := range used {
		if !ok {
			return nil, fmt.Errorf("%w: qubit %d is idle", ErrInvalidPattern, q)
		}
	}
	if !c.Connected() {
		return nil, fmt.Errorf("%w: disconnected qubits", ErrInvalidPattern)
	}

	return &Pattern{w: newWiring(c)}, nil
}

// Circuit returns the circuit the pattern was compiled from.
func (p *Pattern) Circuit() *Circuit {
	return p.w.circ
}
