package circuit

// Target is a circuit prepared for repeated matching.
type Target struct {
	w *wiring
}

// NewTarget precomputes the wiring of c.
func NewTarget(c *Circuit) *Target {
	return &Target{w: newWiring(c)}
}

// Match is one embedding of a pattern into a target. Commands[i] is the
// target command that pattern command i maps to.
type Match struct {
	Pattern  int
	Commands []int
}

// Matcher finds occurrences of a fixed set of patterns.
type Matcher struct {
	patterns []*Pattern
}

// NewMatcher builds a matcher over patterns. Pattern indices in the returned
// matches refer to positions in this slice.
func NewMatcher(patterns []*Pattern) *Matcher {
	return &Matcher{patterns: patterns}
}

// Len returns the number of patterns.
func (m *Matcher) Len() int {
	return len(m.patterns)
}

// FindMatches returns every embedding of every pattern into t. A pattern is
// anchored at its first command and extended by following qubit wires, so
// each (pattern, anchor) pair yields at most one match.
func (m *Matcher) FindMatches(t *Target) []Match {
	var matches []Match
	for pi, p := range m.patterns {
		for anchor := range t.w.circ.Commands {
			if mapping, ok := p.matchAt(t.w, anchor); ok {
				matches = append(matches, Match{Pattern: pi, Commands: mapping})
			}
		}
	}
	return matches
}

func (p *Pattern) matchAt(t *wiring, anchor int) ([]int, bool) {
	pc, tc := p.w.circ.Commands, t.circ.Commands
	if !sameCommand(pc[0], tc[anchor]) {
		return nil, false
	}

	cmdMap := make([]int, len(pc))
	for i := range cmdMap {
		cmdMap[i] = -1
	}
	qubitMap := make(map[int]int, p.w.circ.NumQubits)
	qubitUsed := make(map[int]bool, p.w.circ.NumQubits)
	cmdUsed := map[int]bool{anchor: true}

	cmdMap[0] = anchor
	stack := []int{0}
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		j := cmdMap[i]

		for k, pq := range pc[i].Qubits {
			tq := tc[j].Qubits[k]
			if mapped, ok := qubitMap[pq]; ok {
				if mapped != tq {
					return nil, false
				}
			} else {
				if qubitUsed[tq] {
					return nil, false
				}
				qubitMap[pq] = tq
				qubitUsed[tq] = true
			}

			for _, dir := range [2][2][][]port{{p.w.prev, t.prev}, {p.w.next, t.next}} {
				pp, tp := dir[0][i][k], dir[1][j][k]
				if pp.cmd < 0 {
					continue
				}
				if tp.cmd < 0 || tp.idx != pp.idx {
					return nil, false
				}
				if cmdMap[pp.cmd] >= 0 {
					if cmdMap[pp.cmd] != tp.cmd {
						return nil, false
					}
					continue
				}
				if cmdUsed[tp.cmd] || !sameCommand(pc[pp.cmd], tc[tp.cmd]) {
					return nil, false
				}
				cmdMap[pp.cmd] = tp.cmd
				cmdUsed[tp.cmd] = true
				stack = append(stack, pp.cmd)
			}
		}
	}

	for _, j := range cmdMap {
		if j < 0 {
			return nil, false
		}
	}
	return cmdMap, true
}
