package circuit

// UnionFind is a disjoint-set forest with union by size and path halving.
type UnionFind struct {
	parent []int
	size   []int
	sets   int
}

// NewUnionFind returns n singleton sets labelled 0..n-1.
func NewUnionFind(n int) *UnionFind {
	uf := &UnionFind{
		parent: make([]int, n),
		size:   make([]int, n),
		sets:   n,
	}
	for i := range uf.parent {
		uf.parent[i] = i
		uf.size[i] = 1
	}
	return uf
}

// Find returns the representative of x's set.
func (uf *UnionFind) Find(x int) int {
	for uf.parent[x] != x {
		uf.parent[x] = uf.parent[uf.parent[x]]
		x = uf.parent[x]
	}
	return x
}

// Union merges the sets containing a and b and reports whether they were
// distinct.
func (uf *UnionFind) Union(a, b int) bool {
	ra, rb := uf.Find(a), uf.Find(b)
	if ra == rb {
		return false
	}
	if uf.size[ra] < uf.size[rb] {
		ra, rb = rb, ra
	}
	uf.parent[rb] = ra
	uf.size[ra] += uf.size[rb]
	uf.sets--
	return true
}

// Connected reports whether every element lies in a single set.
func (uf *UnionFind) Connected() bool {
	return uf.sets <= 1
}

// Connected reports whether the qubit interaction graph of c, with one edge
// per pair of qubits sharing a multi-qubit command, is a single component.
func (c *Circuit) Connected() bool {
	uf := NewUnionFind(c.NumQubits)
	for _, cmd := range c.Commands {
		if len(cmd.Qubits) < 2 {
			continue
		}
		for _, q := range cmd.Qubits[1:] {
			uf.Union(cmd.Qubits[0], q)
		}
	}
	return uf.Connected()
}
