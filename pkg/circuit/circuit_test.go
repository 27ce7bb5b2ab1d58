package circuit

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"
)

const bellQASM = `OPENQASM 2.0;
include "qelib1.inc";
qreg q[2];
h q[0];
cx q[0],q[1];
`

func TestParseQASM(t *testing.T) {
	c, err := ParseQASM(bellQASM)
	require.NoError(t, err)

	want := &Circuit{
		NumQubits: 2,
		Commands: []Command{
			{Op: "H", Qubits: []int{0}},
			{Op: "CX", Qubits: []int{0, 1}},
		},
	}
	if diff := cmp.Diff(want, c, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("ParseQASM mismatch (-want +got):\n%s", diff)
	}
}

func TestParseQASMMultipleRegistersAndParams(t *testing.T) {
	src := `OPENQASM 2.0;
include "qelib1.inc";
// two registers are flattened in declaration order
qreg a[1];
qreg b[2];
creg c[2];
rz(pi/2) b[1];
rx(-3*pi/4) a[0];
barrier a[0],b[0];
cx a[0], b[1];
`
	c, err := ParseQASM(src)
	require.NoError(t, err)
	require.Equal(t, 3, c.NumQubits)
	require.Len(t, c.Commands, 3)

	require.Equal(t, "Rz", c.Commands[0].Op)
	require.Equal(t, []int{2}, c.Commands[0].Qubits)
	require.InDelta(t, 0.5, c.Commands[0].Params[0], 1e-12)

	require.Equal(t, "Rx", c.Commands[1].Op)
	require.InDelta(t, -0.75, c.Commands[1].Params[0], 1e-12)

	require.Equal(t, []int{0, 2}, c.Commands[2].Qubits)
}

func TestParseQASMErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want error
	}{
		{"unknown gate", "qreg q[1];\nfoo q[0];", ErrUnsupported},
		{"measure", "qreg q[1];\ncreg c[1];\nmeasure q[0] -> c[0];", ErrUnsupported},
		{"out of range", "qreg q[1];\nh q[1];", ErrSyntax},
		{"undeclared register", "qreg q[1];\nh r[0];", ErrSyntax},
		{"wrong arity", "qreg q[2];\ncx q[0];", ErrSyntax},
		{"missing params", "qreg q[1];\nrz q[0];", ErrSyntax},
		{"bad param", "qreg q[1];\nrz(pi+) q[0];", ErrSyntax},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseQASM(tt.src)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestEncodeQASMRoundTrip(t *testing.T) {
	c := &Circuit{
		NumQubits: 3,
		Commands: []Command{
			{Op: "H", Qubits: []int{2}},
			{Op: "Rz", Qubits: []int{1}, Params: []float64{-0.25}},
			{Op: "CCX", Qubits: []int{0, 1, 2}},
		},
	}
	text, err := EncodeQASM(c)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(text, "OPENQASM 2.0;"))

	back, err := ParseQASM(text)
	require.NoError(t, err)
	require.True(t, c.Equivalent(back), "round trip changed the circuit:\n%s", text)
}

func TestEncodeQASMUnknownOp(t *testing.T) {
	c := &Circuit{NumQubits: 1, Commands: []Command{{Op: "Mystery", Qubits: []int{0}}}}
	_, err := EncodeQASM(c)
	require.ErrorIs(t, err, ErrUnsupported)
}

func TestParseJSON(t *testing.T) {
	src := `{"bits": [], "commands": [
		{"args": [["q", [0]]], "op": {"type": "H"}},
		{"args": [["q", [0]], ["q", [1]]], "op": {"type": "CX"}},
		{"args": [["q", [1]]], "op": {"params": ["0.25"], "type": "Rz"}}
	], "created_qubits": [], "discarded_qubits": [],
	"implicit_permutation": [[["q", [0]], ["q", [0]]], [["q", [1]], ["q", [1]]]],
	"phase": "0.0", "qubits": [["q", [0]], ["q", [1]]]}`

	c, err := ParseJSON(src)
	require.NoError(t, err)
	require.Equal(t, 2, c.NumQubits)
	require.Len(t, c.Commands, 3)
	require.Equal(t, "CX", c.Commands[1].Op)
	require.Equal(t, []int{0, 1}, c.Commands[1].Qubits)
	require.InDelta(t, 0.25, c.Commands[2].Params[0], 1e-12)
}

func TestParseJSONErrors(t *testing.T) {
	_, err := ParseJSON("not json")
	require.ErrorIs(t, err, ErrSyntax)

	_, err = ParseJSON(`{"qubits": [["q", [0]]], "commands": [{"args": [["c", [0]]], "op": {"type": "Measure"}}]}`)
	require.ErrorIs(t, err, ErrUnsupported)

	_, err = ParseJSON(`{"qubits": [["q", [0]]], "commands": [{"args": [["q", [0]]], "op": {"type": "CX"}}]}`)
	require.ErrorIs(t, err, ErrSyntax)
}

func TestQASMToJSONToQASM(t *testing.T) {
	orig, err := ParseQASM(bellQASM + "t q[1];\nrz(0.3) q[0];\n")
	require.NoError(t, err)

	js, err := EncodeJSON(orig)
	require.NoError(t, err)
	fromJSON, err := ParseJSON(js)
	require.NoError(t, err)

	qasm, err := EncodeQASM(fromJSON)
	require.NoError(t, err)
	back, err := ParseQASM(qasm)
	require.NoError(t, err)

	require.True(t, orig.Equivalent(back))
	require.InDelta(t, 0.3/math.Pi, back.Commands[3].Params[0], 1e-12)
}

func TestStats(t *testing.T) {
	c, err := ParseQASM(bellQASM + "h q[1];\nh q[0];\n")
	require.NoError(t, err)

	require.Equal(t, Stats{Qubits: 2, Gates: 4, CX: 1, Depth: 3}, c.Stats())
	require.Equal(t, 4, c.Stats().Env()["gates"])
}

func TestUnionFind(t *testing.T) {
	uf := NewUnionFind(4)
	require.False(t, uf.Connected())
	require.True(t, uf.Union(0, 1))
	require.False(t, uf.Union(1, 0))
	uf.Union(2, 3)
	require.NotEqual(t, uf.Find(0), uf.Find(3))
	uf.Union(1, 3)
	require.Equal(t, uf.Find(0), uf.Find(2))
	require.True(t, uf.Connected())

	require.True(t, NewUnionFind(1).Connected())
}
