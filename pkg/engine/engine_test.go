package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lmondada/portmatching-benchmarking/pkg/circuit"
	"github.com/lmondada/portmatching-benchmarking/pkg/convert"
)

func toJSON(t *testing.T, qubits int, body string) string {
	t.Helper()
	qasm := fmt.Sprintf("OPENQASM 2.0;\ninclude \"qelib1.inc\";\nqreg q[%d];\n%s", qubits, body)
	js, err := convert.Builtin{}.QASMToJSON(context.Background(), qasm)
	require.NoError(t, err)
	return js
}

func TestLibraryMatchCounts(t *testing.T) {
	target := Target{JSON: toJSON(t, 3, "h q[0];\ncx q[0],q[1];\nh q[0];\ncx q[1],q[2];\nt q[2];\n")}
	patterns := []string{
		toJSON(t, 1, "h q[0];\n"),
		toJSON(t, 2, "cx q[0],q[1];\n"),
		toJSON(t, 2, "cx q[0],q[1];\nt q[1];\n"),
	}

	e := Library{}
	require.Equal(t, "portmatching", e.Name())
	require.Equal(t, circuit.FormatJSON, e.Format())
	require.False(t, e.CompileIsMatching())

	s, err := e.Open(target)
	require.NoError(t, err)
	defer s.Close()

	for _, tc := range []struct {
		n    int
		want int
	}{
		{n: 1, want: 2}, // both H gates
		{n: 2, want: 4}, // plus both CX gates
		{n: 3, want: 5}, // plus cx q[1],q[2]; t q[2]
	} {
		c, err := s.Compile(patterns[:tc.n])
		require.NoError(t, err)
		require.Equal(t, tc.n, c.Len())
		got, err := s.Match(c)
		require.NoError(t, err)
		require.Equal(t, tc.want, got, "n=%d", tc.n)
		require.NoError(t, c.Close())
	}
}

func TestLibraryRejectsInvalidInput(t *testing.T) {
	_, err := Library{}.Open(Target{JSON: "not json"})
	require.ErrorIs(t, err, circuit.ErrSyntax)

	s, err := Library{}.Open(Target{JSON: toJSON(t, 1, "h q[0];\n")})
	require.NoError(t, err)
	_, err = s.Compile([]string{toJSON(t, 2, "h q[0];\n")})
	require.ErrorIs(t, err, circuit.ErrInvalidPattern)

	require.NoError(t, s.Close())
	_, err = s.Compile(nil)
	require.ErrorIs(t, err, ErrSessionClosed)
}

// countingRuntime is a fake NativeRuntime that tracks live handles and can
// fail any call on demand.
type countingRuntime struct {
	live    map[any]string
	nextID  int
	failOn  string
	failAt  int
	calls   map[string]int
	matches int
}

type fakeHandle struct {
	id int
}

var errInjected = errors.New("injected failure")

func newCountingRuntime() *countingRuntime {
	return &countingRuntime{
		live:  make(map[any]string),
		calls: make(map[string]int),
	}
}

func (r *countingRuntime) call(name string) error {
	r.calls[name]++
	if r.failOn == name && r.calls[name] == r.failAt {
		return fmt.Errorf("%s: %w", name, errInjected)
	}
	return nil
}

func (r *countingRuntime) alloc(kind string) *fakeHandle {
	r.nextID++
	h := &fakeHandle{id: r.nextID}
	r.live[h] = kind
	return h
}

func (r *countingRuntime) free(h any, kind string) {
	if r.live[h] != kind {
		panic(fmt.Sprintf("freeing %v as %s, but it is %q", h, kind, r.live[h]))
	}
	delete(r.live, h)
}

func (r *countingRuntime) LoadGraph(string) (Graph, error) {
	if err := r.call("LoadGraph"); err != nil {
		return nil, err
	}
	return r.alloc("graph"), nil
}

func (r *countingRuntime) GetOps(Graph) (Ops, error) {
	if err := r.call("GetOps"); err != nil {
		return nil, err
	}
	return r.alloc("ops"), nil
}

func (r *countingRuntime) LoadXfers([]string) (Xfers, error) {
	if err := r.call("LoadXfers"); err != nil {
		return nil, err
	}
	return r.alloc("xfers"), nil
}

func (r *countingRuntime) PatternMatch(g Graph, ops Ops, xfers Xfers, n int) (int, error) {
	if err := r.call("PatternMatch"); err != nil {
		return 0, err
	}
	if r.live[g] != "graph" || r.live[ops] != "ops" || r.live[xfers] != "xfers" {
		panic("pattern_match on released handles")
	}
	return n + r.matches, nil
}

func (r *countingRuntime) FreeGraph(g Graph)     { r.free(g, "graph") }
func (r *countingRuntime) FreeOps(ops Ops)       { r.free(ops, "ops") }
func (r *countingRuntime) FreeXfers(xfers Xfers) { r.free(xfers, "xfers") }

// runNative mirrors a benchmark: compile and match each prefix size, always
// releasing the compiled set, and close the session at the end.
func runNative(e Engine, patterns []string, sizes []int) (err error) {
	s, err := e.Open(Target{QASM: "OPENQASM 2.0;"})
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, s.Close())
	}()

	for _, n := range sizes {
		if err := func() error {
			c, err := s.Compile(patterns[:n])
			if err != nil {
				return err
			}
			defer c.Close()
			_, err = s.Match(c)
			return err
		}(); err != nil {
			return err
		}
	}
	return nil
}

func TestNativeReleasesHandles(t *testing.T) {
	patterns := make([]string, 10)
	sizes := []int{2, 4, 6, 8, 10}

	rt := newCountingRuntime()
	e := NewNative("quartz", rt)
	require.Equal(t, circuit.FormatQASM, e.Format())
	require.True(t, e.CompileIsMatching())

	for range 50 {
		require.NoError(t, runNative(e, patterns, sizes))
		require.Empty(t, rt.live)
	}
	require.Equal(t, 50*len(sizes), rt.calls["PatternMatch"])
}

func TestNativeReleasesHandlesOnFailure(t *testing.T) {
	patterns := make([]string, 10)
	sizes := []int{2, 4, 6, 8, 10}

	for _, tc := range []struct {
		failOn string
		failAt int
	}{
		{failOn: "LoadGraph", failAt: 1},
		{failOn: "GetOps", failAt: 1},
		{failOn: "LoadXfers", failAt: 1},
		{failOn: "LoadXfers", failAt: 3},
		{failOn: "PatternMatch", failAt: 1},
		{failOn: "PatternMatch", failAt: 4},
	} {
		t.Run(fmt.Sprintf("%s_%d", tc.failOn, tc.failAt), func(t *testing.T) {
			rt := newCountingRuntime()
			rt.failOn, rt.failAt = tc.failOn, tc.failAt

			err := runNative(NewNative("quartz", rt), patterns, sizes)
			require.ErrorIs(t, err, errInjected)
			require.Empty(t, rt.live, "leaked native handles")
		})
	}
}

func TestNativeSessionClose(t *testing.T) {
	rt := newCountingRuntime()
	s, err := NewNative("quartz", rt).Open(Target{})
	require.NoError(t, err)

	c, err := s.Compile([]string{"a"})
	require.NoError(t, err)
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
	_, err = s.Match(c)
	require.Error(t, err)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	require.Empty(t, rt.live)

	_, err = s.Compile(nil)
	require.ErrorIs(t, err, ErrSessionClosed)
}

func TestDebug(t *testing.T) {
	var out bytes.Buffer
	rt := newCountingRuntime()
	rt.matches = 3
	e := NewDebug(NewNative("quartz", rt), &out)

	require.NoError(t, runNative(e, []string{"a", "b"}, []int{2}))
	require.Contains(t, out.String(), "[DEBUG] quartz Compile: n=2")
	require.Contains(t, out.String(), "[DEBUG] quartz Match: 5 matches")
	require.Contains(t, out.String(), "[DEBUG] quartz Close")

	out.Reset()
	rt.failOn, rt.failAt = "LoadGraph", rt.calls["LoadGraph"]+1
	require.ErrorIs(t, runNative(e, nil, nil), errInjected)
	require.Contains(t, out.String(), "Open: ERROR")
}

func TestLookup(t *testing.T) {
	engines := []Engine{Library{}, NewNative("quartz", newCountingRuntime())}

	e, err := Lookup(engines, "quartz")
	require.NoError(t, err)
	require.Equal(t, "quartz", e.Name())

	_, err = Lookup(engines, "tket")
	require.ErrorIs(t, err, ErrUnknownEngine)
}
