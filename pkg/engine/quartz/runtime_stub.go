//go:build !quartz || !cgo

package quartz

import "github.com/lmondada/portmatching-benchmarking/pkg/engine"

// Available reports whether the native bindings are linked in.
const Available = false

func (*Runtime) LoadGraph(string) (engine.Graph, error) {
	return nil, ErrUnavailable
}

func (*Runtime) GetOps(engine.Graph) (engine.Ops, error) {
	return nil, ErrUnavailable
}

func (*Runtime) LoadXfers([]string) (engine.Xfers, error) {
	return nil, ErrUnavailable
}

func (*Runtime) PatternMatch(engine.Graph, engine.Ops, engine.Xfers, int) (int, error) {
	return 0, ErrUnavailable
}

func (*Runtime) FreeGraph(engine.Graph) {}

func (*Runtime) FreeOps(engine.Ops) {}

func (*Runtime) FreeXfers(engine.Xfers) {}

func (*Runtime) Extract(string, string) error {
	return ErrUnavailable
}
