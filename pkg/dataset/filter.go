package dataset

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/lmondada/portmatching-benchmarking/pkg/circuit"
)

// Filter is a boolean expression over circuit statistics, e.g.
// "gates <= 10 && qubits >= 3". The variables are qubits, gates, cx and depth.
type Filter struct {
	src     string
	program *vm.Program
}

// CompileFilter parses and type-checks src.
func CompileFilter(src string) (*Filter, error) {
	program, err := expr.Compile(src, expr.Env(circuit.Stats{}.Env()), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("failed to compile filter %q: %w", src, err)
	}
	return &Filter{src: src, program: program}, nil
}

func (f *Filter) String() string {
	return f.src
}

// Match evaluates the filter against c.
func (f *Filter) Match(c *circuit.Circuit) (bool, error) {
	out, err := expr.Run(f.program, c.Stats().Env())
	if err != nil {
		return false, fmt.Errorf("failed to evaluate filter %q: %w", f.src, err)
	}
	ok, _ := out.(bool)
	return ok, nil
}
