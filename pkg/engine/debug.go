package engine

import (
	"fmt"
	"io"

	"github.com/lmondada/portmatching-benchmarking/pkg/circuit"
)

// Debug wraps any Engine and traces every call to w.
type Debug struct {
	engine Engine
	w      io.Writer
}

// NewDebug creates a debug wrapper around an existing engine.
func NewDebug(engine Engine, w io.Writer) *Debug {
	return &Debug{engine: engine, w: w}
}

func (d *Debug) Name() string {
	return d.engine.Name()
}

func (d *Debug) Format() circuit.Format {
	return d.engine.Format()
}

func (d *Debug) CompileIsMatching() bool {
	return d.engine.CompileIsMatching()
}

// Open opens the wrapped engine with debug logging.
func (d *Debug) Open(target Target) (Session, error) {
	fmt.Fprintf(d.w, "[DEBUG] %s Open: target=%d bytes\n", d.engine.Name(), len(target.Encoded(d.engine.Format())))

	s, err := d.engine.Open(target)
	if err != nil {
		fmt.Fprintf(d.w, "[DEBUG] %s Open: ERROR: %v\n", d.engine.Name(), err)
		return nil, err
	}
	return &debugSession{name: d.engine.Name(), session: s, w: d.w}, nil
}

type debugSession struct {
	name    string
	session Session
	w       io.Writer
}

func (d *debugSession) Compile(patterns []string) (Compiled, error) {
	fmt.Fprintf(d.w, "[DEBUG] %s Compile: n=%d\n", d.name, len(patterns))

	c, err := d.session.Compile(patterns)
	if err != nil {
		fmt.Fprintf(d.w, "[DEBUG] %s Compile: ERROR: %v\n", d.name, err)
		return nil, err
	}
	return c, nil
}

func (d *debugSession) Match(c Compiled) (int, error) {
	fmt.Fprintf(d.w, "[DEBUG] %s Match: n=%d\n", d.name, c.Len())

	matches, err := d.session.Match(c)
	if err != nil {
		fmt.Fprintf(d.w, "[DEBUG] %s Match: ERROR: %v\n", d.name, err)
		return matches, err
	}

	fmt.Fprintf(d.w, "[DEBUG] %s Match: %d matches\n", d.name, matches)
	return matches, nil
}

func (d *debugSession) Close() error {
	fmt.Fprintf(d.w, "[DEBUG] %s Close: releasing target\n", d.name)

	err := d.session.Close()
	if err != nil {
		fmt.Fprintf(d.w, "[DEBUG] %s Close: ERROR: %v\n", d.name, err)
	}
	return err
}
