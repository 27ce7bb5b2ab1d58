package engine

import (
	"fmt"

	"github.com/lmondada/portmatching-benchmarking/pkg/circuit"
)

// Library is the in-process engine of package circuit. It reads tket JSON
// and builds its matcher ahead of the matching call.
type Library struct{}

func (Library) Name() string {
	return "portmatching"
}

func (Library) Format() circuit.Format {
	return circuit.FormatJSON
}

func (Library) CompileIsMatching() bool {
	return false
}

func (Library) Open(target Target) (Session, error) {
	c, err := circuit.ParseJSON(target.JSON)
	if err != nil {
		return nil, fmt.Errorf("failed to parse target: %w", err)
	}
	return &librarySession{target: circuit.NewTarget(c)}, nil
}

type librarySession struct {
	target *circuit.Target
}

type libraryCompiled struct {
	matcher *circuit.Matcher
}

func (c *libraryCompiled) Len() int {
	return c.matcher.Len()
}

func (c *libraryCompiled) Close() error {
	return nil
}

func (s *librarySession) Compile(patterns []string) (Compiled, error) {
	if s.target == nil {
		return nil, ErrSessionClosed
	}

	compiled := make([]*circuit.Pattern, 0, len(patterns))
	for i, js := range patterns {
		c, err := circuit.ParseJSON(js)
		if err != nil {
			return nil, fmt.Errorf("failed to parse pattern %d: %w", i, err)
		}
		p, err := circuit.CompilePattern(c)
		if err != nil {
			return nil, fmt.Errorf("failed to compile pattern %d: %w", i, err)
		}
		compiled = append(compiled, p)
	}
	return &libraryCompiled{matcher: circuit.NewMatcher(compiled)}, nil
}

func (s *librarySession) Match(c Compiled) (int, error) {
	if s.target == nil {
		return 0, ErrSessionClosed
	}
	lc, ok := c.(*libraryCompiled)
	if !ok {
		return 0, fmt.Errorf("pattern set %T was not compiled by this engine", c)
	}
	return len(lc.matcher.FindMatches(s.target)), nil
}

func (s *librarySession) Close() error {
	s.target = nil
	return nil
}
