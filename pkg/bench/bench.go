// Package bench times pattern-matching engines over growing prefixes of a
// corpus.
package bench

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lmondada/portmatching-benchmarking/pkg/circuit"
	"github.com/lmondada/portmatching-benchmarking/pkg/engine"
	"github.com/lmondada/portmatching-benchmarking/pkg/metrics"
)

// Sample is the time one engine took to match the first Size patterns.
type Sample struct {
	Size    int
	Elapsed time.Duration
}

// CompileTiming selects whether compiling a pattern set is timed.
type CompileTiming string

const (
	// TimingNatural times compilation only for engines whose matching call
	// compiles the patterns itself.
	TimingNatural = CompileTiming("natural")
	TimingExclude = CompileTiming("exclude")
	TimingInclude = CompileTiming("include")
)

// ParseCompileTiming parses a --compile-timing value.
func ParseCompileTiming(s string) (CompileTiming, error) {
	switch t := CompileTiming(s); t {
	case TimingNatural, TimingExclude, TimingInclude:
		return t, nil
	default:
		return "", fmt.Errorf("invalid compile timing %q: expected natural, exclude or include", s)
	}
}

func (t CompileTiming) includesCompile(e engine.Engine) bool {
	switch t {
	case TimingInclude:
		return true
	case TimingExclude:
		return false
	default:
		return e.CompileIsMatching()
	}
}

// Source provides the encoded patterns of a generated corpus.
type Source interface {
	Name() string
	IterEncoded(f circuit.Format) ([]string, error)
}

// Driver runs benchmarks and records every sample in a LatencyTracker.
type Driver struct {
	logger  *slog.Logger
	tracker *metrics.LatencyTracker
	timing  CompileTiming
	now     func() time.Time
}

// NewDriver creates a driver.
func NewDriver(logger *slog.Logger, tracker *metrics.LatencyTracker, timing CompileTiming) *Driver {
	return &Driver{
		logger:  logger,
		tracker: tracker,
		timing:  timing,
		now:     time.Now,
	}
}

// Sizes returns start, start+step, ... up to and including stop.
func Sizes(start, stop, step int) []int {
	if step <= 0 {
		return nil
	}
	var sizes []int
	for n := start; n <= stop; n += step {
		sizes = append(sizes, n)
	}
	return sizes
}

// Run matches the first n patterns of src against target for every n in
// sizes not exceeding the corpus size, and returns one sample per n.
func (d *Driver) Run(e engine.Engine, src Source, target engine.Target, sizes []int) (samples []Sample, err error) {
	log := d.logger.With("engine", e.Name(), "corpus", src.Name())

	patterns, err := src.IterEncoded(e.Format())
	if err != nil {
		return nil, fmt.Errorf("failed to load patterns: %w", err)
	}
	log.Info("loaded patterns", "n", len(patterns))

	session, err := e.Open(target)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", e.Name(), err)
	}
	defer func() {
		if closeErr := session.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("failed to close %s: %w", e.Name(), closeErr))
		}
	}()

	series := metrics.Series(e.Name(), src.Name())
	includeCompile := d.timing.includesCompile(e)
	for _, n := range sizes {
		if n > len(patterns) {
			continue
		}
		log.Debug("pattern matching", "n", n)

		elapsed, err := d.measure(session, patterns[:n], includeCompile)
		if err != nil {
			return nil, fmt.Errorf("failed to match %d patterns: %w", n, err)
		}
		d.tracker.Record(series, elapsed)
		samples = append(samples, Sample{Size: n, Elapsed: elapsed})
	}
	return samples, nil
}

func (d *Driver) measure(session engine.Session, patterns []string, includeCompile bool) (time.Duration, error) {
	start := d.now()
	compiled, err := session.Compile(patterns)
	if err != nil {
		return 0, err
	}
	defer compiled.Close()

	if !includeCompile {
		start = d.now()
	}
	if _, err := session.Match(compiled); err != nil {
		return 0, err
	}
	return d.now().Sub(start), nil
}
