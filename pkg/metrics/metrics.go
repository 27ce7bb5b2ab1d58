// Package metrics summarizes benchmark timings per engine/corpus series.
package metrics

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/DataDog/sketches-go/ddsketch"
)

// Series names the timings of one engine over one corpus.
func Series(engine, corpus string) string {
	return engine + "/" + corpus
}

// LatencyTracker tracks match latency quantiles per series using DDSketch.
type LatencyTracker struct {
	mu               sync.Mutex
	sketches         map[string]*ddsketch.DDSketch
	relativeAccuracy float64
}

// NewLatencyTracker creates a tracker whose quantiles are accurate to
// relativeAccuracy (e.g. 0.01 = 1%).
func NewLatencyTracker(relativeAccuracy float64) *LatencyTracker {
	return &LatencyTracker{
		sketches:         make(map[string]*ddsketch.DDSketch),
		relativeAccuracy: relativeAccuracy,
	}
}

// Record adds one sample to series.
func (lt *LatencyTracker) Record(series string, elapsed time.Duration) {
	lt.mu.Lock()
	defer lt.mu.Unlock()

	sketch, exists := lt.sketches[series]
	if !exists {
		var err error
		sketch, err = ddsketch.LogUnboundedDenseDDSketch(lt.relativeAccuracy)
		if err != nil {
			sketch, _ = ddsketch.NewDefaultDDSketch(lt.relativeAccuracy)
		}
		lt.sketches[series] = sketch
	}

	// Milliseconds, with microsecond resolution.
	_ = sketch.Add(float64(elapsed.Microseconds()) / 1000.0)
}

// Time runs fn and records its duration under series.
func (lt *LatencyTracker) Time(series string, fn func() error) (time.Duration, error) {
	start := time.Now()
	err := fn()
	elapsed := time.Since(start)
	if err == nil {
		lt.Record(series, elapsed)
	}
	return elapsed, err
}

// Stats summarizes one series, in milliseconds.
type Stats struct {
	Series string
	Count  int64
	Min    float64
	P50    float64
	P90    float64
	P99    float64
	Max    float64
}

// GetStats returns the summary of series.
func (lt *LatencyTracker) GetStats(series string) (Stats, error) {
	lt.mu.Lock()
	defer lt.mu.Unlock()
	return lt.statsLocked(series)
}

func (lt *LatencyTracker) statsLocked(series string) (Stats, error) {
	sketch, exists := lt.sketches[series]
	if !exists {
		return Stats{}, fmt.Errorf("no data for series: %s", series)
	}

	count := sketch.GetCount()
	if count == 0 {
		return Stats{Series: series}, nil
	}

	min, _ := sketch.GetMinValue()
	p50, _ := sketch.GetValueAtQuantile(0.50)
	p90, _ := sketch.GetValueAtQuantile(0.90)
	p99, _ := sketch.GetValueAtQuantile(0.99)
	max, _ := sketch.GetMaxValue()

	return Stats{
		Series: series,
		Count:  int64(count),
		Min:    min,
		P50:    p50,
		P90:    p90,
		P99:    p99,
		Max:    max,
	}, nil
}

// GetAllStats returns the summaries of every series, sorted by name.
func (lt *LatencyTracker) GetAllStats() []Stats {
	lt.mu.Lock()
	defer lt.mu.Unlock()

	names := make([]string, 0, len(lt.sketches))
	for name := range lt.sketches {
		names = append(names, name)
	}
	sort.Strings(names)

	stats := make([]Stats, 0, len(names))
	for _, name := range names {
		if s, err := lt.statsLocked(name); err == nil {
			stats = append(stats, s)
		}
	}
	return stats
}

func (s Stats) String() string {
	if s.Count == 0 {
		return fmt.Sprintf("  %s: no data", s.Series)
	}
	return fmt.Sprintf("  %s (n=%d): min=%.3fms p50=%.3fms p90=%.3fms p99=%.3fms max=%.3fms",
		s.Series, s.Count, s.Min, s.P50, s.P90, s.P99, s.Max)
}
