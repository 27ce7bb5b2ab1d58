package metrics

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestLatencyTracker(t *testing.T) {
	tracker := NewLatencyTracker(0.01)

	series := []string{Series("quartz", "3_6-eccs"), Series("portmatching", "3_6-eccs")}
	for _, s := range series {
		tracker.Record(s, 1*time.Millisecond)
		tracker.Record(s, 5*time.Millisecond)
		tracker.Record(s, 10*time.Millisecond)
		tracker.Record(s, 50*time.Millisecond)
		tracker.Record(s, 100*time.Millisecond)
	}

	for _, s := range series {
		stats, err := tracker.GetStats(s)
		if err != nil {
			t.Errorf("Failed to get stats for %s: %v", s, err)
			continue
		}
		if stats.Count != 5 {
			t.Errorf("Expected count 5 for %s, got %d", s, stats.Count)
		}
		if stats.Min < 0.9 || stats.Min > 1.1 {
			t.Errorf("Expected min ~1ms for %s, got %.2fms", s, stats.Min)
		}
		if stats.Max < 99 || stats.Max > 101 {
			t.Errorf("Expected max ~100ms for %s, got %.2fms", s, stats.Max)
		}
		if stats.P50 < 5 || stats.P50 > 15 {
			t.Errorf("Expected p50 ~10ms for %s, got %.2fms", s, stats.P50)
		}
	}

	all := tracker.GetAllStats()
	if len(all) != 2 {
		t.Fatalf("Expected 2 series, got %d", len(all))
	}
	if all[0].Series != "portmatching/3_6-eccs" || all[1].Series != "quartz/3_6-eccs" {
		t.Errorf("Expected series sorted by name, got %s, %s", all[0].Series, all[1].Series)
	}

	if _, err := tracker.GetStats("nonexistent"); err == nil {
		t.Error("Expected error for unknown series, got nil")
	}
}

func TestLatencyTrackerTime(t *testing.T) {
	tracker := NewLatencyTracker(0.01)

	elapsed, err := tracker.Time("op", func() error {
		time.Sleep(10 * time.Millisecond)
		return nil
	})
	if err != nil {
		t.Fatalf("Time returned error: %v", err)
	}
	if elapsed < 10*time.Millisecond {
		t.Errorf("Expected elapsed >= 10ms, got %v", elapsed)
	}

	stats, err := tracker.GetStats("op")
	if err != nil {
		t.Fatalf("Failed to get stats: %v", err)
	}
	if stats.Count != 1 || stats.P50 < 9 {
		t.Errorf("Unexpected stats %+v", stats)
	}

	// Failed calls are not recorded.
	boom := errors.New("boom")
	if _, err := tracker.Time("op", func() error { return boom }); !errors.Is(err, boom) {
		t.Errorf("Expected error to be returned, got %v", err)
	}
	if stats, _ := tracker.GetStats("op"); stats.Count != 1 {
		t.Errorf("Expected count to stay 1, got %d", stats.Count)
	}
}

func TestStatsString(t *testing.T) {
	if got := (Stats{Series: "x"}).String(); !strings.Contains(got, "no data") {
		t.Errorf("Expected no data, got %q", got)
	}
	got := Stats{Series: "quartz/r", Count: 3, P50: 1.5}.String()
	if !strings.Contains(got, "quartz/r (n=3)") || !strings.Contains(got, "p50=1.500ms") {
		t.Errorf("Unexpected format %q", got)
	}
}
