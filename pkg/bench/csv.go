package bench

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// CSVPath returns <outDir>/<engine>/<corpus>.csv.
func CSVPath(outDir, engineName, corpus string) string {
	return filepath.Join(outDir, engineName, corpus+".csv")
}

// WriteCSV writes samples as size,duration rows, durations in seconds, and
// returns the path written.
func WriteCSV(outDir, engineName, corpus string, samples []Sample) (string, error) {
	path := CSVPath(outDir, engineName, corpus)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create results directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}

	w := csv.NewWriter(f)
	_ = w.Write([]string{"size", "duration"})
	for _, s := range samples {
		_ = w.Write([]string{
			strconv.Itoa(s.Size),
			strconv.FormatFloat(s.Elapsed.Seconds(), 'f', -1, 64),
		})
	}
	w.Flush()

	if err := w.Error(); err != nil {
		f.Close()
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close %s: %w", path, err)
	}
	return path, nil
}
