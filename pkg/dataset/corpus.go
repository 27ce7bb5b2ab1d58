package dataset

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/natefinch/atomic"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/lmondada/portmatching-benchmarking/pkg/circuit"
	"github.com/lmondada/portmatching-benchmarking/pkg/convert"
	"github.com/lmondada/portmatching-benchmarking/pkg/locking"
)

// ConversionWarningThreshold is the number of records needing conversion
// above which Generate suggests the bulk conversion script.
const ConversionWarningThreshold = 100

// Corpus is a directory of circuits in QASM and/or JSON encoding. Generate
// reduces it to two index-aligned blobs, qasm.bin and json.bin, holding
// the encodings of every circuit that is a valid pattern.
type Corpus struct {
	dir    string
	conv   convert.Converter
	logger *slog.Logger
	locker locking.Group
	filter *Filter
}

// CorpusOption configures a Corpus.
type CorpusOption func(*Corpus)

// WithLocker sets the Group guarding the directory during Generate.
func WithLocker(g locking.Group) CorpusOption {
	return func(c *Corpus) {
		c.locker = g
	}
}

// WithFilter keeps only circuits matching f.
func WithFilter(f *Filter) CorpusOption {
	return func(c *Corpus) {
		c.filter = f
	}
}

// NewCorpus creates a corpus over dir.
func NewCorpus(dir string, conv convert.Converter, logger *slog.Logger, opts ...CorpusOption) *Corpus {
	c := &Corpus{
		dir:    dir,
		conv:   conv,
		logger: logger,
		locker: locking.NewNoOpGroup(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns the leaf name of the corpus directory.
func (c *Corpus) Name() string {
	return filepath.Base(filepath.Clean(c.dir))
}

// Dir returns the corpus directory.
func (c *Corpus) Dir() string {
	return c.dir
}

// BlobPath returns the path of the blob holding the encoding f.
func (c *Corpus) BlobPath(f circuit.Format) string {
	return filepath.Join(c.dir, BlobName(f))
}

// BlobName returns the file name of the blob holding the encoding f.
func BlobName(f circuit.Format) string {
	return string(f) + ".bin"
}

// Generate loads every circuit in the directory, keeps the valid patterns
// and writes both blobs. With persistFiles set, derived encodings are also
// written next to their source file. It returns the number of circuits kept.
func (c *Corpus) Generate(ctx context.Context, persistFiles bool) (int, error) {
	v, err := c.locker.DoWithLock(c.dir, func() (interface{}, error) {
		return c.generate(ctx, persistFiles)
	})
	if errors.Is(err, locking.ErrLocked) {
		return 0, fmt.Errorf("%w: %w", ErrCorpusBusy, err)
	}
	if err != nil {
		return 0, err
	}
	return v.(int), nil
}

func (c *Corpus) generate(ctx context.Context, persistFiles bool) (int, error) {
	bases, err := c.scan()
	if err != nil {
		return 0, err
	}

	records := make([]*Record, 0, len(bases))
	needConversion := 0
	for _, base := range bases {
		r := NewRecord(filepath.Join(c.dir, base), c.conv, c.logger)
		if r.NeedsConversion() {
			needConversion++
		}
		records = append(records, r)
	}
	if needConversion > ConversionWarningThreshold {
		c.logger.Warn("many circuits need conversion, consider running py-scripts/qasm_to_json.py on the directory first",
			"corpus", c.Name(),
			"n", needConversion)
	}

	var qasms, jsons []string
	for _, r := range records {
		if err := r.Load(ctx); err != nil {
			return 0, fmt.Errorf("failed to load %s: %w", r.Name(), err)
		}
		if persistFiles {
			if err := r.Save(); err != nil {
				return 0, fmt.Errorf("failed to save %s: %w", r.Name(), err)
			}
		}

		keep, err := c.keep(r)
		if err != nil {
			return 0, err
		}
		if !keep {
			continue
		}

		qasm, err := r.QASM()
		if err != nil {
			return 0, err
		}
		js, err := r.JSON()
		if err != nil {
			return 0, err
		}
		qasms = append(qasms, qasm)
		jsons = append(jsons, js)
	}

	qasmBlob, err := encodeBlob(qasms)
	if err != nil {
		return 0, fmt.Errorf("failed to encode qasm blob: %w", err)
	}
	jsonBlob, err := encodeBlob(jsons)
	if err != nil {
		return 0, fmt.Errorf("failed to encode json blob: %w", err)
	}
	blobs := map[circuit.Format][]byte{
		circuit.FormatQASM: qasmBlob,
		circuit.FormatJSON: jsonBlob,
	}
	if err := ReplaceBlobs(c.dir, blobs); err != nil {
		return 0, err
	}

	c.logger.Info("generated corpus",
		"corpus", c.Name(),
		"files", len(records),
		"n", len(qasms))
	return len(qasms), nil
}

// keep reports whether r belongs in the blobs. Invalid patterns are
// dropped, not reported.
func (c *Corpus) keep(r *Record) (bool, error) {
	p, err := r.Pattern()
	if err != nil {
		c.logger.Debug("skipping invalid pattern", "path", r.Name(), "error", err)
		return false, nil
	}
	if c.filter == nil {
		return true, nil
	}
	return c.filter.Match(p.Circuit())
}

// scan returns the sorted basenames of all circuit files in the directory.
func (c *Corpus) scan() ([]string, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read corpus directory: %w", err)
	}

	seen := make(map[string]bool)
	var bases []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		ext := filepath.Ext(name)
		if ext != circuit.FormatQASM.Ext() && ext != circuit.FormatJSON.Ext() {
			continue
		}
		base := strings.TrimSuffix(name, ext)
		if !seen[base] {
			seen[base] = true
			bases = append(bases, base)
		}
	}
	sort.Strings(bases)
	return bases, nil
}

// BlobFormats lists the encodings stored per corpus, in write order.
var BlobFormats = []circuit.Format{circuit.FormatQASM, circuit.FormatJSON}

// writeBlobFile is swapped in tests to simulate failed writes.
var writeBlobFile = atomic.WriteFile

func encodeBlob(texts []string) ([]byte, error) {
	if texts == nil {
		texts = []string{}
	}
	return msgpack.Marshal(texts)
}

// ReplaceBlobs replaces the blob pair in dir with blobs, which must hold
// every format in BlobFormats. The old pair is removed first, so an
// interrupted replacement leaves at most one blob, which readers treat as
// a corpus that was never generated.
func ReplaceBlobs(dir string, blobs map[circuit.Format][]byte) error {
	for _, f := range BlobFormats {
		if _, ok := blobs[f]; !ok {
			return fmt.Errorf("missing %s blob", f)
		}
	}
	for _, f := range BlobFormats {
		if err := os.Remove(filepath.Join(dir, BlobName(f))); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to remove %s blob: %w", f, err)
		}
	}
	for _, f := range BlobFormats {
		if err := writeBlobFile(filepath.Join(dir, BlobName(f)), bytes.NewReader(blobs[f])); err != nil {
			return fmt.Errorf("failed to write %s blob: %w", f, err)
		}
	}
	return nil
}

// IterEncoded returns the encodings of the corpus circuits in format f, in
// blob order. Both blobs must be present.
func (c *Corpus) IterEncoded(f circuit.Format) ([]string, error) {
	for _, other := range BlobFormats {
		if _, err := os.Stat(c.BlobPath(other)); errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrCorpusNotGenerated, c.BlobPath(other))
		}
	}

	data, err := os.ReadFile(c.BlobPath(f))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrCorpusNotGenerated, c.BlobPath(f))
		}
		return nil, fmt.Errorf("failed to read %s blob: %w", f, err)
	}

	var texts []string
	if err := msgpack.Unmarshal(data, &texts); err != nil {
		return nil, fmt.Errorf("failed to decode %s blob: %w", f, err)
	}
	return texts, nil
}

// Len returns the number of circuits in the corpus.
func (c *Corpus) Len() (int, error) {
	texts, err := c.IterEncoded(circuit.FormatJSON)
	if err != nil {
		return 0, err
	}
	return len(texts), nil
}
