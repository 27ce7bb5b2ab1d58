package dataset

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/lmondada/portmatching-benchmarking/pkg/circuit"
	"github.com/lmondada/portmatching-benchmarking/pkg/convert"
)

// Record holds the QASM and JSON encodings of one circuit, stored side by
// side as <base>.qasm and <base>.json. A missing encoding is derived from
// the present one on Load.
type Record struct {
	base   string
	qasm   *CachedFile
	json   *CachedFile
	conv   convert.Converter
	logger *slog.Logger
}

// NewRecord creates the record for base, a path without extension.
func NewRecord(base string, conv convert.Converter, logger *slog.Logger) *Record {
	return &Record{
		base:   base,
		qasm:   NewCachedFile(base + circuit.FormatQASM.Ext()),
		json:   NewCachedFile(base + circuit.FormatJSON.Ext()),
		conv:   conv,
		logger: logger,
	}
}

// RecordFromFile creates the record for a .qasm or .json file.
func RecordFromFile(path string, conv convert.Converter, logger *slog.Logger) (*Record, error) {
	ext := filepath.Ext(path)
	switch ext {
	case circuit.FormatQASM.Ext(), circuit.FormatJSON.Ext():
		return NewRecord(strings.TrimSuffix(path, ext), conv, logger), nil
	default:
		return nil, fmt.Errorf("unsupported circuit file %s: expected .qasm or .json", path)
	}
}

// Name returns the basename shared by both encodings.
func (r *Record) Name() string {
	return filepath.Base(r.base)
}

// NeedsConversion reports whether one of the encodings has to be derived.
func (r *Record) NeedsConversion() bool {
	return r.qasm.IsEmpty() || r.json.IsEmpty()
}

// Load resolves both encodings. When exactly one is available the other is
// converted from it and kept in memory until Save.
func (r *Record) Load(ctx context.Context) error {
	switch {
	case r.qasm.IsEmpty() && !r.json.IsEmpty():
		js, err := r.json.Load()
		if err != nil {
			return err
		}
		r.logger.Debug("converting circuit", "path", r.json.Path(), "to", circuit.FormatQASM)
		qasm, err := r.conv.JSONToQASM(ctx, js)
		if err != nil {
			return fmt.Errorf("failed to convert %s: %w", r.json.Path(), err)
		}
		r.qasm.SetContents(qasm)

	case r.json.IsEmpty() && !r.qasm.IsEmpty():
		qasm, err := r.qasm.Load()
		if err != nil {
			return err
		}
		r.logger.Debug("converting circuit", "path", r.qasm.Path(), "to", circuit.FormatJSON)
		js, err := r.conv.QASMToJSON(ctx, qasm)
		if err != nil {
			return fmt.Errorf("failed to convert %s: %w", r.qasm.Path(), err)
		}
		r.json.SetContents(js)

	default:
		if _, err := r.qasm.Load(); err != nil {
			return err
		}
		if _, err := r.json.Load(); err != nil {
			return err
		}
	}
	return nil
}

// QASM returns the QASM encoding. Load must have succeeded.
func (r *Record) QASM() (string, error) {
	return r.qasm.Load()
}

// JSON returns the tket JSON encoding. Load must have succeeded.
func (r *Record) JSON() (string, error) {
	return r.json.Load()
}

// Encoded returns the encoding in format f.
func (r *Record) Encoded(f circuit.Format) (string, error) {
	switch f {
	case circuit.FormatQASM:
		return r.QASM()
	case circuit.FormatJSON:
		return r.JSON()
	default:
		return "", fmt.Errorf("unknown circuit format %q", f)
	}
}

// Circuit parses the JSON encoding.
func (r *Record) Circuit() (*circuit.Circuit, error) {
	js, err := r.JSON()
	if err != nil {
		return nil, err
	}
	return circuit.ParseJSON(js)
}

// Pattern compiles the JSON encoding into a matcher pattern.
func (r *Record) Pattern() (*circuit.Pattern, error) {
	c, err := r.Circuit()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", circuit.ErrInvalidPattern, err)
	}
	return circuit.CompilePattern(c)
}

// ValidPattern reports whether the record compiles into a matcher pattern.
func (r *Record) ValidPattern() bool {
	_, err := r.Pattern()
	return err == nil
}

// Save writes both encodings to disk.
func (r *Record) Save() error {
	if err := r.qasm.Save(); err != nil {
		return err
	}
	return r.json.Save()
}
