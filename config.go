package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/tailscale/hujson"
)

// ConfigFileName is the config file looked up in the working directory.
const ConfigFileName = "portbench.jsonc"

var (
	ErrConfigInvalid      = errors.New("invalid config")
	ErrConfigFileNotFound = errors.New("config file not found")
)

// Config holds the default parameter tables and tool settings. Command
// line flags override it.
type Config struct {
	DatasetsDir string          `json:"datasets_dir"`
	ResultsDir  string          `json:"results_dir"`
	ECCFiles    []string        `json:"ecc_files"`
	Random      RandomConfig    `json:"random"`
	Bench       BenchConfig     `json:"bench"`
	Converter   ConverterConfig `json:"converter"`
	Plot        PlotConfig      `json:"plot"`
	Mirror      MirrorConfig    `json:"mirror"`
}

// RandomConfig holds the default random datasets, one per table index.
type RandomConfig struct {
	Qubits         []int  `json:"qubits"`
	Gates          []int  `json:"gates"`
	NCircuits      []int  `json:"n_circuits"`
	Seed           uint64 `json:"seed"`
	AttemptsFactor int    `json:"attempts_factor"`
}

type BenchConfig struct {
	Start         int     `json:"start"`
	Stop          int     `json:"stop"`
	Step          int     `json:"step"`
	CompileTiming string  `json:"compile_timing"`
	Accuracy      float64 `json:"accuracy"`
}

// ConverterConfig selects how circuits are converted between encodings:
// "exec" runs one process per circuit, "stream" keeps one converter process
// alive and "builtin" converts in-process.
type ConverterConfig struct {
	Mode       string   `json:"mode"`
	QASMToJSON []string `json:"qasm_to_json"`
	JSONToQASM []string `json:"json_to_qasm"`
	Stream     []string `json:"stream"`
}

type PlotConfig struct {
	Command    []string `json:"command"`
	OutputFile string   `json:"output_file"`
}

type MirrorConfig struct {
	Bucket   string `json:"bucket"`
	Prefix   string `json:"prefix"`
	Region   string `json:"region"`
	Endpoint string `json:"endpoint"`
	Compress bool   `json:"compress"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		DatasetsDir: "datasets",
		ResultsDir:  "results",
		ECCFiles: []string{
			"datasets/eccs/2_6-eccs.json",
			"datasets/eccs/3_6-eccs.json",
			"datasets/eccs/4_6-eccs.json",
		},
		Random: RandomConfig{
			Qubits:         []int{2, 3, 4, 6, 8, 10},
			Gates:          []int{15, 15, 15, 15, 25, 30},
			NCircuits:      []int{10000, 10000, 10000, 10000, 10000, 10000},
			Seed:           1<<32 - 1,
			AttemptsFactor: 10,
		},
		Bench: BenchConfig{
			Start:         200,
			Stop:          10000,
			Step:          200,
			CompileTiming: "natural",
			Accuracy:      0.01,
		},
		Converter: ConverterConfig{
			Mode:       "exec",
			QASMToJSON: []string{"python", "py-scripts/single_qasm_to_json.py"},
			JSONToQASM: []string{"python", "py-scripts/single_json_to_qasm.py"},
		},
		Plot: PlotConfig{
			Command:    []string{"python", "py-scripts/plot.py"},
			OutputFile: "results/bench-plot.pdf",
		},
		Mirror: MirrorConfig{
			Compress: true,
		},
	}
}

// LoadConfig returns the defaults overlaid with the config file. An
// explicit path must exist; otherwise ConfigFileName is used if present.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	mustExist := path != ""
	if path == "" {
		path = ConfigFileName
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			if mustExist {
				return Config{}, fmt.Errorf("%w: %s", ErrConfigFileNotFound, path)
			}
			return cfg, nil
		}
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}

	if err := parseConfig(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w %s: %w", ErrConfigInvalid, path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%w %s: %w", ErrConfigInvalid, path, err)
	}
	return cfg, nil
}

func parseConfig(data []byte, cfg *Config) error {
	// Standardize JSONC to JSON
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return fmt.Errorf("invalid JSONC: %w", err)
	}

	decoder := json.NewDecoder(bytes.NewReader(standardized))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(cfg); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

// Validate checks the tables line up and the settings are usable.
func (c Config) Validate() error {
	r := c.Random
	if len(r.Qubits) != len(r.Gates) || len(r.Qubits) != len(r.NCircuits) {
		return fmt.Errorf("random tables differ in length: %d qubits, %d gates, %d n_circuits",
			len(r.Qubits), len(r.Gates), len(r.NCircuits))
	}
	if c.Bench.Step <= 0 {
		return fmt.Errorf("bench step must be positive, got %d", c.Bench.Step)
	}
	if c.Bench.Accuracy <= 0 || c.Bench.Accuracy >= 1 {
		return fmt.Errorf("bench accuracy must be in (0, 1), got %g", c.Bench.Accuracy)
	}
	switch c.Converter.Mode {
	case "exec", "builtin":
	case "stream":
		if len(c.Converter.Stream) == 0 {
			return errors.New("converter mode stream needs a stream command")
		}
	default:
		return fmt.Errorf("unknown converter mode %q", c.Converter.Mode)
	}
	return nil
}
