package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/lmondada/portmatching-benchmarking/pkg/bench"
	"github.com/lmondada/portmatching-benchmarking/pkg/convert"
	"github.com/lmondada/portmatching-benchmarking/pkg/dataset"
	"github.com/lmondada/portmatching-benchmarking/pkg/engine"
	"github.com/lmondada/portmatching-benchmarking/pkg/engine/quartz"
	"github.com/lmondada/portmatching-benchmarking/pkg/metrics"
)

var errNoDatasets = errors.New("no generated datasets found")

func (a *app) runCmd() *Command {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	useQuartz := fs.Bool("quartz", false, "benchmark the quartz engine")
	usePortmatching := fs.Bool("portmatching", false, "benchmark the portmatching engine")
	datasets := fs.StringSliceP("datasets", "d", nil, "dataset folders to search for corpora (repeatable)")
	outDir := fs.StringP("output-folder", "o", a.cfg.ResultsDir, "folder for the result CSV files")
	timing := fs.String("compile-timing", a.cfg.Bench.CompileTiming, "time pattern compilation: natural, exclude or include")
	start := fs.Int("start", a.cfg.Bench.Start, "smallest pattern count")
	stop := fs.Int("stop", a.cfg.Bench.Stop, "largest pattern count")
	step := fs.Int("step", a.cfg.Bench.Step, "pattern count increment")
	debugEngines := fs.Bool("debug-engines", false, "trace every engine call to stderr")

	return &Command{
		Flags: fs,
		Usage: "run [flags] <target>",
		Short: "Benchmark engines on generated corpora",
		Long: `Benchmark pattern-matching engines on generated corpora.

The target circuit must be a .qasm or .json file; the missing encoding is
converted. Without --quartz or --portmatching both engines run. Without
--datasets every corpus under the datasets folder is benchmarked.`,
		Exec: func(ctx context.Context, o *IO, args []string) error {
			if len(args) != 1 {
				return errors.New("run takes exactly one target circuit")
			}
			ct, err := bench.ParseCompileTiming(*timing)
			if err != nil {
				return err
			}
			if *step <= 0 {
				return fmt.Errorf("--step must be positive, got %d", *step)
			}

			engines, err := a.selectEngines(*useQuartz, *usePortmatching)
			if err != nil {
				return err
			}
			if *debugEngines {
				for i, e := range engines {
					engines[i] = engine.NewDebug(e, o.errOut)
				}
			}

			roots := *datasets
			if len(roots) == 0 {
				roots = []string{a.cfg.DatasetsDir}
			}

			return a.run(ctx, o, runParams{
				target:  args[0],
				engines: engines,
				dirs:    datasetDirs(roots),
				outDir:  *outDir,
				timing:  ct,
				sizes:   bench.Sizes(*start, *stop, *step),
			})
		},
	}
}

// selectEngines returns the engines named by the flags. Without flags every
// engine runs, except quartz when its bindings are not linked in.
func (a *app) selectEngines(useQuartz, usePortmatching bool) ([]engine.Engine, error) {
	all := a.engines()
	if !useQuartz && !usePortmatching {
		if a.nativeAvailable {
			return all, nil
		}
		a.logger.Warn("skipping engine: built without quartz bindings", "engine", quartz.Name)
		var out []engine.Engine
		for _, e := range all {
			if e.Name() != quartz.Name {
				out = append(out, e)
			}
		}
		return out, nil
	}

	var names []string
	if useQuartz {
		names = append(names, quartz.Name)
	}
	if usePortmatching {
		names = append(names, engine.Library{}.Name())
	}
	out := make([]engine.Engine, 0, len(names))
	for _, name := range names {
		e, err := engine.Lookup(all, name)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

type runParams struct {
	target  string
	engines []engine.Engine
	dirs    []string
	outDir  string
	timing  bench.CompileTiming
	sizes   []int
}

func (a *app) run(ctx context.Context, o *IO, p runParams) error {
	if len(p.dirs) == 0 {
		return errNoDatasets
	}

	conv, closeConv, err := a.newConverter(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeConv(); err != nil {
			a.logger.Warn("failed to stop converter", "error", err)
		}
	}()

	target, err := a.loadTarget(ctx, p.target, conv)
	if err != nil {
		return err
	}

	tracker := metrics.NewLatencyTracker(a.cfg.Bench.Accuracy)
	driver := bench.NewDriver(a.logger, tracker, p.timing)

	for _, dir := range p.dirs {
		corpus := dataset.NewCorpus(dir, conv, a.logger)
		for _, e := range p.engines {
			a.logger.Info("running benchmark", "engine", e.Name(), "corpus", corpus.Name())
			samples, err := driver.Run(e, corpus, target, p.sizes)
			if err != nil {
				return err
			}
			path, err := bench.WriteCSV(p.outDir, e.Name(), corpus.Name(), samples)
			if err != nil {
				return err
			}
			o.Println("Wrote", path)
		}
	}

	for _, s := range tracker.GetAllStats() {
		a.logger.Info("latency", "series", s.Series, "stats", s.String())
	}
	return nil
}

// loadTarget reads the target circuit, converting the missing encoding.
func (a *app) loadTarget(ctx context.Context, path string, conv convert.Converter) (engine.Target, error) {
	rec, err := dataset.RecordFromFile(path, conv, a.logger)
	if err != nil {
		return engine.Target{}, err
	}
	if err := rec.Load(ctx); err != nil {
		return engine.Target{}, fmt.Errorf("failed to load target: %w", err)
	}
	qasm, err := rec.QASM()
	if err != nil {
		return engine.Target{}, err
	}
	js, err := rec.JSON()
	if err != nil {
		return engine.Target{}, err
	}
	return engine.Target{QASM: qasm, JSON: js}, nil
}

// datasetDirs walks each root, with any extension stripped, and returns the
// sorted set of directories holding .bin files. Unreadable entries are
// skipped.
func datasetDirs(roots []string) []string {
	var dirs []string
	for _, root := range roots {
		root = strings.TrimSuffix(root, filepath.Ext(root))
		_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if !d.IsDir() && filepath.Ext(path) == ".bin" {
				dirs = append(dirs, filepath.Dir(path))
			}
			return nil
		})
	}
	slices.Sort(dirs)
	return slices.Compact(dirs)
}
