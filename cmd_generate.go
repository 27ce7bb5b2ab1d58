package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"path/filepath"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/lmondada/portmatching-benchmarking/pkg/dataset"
	"github.com/lmondada/portmatching-benchmarking/pkg/engine/quartz"
	"github.com/lmondada/portmatching-benchmarking/pkg/locking"
	"github.com/lmondada/portmatching-benchmarking/pkg/metrics"
)

var errTableMismatch = errors.New("--qubits, --gates and --n-circuits must be given the same number of times")

func (a *app) generateCmd() *Command {
	fs := flag.NewFlagSet("generate", flag.ContinueOnError)
	qubits := fs.IntSliceP("qubits", "q", nil, "qubits of a random dataset (repeatable)")
	gates := fs.IntSliceP("gates", "g", nil, "gates of a random dataset (repeatable)")
	nCircuits := fs.IntSliceP("n-circuits", "n", nil, "circuits in a random dataset (repeatable)")
	eccFiles := fs.StringSliceP("ecc", "e", nil, "ECC set file to extract (repeatable)")
	saveFiles := fs.BoolP("save-files", "s", false, "keep the per-circuit .qasm/.json files")
	seed := fs.Uint64("seed", a.cfg.Random.Seed, "master random seed")
	filter := fs.String("filter", "", "keep only circuits matching this expression, e.g. 'gates <= 10'")
	attempts := fs.Int("attempts-factor", a.cfg.Random.AttemptsFactor, "random draws allowed per requested circuit")

	return &Command{
		Flags: fs,
		Usage: "generate [flags]",
		Short: "Generate pattern corpora",
		Long: `Generate pattern corpora from ECC set files and random circuits.

The random tables are read pairwise: the i-th --qubits, --gates and
--n-circuits describe one dataset. Without any table or ECC file the
configured defaults are generated.`,
		Exec: func(ctx context.Context, o *IO, args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("unexpected arguments: %s", strings.Join(args, " "))
			}
			if len(*qubits) != len(*gates) || len(*qubits) != len(*nCircuits) {
				return errTableMismatch
			}

			plan := generatePlan{
				qubits:    *qubits,
				gates:     *gates,
				nCircuits: *nCircuits,
				eccFiles:  *eccFiles,
				seed:      *seed,
				attempts:  *attempts,
			}
			if len(plan.qubits) == 0 && len(plan.eccFiles) == 0 {
				plan.qubits = a.cfg.Random.Qubits
				plan.gates = a.cfg.Random.Gates
				plan.nCircuits = a.cfg.Random.NCircuits
				plan.eccFiles = a.cfg.ECCFiles
				if !a.nativeAvailable && len(plan.eccFiles) > 0 {
					a.logger.Warn("skipping ECC datasets: built without quartz bindings", "n", len(plan.eccFiles))
					plan.eccFiles = nil
				}
			}

			var opts []dataset.CorpusOption
			opts = append(opts, dataset.WithLocker(locking.NewFileLock()))
			if *filter != "" {
				f, err := dataset.CompileFilter(*filter)
				if err != nil {
					return err
				}
				opts = append(opts, dataset.WithFilter(f))
			}

			total, err := a.generate(ctx, plan, *saveFiles, opts...)
			if err != nil {
				return err
			}
			o.Printf("Generated %d circuits\n", total)
			return nil
		},
	}
}

type generatePlan struct {
	qubits    []int
	gates     []int
	nCircuits []int
	eccFiles  []string
	seed      uint64
	attempts  int
}

// unpackers returns the ECC datasets followed by the random ones.
func (a *app) unpackers(plan generatePlan) []dataset.Unpacker {
	var out []dataset.Unpacker
	for _, f := range plan.eccFiles {
		dir := strings.TrimSuffix(f, filepath.Ext(f))
		out = append(out, dataset.NewECCDataset(f, dir, quartz.New()))
	}
	for i := range plan.qubits {
		dir := filepath.Join(a.cfg.DatasetsDir, "random", fmt.Sprintf("%d_%d-random", plan.qubits[i], plan.gates[i]))
		rng := rand.New(rand.NewPCG(plan.seed, uint64(i)))
		d := dataset.NewRandomDataset(rng, plan.nCircuits[i], plan.qubits[i], plan.gates[i], dir, a.logger)
		if plan.attempts > 0 {
			d.AttemptsFactor = plan.attempts
		}
		out = append(out, d)
	}
	return out
}

func (a *app) generate(ctx context.Context, plan generatePlan, saveFiles bool, opts ...dataset.CorpusOption) (int, error) {
	conv, closeConv, err := a.newConverter(ctx)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err := closeConv(); err != nil {
			a.logger.Warn("failed to stop converter", "error", err)
		}
	}()

	tracker := metrics.NewLatencyTracker(a.cfg.Bench.Accuracy)
	total := 0
	for _, u := range a.unpackers(plan) {
		corpus := dataset.NewCorpus(u.Dir(), conv, a.logger, opts...)

		var n int
		elapsed, err := tracker.Time(metrics.Series("generate", corpus.Name()), func() error {
			if err := u.Unpack(); err != nil {
				return fmt.Errorf("failed to unpack %s: %w", u.Dir(), err)
			}
			var err error
			n, err = corpus.Generate(ctx, saveFiles)
			return err
		})
		if err != nil {
			return total, err
		}
		a.logger.Info("generated dataset", "corpus", corpus.Name(), "n", n, "elapsed", elapsed)
		total += n
	}
	return total, nil
}
