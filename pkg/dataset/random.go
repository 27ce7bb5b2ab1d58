package dataset

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/lmondada/portmatching-benchmarking/pkg/circuit"
)

// DefaultAttemptsFactor bounds random generation to this many draws per
// requested circuit.
const DefaultAttemptsFactor = 10

// Unpacker populates a directory with circuit files.
type Unpacker interface {
	Unpack() error
	Dir() string
}

// RandomDataset generates NCircuits distinct random circuits of NGates
// gates over NQubits qubits. Every circuit is connected: the CX gates link
// all qubits into a single component.
type RandomDataset struct {
	NCircuits int
	NQubits   int
	NGates    int
	// AttemptsFactor defaults to DefaultAttemptsFactor when zero.
	AttemptsFactor int

	dir    string
	rng    *rand.Rand
	logger *slog.Logger
}

// NewRandomDataset creates a generator writing into dir.
func NewRandomDataset(rng *rand.Rand, nCircuits, nQubits, nGates int, dir string, logger *slog.Logger) *RandomDataset {
	return &RandomDataset{
		NCircuits: nCircuits,
		NQubits:   nQubits,
		NGates:    nGates,
		dir:       dir,
		rng:       rng,
		logger:    logger,
	}
}

func (d *RandomDataset) Dir() string {
	return d.dir
}

// Unpack writes the circuits as <uuid>.qasm files. Every draw counts toward
// the attempt budget, whether it is accepted, disconnected or a duplicate.
// It gives up once more than AttemptsFactor*NCircuits draws were made.
func (d *RandomDataset) Unpack() error {
	if err := os.MkdirAll(d.dir, 0755); err != nil {
		return fmt.Errorf("failed to create dataset directory: %w", err)
	}

	factor := d.AttemptsFactor
	if factor <= 0 {
		factor = DefaultAttemptsFactor
	}
	budget := factor * d.NCircuits

	seen := make(map[string]struct{}, d.NCircuits)
	attempts := 0
	for len(seen) < d.NCircuits {
		if attempts > budget {
			return fmt.Errorf("%w: %d of %d circuits with %d qubits and %d gates after %d attempts",
				ErrGenerationExhausted, len(seen), d.NCircuits, d.NQubits, d.NGates, attempts)
		}
		attempts++

		c, ok := RandomCircuit(d.rng, d.NQubits, d.NGates)
		if !ok {
			continue
		}
		qasm, err := circuit.EncodeQASM(c)
		if err != nil {
			return err
		}
		if _, dup := seen[qasm]; dup {
			continue
		}
		seen[qasm] = struct{}{}

		path := filepath.Join(d.dir, uuid.NewString()+circuit.FormatQASM.Ext())
		if err := os.WriteFile(path, []byte(qasm), 0644); err != nil {
			return fmt.Errorf("failed to write circuit: %w", err)
		}
	}

	d.logger.Info("generated random circuits",
		"path", d.dir,
		"n", len(seen),
		"attempts", attempts)
	return nil
}

// RandomCircuit draws nGates gates uniformly from {CX, H, T} over nQubits
// qubits. CX operands are always distinct. It reports false when the CX
// gates leave the qubits disconnected.
//
// It panics when nQubits > nGates+1, since no circuit could be connected.
func RandomCircuit(rng *rand.Rand, nQubits, nGates int) (*circuit.Circuit, bool) {
	if nQubits <= 0 || nQubits > nGates+1 {
		panic(fmt.Sprintf("dataset: cannot connect %d qubits with %d gates", nQubits, nGates))
	}

	c := &circuit.Circuit{
		NumQubits: nQubits,
		Commands:  make([]circuit.Command, 0, nGates),
	}
	uf := circuit.NewUnionFind(nQubits)
	for range nGates {
		cmd := randomGate(rng, nQubits)
		if cmd.Op == "CX" {
			uf.Union(cmd.Qubits[0], cmd.Qubits[1])
		}
		c.Commands = append(c.Commands, cmd)
	}
	return c, uf.Connected()
}

func randomGate(rng *rand.Rand, nQubits int) circuit.Command {
	for {
		switch rng.IntN(3) {
		case 0:
			a, b := rng.IntN(nQubits), rng.IntN(nQubits)
			if a == b {
				continue
			}
			return circuit.Command{Op: "CX", Qubits: []int{a, b}}
		case 1:
			return circuit.Command{Op: "H", Qubits: []int{rng.IntN(nQubits)}}
		default:
			return circuit.Command{Op: "T", Qubits: []int{rng.IntN(nQubits)}}
		}
	}
}
