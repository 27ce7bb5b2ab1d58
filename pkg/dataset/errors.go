// Package dataset builds benchmark corpora: directories of circuits kept in
// both QASM and tket JSON encodings, reduced to two aligned blobs of valid
// patterns.
package dataset

import "errors"

var (
	// ErrNotFound means neither encoding of a circuit is available.
	ErrNotFound = errors.New("dataset: circuit not found")

	// ErrGenerationExhausted means the random generator ran out of attempts
	// before producing the requested number of circuits.
	ErrGenerationExhausted = errors.New("dataset: random generation exhausted")

	// ErrCorpusNotGenerated means a corpus blob is missing.
	ErrCorpusNotGenerated = errors.New("dataset: corpus not generated")

	// ErrCorpusBusy means another run holds the corpus directory.
	ErrCorpusBusy = errors.New("dataset: corpus is being generated by another run")
)
