// Package quartz binds the Quartz circuit optimizer's pattern matcher and
// ECC extractor. The bindings need cgo and the quartz_bindings library and
// are only compiled with the quartz build tag; otherwise every call fails
// with ErrUnavailable.
package quartz

import (
	"errors"

	"github.com/lmondada/portmatching-benchmarking/pkg/engine"
)

// Name is the engine name used in results.
const Name = "quartz"

var (
	// ErrUnavailable is returned when the binary was built without the bindings.
	ErrUnavailable = errors.New("quartz: built without quartz bindings (use -tags quartz)")

	// ErrNative is returned when a native call reports failure.
	ErrNative = errors.New("quartz: native call failed")

	errHandle = errors.New("quartz: foreign handle")
)

// Runtime implements engine.NativeRuntime and dataset.ECCExtractor.
type Runtime struct{}

// New returns the Quartz runtime.
func New() *Runtime {
	return &Runtime{}
}

// Engine returns the Quartz benchmark engine.
func Engine() *engine.Native {
	return engine.NewNative(Name, New())
}
