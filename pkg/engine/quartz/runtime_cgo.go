//go:build quartz && cgo

package quartz

/*
#cgo CFLAGS: -I${SRCDIR}
#cgo LDFLAGS: -lquartz_bindings
#include <stdlib.h>
#include "bindings.h"
*/
import "C"

import (
	"fmt"
	"os"
	"unsafe"

	"github.com/lmondada/portmatching-benchmarking/pkg/engine"
)

// Available reports whether the native bindings are linked in.
const Available = true

type graphHandle struct {
	ptr unsafe.Pointer
}

type opsHandle struct {
	ptr unsafe.Pointer
	n   C.uint
}

type xfersHandle struct {
	ptr *unsafe.Pointer
	n   C.uint
}

func (*Runtime) LoadGraph(qasm string) (engine.Graph, error) {
	cs := C.CString(qasm)
	defer C.free(unsafe.Pointer(cs))

	g := C.load_graph(cs)
	if g == nil {
		return nil, fmt.Errorf("%w: load_graph", ErrNative)
	}
	return &graphHandle{ptr: g}, nil
}

func (*Runtime) GetOps(g engine.Graph) (engine.Ops, error) {
	gh, ok := g.(*graphHandle)
	if !ok {
		return nil, fmt.Errorf("%w: %T is not a graph", errHandle, g)
	}

	var n C.uint
	ops := C.get_ops(gh.ptr, &n)
	if ops == nil && n > 0 {
		return nil, fmt.Errorf("%w: get_ops", ErrNative)
	}
	return &opsHandle{ptr: ops, n: n}, nil
}

func (*Runtime) LoadXfers(patterns []string) (engine.Xfers, error) {
	n := len(patterns)
	if n == 0 {
		return &xfersHandle{}, nil
	}

	arr := (**C.char)(C.malloc(C.size_t(n) * C.size_t(unsafe.Sizeof(uintptr(0)))))
	strs := unsafe.Slice(arr, n)
	for i, p := range patterns {
		strs[i] = C.CString(p)
	}
	defer func() {
		for _, s := range strs {
			C.free(unsafe.Pointer(s))
		}
		C.free(unsafe.Pointer(arr))
	}()

	xfers := C.load_xfers(arr, C.uint(n))
	if xfers == nil {
		return nil, fmt.Errorf("%w: load_xfers", ErrNative)
	}
	return &xfersHandle{ptr: xfers, n: C.uint(n)}, nil
}

func (*Runtime) PatternMatch(g engine.Graph, ops engine.Ops, xfers engine.Xfers, n int) (int, error) {
	gh, ok := g.(*graphHandle)
	if !ok {
		return 0, fmt.Errorf("%w: %T is not a graph", errHandle, g)
	}
	oh, ok := ops.(*opsHandle)
	if !ok {
		return 0, fmt.Errorf("%w: %T is not an op list", errHandle, ops)
	}
	xh, ok := xfers.(*xfersHandle)
	if !ok {
		return 0, fmt.Errorf("%w: %T is not a pattern set", errHandle, xfers)
	}
	if n < 0 || C.uint(n) > xh.n {
		return 0, fmt.Errorf("%w: cannot match %d of %d patterns", ErrNative, n, xh.n)
	}
	if n == 0 {
		return 0, nil
	}

	count := C.pattern_match(gh.ptr, oh.ptr, oh.n, xh.ptr, C.uint(n))
	return int(count), nil
}

func (*Runtime) FreeGraph(g engine.Graph) {
	if gh, ok := g.(*graphHandle); ok && gh.ptr != nil {
		C.free_graph(gh.ptr)
		gh.ptr = nil
	}
}

func (*Runtime) FreeOps(ops engine.Ops) {
	if oh, ok := ops.(*opsHandle); ok && oh.ptr != nil {
		C.free_ops(oh.ptr)
		oh.ptr = nil
	}
}

func (*Runtime) FreeXfers(xfers engine.Xfers) {
	if xh, ok := xfers.(*xfersHandle); ok && xh.ptr != nil {
		C.free_xfers(xh.ptr, xh.n)
		xh.ptr = nil
	}
}

// Extract writes the representatives of eccFile as <i>.qasm into outDir.
func (*Runtime) Extract(eccFile, outDir string) error {
	// The native loader aborts the process on a missing file.
	if _, err := os.Stat(eccFile); err != nil {
		return fmt.Errorf("failed to open ECC file: %w", err)
	}

	ce := C.CString(eccFile)
	defer C.free(unsafe.Pointer(ce))
	co := C.CString(outDir)
	defer C.free(unsafe.Pointer(co))

	C.ecc_to_qasm(ce, co)
	return nil
}
