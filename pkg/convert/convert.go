// Package convert translates circuits between the QASM and tket JSON
// encodings, either in-process or through an external converter.
package convert

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/lmondada/portmatching-benchmarking/pkg/circuit"
)

var ErrConversionFailed = errors.New("convert: conversion failed")

// Converter converts a single circuit text between encodings.
type Converter interface {
	QASMToJSON(ctx context.Context, qasm string) (string, error)
	JSONToQASM(ctx context.Context, json string) (string, error)
}

// checkJSON validates converter output that should be a JSON document.
func checkJSON(out string) (string, error) {
	out = strings.TrimSpace(out)
	if out == "" {
		return "", fmt.Errorf("%w: empty JSON output", ErrConversionFailed)
	}
	if !json.Valid([]byte(out)) {
		return "", fmt.Errorf("%w: output is not valid JSON", ErrConversionFailed)
	}
	return out, nil
}

// checkQASM validates converter output that should be an OpenQASM program.
func checkQASM(out string) (string, error) {
	out = strings.TrimSpace(out)
	if !strings.HasPrefix(out, "OPENQASM") {
		return "", fmt.Errorf("%w: output is not an OpenQASM program", ErrConversionFailed)
	}
	return out + "\n", nil
}

// Builtin converts with the in-process codecs of package circuit. It supports
// the gate set of the random and ECC corpora.
type Builtin struct{}

func (Builtin) QASMToJSON(_ context.Context, qasm string) (string, error) {
	c, err := circuit.ParseQASM(qasm)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrConversionFailed, err)
	}
	out, err := circuit.EncodeJSON(c)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrConversionFailed, err)
	}
	return out, nil
}

func (Builtin) JSONToQASM(_ context.Context, js string) (string, error) {
	c, err := circuit.ParseJSON(js)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrConversionFailed, err)
	}
	out, err := circuit.EncodeQASM(c)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrConversionFailed, err)
	}
	return out, nil
}

// Counting wraps a Converter and counts calls per direction.
type Counting struct {
	Converter
	toJSON atomic.Int64
	toQASM atomic.Int64
}

// NewCounting wraps conv.
func NewCounting(conv Converter) *Counting {
	return &Counting{Converter: conv}
}

func (c *Counting) QASMToJSON(ctx context.Context, qasm string) (string, error) {
	c.toJSON.Add(1)
	return c.Converter.QASMToJSON(ctx, qasm)
}

func (c *Counting) JSONToQASM(ctx context.Context, js string) (string, error) {
	c.toQASM.Add(1)
	return c.Converter.JSONToQASM(ctx, js)
}

// Calls returns the number of QASM→JSON and JSON→QASM conversions so far.
func (c *Counting) Calls() (toJSON, toQASM int64) {
	return c.toJSON.Load(), c.toQASM.Load()
}
