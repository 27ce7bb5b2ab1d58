package convert

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Exec runs one external process per conversion. The circuit text is passed
// as the last argument and the converted text is read from stdout.
type Exec struct {
	QASMToJSONCmd []string
	JSONToQASMCmd []string
	// Dir is the working directory of the converter, empty for the current one.
	Dir string
	// Env is appended to the current environment.
	Env []string
}

// DefaultExec invokes the pytket conversion scripts shipped in py-scripts/.
func DefaultExec() *Exec {
	return &Exec{
		QASMToJSONCmd: []string{"python", "py-scripts/single_qasm_to_json.py"},
		JSONToQASMCmd: []string{"python", "py-scripts/single_json_to_qasm.py"},
	}
}

func (e *Exec) QASMToJSON(ctx context.Context, qasm string) (string, error) {
	out, err := e.run(ctx, e.QASMToJSONCmd, qasm)
	if err != nil {
		return "", err
	}
	return checkJSON(out)
}

func (e *Exec) JSONToQASM(ctx context.Context, js string) (string, error) {
	out, err := e.run(ctx, e.JSONToQASMCmd, js)
	if err != nil {
		return "", err
	}
	return checkQASM(out)
}

func (e *Exec) run(ctx context.Context, argv []string, input string) (string, error) {
	if len(argv) == 0 {
		return "", fmt.Errorf("%w: no converter command configured", ErrConversionFailed)
	}

	args := append(append([]string{}, argv[1:]...), input)
	cmd := exec.CommandContext(ctx, argv[0], args...)
	cmd.Dir = e.Dir
	if len(e.Env) > 0 {
		cmd.Env = append(os.Environ(), e.Env...)
	}

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v: %s", ErrConversionFailed, strings.Join(argv, " "), err, strings.TrimSpace(stderr.String()))
	}
	return string(out), nil
}
