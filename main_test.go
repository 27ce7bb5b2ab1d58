package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lmondada/portmatching-benchmarking/pkg/convert"
	"github.com/lmondada/portmatching-benchmarking/pkg/engine"
	"github.com/lmondada/portmatching-benchmarking/pkg/engine/quartz"
)

const targetQASM = `OPENQASM 2.0;
include "qelib1.inc";
qreg q[3];
h q[0];
cx q[0],q[1];
t q[1];
cx q[1],q[2];
h q[2];
cx q[0],q[2];
t q[0];
cx q[2],q[1];
h q[1];
`

type result struct {
	code   int
	stdout string
	stderr string
}

func runCLI(t *testing.T, stdin string, args ...string) result {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := Run(context.Background(), strings.NewReader(stdin), &stdout, &stderr, args)
	return result{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

// testWorkspace writes a config that keeps datasets and results under a
// temporary directory and converts in-process.
func testWorkspace(t *testing.T, extra string) (dir, cfgPath string) {
	t.Helper()
	dir = t.TempDir()
	cfgPath = filepath.Join(dir, ConfigFileName)
	cfg := fmt.Sprintf(`{
	"datasets_dir": %q,
	"results_dir": %q,
	"converter": {"mode": "builtin"},
	%s
}`, filepath.Join(dir, "datasets"), filepath.Join(dir, "results"), extra)
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0644))
	return dir, cfgPath
}

func TestUsage(t *testing.T) {
	r := runCLI(t, "")
	require.Equal(t, 0, r.code)
	require.Contains(t, r.stdout, "generate")
	require.Contains(t, r.stdout, "convert-server")

	r = runCLI(t, "", "run", "--help")
	require.Equal(t, 0, r.code)
	require.Contains(t, r.stdout, "Usage: portbench run [flags] <target>")
	require.Contains(t, r.stdout, "--compile-timing")
}

func TestUnknownCommand(t *testing.T) {
	r := runCLI(t, "", "optimise")
	require.Equal(t, 1, r.code)
	require.Contains(t, r.stderr, "unknown command: optimise")
}

func TestGenerateTableMismatch(t *testing.T) {
	_, cfgPath := testWorkspace(t, `"plot": {}`)
	r := runCLI(t, "", "-c", cfgPath, "generate", "-q", "3", "-q", "4", "-g", "8", "-n", "10")
	require.Equal(t, 1, r.code)
	require.Contains(t, r.stderr, "error: "+errTableMismatch.Error())
}

func TestGenerateRunAndMirror(t *testing.T) {
	dir, cfgPath := testWorkspace(t, `"plot": {}`)

	r := runCLI(t, "", "-c", cfgPath, "generate", "-q", "3", "-g", "8", "-n", "20", "--seed", "5")
	require.Equal(t, 0, r.code, r.stderr)
	require.Equal(t, "Generated 20 circuits\n", r.stdout)
	require.Contains(t, r.stderr, "corpus=3_8-random n=20 elapsed=")

	corpusDir := filepath.Join(dir, "datasets", "random", "3_8-random")
	require.FileExists(t, filepath.Join(corpusDir, "qasm.bin"))
	require.FileExists(t, filepath.Join(corpusDir, "json.bin"))
	require.Equal(t, []string{corpusDir}, datasetDirs([]string{filepath.Join(dir, "datasets")}))

	target := filepath.Join(dir, "target.qasm")
	require.NoError(t, os.WriteFile(target, []byte(targetQASM), 0644))

	r = runCLI(t, "", "-c", cfgPath, "run", "--portmatching",
		"--start", "5", "--stop", "25", "--step", "5", target)
	require.Equal(t, 0, r.code, r.stderr)

	csvPath := filepath.Join(dir, "results", "portmatching", "3_8-random.csv")
	require.Contains(t, r.stdout, csvPath)
	data, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Equal(t, "size,duration", lines[0])
	// 25 exceeds the corpus and is skipped.
	require.Len(t, lines, 5)
	require.True(t, strings.HasPrefix(lines[1], "5,"))
	require.True(t, strings.HasPrefix(lines[4], "20,"))

	store := filepath.Join(dir, "store")
	r = runCLI(t, "", "-c", cfgPath, "push", "--local", store)
	require.Equal(t, 0, r.code, r.stderr)
	require.Equal(t, "Pushed 1 corpora\n", r.stdout)

	pulled := filepath.Join(dir, "pulled", "3_8-random")
	r = runCLI(t, "", "-c", cfgPath, "pull", "--local", store, pulled)
	require.Equal(t, 0, r.code, r.stderr)

	for _, name := range []string{"qasm.bin", "json.bin"} {
		want, err := os.ReadFile(filepath.Join(corpusDir, name))
		require.NoError(t, err)
		got, err := os.ReadFile(filepath.Join(pulled, name))
		require.NoError(t, err)
		require.Equal(t, want, got, name)
	}
}

func TestDefaultsWithoutQuartz(t *testing.T) {
	if quartz.Available {
		t.Skip("quartz bindings are linked in")
	}
	dir, cfgPath := testWorkspace(t, `"random": {"qubits": [3], "gates": [8], "n_circuits": [15]}`)

	r := runCLI(t, "", "-c", cfgPath, "generate")
	require.Equal(t, 0, r.code, r.stderr)
	require.Equal(t, "Generated 15 circuits\n", r.stdout)
	require.Contains(t, r.stderr, "skipping ECC datasets")

	target := filepath.Join(dir, "target.qasm")
	require.NoError(t, os.WriteFile(target, []byte(targetQASM), 0644))

	r = runCLI(t, "", "-c", cfgPath, "run", "--start", "5", "--stop", "15", "--step", "5", target)
	require.Equal(t, 0, r.code, r.stderr)
	require.Contains(t, r.stderr, "skipping engine")
	require.FileExists(t, filepath.Join(dir, "results", "portmatching", "3_8-random.csv"))
	require.NoDirExists(t, filepath.Join(dir, "results", quartz.Name))

	// Asking for quartz explicitly still fails.
	r = runCLI(t, "", "-c", cfgPath, "run", "--quartz", target)
	require.Equal(t, 1, r.code)
	require.Contains(t, r.stderr, quartz.ErrUnavailable.Error())
}

func TestRunWithoutDatasets(t *testing.T) {
	dir, cfgPath := testWorkspace(t, `"plot": {}`)
	target := filepath.Join(dir, "target.qasm")
	require.NoError(t, os.WriteFile(target, []byte(targetQASM), 0644))

	r := runCLI(t, "", "-c", cfgPath, "run", target)
	require.Equal(t, 1, r.code)
	require.Contains(t, r.stderr, errNoDatasets.Error())
}

func TestRunRejectsTargetExtension(t *testing.T) {
	dir, cfgPath := testWorkspace(t, `"plot": {}`)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "datasets", "c"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "datasets", "c", "qasm.bin"), nil, 0644))

	r := runCLI(t, "", "-c", cfgPath, "run", filepath.Join(dir, "target.txt"))
	require.Equal(t, 1, r.code)
	require.Contains(t, r.stderr, "expected .qasm or .json")
}

func TestDatasetDirs(t *testing.T) {
	root := t.TempDir()
	for _, p := range []string{
		"b/c/json.bin",
		"a/qasm.bin",
		"a/json.bin",
		"a/x.qasm",
		"d/x.qasm",
	} {
		path := filepath.Join(root, p)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, nil, 0644))
	}

	want := []string{filepath.Join(root, "a"), filepath.Join(root, "b", "c")}
	require.Equal(t, want, datasetDirs([]string{root}))
	// Extensions are stripped from the roots.
	require.Equal(t, want, datasetDirs([]string{root + ".json"}))
	require.Empty(t, datasetDirs([]string{filepath.Join(root, "missing")}))
}

func TestPlot(t *testing.T) {
	_, cfgPath := testWorkspace(t, `"plot": {"command": ["echo", "plotting"], "output_file": "out.pdf"}`)

	r := runCLI(t, "", "-c", cfgPath, "plot", "-r", "res")
	require.Equal(t, 0, r.code, r.stderr)
	require.Equal(t, "plotting -r res -o out.pdf\n", r.stdout)
}

func TestConvertServer(t *testing.T) {
	qasm, err := json.Marshal(targetQASM)
	require.NoError(t, err)
	stdin := fmt.Sprintf(`{"ID":1,"Command":"qasm_to_json","Body":%s}
{"ID":2,"Command":"json_to_qasm","Body":"not json"}
{"ID":3,"Command":"close"}
`, qasm)

	r := runCLI(t, stdin, "convert-server")
	require.Equal(t, 0, r.code, r.stderr)

	var resps []convert.Response
	scanner := bufio.NewScanner(strings.NewReader(r.stdout))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		var resp convert.Response
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &resp))
		resps = append(resps, resp)
	}
	require.Len(t, resps, 4)
	require.Contains(t, resps[0].KnownCommands, convert.CmdQASMToJSON)
	require.Equal(t, int64(1), resps[1].ID)
	require.Empty(t, resps[1].Err)
	require.True(t, json.Valid([]byte(resps[1].Body)))
	require.Equal(t, int64(2), resps[2].ID)
	require.NotEmpty(t, resps[2].Err)
	require.Equal(t, int64(3), resps[3].ID)
}

func testApp(nativeAvailable bool) *app {
	return &app{
		cfg:    DefaultConfig(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),

		nativeAvailable: nativeAvailable,
	}
}

func engineNames(engines []engine.Engine) []string {
	var names []string
	for _, e := range engines {
		names = append(names, e.Name())
	}
	return names
}

func TestSelectEngines(t *testing.T) {
	tests := []struct {
		name            string
		nativeAvailable bool
		useQuartz       bool
		usePortmatching bool
		want            []string
	}{
		{"defaults with quartz", true, false, false, []string{"quartz", "portmatching"}},
		{"defaults without quartz", false, false, false, []string{"portmatching"}},
		{"quartz only", false, true, false, []string{"quartz"}},
		{"portmatching only", true, false, true, []string{"portmatching"}},
		{"both", false, true, true, []string{"quartz", "portmatching"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engines, err := testApp(tt.nativeAvailable).selectEngines(tt.useQuartz, tt.usePortmatching)
			require.NoError(t, err)
			require.Equal(t, tt.want, engineNames(engines))
		})
	}
}

func TestNewConverterExec(t *testing.T) {
	a := testApp(false)
	a.cfg.Converter.QASMToJSON = nil
	a.cfg.Converter.JSONToQASM = []string{"my-converter", "--to-qasm"}

	conv, closeConv, err := a.newConverter(context.Background())
	require.NoError(t, err)
	require.NoError(t, closeConv())

	e, ok := conv.(*convert.Exec)
	require.True(t, ok)
	require.Equal(t, convert.DefaultExec().QASMToJSONCmd, e.QASMToJSONCmd)
	require.Equal(t, []string{"my-converter", "--to-qasm"}, e.JSONToQASMCmd)
}
