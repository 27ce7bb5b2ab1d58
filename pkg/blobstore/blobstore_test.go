package blobstore

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lmondada/portmatching-benchmarking/pkg/circuit"
	"github.com/lmondada/portmatching-benchmarking/pkg/dataset"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newLocal(t *testing.T) *Local {
	t.Helper()
	l, err := NewLocal(t.TempDir(), testLogger())
	require.NoError(t, err)
	return l
}

func readAll(t *testing.T, s Store, key string) string {
	t.Helper()
	rc, err := s.Get(context.Background(), key)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	return string(data)
}

func TestLocalPutGet(t *testing.T) {
	ctx := context.Background()
	l := newLocal(t)

	require.NoError(t, l.Put(ctx, "a/b/c.bin", strings.NewReader("hello"), 5))
	require.Equal(t, "hello", readAll(t, l, "a/b/c.bin"))
	require.FileExists(t, filepath.Join(l.dir, "a", "b", "c.bin"))
	entries, err := os.ReadDir(filepath.Join(l.dir, "a", "b"))
	require.NoError(t, err)
	require.Len(t, entries, 1)

	// Overwrite.
	require.NoError(t, l.Put(ctx, "a/b/c.bin", strings.NewReader("bye"), -1))
	require.Equal(t, "bye", readAll(t, l, "a/b/c.bin"))

	_, err = l.Get(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, l.Close())
}

func TestLocalRejectsShortWrites(t *testing.T) {
	l := newLocal(t)
	err := l.Put(context.Background(), "x", strings.NewReader("abc"), 10)
	require.Error(t, err)
	_, err = l.Get(context.Background(), "x")
	require.ErrorIs(t, err, ErrNotFound)

	entries, err := os.ReadDir(l.dir)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestLocalRejectsEscapingKeys(t *testing.T) {
	l := newLocal(t)
	err := l.Put(context.Background(), "../outside", strings.NewReader("x"), 1)
	require.Error(t, err)
}

func TestCompressed(t *testing.T) {
	ctx := context.Background()
	l := newLocal(t)
	c := NewCompressed(l)

	payload := strings.Repeat("OPENQASM 2.0;\ncx q[0],q[1];\n", 200)
	require.NoError(t, c.Put(ctx, "corpus/qasm.bin", strings.NewReader(payload), int64(len(payload))))
	require.Equal(t, payload, readAll(t, c, "corpus/qasm.bin"))

	raw := readAll(t, l, "corpus/qasm.bin"+CompressedExt)
	require.Less(t, len(raw), len(payload))

	_, err := c.Get(ctx, "corpus/json.bin")
	require.ErrorIs(t, err, ErrNotFound)
}

func writeBlobs(t *testing.T, dir string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0755))
	for _, f := range []circuit.Format{circuit.FormatQASM, circuit.FormatJSON} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, dataset.BlobName(f)), []byte("blob-"+string(f)), 0644))
	}
}

func TestPushPullCorpus(t *testing.T) {
	ctx := context.Background()
	store := NewCompressed(newLocal(t))

	src := filepath.Join(t.TempDir(), "3_6-eccs")
	writeBlobs(t, src)
	require.NoError(t, PushCorpus(ctx, store, src))

	dst := filepath.Join(t.TempDir(), "3_6-eccs")
	require.NoError(t, PullCorpus(ctx, store, dst))
	for _, f := range []circuit.Format{circuit.FormatQASM, circuit.FormatJSON} {
		data, err := os.ReadFile(filepath.Join(dst, dataset.BlobName(f)))
		require.NoError(t, err)
		require.Equal(t, "blob-"+string(f), string(data))
	}
}

func TestPushCorpusNotGenerated(t *testing.T) {
	err := PushCorpus(context.Background(), newLocal(t), t.TempDir())
	require.ErrorIs(t, err, dataset.ErrCorpusNotGenerated)
}

func TestPullCorpusIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	l := newLocal(t)
	require.NoError(t, l.Put(ctx, CorpusKey("half", circuit.FormatQASM), bytes.NewReader([]byte("q")), 1))

	dst := filepath.Join(t.TempDir(), "half")
	err := PullCorpus(ctx, l, dst)
	require.ErrorIs(t, err, ErrNotFound)
	require.NoDirExists(t, dst)
}

func TestCorpusKey(t *testing.T) {
	require.Equal(t, "random/json.bin", CorpusKey("random", circuit.FormatJSON))
}

func TestS3Key(t *testing.T) {
	s := &S3{prefix: "bench/v1"}
	require.Equal(t, "bench/v1/eccs/qasm.bin", s.key("eccs/qasm.bin"))
	s.prefix = ""
	require.Equal(t, "eccs/qasm.bin", s.key("eccs/qasm.bin"))
}
