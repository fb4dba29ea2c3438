package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// sampleInput clusters as [0,1,1,0,4,5] with the default settings: blank
// lines never join a cluster.
const sampleInput = "ghijklmnopqrstuvwxyz\n1\n2\nghijklmnopqrstuvwxyy\n\n\n"

// isolate points the configuration and the data directory to a temporary
// directory and clears the environment overrides.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("PATCLUST_DATA_DIR", filepath.Join(dir, "data"))
	t.Setenv("NO_COLOR", "1")
	for _, name := range []string{
		"PATCLUST_THRESHOLD", "PATCLUST_WORKERS", "PATCLUST_NO_ASYNC",
		"PATCLUST_PREPROCESS", "PATCLUST_PATTERNS", "PATCLUST_LOG_LEVEL",
		"PATCLUST_SEARCH_BACKEND",
	} {
		t.Setenv(name, "")
	}
	return dir
}

func writeInput(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "input.log")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// execute runs the root command with args and stdin.
func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	return executeContext(context.Background(), t, stdin, args...)
}

func executeContext(ctx context.Context, t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCmd()
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	return stdout.String(), stderr.String(), err
}

// syncBuffer is a bytes.Buffer safe for one writer and concurrent readers.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
