package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Aman-CERP/patclust/internal/errors"
	"github.com/Aman-CERP/patclust/internal/logging"
)

const logsSample = `{"time":"2026-01-02T10:00:00.000Z","level":"DEBUG","msg":"automaton_built","line":1}
{"time":"2026-01-02T10:00:01.000Z","level":"INFO","msg":"clustering_complete","lines":3,"clusters":2}
{"time":"2026-01-02T10:00:02.000Z","level":"WARN","msg":"watch_error","error":"boom"}
`

func writeLog(t *testing.T, dir string) {
	t.Helper()
	dataDir := filepath.Join(dir, "data")
	require.NoError(t, os.MkdirAll(logging.LogDir(dataDir), 0o755))
	require.NoError(t, os.WriteFile(logging.LogPath(dataDir), []byte(logsSample), 0o644))
}

func TestLogsCmd_Tail(t *testing.T) {
	// Given: a log file in the data directory
	dir := isolate(t)
	writeLog(t, dir)

	// When
	stdout, _, err := execute(t, "", "logs", "-n", "2", "--no-color")

	// Then: the last two entries are printed
	require.NoError(t, err)
	assert.Equal(t,
		"10:00:01.000 INFO  clustering_complete clusters=2 lines=3\n10:00:02.000 WARN  watch_error error=boom\n",
		stdout)
}

func TestLogsCmd_Filters(t *testing.T) {
	dir := isolate(t)
	writeLog(t, dir)

	stdout, _, err := execute(t, "", "logs", "--level", "warn")
	require.NoError(t, err)
	assert.NotContains(t, stdout, "clustering_complete")
	assert.Contains(t, stdout, "watch_error")

	stdout, _, err = execute(t, "", "logs", "--grep", "automaton")
	require.NoError(t, err)
	assert.Contains(t, stdout, "automaton_built")
	assert.NotContains(t, stdout, "watch_error")
}

func TestLogsCmd_NoLogFile(t *testing.T) {
	isolate(t)

	_, _, err := execute(t, "", "logs")

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeFileNotFound, apperrors.GetCode(err))
}

func TestLogsCmd_InvalidGrep(t *testing.T) {
	dir := isolate(t)
	writeLog(t, dir)

	_, _, err := execute(t, "", "logs", "--grep", "(")

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeInvalidInput, apperrors.GetCode(err))
}
