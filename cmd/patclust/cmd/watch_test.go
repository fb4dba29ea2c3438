package cmd

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Aman-CERP/patclust/internal/errors"
)

func TestWatchCmd_ReclustersOnChange(t *testing.T) {
	// Given: a watched file
	dir := isolate(t)
	input := writeInput(t, dir, "1\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cmd := NewRootCmd()
	stdout := &syncBuffer{}
	cmd.SetOut(stdout)
	cmd.SetErr(&syncBuffer{})
	cmd.SetArgs([]string{"watch", "--debounce", "50ms", "--format", "json", input})

	done := make(chan error, 1)
	go func() { done <- cmd.ExecuteContext(ctx) }()

	// Then: the initial run is printed
	require.Eventually(t, func() bool {
		return strings.Contains(stdout.String(), "[0]\n")
	}, 5*time.Second, 20*time.Millisecond)

	// When: the file grows
	time.Sleep(200 * time.Millisecond)
	require.NoError(t, os.WriteFile(input, []byte("1\n2\nghijklmnopqrstuvwxyz\n"), 0o644))

	// Then: it is clustered again
	require.Eventually(t, func() bool {
		return strings.Contains(stdout.String(), "[0,0,2]\n")
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}

func TestWatchCmd_MissingFile(t *testing.T) {
	dir := isolate(t)

	_, _, err := execute(t, "", "watch", dir+"/missing.log")

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeFileNotFound, apperrors.GetCode(err))
}

func TestWatchCmd_UnknownFormat(t *testing.T) {
	dir := isolate(t)
	input := writeInput(t, dir, "1\n")

	_, _, err := execute(t, "", "watch", "--format", "xml", input)

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeInvalidInput, apperrors.GetCode(err))
}
