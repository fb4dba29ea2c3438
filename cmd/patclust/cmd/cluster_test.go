package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/patclust/internal/clustering"
	apperrors "github.com/Aman-CERP/patclust/internal/errors"
)

func TestClusterCmd_StdinJSON(t *testing.T) {
	// Given: lines on stdin
	isolate(t)

	// When: clustering with the defaults
	stdout, _, err := execute(t, sampleInput, "cluster")

	// Then: the assignment list is printed
	require.NoError(t, err)
	assert.Equal(t, "[0,1,1,0,4,5]\n", stdout)
}

func TestClusterCmd_FileArgument(t *testing.T) {
	dir := isolate(t)
	input := writeInput(t, dir, sampleInput)

	stdout, _, err := execute(t, "", "cluster", "--no-async", "-p", input)

	// Then: preprocessing groups the blank lines before clustering
	require.NoError(t, err)
	assert.Equal(t, "[0,1,1,0,4,4]\n", stdout)
}

func TestClusterCmd_InputFileFlag(t *testing.T) {
	dir := isolate(t)
	input := writeInput(t, dir, sampleInput)

	stdout, _, err := execute(t, "", "cluster", "-i", input)

	require.NoError(t, err)
	assert.Equal(t, "[0,1,1,0,4,5]\n", stdout)
}

func TestClusterCmd_LinesAreTrimmed(t *testing.T) {
	isolate(t)

	stdout, _, err := execute(t, "  1\n2  \n", "cluster")

	require.NoError(t, err)
	assert.Equal(t, "[0,0]\n", stdout)
}

func TestClusterCmd_ZeroThreshold(t *testing.T) {
	isolate(t)

	stdout, _, err := execute(t, sampleInput, "cluster", "-t", "0")

	require.NoError(t, err)
	assert.Equal(t, "[0,1,2,3,4,5]\n", stdout)
}

func TestClusterCmd_ConfigSupersedesFlags(t *testing.T) {
	// Given: a configuration file with a zero threshold
	dir := isolate(t)
	conf := filepath.Join(dir, "conf.json")
	require.NoError(t, os.WriteFile(conf, []byte(`{"threshold": 0}`), 0o644))

	// When: the flag asks for a large threshold
	stdout, _, err := execute(t, sampleInput, "cluster", "-t", "0.9", "-c", conf)

	// Then: the file wins
	require.NoError(t, err)
	assert.Equal(t, "[0,1,2,3,4,5]\n", stdout)
}

func TestClusterCmd_EnvThreshold(t *testing.T) {
	isolate(t)
	t.Setenv("PATCLUST_THRESHOLD", "0")

	stdout, _, err := execute(t, sampleInput, "cluster")

	require.NoError(t, err)
	assert.Equal(t, "[0,1,2,3,4,5]\n", stdout)
}

func TestClusterCmd_OutputAndHTMLFiles(t *testing.T) {
	// Given: output and HTML paths
	dir := isolate(t)
	out := filepath.Join(dir, "clusters.json")
	html := filepath.Join(dir, "report.html")

	// When
	stdout, _, err := execute(t, sampleInput, "cluster", "-o", out, "-H", html, "--names")

	// Then: nothing on stdout, both files written
	require.NoError(t, err)
	assert.Empty(t, stdout)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	var clusters []int
	require.NoError(t, json.Unmarshal(data, &clusters))
	assert.Equal(t, []int{0, 1, 1, 0, 4, 5}, clusters)

	page, err := os.ReadFile(html)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(page), "<html><body>"))
	assert.Contains(t, string(page), "ghijklmnopqrstuvwxyy")
	assert.Contains(t, string(page), "hsl(")
}

func TestClusterCmd_TextFormat(t *testing.T) {
	isolate(t)

	stdout, _, err := execute(t, "1\n2\n", "cluster", "--format", "text")

	require.NoError(t, err)
	assert.Equal(t, "  0 [0]: 1\n  1 [0]: 2\n", stdout)
}

func TestClusterCmd_SummaryFormats(t *testing.T) {
	isolate(t)

	stdout, _, err := execute(t, sampleInput, "cluster", "--format", "summary")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stdout, "4 clusters\n"))

	stdout, _, err = execute(t, sampleInput, "cluster", "--format", "summary-json")
	require.NoError(t, err)
	var summaries []clustering.Summary
	require.NoError(t, json.Unmarshal([]byte(stdout), &summaries))
	assert.Len(t, summaries, 4)
}

func TestClusterCmd_UnknownFormat(t *testing.T) {
	isolate(t)

	_, _, err := execute(t, sampleInput, "cluster", "--format", "xml")

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeInvalidInput, apperrors.GetCode(err))
}

func TestClusterCmd_InvalidThreshold(t *testing.T) {
	isolate(t)

	_, _, err := execute(t, sampleInput, "cluster", "-t", "1.5")

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeInvalidThreshold, apperrors.GetCode(err))
}

func TestClusterCmd_MissingInput(t *testing.T) {
	dir := isolate(t)

	_, _, err := execute(t, "", "cluster", filepath.Join(dir, "missing.log"))

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeFileNotFound, apperrors.GetCode(err))
}

func TestClusterCmd_EmptyInput(t *testing.T) {
	isolate(t)

	stdout, _, err := execute(t, "", "cluster")

	require.NoError(t, err)
	assert.Equal(t, "[]\n", stdout)
}

func TestClusterCmd_SaveEmptyInputRefused(t *testing.T) {
	isolate(t)

	_, _, err := execute(t, "", "cluster", "--save")

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeEmptyInput, apperrors.GetCode(err))
}

func TestClusterCmd_Verbose(t *testing.T) {
	isolate(t)

	_, stderr, err := execute(t, "1\n", "cluster", "-v")

	require.NoError(t, err)
	assert.Contains(t, stderr, "threshold: 0.6")
	assert.Contains(t, stderr, "ipv4")
}

func TestClusterCmd_Progress(t *testing.T) {
	// Given: stderr is not a terminal
	isolate(t)

	// When: clustering with progress
	stdout, stderr, err := execute(t, sampleInput, "cluster", "--progress")

	// Then: plain progress goes to stderr and the result is unchanged
	require.NoError(t, err)
	assert.Equal(t, "[0,1,1,0,4,5]\n", stdout)
	assert.Contains(t, stderr, "Clustering <stdin>\n")
	assert.Contains(t, stderr, "[PA] 6/6\n")
	assert.Contains(t, stderr, "[CLUSTER] 6/6\n")
	assert.Contains(t, stderr, "Complete: 6 lines, 4 clusters")
}
