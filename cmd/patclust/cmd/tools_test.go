package cmd

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Aman-CERP/patclust/internal/errors"
)

func TestDistanceCmd(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"raw", []string{"distance", "abc", ""}, "3\n"},
		{"normalized", []string{"distance", "-n", "abc", ""}, "1\n"},
		{"identical", []string{"distance", "a 1", "a 1"}, "0\n"},
		{"both empty", []string{"distance", "", ""}, "0\n"},
		{"both empty normalized", []string{"distance", "-n", "", ""}, "-1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)

			stdout, _, err := execute(t, "", tt.args...)

			require.NoError(t, err)
			assert.Equal(t, tt.want, stdout)
		})
	}
}

func TestDistanceCmd_RoutingTableLines(t *testing.T) {
	// Given: two routing table entries separated by runs of blanks
	isolate(t)
	w1 := "0.0.0.0         192.168.0.254   0.0.0.0         UG    600    0        0 wlp2s0"
	w2 := "192.168.0.0     0.0.0.0         255.255.255.0   U     600    0        0 wlp2s0"

	// When
	stdout, _, err := execute(t, "", "distance", "-n", w1, w2)

	// Then
	require.NoError(t, err)
	got, err := strconv.ParseFloat(strings.TrimSpace(stdout), 64)
	require.NoError(t, err)
	assert.InDelta(t, 0.007259624900493844, got, 1e-15)
}

func TestDistanceCmd_RequiresTwoArgs(t *testing.T) {
	isolate(t)

	_, _, err := execute(t, "", "distance", "only-one")

	assert.Error(t, err)
}

func TestGrepCmd(t *testing.T) {
	// Given: a line holding a word and a number
	isolate(t)

	// When
	stdout, _, err := execute(t, "", "grep", "abc 12")

	// Then: each pattern prints its matches
	require.NoError(t, err)
	assert.Contains(t, stdout, `"12"`)
	assert.Contains(t, stdout, `"abc"`)
	assert.Contains(t, stdout, "uint")
}

func TestGrepCmd_HelpDescribesStrategies(t *testing.T) {
	isolate(t)

	stdout, _, err := execute(t, "", "grep", "--help")

	require.NoError(t, err)
	assert.Contains(t, stdout, "earlier\n           start already reached its end")
	assert.NotContains(t, stdout, "non-overlapping")
}

func TestGrepCmd_Separators(t *testing.T) {
	isolate(t)

	stdout, _, err := execute(t, "", "grep", "--separators", "spaces", "x 12")

	require.NoError(t, err)
	assert.NotContains(t, stdout, "spaces")
	assert.Contains(t, stdout, `"12"`)
}

func TestGrepCmd_UnknownStrategy(t *testing.T) {
	isolate(t)

	_, _, err := execute(t, "", "grep", "--strategy", "best", "x")

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeInvalidInput, apperrors.GetCode(err))
}

func TestGrepCmd_UnknownSeparator(t *testing.T) {
	isolate(t)

	_, _, err := execute(t, "", "grep", "--separators", "commas", "x")

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeUnknownPattern, apperrors.GetCode(err))
}

func TestExplainCmd(t *testing.T) {
	isolate(t)

	stdout, _, err := execute(t, "", "explain", "abc 12")

	require.NoError(t, err)
	assert.Contains(t, stdout, "vertices: [0")
	assert.Contains(t, stdout, "0 -> 3")
	assert.Contains(t, stdout, "template: ")
	assert.Contains(t, stdout, "cost: ")
}

func TestExplainCmd_EmptyLine(t *testing.T) {
	isolate(t)

	stdout, _, err := execute(t, "", "explain", "")

	require.NoError(t, err)
	assert.Contains(t, stdout, "template: \n")
}

func TestPatternsCmd(t *testing.T) {
	isolate(t)

	stdout, _, err := execute(t, "", "patterns")

	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(stdout, "\n"), "\n")
	assert.True(t, strings.HasPrefix(lines[0], "NAME"))
	assert.Len(t, lines, 9, "header plus the eight default patterns")
	assert.Contains(t, stdout, "ipv4")
}

func TestPatternsCmd_Densities(t *testing.T) {
	isolate(t)

	stdout, _, err := execute(t, "", "patterns", "--densities")

	require.NoError(t, err)
	assert.Contains(t, stdout, "DENSITY")
}

func TestPatternsCmd_Inclusions(t *testing.T) {
	isolate(t)

	stdout, _, err := execute(t, "", "patterns", "--inclusions")

	require.NoError(t, err)
	assert.Contains(t, stdout, "INCLUDED IN")
	assert.Contains(t, stdout, "uint")
}

func TestPatternsCmd_EnvSelection(t *testing.T) {
	isolate(t)
	t.Setenv("PATCLUST_PATTERNS", "uint")

	stdout, _, err := execute(t, "", "patterns")

	require.NoError(t, err)
	assert.Contains(t, stdout, "uint")
	assert.NotContains(t, stdout, "ipv4")
}

func TestPatternsCmd_UnknownPattern(t *testing.T) {
	isolate(t)
	t.Setenv("PATCLUST_PATTERNS", "nope")

	_, _, err := execute(t, "", "patterns")

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeUnknownPattern, apperrors.GetCode(err))
}
