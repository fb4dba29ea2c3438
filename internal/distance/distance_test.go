package distance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/patclust/internal/pa"
	"github.com/Aman-CERP/patclust/internal/patterns"
)

func automata(t *testing.T, env *patterns.Env, lines ...string) []*pa.Automaton {
	t.Helper()
	out := make([]*pa.Automaton, len(lines))
	for i, w := range lines {
		a, err := pa.Build(w, env, pa.Options{})
		require.NoError(t, err)
		out[i] = a
	}
	return out
}

func uintEnv(t *testing.T) *patterns.Env {
	t.Helper()
	env, err := patterns.NewEnv(patterns.Catalog(), []string{"uint"})
	require.NoError(t, err)
	return env
}

func TestLCS(t *testing.T) {
	tests := []struct {
		a, b   string
		length int
	}{
		{"abcde", "ace", 3},
		{"", "abc", 0},
		{"abc", "abc", 3},
		{"abc", "def", 0},
		{"192.168.0.1", "10.0.0.1", 6},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.length, LCSLength(tt.a, tt.b), "%q %q", tt.a, tt.b)
		assert.Equal(t, tt.length, LCSLength(tt.b, tt.a))
		assert.Equal(t, len(tt.a)+len(tt.b)-2*tt.length, LCSDistance(tt.a, tt.b))
	}
}

func TestDistance_SamePatternDifferentInfix(t *testing.T) {
	// Given: two numbers
	env := uintEnv(t)
	g := automata(t, env, "1", "2")

	// When
	d := Distance(g[0], g[1], env.Densities(), Infinity)

	// Then: substituting within uint costs the LCS distance weighted by its density
	assert.InDelta(t, 2*env.Density("uint"), d, 1e-12)
	assert.InDelta(t, env.Density("uint"), Normalized(g[0], g[1], env.Densities(), Infinity), 1e-12)
}

func TestDistance_Identical(t *testing.T) {
	env, err := patterns.DefaultEnv()
	require.NoError(t, err)
	w := "0.0.0.0         192.168.0.254   0.0.0.0         UG    600    0        0 wlp2s0"
	g := automata(t, env, w, w)

	assert.Zero(t, Distance(g[0], g[1], env.Densities(), Infinity))
}

func TestDistance_AgainstEmptyLine(t *testing.T) {
	env := uintEnv(t)
	g := automata(t, env, "abc", "")

	assert.Equal(t, 3.0, Distance(g[0], g[1], env.Densities(), Infinity))
	assert.Equal(t, 3.0, Distance(g[1], g[0], env.Densities(), Infinity))
	assert.Equal(t, 1.0, Normalized(g[0], g[1], env.Densities(), Infinity))
}

func TestDistance_BothEmpty(t *testing.T) {
	env := uintEnv(t)
	g := automata(t, env, "", "")

	// The raw distance is 0, but the normalized bound shrinks to 0 too.
	assert.Zero(t, Distance(g[0], g[1], env.Densities(), Infinity))
	assert.Equal(t, float64(Exceeded), Normalized(g[0], g[1], env.Densities(), 0.5))
	assert.Equal(t, float64(Exceeded), Normalized(g[0], g[1], env.Densities(), Infinity))
}

func TestDistance_Exceeded(t *testing.T) {
	env := uintEnv(t)
	g := automata(t, env, "1", "2")

	assert.Equal(t, float64(Exceeded), Distance(g[0], g[1], env.Densities(), 0.01))
	assert.Equal(t, float64(Exceeded), Normalized(g[0], g[1], env.Densities(), 0.01))
}

func TestDistance_Unreachable(t *testing.T) {
	env := uintEnv(t)
	g := automata(t, env, "1", "2")

	// Without densities no arc can be followed.
	assert.Equal(t, float64(Unreachable), Distance(g[0], g[1], nil, Infinity))
}

func TestDistance_Symmetric(t *testing.T) {
	env, err := patterns.DefaultEnv()
	require.NoError(t, err)
	g := automata(t, env,
		"0.0.0.0         192.168.0.254   0.0.0.0         UG    600    0        0 wlp2s0",
		"192.168.0.0     0.0.0.0         255.255.255.0   U     600    0        0 wlp2s0",
		"Oct 10 12:00:01 host sshd[42]: Accepted publickey for root",
	)
	ds := env.Densities()

	d01 := Normalized(g[0], g[1], ds, Infinity)
	d10 := Normalized(g[1], g[0], ds, Infinity)
	d02 := Normalized(g[0], g[2], ds, Infinity)

	assert.InDelta(t, 0.007259624900493844, d01, 1e-15)
	assert.InDelta(t, d01, d10, 1e-15)
	assert.Greater(t, d02, d01)
	assert.LessOrEqual(t, d02, 1.0)
}
