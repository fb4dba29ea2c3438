package pa

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/patclust/internal/automaton"
	"github.com/Aman-CERP/patclust/internal/multigrep"
	"github.com/Aman-CERP/patclust/internal/patterns"
)

func testEnv(t *testing.T) *patterns.Env {
	t.Helper()
	env, err := patterns.NewEnv(patterns.Catalog(), []string{"float", "int", "ipv4", "spaces", "uint"})
	require.NoError(t, err)
	return env
}

func build(t *testing.T, env *patterns.Env, w string, opts Options) *Automaton {
	t.Helper()
	a, err := Build(w, env, opts)
	require.NoError(t, err)
	return a
}

func TestBuild_Largest(t *testing.T) {
	// Given
	env := testEnv(t)
	w := "11.22.33.44 55.66 789"

	// When
	a := build(t, env, w, Options{})

	// Then
	assert.Equal(t, 0, a.Initial())
	assert.Equal(t, len(w), a.Final())
	assert.Equal(t, 14, a.NumVertices())
	assert.Equal(t, 26, a.NumEdges())
	assert.Equal(t, w, a.Word())
}

func TestBuild_EmptyWord(t *testing.T) {
	a := build(t, testEnv(t), "", Options{})

	assert.Equal(t, 1, a.NumVertices())
	assert.Equal(t, 0, a.NumEdges())
	assert.Equal(t, 0, a.Final())
	assert.Equal(t, "", a.Signature())
}

func TestBuild_NoMatch(t *testing.T) {
	a := build(t, testEnv(t), "abc", Options{})

	assert.Equal(t, []int{0, 3}, a.Vertices())
	assert.Equal(t, []Edge{{Source: 0, Target: 3, Label: patterns.Any}}, a.Edges())
}

func TestBuild_Slices(t *testing.T) {
	env := testEnv(t)
	w := "10   abc  1.2.3.4  de 56.78"
	a := build(t, env, w, Options{})

	labels := map[string]bool{}
	slices := map[[2]int]bool{}
	infixes := map[string]bool{}
	for _, e := range a.Edges() {
		labels[e.Label] = true
		j, k := a.Slice(e)
		slices[[2]int{j, k}] = true
		infixes[a.Infix(e)] = true
	}

	assert.Equal(t, map[string]bool{
		"ipv4": true, "int": true, "float": true, "any": true, "spaces": true, "uint": true,
	}, labels)

	want := [][2]int{
		{0, 2}, {2, 5}, {5, 8}, {8, 10}, {10, 11}, {11, 12}, {12, 13}, {10, 13},
		{13, 14}, {14, 15}, {12, 15}, {15, 16}, {16, 17}, {14, 17}, {17, 19},
		{19, 21}, {21, 22}, {22, 24}, {24, 25}, {25, 27}, {22, 27}, {10, 17},
	}
	expected := map[[2]int]bool{}
	for _, s := range want {
		expected[s] = true
	}
	assert.Equal(t, expected, slices)

	for _, s := range []string{
		"1", "2", "3", "4", "10", "56", "78", ".", "abc", "de", " ", "  ", "   ",
		"1.2.3.4", "1.2", "2.3", "3.4", "56.78",
	} {
		assert.True(t, infixes[s], "missing infix %q", s)
	}
	assert.Len(t, infixes, 18)
}

func TestAutomaton_Delta(t *testing.T) {
	a := build(t, testEnv(t), "1.2.3.4 77", Options{})

	assert.Equal(t, 7, a.Delta(0, "ipv4"))
	assert.Equal(t, 1, a.Delta(0, "uint"))
	assert.Equal(t, 3, a.Delta(0, "float"))
	assert.Equal(t, automaton.Bottom, a.Delta(0, "spaces"))
	assert.Equal(t, automaton.Bottom, a.Delta(0, "nope"))
	assert.Equal(t, automaton.Bottom, a.DeltaIndex(42, 0))
	assert.Equal(t, []string{"any", "float", "int", "ipv4", "spaces", "uint"}, a.Labels())
}

func TestAutomaton_Equal(t *testing.T) {
	env := testEnv(t)
	g1 := build(t, env, "11.22.33.44 55.66 789", Options{})
	g2 := build(t, env, "55.66.77.88 9876 55.44", Options{})
	g3 := build(t, env, "1.2.3.4 77.88 90", Options{})

	assert.False(t, g1.Equal(g2))
	assert.True(t, g1.Equal(g3))
	assert.True(t, g3.Equal(g1))

	assert.Equal(t, g1.Signature(), g3.Signature())
	assert.NotEqual(t, g1.Signature(), g2.Signature())
}

func TestBuild_Filtered(t *testing.T) {
	// Given: spaces are searched but dropped from the arcs
	a := build(t, testEnv(t), "abc 12", Options{Filtered: []string{"spaces"}})

	// Then: the gap before the number becomes an "any" arc
	assert.Equal(t, []int{0, 4, 6}, a.Vertices())
	assert.Equal(t, 4, a.NumEdges())
	assert.Equal(t, 4, a.Delta(0, patterns.Any))
}

func TestBuild_Delimiters(t *testing.T) {
	env, err := patterns.NewEnv(patterns.Catalog(), []string{"int", "spaces"})
	require.NoError(t, err)

	a := build(t, env, "22yy 7", Options{
		Delimiters: &multigrep.Delimiters{Separators: []string{"spaces"}},
	})

	assert.Equal(t, []Edge{
		{Source: 0, Target: 5, Label: patterns.Any},
		{Source: 5, Target: 6, Label: "int"},
	}, a.Edges())
}

func TestBuild_UnknownStrategy(t *testing.T) {
	_, err := Build("x", testEnv(t), Options{Strategy: "nope"})
	assert.Error(t, err)
}

func TestBuild_AllStrategyStaysDeterministic(t *testing.T) {
	a := build(t, testEnv(t), "123", Options{Strategy: multigrep.StrategyAll})

	// One arc per source and label: the farthest match wins.
	for _, e := range a.Edges() {
		assert.Equal(t, e.Target, a.Delta(e.Source, e.Label))
	}
	assert.Equal(t, 3, a.Delta(0, "uint"))
}

func TestShortestPath(t *testing.T) {
	env := testEnv(t)
	a := build(t, env, "abc 12", Options{})

	path, weight := a.ShortestPath(env.Densities())

	assert.Equal(t, []Edge{
		{Source: 0, Target: 3, Label: patterns.Any},
		{Source: 3, Target: 4, Label: "spaces"},
		{Source: 4, Target: 6, Label: "uint"},
	}, path)
	assert.InDelta(t, env.Density(patterns.Any)+env.Density("spaces")+env.Density("uint"), weight, 1e-12)
	assert.Equal(t, "abc<spaces><uint>", a.Template(path))
}

func TestShortestPath_EmptyWord(t *testing.T) {
	env := testEnv(t)
	a := build(t, env, "", Options{})

	path, weight := a.ShortestPath(env.Densities())

	assert.Empty(t, path)
	assert.Zero(t, weight)
	assert.Equal(t, "", a.Template(path))
}

func TestString(t *testing.T) {
	a := build(t, testEnv(t), "ab 1", Options{})

	assert.Equal(t,
		"0 -> 2 any      \"ab\"\n"+
			"2 -> 3 spaces   \" \"\n"+
			"3 -> 4 float    \"1\"\n"+
			"3 -> 4 int      \"1\"\n"+
			"3 -> 4 uint     \"1\"\n", a.String())
}
