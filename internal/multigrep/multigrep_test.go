package multigrep

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/patclust/internal/patterns"
)

func searchable(t *testing.T, names ...string) []patterns.Pattern {
	t.Helper()
	env, err := patterns.NewEnv(patterns.Catalog(), names)
	require.NoError(t, err)
	return env.Searchable()
}

const dotted = "1.2.3.4 5.6.7.8"

func TestGrep_All(t *testing.T) {
	// Given: int, float and ipv4 patterns
	ps := searchable(t, "int", "float", "ipv4")

	// When: collecting every match
	c := NewAll()
	Grep(dotted, ps, c.Add)

	// Then: each pattern reports all its substrings
	assert.Equal(t, map[string][]string{
		"int":   {"1", "2", "3", "4", "5", "6", "7", "8"},
		"float": {"1", "1.2", "2", "2.3", "3", "3.4", "4", "5", "5.6", "6", "6.7", "7", "7.8", "8"},
		"ipv4":  {"1.2.3.4", "5.6.7.8"},
	}, Matches(dotted, c))
}

func TestGrep_Largest(t *testing.T) {
	ps := searchable(t, "int", "float", "ipv4")

	c := NewLargest()
	Grep(dotted, ps, c.Add)

	assert.Equal(t, map[string][]string{
		"int":   {"1", "2", "3", "4", "5", "6", "7", "8"},
		"float": {"1.2", "2.3", "3.4", "5.6", "6.7", "7.8"},
		"ipv4":  {"1.2.3.4", "5.6.7.8"},
	}, Matches(dotted, c))
}

func TestGrep_Greedy(t *testing.T) {
	ps := searchable(t, "uint")

	c := NewGreedy()
	Grep("12 345", ps, c.Add)

	assert.Equal(t, map[string][]Span{
		"uint": {{0, 2}, {3, 6}},
	}, c.Indices())
}

func TestGrep_CallbackOrder(t *testing.T) {
	ps := searchable(t, "uint")

	var got []Span
	Grep("123", ps, func(name string, j, k int) {
		assert.Equal(t, "uint", name)
		got = append(got, Span{j, k})
	})

	assert.Equal(t, []Span{{0, 1}, {0, 2}, {1, 2}, {0, 3}, {1, 3}, {2, 3}}, got)
}

func TestGrep_EmptyInputs(t *testing.T) {
	called := false
	cb := func(string, int, int) { called = true }

	Grep("", searchable(t, "uint"), cb)
	Grep("123", nil, cb)

	assert.False(t, called)
}

func TestGrepWithDelimiters(t *testing.T) {
	ps := searchable(t, "word", "ipv4", "int", "float", "spaces")
	delims := Delimiters{Separators: []string{"spaces"}}

	tests := []struct {
		line string
		want map[string][]Span
	}{
		{"!222aaa111zzb", map[string][]Span{
			"word": {{0, 13}},
		}},
		{"111  zzz 22yy", map[string][]Span{
			"word":  {{0, 3}, {5, 8}, {9, 13}},
			"int":   {{0, 3}},
			"float": {{0, 3}},
		}},
		{"  111  zzz 22yy  ", map[string][]Span{
			"word":  {{2, 5}, {7, 10}, {11, 15}},
			"int":   {{2, 5}},
			"float": {{2, 5}},
		}},
		{"toto: 3333", map[string][]Span{
			"word":  {{0, 5}, {6, 10}},
			"int":   {{6, 10}},
			"float": {{6, 10}},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			c := NewLargest()
			GrepWithDelimiters(tt.line, ps, c.Add, delims)
			assert.Equal(t, tt.want, c.Indices())
		})
	}
}

func TestGrepWithDelimiters_FreeSides(t *testing.T) {
	// Given: int may end anywhere
	ps := searchable(t, "int", "spaces")
	delims := Delimiters{Separators: []string{"spaces"}, FreeRight: []string{"int"}}

	// When
	c := NewLargest()
	GrepWithDelimiters("22yy 7", ps, c.Add, delims)

	// Then: "22" is kept although "yy" follows it
	assert.Equal(t, map[string][]Span{"int": {{0, 2}, {5, 6}}}, c.Indices())
}

func TestNewCollector(t *testing.T) {
	for _, s := range Strategies {
		c, err := NewCollector(s)
		require.NoError(t, err)
		assert.NotNil(t, c)
	}
	c, err := NewCollector("")
	require.NoError(t, err)
	assert.IsType(t, &Largest{}, c)

	_, err = NewCollector("nope")
	assert.Error(t, err)
}

func TestFormat(t *testing.T) {
	ps := searchable(t, "int", "ipv4")
	c := NewLargest()
	Grep(dotted, ps, c.Add)

	out := Format(dotted, c)

	assert.Equal(t,
		`int   : ["1", "2", "3", "4", "5", "6", "7", "8"]`+"\n"+
			`ipv4  : ["1.2.3.4", "5.6.7.8"]`, out)
}

func TestMergeSorted(t *testing.T) {
	assert.Equal(t, []int{1, 2, 3, 5}, mergeSorted([]int{1, 3}, []int{2, 3, 5}))
	assert.Equal(t, []int{4}, mergeSorted(nil, []int{4}))
	assert.Equal(t, []int{4}, mergeSorted([]int{4}, nil))
}
