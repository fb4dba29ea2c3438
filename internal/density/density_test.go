package density

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Aman-CERP/patclust/internal/automaton"
)

// digitsAndLetters is a 100 symbol alphabet, the size of the printable ASCII set plus whitespace.
var digitsAndLetters = func() []byte {
	var out []byte
	for b := byte(' '); len(out) < 100; b++ {
		out = append(out, b)
	}
	return out
}()

func TestOf_UnsignedIntegers(t *testing.T) {
	// Given: [0-9]+ over a 100 symbol alphabet
	d := automaton.MustCompile(`[0-9]+`)

	// When: computing its density
	got := Of(d, digitsAndLetters, 0, nil)

	// Then: it is the geometric sum of (10/100 * 1/2)^n
	assert.InDelta(t, 1.0/19.0, got, 1e-12)
}

func TestOf_SingleSymbol(t *testing.T) {
	// "a" over a 100 symbol alphabet: one word of length 1
	d := automaton.MustCompile(`a`)
	assert.InDelta(t, 0.5/100, Of(d, digitsAndLetters, 0, nil), 1e-15)
}

func TestOf_EmptyWordCountsSeriesZero(t *testing.T) {
	d := automaton.MustCompile(`a?`)
	assert.InDelta(t, 1.0+0.5/100, Of(d, digitsAndLetters, 0, nil), 1e-12)
}

func TestOf_IgnoresBytesOutsideAlphabet(t *testing.T) {
	d := automaton.MustCompile(`[0-9]+`)
	assert.Equal(t, 0.0, Of(d, []byte("abc"), 0, nil))
}

func TestOf_CustomSeriesAndLength(t *testing.T) {
	d := automaton.MustCompile(`[ab]+`)

	// With a flat series and two lengths, only words of length 1 count.
	got := Of(d, []byte("ab"), 2, func(int) float64 { return 1 })
	assert.InDelta(t, 1.0, got, 1e-12)
}

func TestOf_EmptyAlphabet(t *testing.T) {
	d := automaton.MustCompile(`a`)
	assert.Equal(t, 0.0, Of(d, nil, 0, nil))
}

func TestOf_DenserPatternsScoreHigher(t *testing.T) {
	word := automaton.MustCompile(`\S+`)
	ipv4 := automaton.MustCompile(`(([0-9]{1,3}[.]){3}[0-9]{1,3})`)
	assert.Greater(t, Of(word, digitsAndLetters, 0, nil), Of(ipv4, digitsAndLetters, 0, nil))
}

func TestGeometric(t *testing.T) {
	assert.Equal(t, 1.0, Geometric(0))
	assert.Equal(t, 0.25, Geometric(2))
}
