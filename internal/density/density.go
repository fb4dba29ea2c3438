// Package density computes the language density of an automaton: the weighted
// share of all words over an alphabet that the automaton accepts.
//
// Dense patterns (like "any") match almost everything and are cheap to
// substitute for one another; sparse patterns (like "ipv4") carry more
// information. Pattern distances weight their edit costs by these densities.
package density

import (
	"github.com/Aman-CERP/patclust/internal/automaton"
)

// DefaultMaxLength is the number of word lengths taken into account.
const DefaultMaxLength = 30

// Series returns the coefficient applied to words of length n.
type Series func(n int) float64

// Geometric is the default series: 1 / 2^n.
func Geometric(n int) float64 {
	x := 1.0
	for i := 0; i < n; i++ {
		x /= 2
	}
	return x
}

// Of returns the language density of d over alphabet, in [0, 1].
// Only transitions labelled by alphabet bytes are followed. nMax <= 0 selects
// DefaultMaxLength and a nil series selects Geometric.
func Of(d *automaton.DFA, alphabet []byte, nMax int, series Series) float64 {
	if nMax <= 0 {
		nMax = DefaultMaxLength
	}
	if series == nil {
		series = Geometric
	}
	if len(alphabet) == 0 || d.NumStates() == 0 {
		return 0
	}

	var inAlphabet [256]bool
	for _, b := range alphabet {
		inAlphabet[b] = true
	}
	size := float64(len(alphabet))

	// paths[q] is the number of words of the current length leading to q.
	paths := make([]float64, d.NumStates())
	q0 := d.Initial()
	paths[q0] = series(0)

	result := 0.0
	if d.IsFinal(q0) {
		result = paths[q0]
	}
	scale := 1.0
	for n := 1; n < nMax; n++ {
		scale /= size
		next := make([]float64, d.NumStates())
		for q, m := range paths {
			if m == 0 {
				continue
			}
			for b := 0; b < 256; b++ {
				if !inAlphabet[b] {
					continue
				}
				r := d.Delta(q, byte(b))
				if r == automaton.Bottom {
					continue
				}
				if d.IsFinal(r) {
					result += series(n) * m * scale
				}
				next[r] += m
			}
		}
		paths = next
	}
	return result
}
