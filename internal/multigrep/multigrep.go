// Package multigrep finds the substrings of a line matched by several
// patterns in a single left-to-right pass.
//
// Each pattern keeps, for every DFA state currently alive, the set of start
// positions that led to it. Reading one byte advances every state of every
// pattern at once, so the whole line is scanned exactly once whatever the
// number of patterns.
package multigrep

import (
	"sort"

	"github.com/Aman-CERP/patclust/internal/automaton"
	"github.com/Aman-CERP/patclust/internal/patterns"
)

// Callback is called whenever w[j:k] is matched by the pattern called name.
type Callback func(name string, j, k int)

// Grep reports every non-empty substring of w matched by one of ps.
// For a given k, callbacks are issued pattern by pattern (in the order of ps)
// and by increasing start position.
func Grep(w string, ps []patterns.Pattern, cb Callback) {
	if len(w) == 0 || len(ps) == 0 {
		return
	}
	runs := make([]run, len(ps))
	for i, p := range ps {
		runs[i] = newRun(p.DFA)
	}
	for k := 0; k < len(w); k++ {
		for i := range runs {
			runs[i].step(w[k], k+1, func(j int) { cb(ps[i].Name, j, k+1) })
		}
	}
}

// run is the state of one pattern during a scan.
type run struct {
	dfa *automaton.DFA
	// starts[q] holds the ascending start positions currently in state q.
	starts map[int][]int
}

func newRun(d *automaton.DFA) run {
	return run{dfa: d, starts: map[int][]int{d.Initial(): {0}}}
}

func (r *run) step(b byte, end int, found func(j int)) {
	states := make([]int, 0, len(r.starts))
	for q := range r.starts {
		states = append(states, q)
	}
	sort.Ints(states)

	next := make(map[int][]int, len(states)+1)
	var finals []int
	for _, q := range states {
		to := r.dfa.Delta(q, b)
		if to == automaton.Bottom {
			continue
		}
		next[to] = mergeSorted(next[to], r.starts[q])
		if r.dfa.IsFinal(to) {
			finals = append(finals, r.starts[q]...)
		}
	}
	sort.Ints(finals)
	for _, j := range finals {
		found(j)
	}

	q0 := r.dfa.Initial()
	next[q0] = append(next[q0], end)
	r.starts = next
}

// mergeSorted merges two ascending slices without duplicates.
func mergeSorted(a, b []int) []int {
	if len(a) == 0 {
		return append([]int(nil), b...)
	}
	out := make([]int, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] < b[j]:
			out = append(out, a[i])
			i++
		case a[i] > b[j]:
			out = append(out, b[j])
			j++
		default:
			out = append(out, a[i])
			i++
			j++
		}
	}
	out = append(out, a[i:]...)
	return append(out, b[j:]...)
}

// Delimiters restricts GrepWithDelimiters to matches surrounded by
// separators.
type Delimiters struct {
	// Separators name the patterns delimiting the other matches. Their own
	// matches are never reported.
	Separators []string
	// FreeLeft names the patterns allowed to start anywhere.
	FreeLeft []string
	// FreeRight names the patterns allowed to end anywhere.
	FreeRight []string
}

// GrepWithDelimiters is like Grep but only reports a match w[j:k] when j is 0
// or the end of a separator match, and k is len(w) or the start of a
// separator match. Separator matches are computed with the Largest strategy.
func GrepWithDelimiters(w string, ps []patterns.Pattern, cb Callback, delims Delimiters) {
	isSep := toSet(delims.Separators)
	freeLeft := toSet(delims.FreeLeft)
	freeRight := toSet(delims.FreeRight)

	var seps []patterns.Pattern
	for _, p := range ps {
		if isSep[p.Name] {
			seps = append(seps, p)
		}
	}
	largest := NewLargest()
	Grep(w, seps, largest.Add)

	starts := map[int]bool{0: true}
	ends := map[int]bool{len(w): true}
	for _, spans := range largest.Indices() {
		for _, s := range spans {
			starts[s.End] = true
			ends[s.Start] = true
		}
	}

	Grep(w, ps, func(name string, j, k int) {
		switch {
		case isSep[name]:
		case !starts[j] && !freeLeft[name]:
		case !ends[k] && !freeRight[name]:
		default:
			cb(name, j, k)
		}
	})
}

func toSet(names []string) map[string]bool {
	out := make(map[string]bool, len(names))
	for _, n := range names {
		out[n] = true
	}
	return out
}
