// Package automaton provides byte-level deterministic finite automata built
// from regular expressions.
//
// Pattern matching in patclust needs to advance an automaton one character at a
// time from many start positions at once, so the automata are materialized as
// explicit transition tables rather than hidden behind a matcher.
package automaton

import (
	"fmt"
	"sort"
	"strings"
)

// Bottom is the sink state returned by Delta when no transition exists.
const Bottom = -1

// DFA is a deterministic finite automaton over bytes.
// State 0 is the initial state.
type DFA struct {
	trans  [][256]int32
	finals []bool
}

// NewDFA creates a DFA with n states and no transitions.
func NewDFA(n int) *DFA {
	d := &DFA{}
	for i := 0; i < n; i++ {
		d.AddState()
	}
	return d
}

// AddState appends a state and returns its identifier.
func (d *DFA) AddState() int {
	var row [256]int32
	for i := range row {
		row[i] = Bottom
	}
	d.trans = append(d.trans, row)
	d.finals = append(d.finals, false)
	return len(d.trans) - 1
}

// AddTransition sets q --b--> r, replacing any previous transition on b.
func (d *DFA) AddTransition(q int, b byte, r int) {
	d.trans[q][b] = int32(r)
}

// SetFinal marks or unmarks q as final.
func (d *DFA) SetFinal(q int, final bool) {
	d.finals[q] = final
}

// Initial returns the initial state.
func (d *DFA) Initial() int {
	return 0
}

// Delta returns the state reached from q by reading b, or Bottom.
func (d *DFA) Delta(q int, b byte) int {
	if q < 0 || q >= len(d.trans) {
		return Bottom
	}
	return int(d.trans[q][b])
}

// IsFinal reports whether q is a final state.
func (d *DFA) IsFinal(q int) bool {
	return q >= 0 && q < len(d.finals) && d.finals[q]
}

// NumStates returns the number of states.
func (d *DFA) NumStates() int {
	return len(d.trans)
}

// NumTransitions returns the number of defined transitions.
func (d *DFA) NumTransitions() int {
	n := 0
	for q := range d.trans {
		for _, r := range d.trans[q] {
			if r != Bottom {
				n++
			}
		}
	}
	return n
}

// Accepts reports whether w belongs to the language of d.
func (d *DFA) Accepts(w string) bool {
	q := d.Initial()
	for i := 0; i < len(w); i++ {
		q = d.Delta(q, w[i])
		if q == Bottom {
			return false
		}
	}
	return d.IsFinal(q)
}

// Alphabet returns the sorted bytes carrying at least one transition.
func (d *DFA) Alphabet() []byte {
	var seen [256]bool
	for q := range d.trans {
		for b, r := range d.trans[q] {
			if r != Bottom {
				seen[b] = true
			}
		}
	}
	var out []byte
	for b, ok := range seen {
		if ok {
			out = append(out, byte(b))
		}
	}
	return out
}

// Successors returns the transitions leaving q as a byte -> state map.
func (d *DFA) Successors(q int) map[byte]int {
	out := make(map[byte]int)
	if q < 0 || q >= len(d.trans) {
		return out
	}
	for b, r := range d.trans[q] {
		if r != Bottom {
			out[byte(b)] = int(r)
		}
	}
	return out
}

// String renders the transitions, grouping bytes sharing the same target.
func (d *DFA) String() string {
	var sb strings.Builder
	for q := range d.trans {
		groups := make(map[int32][]byte)
		for b, r := range d.trans[q] {
			if r != Bottom {
				groups[r] = append(groups[r], byte(b))
			}
		}
		targets := make([]int, 0, len(groups))
		for r := range groups {
			targets = append(targets, int(r))
		}
		sort.Ints(targets)
		for _, r := range targets {
			fmt.Fprintf(&sb, "%d --%q--> %d\n", q, string(groups[int32(r)]), r)
		}
		if d.finals[q] {
			fmt.Fprintf(&sb, "%d final\n", q)
		}
	}
	return sb.String()
}

// Any builds a DFA accepting non-empty words over alphabet minus separators.
func Any(alphabet, separators string) *DFA {
	d := NewDFA(2)
	d.SetFinal(1, true)
	for i := 0; i < len(alphabet); i++ {
		b := alphabet[i]
		if strings.IndexByte(separators, b) >= 0 {
			continue
		}
		d.AddTransition(0, b, 1)
		d.AddTransition(1, b, 1)
	}
	return d
}

// Empty builds a DFA accepting no word.
func Empty() *DFA {
	return NewDFA(1)
}
