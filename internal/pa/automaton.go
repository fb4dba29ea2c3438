// Package pa builds pattern automata: the description of a line at the
// pattern level.
//
// The vertices of a pattern automaton are positions in the line. An arc
// j -> k labelled p states that the infix line[j:k] is matched by pattern p.
// Gaps no pattern covers are bridged by "any" arcs, so that every path from 0
// to len(line) is a decomposition of the whole line into patterns.
package pa

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/Aman-CERP/patclust/internal/automaton"
	"github.com/Aman-CERP/patclust/internal/multigrep"
	"github.com/Aman-CERP/patclust/internal/patterns"
)

// Edge is an arc of a pattern automaton.
type Edge struct {
	Source int
	Target int
	Label  string
}

// Options tunes Build.
type Options struct {
	// Strategy selects the multigrep collector. Defaults to largest.
	Strategy multigrep.Strategy
	// Filtered patterns are searched but produce no arc. Their infixes end
	// up covered by "any" arcs.
	Filtered []string
	// Delimiters, when set, only keeps matches surrounded by separators.
	Delimiters *multigrep.Delimiters
}

// Automaton is a pattern automaton. It is immutable once built and safe for
// concurrent use.
type Automaton struct {
	word     string
	labels   []string // label index -> name, shared with the Env
	vertices []int
	edges    []Edge
	// delta[q][k] is the target of the arc leaving q labelled labels[k].
	delta map[int][]int
}

// Build computes the pattern automaton of w. The "any" pattern is never
// searched: it only labels the gaps between matches.
func Build(w string, env *patterns.Env, opts Options) (*Automaton, error) {
	c, err := multigrep.NewCollector(opts.Strategy)
	if err != nil {
		return nil, err
	}
	if opts.Delimiters != nil {
		multigrep.GrepWithDelimiters(w, env.Searchable(), c.Add, *opts.Delimiters)
	} else {
		multigrep.Grep(w, env.Searchable(), c.Add)
	}

	filtered := make(map[string]bool, len(opts.Filtered))
	for _, name := range opts.Filtered {
		filtered[name] = true
	}

	a := &Automaton{
		word:   w,
		labels: env.Names(),
		delta:  make(map[int][]int),
	}

	n := len(w)
	indices := c.Indices()
	names := make([]string, 0, len(indices))
	for name := range indices {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if filtered[name] {
			continue
		}
		for _, s := range indices[name] {
			a.addEdge(s.Start, s.End, env.LabelIndex(name))
		}
	}

	hasSucc := make(map[int]bool)
	hasPred := make(map[int]bool)
	for j, row := range a.delta {
		for _, k := range row {
			if k != automaton.Bottom {
				hasSucc[j] = true
				hasPred[k] = true
			}
		}
	}

	keep := map[int]bool{0: true, n: true}
	for q := range hasSucc {
		keep[q] = true
	}
	for q := range hasPred {
		keep[q] = true
	}
	a.vertices = make([]int, 0, len(keep))
	for q := range keep {
		a.vertices = append(a.vertices, q)
	}
	sort.Ints(a.vertices)

	anyIndex := env.LabelIndex(patterns.Any)
	for i, u := range a.vertices {
		if u != 0 && !hasPred[u] {
			a.addEdge(a.vertices[i-1], u, anyIndex)
		}
		if u != n && !hasSucc[u] {
			a.addEdge(u, a.vertices[i+1], anyIndex)
		}
	}

	a.collectEdges()
	return a, nil
}

// addEdge keeps at most one arc per source and label: the farthest target.
func (a *Automaton) addEdge(j, k, label int) {
	row, ok := a.delta[j]
	if !ok {
		row = make([]int, len(a.labels))
		for i := range row {
			row[i] = automaton.Bottom
		}
		a.delta[j] = row
	}
	if row[label] < k {
		row[label] = k
	}
}

func (a *Automaton) collectEdges() {
	a.edges = a.edges[:0]
	for j, row := range a.delta {
		for label, k := range row {
			if k != automaton.Bottom {
				a.edges = append(a.edges, Edge{Source: j, Target: k, Label: a.labels[label]})
			}
		}
	}
	sort.Slice(a.edges, func(x, y int) bool {
		ex, ey := a.edges[x], a.edges[y]
		if ex.Source != ey.Source {
			return ex.Source < ey.Source
		}
		if ex.Target != ey.Target {
			return ex.Target < ey.Target
		}
		return ex.Label < ey.Label
	})
}

// Word returns the line the automaton describes.
func (a *Automaton) Word() string { return a.word }

// Labels returns the label names indexed like the densities.
func (a *Automaton) Labels() []string { return append([]string(nil), a.labels...) }

// Initial returns the initial vertex (0).
func (a *Automaton) Initial() int { return 0 }

// Final returns the final vertex (len(Word())).
func (a *Automaton) Final() int { return len(a.word) }

// Vertices returns the kept positions, sorted.
func (a *Automaton) Vertices() []int { return append([]int(nil), a.vertices...) }

// NumVertices returns the number of kept positions.
func (a *Automaton) NumVertices() int { return len(a.vertices) }

// NumEdges returns the number of arcs.
func (a *Automaton) NumEdges() int { return len(a.edges) }

// Edges returns the arcs sorted by source, target and label.
func (a *Automaton) Edges() []Edge { return append([]Edge(nil), a.edges...) }

// Delta returns the target of the arc leaving q labelled label, or
// automaton.Bottom.
func (a *Automaton) Delta(q int, label string) int {
	for k, name := range a.labels {
		if name == label {
			return a.DeltaIndex(q, k)
		}
	}
	return automaton.Bottom
}

// DeltaIndex is Delta with the label given by its index.
func (a *Automaton) DeltaIndex(q, k int) int {
	row, ok := a.delta[q]
	if !ok || k < 0 || k >= len(row) {
		return automaton.Bottom
	}
	return row[k]
}

// Slice returns the positions delimiting the infix of e.
func (a *Automaton) Slice(e Edge) (int, int) { return e.Source, e.Target }

// Infix returns the substring of the line carried by e.
func (a *Automaton) Infix(e Edge) string { return a.word[e.Source:e.Target] }

// Equal reports whether a and b describe the same pattern-level language.
// Both automata are explored synchronously from their initial vertex.
func (a *Automaton) Equal(b *Automaton) bool {
	if a.NumVertices() != b.NumVertices() || a.NumEdges() != b.NumEdges() {
		return false
	}
	if !sameLabels(a.labels, b.labels) {
		return false
	}
	type pair struct{ p, q int }
	start := pair{a.Initial(), b.Initial()}
	seen := map[pair]bool{start: true}
	queue := []pair{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if (cur.p == a.Final()) != (cur.q == b.Final()) {
			return false
		}
		for k := range a.labels {
			p, q := a.DeltaIndex(cur.p, k), b.DeltaIndex(cur.q, k)
			if (p == automaton.Bottom) != (q == automaton.Bottom) {
				return false
			}
			if p == automaton.Bottom {
				continue
			}
			next := pair{p, q}
			if !seen[next] {
				seen[next] = true
				queue = append(queue, next)
			}
		}
	}
	return true
}

func sameLabels(x, y []string) bool {
	if len(x) != len(y) {
		return false
	}
	for i := range x {
		if x[i] != y[i] {
			return false
		}
	}
	return true
}

// Signature returns a canonical form of the automaton: vertices are renamed
// in breadth-first order, following labels in order. Automata with the same
// signature are Equal.
func (a *Automaton) Signature() string {
	rank := map[int]int{a.Initial(): 0}
	queue := []int{a.Initial()}
	var sb strings.Builder
	for len(queue) > 0 {
		q := queue[0]
		queue = queue[1:]
		for k, name := range a.labels {
			r := a.DeltaIndex(q, k)
			if r == automaton.Bottom {
				continue
			}
			if _, ok := rank[r]; !ok {
				rank[r] = len(rank)
				queue = append(queue, r)
			}
			sb.WriteString(strconv.Itoa(rank[q]))
			sb.WriteByte('>')
			sb.WriteString(strconv.Itoa(rank[r]))
			sb.WriteByte(':')
			sb.WriteString(name)
			sb.WriteByte(';')
		}
	}
	return sb.String()
}

// String lists the arcs with their infix.
func (a *Automaton) String() string {
	var sb strings.Builder
	for _, e := range a.edges {
		fmt.Fprintf(&sb, "%d -> %d %-8s %q\n", e.Source, e.Target, e.Label, a.Infix(e))
	}
	return sb.String()
}
