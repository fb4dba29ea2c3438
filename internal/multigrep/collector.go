package multigrep

import (
	"fmt"
	"sort"
	"strings"
)

// Span delimits the substring w[Start:End].
type Span struct {
	Start int
	End   int
}

// Collector accumulates the matches reported by Grep.
type Collector interface {
	// Add records that w[j:k] is matched by the pattern called name.
	Add(name string, j, k int)
	// Indices returns the retained spans per pattern name, sorted.
	Indices() map[string][]Span
}

// Strategy names a collector.
type Strategy string

const (
	StrategyAll     Strategy = "all"
	StrategyLargest Strategy = "largest"
	StrategyGreedy  Strategy = "greedy"
)

// Strategies lists the known strategies.
var Strategies = []Strategy{StrategyAll, StrategyLargest, StrategyGreedy}

// NewCollector returns an empty collector for s.
func NewCollector(s Strategy) (Collector, error) {
	switch s {
	case StrategyAll:
		return NewAll(), nil
	case StrategyLargest, "":
		return NewLargest(), nil
	case StrategyGreedy:
		return NewGreedy(), nil
	default:
		return nil, fmt.Errorf("unknown grep strategy %q", s)
	}
}

// All keeps every match.
type All struct {
	spans map[string][]Span
}

func NewAll() *All {
	return &All{spans: make(map[string][]Span)}
}

func (c *All) Add(name string, j, k int) {
	c.spans[name] = append(c.spans[name], Span{j, k})
}

func (c *All) Indices() map[string][]Span {
	out := make(map[string][]Span, len(c.spans))
	for name, spans := range c.spans {
		s := append([]Span(nil), spans...)
		sortSpans(s)
		out[name] = s
	}
	return out
}

// Largest keeps, for each pattern and start position, the longest match.
// Among the starts sharing the same longest end, only the leftmost is
// reported.
type Largest struct {
	ends map[string]map[int]int // name -> j -> k
}

func NewLargest() *Largest {
	return &Largest{ends: make(map[string]map[int]int)}
}

func (c *Largest) Add(name string, j, k int) {
	m, ok := c.ends[name]
	if !ok {
		m = make(map[int]int)
		c.ends[name] = m
	}
	// Ends are reported in increasing order.
	m[j] = k
}

func (c *Largest) Indices() map[string][]Span {
	out := make(map[string][]Span, len(c.ends))
	for name, m := range c.ends {
		first := make(map[int]int, len(m)) // k -> smallest j
		for j, k := range m {
			if cur, ok := first[k]; !ok || j < cur {
				first[k] = j
			}
		}
		spans := make([]Span, 0, len(first))
		for k, j := range first {
			spans = append(spans, Span{j, k})
		}
		sortSpans(spans)
		out[name] = spans
	}
	return out
}

// Greedy is like Largest but ignores a match when an earlier start already
// reached the same end.
type Greedy struct {
	Largest
	starts map[string]map[int]int // name -> k -> j
}

func NewGreedy() *Greedy {
	return &Greedy{
		Largest: Largest{ends: make(map[string]map[int]int)},
		starts:  make(map[string]map[int]int),
	}
}

func (c *Greedy) Add(name string, j, k int) {
	m, ok := c.starts[name]
	if !ok {
		m = make(map[int]int)
		c.starts[name] = m
	}
	if cur, ok := m[k]; ok && cur <= j {
		return
	}
	m[k] = j
	c.Largest.Add(name, j, k)
}

func sortSpans(s []Span) {
	sort.Slice(s, func(a, b int) bool {
		if s[a].Start != s[b].Start {
			return s[a].Start < s[b].Start
		}
		return s[a].End < s[b].End
	})
}

// Matches returns, per pattern name, the substrings of w retained by c.
func Matches(w string, c Collector) map[string][]string {
	out := make(map[string][]string)
	for name, spans := range c.Indices() {
		for _, s := range spans {
			out[name] = append(out[name], w[s.Start:s.End])
		}
	}
	return out
}

// Format renders Matches one pattern per line, sorted by name.
func Format(w string, c Collector) string {
	m := Matches(w, c)
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)

	lines := make([]string, 0, len(names))
	for _, name := range names {
		quoted := make([]string, len(m[name]))
		for i, s := range m[name] {
			quoted[i] = fmt.Sprintf("%q", s)
		}
		lines = append(lines, fmt.Sprintf("%-6s: [%s]", name, strings.Join(quoted, ", ")))
	}
	return strings.Join(lines, "\n")
}
